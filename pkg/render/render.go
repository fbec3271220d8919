// Package render converts dispatch response envelopes into display-ready
// blocks. All transforms are pure text operations: rendering the same
// response twice yields identical blocks, and malformed input degrades to
// literal text instead of failing.
package render

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"graphchat/pkg/config"
	"graphchat/pkg/dispatch"
)

// Block is the rendered, UI-ready representation of one response,
// independent of any presentation technology.
type Block struct {
	// Answer holds the formatted answer markdown. Empty on error.
	Answer string
	// Context holds the fenced supporting-context block, nil when the
	// response carried nothing worth showing. Rendered collapsed.
	Context *string
	// IsError marks a visually distinct error block.
	IsError bool
	// ErrorText carries the user-safe failure message. Empty on success.
	ErrorText string
}

// Renderer formats responses using configured key terms and limits.
type Renderer struct {
	keyTerms        []*regexp.Regexp
	maxContextChars int
}

var (
	bulletRe  = regexp.MustCompile(`(?m)^[•·\-\*]\s+`)
	spacingRe = regexp.MustCompile(`\n\n+`)
)

// New creates a Renderer from config.
func New(cfg config.RenderConfig) *Renderer {
	maxChars := cfg.MaxContextChars
	if maxChars <= 0 {
		maxChars = 1000
	}

	terms := make([]*regexp.Regexp, 0, len(cfg.KeyTerms))
	for _, term := range cfg.KeyTerms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		// Matching optional surrounding markers keeps the transform
		// idempotent: already-bolded terms are rewritten in place.
		terms = append(terms, regexp.MustCompile(`(?i)(\*\*)?\b(`+regexp.QuoteMeta(term)+`)\b(\*\*)?`))
	}

	return &Renderer{
		keyTerms:        terms,
		maxContextChars: maxChars,
	}
}

// Render converts a response envelope into a display block. It never
// returns an error and never panics on malformed content.
func (r *Renderer) Render(resp dispatch.Response) Block {
	if !resp.Succeeded {
		return Block{
			IsError:   true,
			ErrorText: resp.ErrorMessage,
		}
	}

	block := Block{Answer: r.formatAnswer(resp.Answer)}
	if resp.Context != nil {
		formatted := r.formatContext(*resp.Context)
		block.Context = &formatted
	}
	return block
}

// formatAnswer normalizes bullets and spacing, bolds configured key terms,
// and groups long sentence runs into paragraphs.
func (r *Renderer) formatAnswer(answer string) string {
	formatted := strings.TrimSpace(answer)
	formatted = bulletRe.ReplaceAllString(formatted, "- ")
	formatted = spacingRe.ReplaceAllString(formatted, "\n\n")

	for _, re := range r.keyTerms {
		formatted = re.ReplaceAllString(formatted, "**${2}**")
	}

	return groupParagraphs(formatted)
}

// groupParagraphs splits runs of more than three sentences into
// three-sentence paragraphs. Text that already has paragraph breaks or
// bullet lists is left alone.
func groupParagraphs(text string) string {
	if strings.Contains(text, "\n") {
		return text
	}
	sentences := strings.Split(text, ". ")
	if len(sentences) <= 3 {
		return text
	}

	var paragraphs []string
	var current []string
	for i, sentence := range sentences {
		current = append(current, sentence)
		if len(current) == 3 && i != len(sentences)-1 {
			paragraphs = append(paragraphs, strings.Join(current, ". ")+".")
			current = nil
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, ". "))
	}
	return strings.Join(paragraphs, "\n\n")
}

// formatContext fences the supporting context for display, pretty-printing
// JSON-ish payloads. Near-JSON (single quotes, trailing commas, Python
// reprs) is repaired before parsing; anything unparseable is fenced raw.
func (r *Renderer) formatContext(raw string) string {
	body, isJSON := prettyJSON(raw)
	if len(body) > r.maxContextChars {
		body = body[:r.maxContextChars] + "... (truncated)"
	}
	if isJSON {
		return "```json\n" + body + "\n```"
	}
	return "```\n" + body + "\n```"
}

// prettyJSON attempts to pretty-print raw as JSON, repairing it first when
// it merely looks like JSON. Returns the original text on failure.
func prettyJSON(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return trimmed, false
	}

	candidate := trimmed
	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		repaired, repErr := jsonrepair.JSONRepair(candidate)
		if repErr != nil {
			return trimmed, false
		}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return trimmed, false
		}
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return trimmed, false
	}
	return string(pretty), true
}

var strongRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// HTML projects the block into an HTML fragment for the web-facing
// variant: balanced **spans** become <strong>, newlines become <br>, and
// context renders as an initially-collapsed details section. Unbalanced
// emphasis markup is left literal.
func (b Block) HTML() string {
	if b.IsError {
		return `<div class="chat-error">` + html.EscapeString(b.ErrorText) + `</div>`
	}

	var sb strings.Builder
	sb.WriteString(`<div class="chat-answer">`)
	sb.WriteString(emphasisToHTML(b.Answer))
	sb.WriteString(`</div>`)

	if b.Context != nil {
		sb.WriteString(`<details class="chat-context"><summary>Context Information</summary><pre>`)
		sb.WriteString(html.EscapeString(stripFences(*b.Context)))
		sb.WriteString(`</pre></details>`)
	}
	return sb.String()
}

// emphasisToHTML converts balanced bold spans and line breaks. The text is
// escaped first so engine output can never inject markup.
func emphasisToHTML(text string) string {
	escaped := html.EscapeString(text)
	if strings.Count(escaped, "**")%2 == 0 {
		escaped = strongRe.ReplaceAllString(escaped, "<strong>${1}</strong>")
	}
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// stripFences removes the display fences added by formatContext.
func stripFences(s string) string {
	s = strings.TrimPrefix(s, "```json\n")
	s = strings.TrimPrefix(s, "```\n")
	s = strings.TrimSuffix(s, "\n```")
	return s
}

// Summary returns a short single-line description of the block, used in
// transcript logging.
func (b Block) Summary() string {
	if b.IsError {
		return fmt.Sprintf("error: %s", b.ErrorText)
	}
	line := b.Answer
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return line
}
