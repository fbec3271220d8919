// Package transcript keeps per-session conversation history. The store is
// append-only: entries are never edited in place, and reset is the only way
// to discard them.
package transcript

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one turn in a session's conversation history.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Mode      string    `json:"mode,omitempty"`
	Text      string    `json:"text"`
	Context   string    `json:"context,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry stamps an entry with an ID and creation time.
func NewEntry(role Role, mode, text string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Mode:      mode,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists session transcripts. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append adds entries to the end of a session's transcript.
	Append(ctx context.Context, sessionID string, entries ...Entry) error
	// All returns the session's entries in append order. An unknown
	// session yields an empty slice, not an error.
	All(ctx context.Context, sessionID string) ([]Entry, error)
	// Reset discards the session's transcript. Resetting an unknown
	// session is a no-op.
	Reset(ctx context.Context, sessionID string) error
}
