package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphchat/pkg/engine"
	"graphchat/pkg/modes"
)

// countingEngine is a test double that counts invocations per entry point.
type countingEngine struct {
	mu      sync.Mutex
	calls   map[string]int
	result  *engine.Result
	err     error
	blockOn chan struct{}
}

func newCountingEngine() *countingEngine {
	return &countingEngine{
		calls:  make(map[string]int),
		result: &engine.Result{Answer: "an answer"},
	}
}

func (c *countingEngine) search(ctx context.Context, method string) (*engine.Result, error) {
	c.mu.Lock()
	c.calls[method]++
	c.mu.Unlock()
	if c.blockOn != nil {
		select {
		case <-c.blockOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *countingEngine) GlobalSearch(ctx context.Context, _ string) (*engine.Result, error) {
	return c.search(ctx, "global")
}
func (c *countingEngine) LocalSearch(ctx context.Context, _ string) (*engine.Result, error) {
	return c.search(ctx, "local")
}
func (c *countingEngine) BasicSearch(ctx context.Context, _ string) (*engine.Result, error) {
	return c.search(ctx, "basic")
}

func (c *countingEngine) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func TestDispatchSuccessPerMode(t *testing.T) {
	for _, mode := range []modes.Mode{modes.Global, modes.Local, modes.Basic} {
		t.Run(string(mode), func(t *testing.T) {
			eng := newCountingEngine()
			d := New(eng, Config{}, nil)

			resp := d.Dispatch(context.Background(), Request{
				Question: "What is the First Home Scheme?",
				Mode:     mode,
			})

			require.True(t, resp.Succeeded)
			assert.Equal(t, "an answer", resp.Answer)
			assert.Empty(t, resp.ErrorMessage)
			assert.Equal(t, FailureNone, resp.FailureKind)
			assert.Equal(t, 1, eng.calls[string(mode)], "exactly one call to the bound entry point")
			assert.Equal(t, 1, eng.total(), "no calls to other entry points")
		})
	}
}

func TestDispatchAnswerIsVerbatim(t *testing.T) {
	eng := newCountingEngine()
	eng.result = &engine.Result{Answer: "The First Home Scheme is a shared equity scheme."}
	d := New(eng, Config{}, nil)

	resp := d.Dispatch(context.Background(), Request{
		Question: "What is the First Home Scheme?",
		Mode:     modes.Basic,
	})

	require.True(t, resp.Succeeded)
	assert.Equal(t, "The First Home Scheme is a shared equity scheme.", resp.Answer)
}

func TestDispatchRejectsEmptyQuestionWithoutEngineCall(t *testing.T) {
	for _, question := range []string{"", "   ", "\n\t "} {
		eng := newCountingEngine()
		d := New(eng, Config{}, nil)

		resp := d.Dispatch(context.Background(), Request{Question: question, Mode: modes.Global})

		assert.False(t, resp.Succeeded)
		assert.Equal(t, FailureValidation, resp.FailureKind)
		assert.NotEmpty(t, resp.ErrorMessage)
		assert.Empty(t, resp.Answer)
		assert.Zero(t, eng.total(), "validation failures must not reach the engine")
	}
}

func TestDispatchRejectsUnknownModeWithoutEngineCall(t *testing.T) {
	eng := newCountingEngine()
	d := New(eng, Config{}, nil)

	resp := d.Dispatch(context.Background(), Request{Question: "a question", Mode: modes.Mode("drift")})

	assert.False(t, resp.Succeeded)
	assert.Equal(t, FailureValidation, resp.FailureKind)
	assert.Zero(t, eng.total())
}

func TestDispatchEngineFailure(t *testing.T) {
	eng := newCountingEngine()
	eng.err = errors.New("graph traversal exploded")
	d := New(eng, Config{}, nil)

	resp := d.Dispatch(context.Background(), Request{Question: "a question", Mode: modes.Local})

	assert.False(t, resp.Succeeded)
	assert.Equal(t, FailureEngine, resp.FailureKind)
	assert.NotEmpty(t, resp.ErrorMessage)
	assert.Empty(t, resp.Answer)
	assert.NotContains(t, resp.ErrorMessage, "exploded", "raw detail must not reach users")
}

func TestDispatchTimeoutClassification(t *testing.T) {
	eng := newCountingEngine()
	eng.blockOn = make(chan struct{}) // never closed
	d := New(eng, Config{Timeout: 30 * time.Millisecond}, nil)

	resp := d.Dispatch(context.Background(), Request{Question: "slow question", Mode: modes.Global})

	assert.False(t, resp.Succeeded)
	assert.Equal(t, FailureTimeout, resp.FailureKind)
	assert.Contains(t, resp.ErrorMessage, "timed out")
}

func TestDispatchEmptyEngineAnswerIsFailure(t *testing.T) {
	eng := newCountingEngine()
	eng.result = &engine.Result{Answer: "   "}
	d := New(eng, Config{}, nil)

	resp := d.Dispatch(context.Background(), Request{Question: "a question", Mode: modes.Basic})

	assert.False(t, resp.Succeeded)
	assert.Equal(t, FailureEngine, resp.FailureKind)
	assert.NotEmpty(t, resp.ErrorMessage)
}

func TestDispatchEnvelopeInvariant(t *testing.T) {
	// For any outcome: exactly one of answer/error present.
	outcomes := []struct {
		name string
		eng  *countingEngine
	}{
		{"success", newCountingEngine()},
		{"failure", func() *countingEngine {
			e := newCountingEngine()
			e.err = errors.New("boom")
			return e
		}()},
	}

	for _, tc := range outcomes {
		t.Run(tc.name, func(t *testing.T) {
			d := New(tc.eng, Config{}, nil)
			resp := d.Dispatch(context.Background(), Request{Question: "q", Mode: modes.Global})

			if resp.Succeeded {
				assert.NotEmpty(t, resp.Answer)
				assert.Empty(t, resp.ErrorMessage)
			} else {
				assert.Empty(t, resp.Answer)
				assert.NotEmpty(t, resp.ErrorMessage)
			}
		})
	}
}

func TestSafeMessageClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("openai: invalid api key"), "API key"},
		{fmt.Errorf("status 401 unauthorized"), "API key"},
		{fmt.Errorf("read entities.parquet: no such file"), "data files"},
		{fmt.Errorf("%w: connect refused", engine.ErrUnavailable), "unreachable"},
		{errors.New("something else entirely"), "try again"},
	}

	for _, tc := range cases {
		got := safeMessage(FailureEngine, tc.err, 0)
		assert.Contains(t, got, tc.want, "error %v", tc.err)
	}
}

func TestNormalizeContext(t *testing.T) {
	for _, raw := range []string{"", "  ", "{}", "[]", "None", "No context data available"} {
		assert.Nil(t, normalizeContext(raw), "raw=%q", raw)
	}

	ctxVal := normalizeContext(`  {"reports": 3} `)
	require.NotNil(t, ctxVal)
	assert.Equal(t, `{"reports": 3}`, *ctxVal)
}

func TestDispatchConcurrentSessions(t *testing.T) {
	eng := newCountingEngine()
	d := New(eng, Config{}, nil)

	done := make(chan Response, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			done <- d.Dispatch(context.Background(), Request{
				Question: fmt.Sprintf("question %d", i),
				Mode:     modes.Global,
			})
		}(i)
	}

	for i := 0; i < 20; i++ {
		resp := <-done
		assert.True(t, resp.Succeeded)
	}
}
