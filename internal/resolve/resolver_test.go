package resolve

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers every Ask with a fixed category and records how
// often it was consulted.
type scriptedPrompter struct {
	answer string

	mu    sync.Mutex
	asks  int
	seen  []string
	lastC []string
}

func (p *scriptedPrompter) Ask(description string, choices []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asks++
	p.seen = append(p.seen, description)
	p.lastC = choices
	return p.answer, nil
}

func TestKeywordMatchIsCaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	r := New(map[string]string{"UBER": "Transportation"}, []string{"Transportation"}, nil)

	category, ok := r.KeywordMatch("uber eats pending 0423")
	require.True(t, ok)
	require.Equal(t, "Transportation", category)

	_, ok = r.KeywordMatch("LYFT RIDE")
	require.False(t, ok)
}

func TestResolveKeywordBeatsMemoAndPrompt(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answer: "Groceries"}
	r := New(map[string]string{"UBER": "Transportation"}, []string{"Transportation", "Groceries"}, p)

	category, intervened, err := r.Resolve("UBER EATS")
	require.NoError(t, err)
	require.False(t, intervened)
	require.Equal(t, "Transportation", category)
	require.Equal(t, 0, p.asks, "keyword hit must never prompt")
}

func TestResolveMemoizesPromptAnswers(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answer: "Groceries"}
	r := New(nil, []string{"Groceries", "Transportation"}, p)

	category, intervened, err := r.Resolve("TRADER JOES #512")
	require.NoError(t, err)
	require.True(t, intervened)
	require.Equal(t, "Groceries", category)
	require.Equal(t, 1, p.asks)

	// Same description again in the same session: the memo answers.
	category, intervened, err = r.Resolve("TRADER JOES #512")
	require.NoError(t, err)
	require.False(t, intervened)
	require.Equal(t, "Groceries", category)
	require.Equal(t, 1, p.asks)

	// A different description prompts again.
	_, _, err = r.Resolve("TRADER JOES #600")
	require.NoError(t, err)
	require.Equal(t, 2, p.asks)
}

func TestResolveChoicesEndWithNewCategoryAndExclude(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answer: Exclude}
	r := New(nil, []string{"Zoo", "Groceries", Exclude}, p)

	category, intervened, err := r.Resolve("MYSTERY VENDOR")
	require.NoError(t, err)
	require.True(t, intervened)
	require.Equal(t, Exclude, category)
	require.Equal(t, []string{"Groceries", "Zoo", NewCategoryOption, Exclude}, p.lastC)
}

func TestResolveNilPrompterExcludes(t *testing.T) {
	t.Parallel()

	r := New(nil, []string{"Groceries"}, nil)
	category, intervened, err := r.Resolve("MYSTERY VENDOR")
	require.NoError(t, err)
	require.False(t, intervened)
	require.Equal(t, Exclude, category)
}

func TestResolveSerializesPrompts(t *testing.T) {
	t.Parallel()

	p := &scriptedPrompter{answer: "Groceries"}
	r := New(nil, []string{"Groceries"}, p)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := r.Resolve("TRADER JOES #512")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, p.asks, "concurrent duplicates must collapse into one prompt")
}
