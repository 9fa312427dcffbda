// Package resolve assigns spending categories to transaction descriptions
// through layered matching: keyword map, session memo, then an interactive
// prompt.
package resolve

import (
	"sort"
	"strings"
	"sync"
)

// Exclude is the sentinel category returned when the operator excludes a
// transaction. Callers translate it into a NULL category, never a deleted
// row.
const Exclude = "EXCLUDE"

// NewCategoryOption is the prompt answer meaning "enter a new category".
const NewCategoryOption = "Enter a new category"

// Prompter asks the operator to pick a category for a description. Choices
// always end with the new-category and exclude options. Implementations own
// the terminal; the resolver guarantees only one Ask is in flight at a time.
type Prompter interface {
	Ask(description string, choices []string) (string, error)
}

// Resolver resolves descriptions to categories. The keyword map is immutable
// after construction, so keyword hits are lock-free; the session memo and
// the prompter share one mutex.
type Resolver struct {
	keywords   map[string]string
	categories []string

	mu   sync.Mutex
	memo map[string]string

	prompter Prompter
}

// New builds a resolver over a keyword map and the known category
// vocabulary. prompter may be nil when no interactive fallback is available;
// unresolved descriptions then resolve to Exclude.
func New(keywords map[string]string, categories []string, prompter Prompter) *Resolver {
	sorted := make([]string, 0, len(categories))
	for _, c := range categories {
		if c != Exclude {
			sorted = append(sorted, c)
		}
	}
	sort.Strings(sorted)
	return &Resolver{
		keywords:   keywords,
		categories: sorted,
		memo:       make(map[string]string),
		prompter:   prompter,
	}
}

// KeywordMatch returns the mapped category of the first keyword contained in
// description, case-insensitive.
func (r *Resolver) KeywordMatch(description string) (string, bool) {
	lowered := strings.ToLower(description)
	for keyword, category := range r.keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return category, true
		}
	}
	return "", false
}

// Resolve returns the category for description and whether the operator was
// consulted. Keyword matches always win; otherwise an earlier answer for the
// exact same description is reused; otherwise the operator is prompted and
// the answer memoized for the rest of the run.
func (r *Resolver) Resolve(description string) (category string, userIntervened bool, err error) {
	if category, ok := r.KeywordMatch(description); ok {
		return category, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if category, ok := r.memo[description]; ok {
		return category, false, nil
	}

	if r.prompter == nil {
		return Exclude, false, nil
	}

	choices := make([]string, 0, len(r.categories)+2)
	choices = append(choices, r.categories...)
	choices = append(choices, NewCategoryOption, Exclude)
	answer, err := r.prompter.Ask(description, choices)
	if err != nil {
		return "", false, err
	}
	r.memo[description] = answer
	return answer, true, nil
}
