package manifest

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/Sumatoshi-tech/reqpin/pkg/pkgname"
)

// Strategy selects how import names are compared with listing lines.
type Strategy string

// Matching strategies.
const (
	// StrategyExact looks the whole normalized name up in the Index.
	StrategyExact Strategy = "exact"
	// StrategySubstring takes the first listing line whose normalized form
	// contains the normalized name and that has at least two fields.
	StrategySubstring Strategy = "substring"
)

// DefaultSuggestions is the number of close names reported per unmatched name.
const DefaultSuggestions = 3

// ErrUnknownStrategy is returned by ParseStrategy for unsupported values.
var ErrUnknownStrategy = errors.New("unknown match strategy")

// ParseStrategy validates a strategy name. Empty means StrategyExact.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyExact:
		return StrategyExact, nil
	case StrategySubstring:
		return StrategySubstring, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Strategies lists the supported strategy names.
func Strategies() []string {
	return []string{string(StrategyExact), string(StrategySubstring)}
}

// Unmatched is an import name with no installed package.
type Unmatched struct {
	Name        string   `json:"name"                  yaml:"name"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// Result is the outcome of matching a set of names.
type Result struct {
	Entries   []Entry     `json:"entries"   yaml:"entries"`
	Unmatched []Unmatched `json:"unmatched" yaml:"unmatched"`
}

// Matcher resolves import names to installed versions.
type Matcher struct {
	index       *Index
	strategy    Strategy
	suggestions int
	keys        []string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithStrategy sets the matching strategy.
func WithStrategy(s Strategy) MatcherOption {
	return func(m *Matcher) {
		m.strategy = s
	}
}

// WithSuggestions sets how many close names are reported for an unmatched
// name. Zero disables suggestions.
func WithSuggestions(n int) MatcherOption {
	return func(m *Matcher) {
		m.suggestions = max(n, 0)
	}
}

// NewMatcher creates a Matcher over idx.
func NewMatcher(idx *Index, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		index:       idx,
		strategy:    StrategyExact,
		suggestions: DefaultSuggestions,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.keys = make([]string, 0, idx.Len())
	for _, pkg := range idx.Packages() {
		m.keys = append(m.keys, pkgname.Normalize(pkg.Name))
	}

	return m
}

// Match resolves every distinct name once, in sorted order. Each name yields
// either one Entry or one Unmatched.
func (m *Matcher) Match(names []string) Result {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	result := Result{
		Entries:   make([]Entry, 0, len(sorted)),
		Unmatched: []Unmatched{},
	}

	for _, name := range sorted {
		if name == "" {
			continue
		}

		version, ok := m.resolve(name)
		if ok {
			result.Entries = append(result.Entries, Entry{Name: name, Version: version})

			continue
		}

		result.Unmatched = append(result.Unmatched, Unmatched{Name: name, Suggestions: m.suggest(name)})
	}

	return result
}

func (m *Matcher) resolve(name string) (string, bool) {
	if m.strategy == StrategySubstring {
		return m.scanLines(name)
	}

	if pkg, ok := m.index.Lookup(name); ok {
		return pkg.Version, true
	}

	return "", false
}

// scanLines walks the raw listing in order. Lines with fewer than two
// fields do not stop the scan.
func (m *Matcher) scanLines(name string) (string, bool) {
	key := pkgname.Normalize(name)

	for _, line := range m.index.Lines() {
		if !strings.Contains(pkgname.Normalize(line), key) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= minListingTokens {
			return fields[1], true
		}
	}

	return "", false
}

// suggest lists installed packages close to name. The package owning the
// first segment of a dotted name comes first; it is never pinned under the
// dotted name itself.
func (m *Matcher) suggest(name string) []string {
	if m.suggestions == 0 || len(m.keys) == 0 {
		return nil
	}

	var out []string

	if head, _, dotted := strings.Cut(name, "."); dotted && head != "" {
		if pkg, ok := m.index.Lookup(head); ok {
			out = append(out, pkg.Name)
		}
	}

	key := pkgname.Normalize(name)
	if key == "" {
		return out
	}

	packages := m.index.Packages()

	for _, match := range fuzzy.Find(key, m.keys) {
		if len(out) == m.suggestions {
			break
		}

		candidate := packages[match.Index].Name
		if !slices.Contains(out, candidate) {
			out = append(out, candidate)
		}
	}

	return out
}
