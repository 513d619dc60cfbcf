// Package matching locates replaceable regions in HTML markup.
//
// Every strategy works on raw text with case-insensitive regular expressions.
// Nothing is parsed into a tree: spans are chosen with first-match,
// non-greedy semantics, so unusual nesting in a template can select a shorter
// or longer span than intended.
package matching

// space matches one whitespace character: ASCII whitespace, vertical tab,
// the information separators, NEL and the Unicode space and line separators
// (no-break space included).
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// Result is the outcome of one matcher attempt against one document.
type Result struct {
	Document string
	Found    bool
}

// Matcher locates one region in a document and swaps in replacement text.
// Anchors (marker names, heading text) are carried by the matcher value.
type Matcher interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// Attempt replaces the first matching region. When nothing matches the
	// document is returned unchanged with Found set to false.
	Attempt(document, replacement string) Result
}

// Chain is an ordered list of matchers tried until one succeeds.
type Chain []Matcher

// Attempt runs the matchers in order and stops at the first success.
// The returned name is empty when no matcher found its region.
func (c Chain) Attempt(document, replacement string) (Result, string) {
	for _, m := range c {
		if res := m.Attempt(document, replacement); res.Found {
			return res, m.Name()
		}
	}
	return Result{Document: document}, ""
}

// Names lists the matcher names in priority order.
func (c Chain) Names() []string {
	names := make([]string, 0, len(c))
	for _, m := range c {
		names = append(names, m.Name())
	}
	return names
}
