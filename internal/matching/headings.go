package matching

import (
	"regexp"
)

// sectionBoundary ends a heading section: the next h2/h3, the close of a
// section or container, a button, a line break, or the end of the page.
var sectionBoundary = regexp.MustCompile(`(?i)<h[23][^>]*>|</section>|</div>|<button|<br|</body>|</html>`)

// headingPattern matches <h3 ...>TEXT</h3> plus any whitespace after it.
func headingPattern(level, text string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<h` + level + `[^>]*>` + space + `*` + regexp.QuoteMeta(text) + space + `*</h` + level + `>` + space + `*`)
}

// replaceAfter keeps document[:start] and document[cut:] and places the
// replacement between them.
func replaceAfter(document string, start, cut int, replacement string) Result {
	return Result{Document: document[:start] + replacement + "\n" + document[cut:], Found: true}
}

// HeadingSection replaces the content that follows a level-3 heading up to
// the next structural boundary. It needs no comment markers and tolerates
// attributes on the heading tag, so it serves as the last resort in a chain.
type HeadingSection struct {
	Heading string

	heading *regexp.Regexp
}

// NewHeadingSection builds a matcher anchored on the given h3 text.
func NewHeadingSection(heading string) *HeadingSection {
	return &HeadingSection{Heading: heading, heading: headingPattern("3", heading)}
}

// Name implements Matcher.
func (m *HeadingSection) Name() string { return "heading_section" }

// Attempt implements Matcher.
func (m *HeadingSection) Attempt(document, replacement string) Result {
	loc := m.heading.FindStringIndex(document)
	if loc == nil {
		return Result{Document: document}
	}
	cut := len(document)
	if b := sectionBoundary.FindStringIndex(document[loc[1]:]); b != nil {
		cut = loc[1] + b[0]
	}
	return replaceAfter(document, loc[1], cut, replacement)
}

// ReplaceSectionAfterHeading replaces the content after <h3>heading</h3> up
// to the next heading or major boundary.
func ReplaceSectionAfterHeading(document, heading, replacement string) (string, bool) {
	res := NewHeadingSection(heading).Attempt(document, replacement)
	return res.Document, res.Found
}

// HeadingPair replaces the content between two specific level-3 headings.
type HeadingPair struct {
	Start string
	End   string

	start *regexp.Regexp
	end   *regexp.Regexp
}

// NewHeadingPair builds a matcher spanning from the start h3 to the end h3.
func NewHeadingPair(start, end string) *HeadingPair {
	return &HeadingPair{
		Start: start,
		End:   end,
		start: headingPattern("3", start),
		end:   regexp.MustCompile(`(?i)<h3[^>]*>` + space + `*` + regexp.QuoteMeta(end) + space + `*</h3>`),
	}
}

// Name implements Matcher.
func (m *HeadingPair) Name() string { return "heading_pair" }

// Attempt implements Matcher. The end heading itself is kept.
func (m *HeadingPair) Attempt(document, replacement string) Result {
	loc := m.start.FindStringIndex(document)
	if loc == nil {
		return Result{Document: document}
	}
	b := m.end.FindStringIndex(document[loc[1]:])
	if b == nil {
		return Result{Document: document}
	}
	return replaceAfter(document, loc[1], loc[1]+b[0], replacement)
}

// ReplaceBetweenHeadings replaces everything between the first start h3 and
// the next end h3.
func ReplaceBetweenHeadings(document, start, end, replacement string) (string, bool) {
	res := NewHeadingPair(start, end).Attempt(document, replacement)
	return res.Document, res.Found
}

// HeadingToSection replaces the content after a level-3 heading up to the
// next level-2 heading containing the given text. It is used where a field
// runs until the next major section rather than the next minor heading.
type HeadingToSection struct {
	Heading         string
	SectionContains string

	heading *regexp.Regexp
	section *regexp.Regexp
}

// NewHeadingToSection builds a matcher from an h3 to an h2 containing text.
func NewHeadingToSection(heading, sectionContains string) *HeadingToSection {
	return &HeadingToSection{
		Heading:         heading,
		SectionContains: sectionContains,
		heading:         headingPattern("3", heading),
		section:         regexp.MustCompile(`(?i)<h2[^>]*>[\s\S]*?` + regexp.QuoteMeta(sectionContains) + `[\s\S]*?</h2>`),
	}
}

// Name implements Matcher.
func (m *HeadingToSection) Name() string { return "heading_to_section" }

// Attempt implements Matcher. The h2 boundary is the first <h2 ...> from
// which the text and a closing </h2> can be reached.
func (m *HeadingToSection) Attempt(document, replacement string) Result {
	loc := m.heading.FindStringIndex(document)
	if loc == nil {
		return Result{Document: document}
	}
	b := m.section.FindStringIndex(document[loc[1]:])
	if b == nil {
		return Result{Document: document}
	}
	return replaceAfter(document, loc[1], loc[1]+b[0], replacement)
}

// ReplaceUntilSection replaces the content after <h3>heading</h3> up to the
// next <h2> that contains sectionContains.
func ReplaceUntilSection(document, heading, sectionContains, replacement string) (string, bool) {
	res := NewHeadingToSection(heading, sectionContains).Attempt(document, replacement)
	return res.Document, res.Found
}
