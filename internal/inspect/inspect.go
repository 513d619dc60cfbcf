// Package inspect describes a consent form template: which headings and
// marker comments it carries, and which matcher each field would use.
package inspect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/overrides"
)

// Heading is an h2 or h3 element of the template.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// MarkerPair groups the START and END comments sharing a name.
type MarkerPair struct {
	Name  string `json:"name"`
	Start bool   `json:"start"`
	End   bool   `json:"end"`
}

// Complete reports whether both comments are present.
func (m MarkerPair) Complete() bool {
	return m.Start && m.End
}

// FieldProbe tells which matcher of a field's chain finds its region.
type FieldProbe struct {
	Field   string   `json:"field"`
	Matcher string   `json:"matcher,omitempty"`
	Tried   []string `json:"tried"`
}

// Found reports whether any matcher located the region.
func (p FieldProbe) Found() bool {
	return p.Matcher != ""
}

// SiteCoverage is the dry outcome of the policy for one site.
type SiteCoverage struct {
	Site    string                  `json:"site"`
	Reports []overrides.FieldReport `json:"reports"`
}

// Report is the result of inspecting a template.
type Report struct {
	Headings []Heading      `json:"headings"`
	Markers  []MarkerPair   `json:"markers"`
	Probes   []FieldProbe   `json:"probes"`
	Sites    []SiteCoverage `json:"sites,omitempty"`
}

// probeText stands in for replacement text; only Found matters when probing.
const probeText = "probe"

var markerComment = regexp.MustCompile(`(?i)^(\w+?)_(START|END)$`)

// Inspect parses the template and probes every field of the policy against
// it. When sites are given, the policy is applied to each of them without
// writing anything so that missing text and unmatched regions show up.
func Inspect(template string, policy *overrides.Policy, sites []mapping.Site) (*Report, error) {
	if policy == nil {
		policy = overrides.DefaultPolicy()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template HTML: %w", err)
	}

	report := &Report{
		Headings: Headings(doc),
		Markers:  Markers(doc),
		Probes:   Probe(template, policy),
	}

	for _, site := range sites {
		if site.IsDefault() {
			continue
		}
		_, reports := policy.Apply(zap.NewNop(), site, template)
		report.Sites = append(report.Sites, SiteCoverage{Site: site.Key, Reports: reports})
	}

	return report, nil
}

// Headings lists h2 and h3 elements in document order with normalized text.
func Headings(doc *goquery.Document) []Heading {
	var headings []Heading
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		level := 2
		if goquery.NodeName(s) == "h3" {
			level = 3
		}
		headings = append(headings, Heading{Level: level, Text: strings.Join(strings.Fields(s.Text()), " ")})
	})
	return headings
}

// Markers lists NAME_START / NAME_END comment pairs in the order their
// first comment appears.
func Markers(doc *goquery.Document) []MarkerPair {
	var pairs []MarkerPair
	index := make(map[string]int)

	for _, root := range doc.Nodes {
		walkComments(root, func(text string) {
			m := markerComment.FindStringSubmatch(strings.TrimSpace(text))
			if m == nil {
				return
			}
			name := strings.ToUpper(m[1])
			i, ok := index[name]
			if !ok {
				i = len(pairs)
				index[name] = i
				pairs = append(pairs, MarkerPair{Name: name})
			}
			if strings.EqualFold(m[2], "START") {
				pairs[i].Start = true
			} else {
				pairs[i].End = true
			}
		})
	}
	return pairs
}

func walkComments(n *html.Node, visit func(string)) {
	if n.Type == html.CommentNode {
		visit(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkComments(c, visit)
	}
}

// Probe runs each field's chain against the template.
func Probe(template string, policy *overrides.Policy) []FieldProbe {
	probes := make([]FieldProbe, 0, len(policy.Fields))
	for _, field := range policy.Fields {
		_, matcher := field.Chain.Attempt(template, probeText)
		probes = append(probes, FieldProbe{
			Field:   field.Name,
			Matcher: matcher,
			Tried:   field.Chain.Names(),
		})
	}
	return probes
}
