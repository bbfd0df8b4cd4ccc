package forest

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rules is the field-derivation rule set applied by Sanitise.
type Rules struct {
	// MaxNameLength bounds display names, in runes.
	MaxNameLength int `yaml:"max_name_length" json:"max_name_length"`
	// Identifiers shorter than this can stand in for a missing display name.
	ShortIdentifierLength int               `yaml:"short_identifier_length" json:"short_identifier_length"`
	Placeholder           string            `yaml:"placeholder" json:"placeholder"`
	TagLabels             map[string]string `yaml:"tag_labels" json:"tag_labels"`
}

const (
	DefaultMaxNameLength         = 80
	DefaultShortIdentifierLength = 16
	DefaultPlaceholder           = "Competency"
	ellipsis                     = "..."
)

// MinNameLength leaves room for at least one rune before the ellipsis.
const MinNameLength = 4

func DefaultRules() Rules {
	return Rules{
		MaxNameLength:         DefaultMaxNameLength,
		ShortIdentifierLength: DefaultShortIdentifierLength,
		Placeholder:           DefaultPlaceholder,
		TagLabels: map[string]string{
			"subject": "Subject",
			"level":   "Level",
		},
	}
}

func (r Rules) normalized() Rules {
	switch {
	case r.MaxNameLength <= 0:
		r.MaxNameLength = DefaultMaxNameLength
	case r.MaxNameLength < MinNameLength:
		r.MaxNameLength = MinNameLength
	}
	if r.ShortIdentifierLength <= 0 {
		r.ShortIdentifierLength = DefaultShortIdentifierLength
	}
	r.Placeholder = CleanText(r.Placeholder)
	if r.Placeholder == "" {
		r.Placeholder = DefaultPlaceholder
	}
	r.Placeholder = Shorten(r.Placeholder, r.MaxNameLength)
	return r
}

func (r Rules) tagLabel(key string) string {
	key = strings.TrimSpace(key)
	if l := strings.TrimSpace(r.TagLabels[key]); l != "" {
		return l
	}
	if key == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(first)) + key[size:]
}

// Sanitise derives identifier, display name and description for every node, top-down,
// then orders every sibling list by (display name, identifier). Running it again on its
// own output changes nothing.
func Sanitise(f *Forest, rules Rules) {
	if f == nil {
		return
	}
	r := rules.normalized()
	f.Walk(func(n *Node, _ int) bool {
		sanitiseNode(n, r)
		return true
	})
	sortNodes(f.Roots)
	f.Walk(func(n *Node, _ int) bool {
		sortNodes(n.Children)
		return true
	})
}

func sanitiseNode(n *Node, r Rules) {
	max := r.MaxNameLength

	n.Identifier = CleanText(n.Identifier)
	n.Code = CleanText(n.Code)
	n.DisplayName = Shorten(CleanText(n.DisplayName), max)

	if n.Code != "" {
		n.Identifier = n.Code
		n.DisplayName = Shorten(n.Code, max)
	}

	desc := cleanDescription(n.Description)
	flat := CleanText(desc)

	if n.DisplayName == "" && n.HasChildren() && flat != "" && utf8.RuneCountInString(flat) <= max {
		n.DisplayName = flat
	}

	for _, t := range n.Tags {
		val := CleanText(t.Value)
		label := r.tagLabel(t.Key)
		if val == "" || label == "" {
			continue
		}
		line := label + ": " + val
		if hasLine(desc, line) {
			continue
		}
		if desc != "" {
			desc += "\n"
		}
		desc += line
	}
	n.Description = desc

	if n.DisplayName == "" {
		switch {
		case n.Identifier != "" && utf8.RuneCountInString(n.Identifier) < r.ShortIdentifierLength &&
			utf8.RuneCountInString(n.Identifier) <= max:
			n.DisplayName = n.Identifier
		case flat != "":
			n.DisplayName = Shorten(flat, max)
		default:
			n.DisplayName = r.Placeholder
		}
	}
}

func sortNodes(list []*Node) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.Identifier < b.Identifier
	})
}

var markupRe = regexp.MustCompile(`<[^>]*>`)

// CleanText strips markup and control characters and collapses whitespace onto a
// single line.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = markupRe.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// cleanDescription is CleanText applied per line; blank lines are dropped.
func cleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(markupRe.ReplaceAllString(s, " "), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = CleanText(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func hasLine(text, line string) bool {
	for _, l := range strings.Split(text, "\n") {
		if l == line {
			return true
		}
	}
	return false
}

// Shorten caps s at max runes. Longer text is cut back to a word boundary when one
// exists in the second half of the budget, and ends with "...".
func Shorten(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
	}
	keep := max - len(ellipsis)
	cut := runes[:keep]
	if !unicode.IsSpace(runes[keep]) {
		for i := len(cut) - 1; i >= keep/2; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}
