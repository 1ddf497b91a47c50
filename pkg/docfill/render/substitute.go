package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

// Delimiters marks where a placeholder starts and ends.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters are the square brackets used by document templates.
var DefaultDelimiters = Delimiters{Open: "[", Close: "]"}

// Lookup resolves a placeholder label to its value. A false second result
// renders the placeholder as an empty string.
type Lookup func(label string) (string, bool)

// Options controls a substitution pass.
type Options struct {
	Delimiters Delimiters
	// LineBreaks turns newlines in values into <w:br/> elements.
	LineBreaks bool
}

// lineBreak closes the current text node, inserts a break and reopens a text
// node in the same run.
const lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`

// tabElement matches the tab elements that label extraction reads as "\t".
var tabElement = regexp.MustCompile(`<w:tab\s*/>`)

// TagErrorKind classifies an unbalanced delimiter.
type TagErrorKind int

const (
	UnopenedTag TagErrorKind = iota
	UnclosedTag
	DuplicateOpenTag
)

func (k TagErrorKind) String() string {
	switch k {
	case UnopenedTag:
		return "unopened_tag"
	case UnclosedTag:
		return "unclosed_tag"
	case DuplicateOpenTag:
		return "duplicate_open_tag"
	default:
		return "unknown"
	}
}

// TagError describes delimiters inside one paragraph that cannot be paired.
type TagError struct {
	Kind TagErrorKind
	// Tag is a short excerpt of the text around the offending delimiter.
	Tag string
}

func (e *TagError) Error() string {
	return e.Explanation()
}

// Explanation returns a sentence suitable for showing to the template author.
func (e *TagError) Explanation() string {
	switch e.Kind {
	case UnopenedTag:
		return fmt.Sprintf("The tag ending with %q is unopened", e.Tag)
	case UnclosedTag:
		return fmt.Sprintf("The tag beginning with %q is unclosed", e.Tag)
	case DuplicateOpenTag:
		return fmt.Sprintf("The tag beginning with %q has duplicate open tags", e.Tag)
	default:
		return fmt.Sprintf("The tag %q is invalid", e.Tag)
	}
}

// span is a matched placeholder inside a paragraph's concatenated text.
type span struct {
	start int // first byte of the open delimiter
	end   int // first byte after the close delimiter
	label string
}

// tabMark records tab elements sitting between two text nodes, at an offset
// of the paragraph's concatenated text.
type tabMark struct {
	at    int
	count int
}

type edit struct {
	start int
	end   int
	text  string
}

// excerptLen is the number of runes quoted in a TagError.
const excerptLen = 10

// Substitute replaces every placeholder in a document part's markup.
//
// Placeholders are matched per paragraph on the concatenated content of its
// <w:t> nodes. When any paragraph holds unbalanced delimiters the markup is
// returned unchanged together with every problem found in the part.
func Substitute(markup string, lookup Lookup, opts Options) (string, []*TagError) {
	if opts.Delimiters.Open == "" || opts.Delimiters.Close == "" {
		opts.Delimiters = DefaultDelimiters
	}

	nodes := scanTextNodes(markup)
	if len(nodes) == 0 {
		return markup, nil
	}

	var edits []edit
	var problems []*TagError
	for _, group := range groupByParagraph(nodes) {
		e, p := substituteParagraph(markup, nodes, group, lookup, opts)
		edits = append(edits, e...)
		problems = append(problems, p...)
	}

	if len(problems) > 0 {
		return markup, problems
	}
	return applyEdits(markup, edits), nil
}

// substituteParagraph computes the edits for the text nodes of one paragraph.
func substituteParagraph(markup string, nodes []textNode, group []int, lookup Lookup, opts Options) ([]edit, []*TagError) {
	var text strings.Builder
	var tabs []tabMark
	offsets := make([]int, len(group))
	for i, idx := range group {
		offsets[i] = text.Len()
		n := nodes[idx]
		if i > 0 {
			between := markup[nodes[group[i-1]].end:n.openStart]
			if c := len(tabElement.FindAllStringIndex(between, -1)); c > 0 {
				tabs = append(tabs, tabMark{at: text.Len(), count: c})
			}
		}
		text.WriteString(markup[n.start:n.end])
	}

	joined := text.String()
	spans, problems := findSpans(joined, opts.Delimiters)
	if len(problems) > 0 || len(spans) == 0 {
		return nil, problems
	}

	var edits []edit
	touched := make(map[int]bool)
	for _, s := range spans {
		value := resolve(lookup, s, joined, tabs, opts.Delimiters)
		rendered := renderValue(value, opts.LineBreaks)

		first := true
		for i, idx := range group {
			n := nodes[idx]
			nodeStart := offsets[i]
			nodeEnd := nodeStart + (n.end - n.start)
			if nodeEnd <= s.start || nodeStart >= s.end {
				continue
			}

			from := max(s.start, nodeStart) - nodeStart
			to := min(s.end, nodeEnd) - nodeStart
			replacement := ""
			if first {
				replacement = rendered
				first = false
			}
			edits = append(edits, edit{start: n.start + from, end: n.start + to, text: replacement})

			if !touched[idx] {
				touched[idx] = true
				openTag := markup[n.openStart:n.openEnd]
				if preserved := preserveSpace(openTag); preserved != openTag {
					edits = append(edits, edit{start: n.openStart, end: n.openEnd, text: preserved})
				}
			}
		}
	}

	return edits, nil
}

// resolve looks a span up first with the tabs between its text nodes kept,
// which is how extraction reports the label, then without them.
func resolve(lookup Lookup, s span, text string, tabs []tabMark, d Delimiters) string {
	label := html.UnescapeString(s.label)
	if tabbed := withTabs(text, s.start+len(d.Open), s.end-len(d.Close), tabs); tabbed != s.label {
		if value, ok := lookup(html.UnescapeString(tabbed)); ok {
			return value
		}
	}
	if value, ok := lookup(label); ok {
		return value
	}
	return ""
}

// withTabs returns text[from:to] with the tabs that fall strictly inside it
// reinserted.
func withTabs(text string, from, to int, tabs []tabMark) string {
	var b strings.Builder
	last := from
	for _, t := range tabs {
		if t.at <= from || t.at >= to {
			continue
		}
		b.WriteString(text[last:t.at])
		b.WriteString(strings.Repeat("\t", t.count))
		last = t.at
	}
	if last == from {
		return text[from:to]
	}
	b.WriteString(text[last:to])
	return b.String()
}

// findSpans pairs open and close delimiters in text.
func findSpans(text string, d Delimiters) ([]span, []*TagError) {
	var spans []span
	var problems []*TagError

	pos := 0
	for pos < len(text) {
		o := strings.Index(text[pos:], d.Open)
		c := strings.Index(text[pos:], d.Close)
		if o < 0 && c < 0 {
			break
		}

		if c >= 0 && (o < 0 || c < o) {
			closeAt := pos + c
			problems = append(problems, &TagError{
				Kind: UnopenedTag,
				Tag:  tail(text[:closeAt], excerptLen) + d.Close,
			})
			pos = closeAt + len(d.Close)
			continue
		}

		start := pos + o
		inner := start + len(d.Open)
		nextClose := strings.Index(text[inner:], d.Close)
		nextOpen := strings.Index(text[inner:], d.Open)

		if nextClose < 0 {
			problems = append(problems, &TagError{
				Kind: UnclosedTag,
				Tag:  d.Open + head(text[inner:], excerptLen),
			})
			if nextOpen < 0 {
				break
			}
			pos = inner + nextOpen
			continue
		}

		if nextOpen >= 0 && nextOpen < nextClose {
			problems = append(problems, &TagError{
				Kind: DuplicateOpenTag,
				Tag:  d.Open + head(text[inner:inner+nextOpen], excerptLen),
			})
			pos = inner + nextOpen
			continue
		}

		end := inner + nextClose + len(d.Close)
		spans = append(spans, span{start: start, end: end, label: text[inner : inner+nextClose]})
		pos = end
	}

	return spans, problems
}

// renderValue escapes a value for use inside <w:t> and optionally converts
// newlines to line breaks.
func renderValue(value string, lineBreaks bool) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")

	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = escapeText(line)
	}
	if lineBreaks {
		return strings.Join(lines, lineBreak)
	}
	return strings.Join(lines, "\n")
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// applyEdits rewrites markup with non-overlapping edits.
func applyEdits(markup string, edits []edit) string {
	if len(edits) == 0 {
		return markup
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out strings.Builder
	out.Grow(len(markup))
	last := 0
	for _, e := range edits {
		out.WriteString(markup[last:e.start])
		out.WriteString(e.text)
		last = e.end
	}
	out.WriteString(markup[last:])
	return out.String()
}

func head(s string, n int) string {
	r := []rune(html.UnescapeString(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func tail(s string, n int) string {
	r := []rune(html.UnescapeString(s))
	if len(r) > n {
		r = r[len(r)-n:]
	}
	return string(r)
}
