package render

import (
	"strings"
	"unicode"
)

const (
	paragraphTag = "w:p"
	textTag      = "w:t"
)

// textNode locates the content of one <w:t> element inside a part.
type textNode struct {
	openStart int // start of the <w:t ...> tag
	openEnd   int // end of the <w:t ...> tag, exclusive
	start     int // content start
	end       int // content end, exclusive
	para      int // innermost enclosing paragraph, -1 outside any paragraph
}

// scanTextNodes walks the markup tag by tag and returns every non-empty
// <w:t> element in document order. Paragraphs are numbered in the order
// their start tags appear, so nested paragraphs (text boxes) get their own
// number.
func scanTextNodes(markup string) []textNode {
	var nodes []textNode
	var paras []int
	nextPara := 0
	var pending *textNode

	i := 0
	for i < len(markup) {
		lt := strings.IndexByte(markup[i:], '<')
		if lt < 0 {
			break
		}
		lt += i

		if strings.HasPrefix(markup[lt:], "<!--") {
			end := strings.Index(markup[lt:], "-->")
			if end < 0 {
				break
			}
			i = lt + end + len("-->")
			continue
		}

		gt := strings.IndexByte(markup[lt:], '>')
		if gt < 0 {
			break
		}
		gt += lt

		name, closing, selfClosing := parseTag(markup[lt : gt+1])
		switch name {
		case paragraphTag:
			switch {
			case closing:
				if len(paras) > 0 {
					paras = paras[:len(paras)-1]
				}
			case !selfClosing:
				paras = append(paras, nextPara)
				nextPara++
			}
		case textTag:
			switch {
			case closing:
				if pending != nil {
					pending.end = lt
					if pending.end > pending.start {
						nodes = append(nodes, *pending)
					}
					pending = nil
				}
			case !selfClosing:
				para := -1
				if len(paras) > 0 {
					para = paras[len(paras)-1]
				}
				pending = &textNode{
					openStart: lt,
					openEnd:   gt + 1,
					start:     gt + 1,
					para:      para,
				}
			}
		}

		i = gt + 1
	}

	return nodes
}

// parseTag splits a raw tag such as `<w:t xml:space="preserve">` into its
// qualified name and whether it closes or self-closes an element.
func parseTag(tag string) (name string, closing, selfClosing bool) {
	if len(tag) < 3 {
		return "", false, false
	}
	body := tag[1 : len(tag)-1]
	if strings.HasPrefix(body, "/") {
		closing = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "/") {
		selfClosing = true
		body = body[:len(body)-1]
	}
	if end := strings.IndexFunc(body, unicode.IsSpace); end >= 0 {
		body = body[:end]
	}
	return body, closing, selfClosing
}

// groupByParagraph returns node indices grouped by paragraph, groups ordered
// by the first node that belongs to them.
func groupByParagraph(nodes []textNode) [][]int {
	var groups [][]int
	index := make(map[int]int)
	for i, n := range nodes {
		g, ok := index[n.para]
		if !ok {
			g = len(groups)
			index[n.para] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// preserveSpace makes sure a <w:t> start tag keeps leading and trailing
// whitespace of its new content.
func preserveSpace(openTag string) string {
	if strings.Contains(openTag, "xml:space=") {
		return openTag
	}
	return openTag[:len(openTag)-1] + ` xml:space="preserve">`
}
