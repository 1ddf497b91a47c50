package docfill

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	tabMarker    = regexp.MustCompile(`<w:tab\s*/>`)
	breakMarker  = regexp.MustCompile(`<w:(br|cr)(\s[^>]*)?/>`)
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	runBoundary  = regexp.MustCompile(`</w:t><w:t[^>]*>`)
	markupTag    = regexp.MustCompile(`<[^>]+>`)
)

// Extract reads a DOCX from r and returns the distinct placeholder labels of
// its body in order of first appearance.
func (e *Engine) Extract(r io.Reader) ([]string, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, NewDocumentError("read", "", err)
	}
	return e.ExtractBytes(buf.Bytes())
}

// ExtractBytes is Extract for an in-memory DOCX.
func (e *Engine) ExtractBytes(src []byte) ([]string, error) {
	dr, err := DocxReaderFromBytes(src)
	if err != nil {
		return nil, NewDocumentError("parse", "DOCX", err)
	}

	docXML, err := dr.GetDocumentXML()
	if err != nil {
		return nil, NewDocumentError("extract", documentPart, err)
	}

	labels := e.extractLabels(docXML)

	logger := e.log()
	if logger.IsDebugMode() {
		logger.WithField("labels", len(labels)).Debug("Extracted placeholders")
	}

	return labels, nil
}

// extractLabels reduces markup to plain text and scans it for placeholders.
// Paragraph ends become newlines so a label never joins two paragraphs.
func (e *Engine) extractLabels(markup string) []string {
	text := tabMarker.ReplaceAllString(markup, "\t")
	text = breakMarker.ReplaceAllString(text, "\n")
	text = paragraphEnd.ReplaceAllString(text, "\n")
	text = runBoundary.ReplaceAllString(text, "")
	text = markupTag.ReplaceAllString(text, "")
	return e.scanLabels(text, false)
}

// scanLabels returns the trimmed, de-duplicated labels found in text. When
// text is raw markup, matches that span a tag are skipped; plain text may
// legitimately hold '>'.
func (e *Engine) scanLabels(text string, rawMarkup bool) []string {
	labels := []string{}
	seen := make(map[string]bool)
	for _, m := range e.pattern.FindAllStringSubmatch(text, -1) {
		if rawMarkup && strings.ContainsAny(m[1], "<>") {
			continue
		}
		label := strings.TrimSpace(html.UnescapeString(m[1]))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}
