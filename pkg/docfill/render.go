package docfill

import (
	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// templatePart is a part that may carry placeholders.
type templatePart struct {
	name   string
	markup string
}

func (e *Engine) loadTemplateParts(src []byte) (*DocxReader, []templatePart, error) {
	dr, err := DocxReaderFromBytes(src)
	if err != nil {
		return nil, nil, NewDocumentError("parse", "DOCX", err)
	}

	names := dr.TemplateParts()
	parts := make([]templatePart, 0, len(names))
	for _, name := range names {
		content, err := dr.GetPart(name)
		if err != nil {
			return nil, nil, NewDocumentError("extract", name, err)
		}
		parts = append(parts, templatePart{name: name, markup: string(content)})
	}
	return dr, parts, nil
}

// labelsIn scans the raw markup of every part and returns the union of the
// labels found, in part order.
func (e *Engine) labelsIn(parts []templatePart) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, p := range parts {
		for _, label := range e.scanLabels(p.markup, true) {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// seed copies values and adds an empty entry for every label it lacks.
func seed(values Values, labels []string) Values {
	data := values.Clone()
	for _, label := range labels {
		if _, ok := data[label]; !ok {
			data[label] = ""
		}
	}
	return data
}

// Labels returns every label visible in the raw markup of the body, header
// and footer parts.
func (e *Engine) Labels(src []byte) ([]string, error) {
	_, parts, err := e.loadTemplateParts(src)
	if err != nil {
		return nil, err
	}
	return e.labelsIn(parts), nil
}

// SeedValues returns a copy of values completed with an empty string for
// every label found in the body, header and footer parts.
func (e *Engine) SeedValues(src []byte, values Values) (Values, error) {
	_, parts, err := e.loadTemplateParts(src)
	if err != nil {
		return nil, err
	}
	return seed(values, e.labelsIn(parts)), nil
}

// Render substitutes values into the body, headers and footers of a DOCX
// and returns the new package. Placeholders without a value render as empty
// text. Unbalanced delimiters are reported as a *RenderError; parts other
// than body, headers and footers are copied unchanged.
func (e *Engine) Render(src []byte, values Values) ([]byte, error) {
	dr, parts, err := e.loadTemplateParts(src)
	if err != nil {
		return nil, err
	}

	data := seed(values, e.labelsIn(parts))
	opts := render.Options{
		Delimiters: e.Delimiters(),
		LineBreaks: e.config.LineBreaks,
	}

	replaced := make(map[string][]byte)
	var problems []Problem
	for _, p := range parts {
		out, tagErrs := render.Substitute(p.markup, data.Lookup, opts)
		for _, te := range tagErrs {
			problems = append(problems, Problem{Part: p.name, Explanation: te.Explanation()})
		}
		if out != p.markup {
			replaced[p.name] = []byte(out)
		}
	}

	logger := e.log()
	if len(problems) > 0 {
		logger.WithField("problems", len(problems)).Warn("Template has unbalanced placeholders")
		return nil, &RenderError{Problems: problems}
	}

	output, err := dr.WritePackage(replaced)
	if err != nil {
		return nil, NewDocumentError("write", "DOCX", err)
	}

	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"parts":     len(parts),
			"rewritten": len(replaced),
			"values":    len(data),
		}).Debug("Rendered template")
	}

	return output, nil
}
