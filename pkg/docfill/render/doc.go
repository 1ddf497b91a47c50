// Package render provides the placeholder substitution pass for DOCX markup.
//
// The functions in this package work directly on the raw XML of a single
// document part (word/document.xml, word/header1.xml, ...). They never parse
// the part into a tree and never re-encode it: every byte outside the
// substituted text is written back exactly as it was read.
//
// # Structure Organization
//
//   - markup.go: a small scanner that locates <w:t> text nodes and the
//     paragraph each one belongs to
//   - substitute.go: delimiter matching across text nodes and the edit
//     pass that writes values back into the markup
//
// # Split placeholders
//
// Word frequently splits what the author typed as one token into several
// runs, for example after a spell check or a partial formatting change:
//
//	<w:r><w:t>[Compan</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>y Name]</w:t></w:r>
//
// Substitute concatenates the text nodes of a paragraph before looking for
// delimiters, so the example above is matched as the single label
// "Company Name". The value is written into the text node holding the open
// delimiter and the covered text is removed from the following nodes. The
// runs themselves, including their properties, stay in place.
//
// # Usage
//
//	out, problems := render.Substitute(markup, func(label string) (string, bool) {
//	    v, ok := values[label]
//	    return v, ok
//	}, render.Options{Delimiters: render.DefaultDelimiters, LineBreaks: true})
//	if len(problems) > 0 {
//	    // unbalanced delimiters, out == markup
//	}
package render
