// Package docfill fills bracketed placeholders in Microsoft Word documents (DOCX).
//
// A template is an ordinary DOCX whose text contains labels between square
// brackets, such as "[Company Name]" or "[Effective Date]". docfill finds
// those labels and writes values back into the document without touching
// any other markup, so styles, numbering, images and section settings come
// through unchanged.
//
// # Quick Start
//
//	src, err := os.ReadFile("safe.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	labels, err := docfill.ExtractBytes(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// labels: ["Company Name", "Investor Name", "Purchase Amount", ...]
//
//	out, err := docfill.Render(src, docfill.Values{
//	    "Company Name": "Acme, Inc.",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("safe-completed.docx", out, 0644)
//
// # Extraction
//
// Extract reads word/document.xml only. Tabs and line breaks become
// whitespace, paragraph ends become newlines, tags are stripped and the
// remaining text is scanned for "[...]". A label never contains a
// delimiter, "\r" or "\n". Labels are trimmed and reported once, in order of
// first appearance.
//
// # Rendering
//
// Render rewrites word/document.xml and every word/headerN.xml and
// word/footerN.xml. Any label found in those parts but missing from the
// value map renders as an empty string. Lookups try the exact label first
// and the trimmed label second. Newlines in values become line breaks.
//
// Placeholders that Word split across several runs are matched as one. See
// the render sub-package for how the text is written back.
//
// # Error Handling
//
//   - ErrInvalidDocument: the input is not a DOCX package (wrapped in a
//     DocumentError)
//   - RenderError: delimiters that do not pair up inside a paragraph; one
//     explanation per problem
//
// Check error types using errors.As():
//
//	var re *docfill.RenderError
//	if errors.As(err, &re) {
//	    fmt.Println(re.Details())
//	}
//
// # Thread Safety
//
// Engine values are immutable after construction. Extract and Render may be
// called from many goroutines at once.
package docfill
