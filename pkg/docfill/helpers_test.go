package docfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"
)

const wordNamespace = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

type testPart struct {
	name    string
	content string
}

// createTestDocx builds an in-memory DOCX from the given parts.
func createTestDocx(t *testing.T, parts ...testPart) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, p := range parts {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			t.Fatalf("failed to create %s: %v", p.name, err)
		}
		if _, err := io.WriteString(fw, p.content); err != nil {
			t.Fatalf("failed to write %s: %v", p.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func paragraphs(ps ...string) string {
	var sb strings.Builder
	for _, p := range ps {
		sb.WriteString("<w:p>" + p + "</w:p>")
	}
	return sb.String()
}

func documentXML(ps ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document ` + wordNamespace + `><w:body>` + paragraphs(ps...) + `</w:body></w:document>`
}

func headerXML(ps ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:hdr ` + wordNamespace + `>` + paragraphs(ps...) + `</w:hdr>`
}

func footerXML(ps ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:ftr ` + wordNamespace + `>` + paragraphs(ps...) + `</w:ftr>`
}

func run(text string) string {
	return `<w:r><w:t>` + text + `</w:t></w:r>`
}

func boldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t>` + text + `</w:t></w:r>`
}

// simpleDocx returns a package with a body, styles and relationships.
func simpleDocx(t *testing.T, ps ...string) []byte {
	t.Helper()
	return createTestDocx(t,
		testPart{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		testPart{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		testPart{"word/document.xml", documentXML(ps...)},
		testPart{"word/styles.xml", `<?xml version="1.0" encoding="UTF-8"?><w:styles ` + wordNamespace + `><w:style w:styleId="Normal"/></w:styles>`},
	)
}

// partText returns the visible text of a part: paragraphs separated by
// newlines, breaks rendered as newlines.
func partText(t *testing.T, docx []byte, name string) string {
	t.Helper()

	dr, err := DocxReaderFromBytes(docx)
	if err != nil {
		t.Fatalf("failed to read docx: %v", err)
	}
	content, err := dr.GetPart(name)
	if err != nil {
		t.Fatalf("failed to get %s: %v", name, err)
	}

	var sb strings.Builder
	var paras []string
	inText := false
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("%s is not well-formed: %v", name, err)
		}
		switch tt := tok.(type) {
		case xml.StartElement:
			switch tt.Name.Local {
			case "t":
				inText = true
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch tt.Name.Local {
			case "t":
				inText = false
			case "p":
				paras = append(paras, sb.String())
				sb.Reset()
			}
		case xml.CharData:
			if inText {
				sb.Write(tt)
			}
		}
	}
	return strings.Join(paras, "\n")
}
