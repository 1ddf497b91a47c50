package docfill

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestDocxReader_Read(t *testing.T) {
	tests := []struct {
		name    string
		setup   func() *bytes.Buffer
		wantErr bool
		check   func(t *testing.T, dr *DocxReader)
	}{
		{
			name: "read valid docx with document.xml",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				w := zip.NewWriter(buf)

				f, _ := w.Create("word/document.xml")
				f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><document>content</document>`))

				f, _ = w.Create("_rels/.rels")
				f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Relationships></Relationships>`))

				w.Close()
				return buf
			},
			wantErr: false,
			check: func(t *testing.T, dr *DocxReader) {
				if dr == nil {
					t.Fatal("expected non-nil DocxReader")
				}
				if len(dr.Parts) != 2 {
					t.Errorf("expected 2 parts, got %d", len(dr.Parts))
				}
			},
		},
		{
			name: "read empty zip file",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				w := zip.NewWriter(buf)
				w.Close()
				return buf
			},
			wantErr: true,
		},
		{
			name: "read non-zip file",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				buf.WriteString("not a zip file")
				return buf
			},
			wantErr: true,
		},
		{
			name: "missing document.xml",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				w := zip.NewWriter(buf)
				f, _ := w.Create("word/styles.xml")
				f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><styles/>`))
				w.Close()
				return buf
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.setup()
			reader := bytes.NewReader(buf.Bytes())

			dr, err := NewDocxReader(reader, int64(buf.Len()))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDocxReader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}

			if !tt.wantErr && tt.check != nil {
				tt.check(t, dr)
			}
		})
	}
}

func TestDocxReader_GetPart(t *testing.T) {
	docx := simpleDocx(t, run("Hello [Name]"))
	dr, err := DocxReaderFromBytes(docx)
	if err != nil {
		t.Fatalf("DocxReaderFromBytes() error = %v", err)
	}

	content, err := dr.GetDocumentXML()
	if err != nil {
		t.Fatalf("GetDocumentXML() error = %v", err)
	}
	if content != documentXML(run("Hello [Name]")) {
		t.Errorf("GetDocumentXML() = %q", content)
	}

	if _, err := dr.GetPart("word/missing.xml"); err == nil {
		t.Error("expected error for missing part")
	}
}

func TestDocxReader_TemplateParts(t *testing.T) {
	docx := createTestDocx(t,
		testPart{"[Content_Types].xml", "<Types/>"},
		testPart{"word/document.xml", documentXML()},
		testPart{"word/header1.xml", headerXML()},
		testPart{"word/_rels/header1.xml.rels", "<Relationships/>"},
		testPart{"word/footer2.xml", footerXML()},
		testPart{"word/header.xml", headerXML()},
		testPart{"word/headerA.xml", headerXML()},
		testPart{"word/styles.xml", "<w:styles/>"},
		testPart{"docProps/header1.xml", "<x/>"},
	)

	dr, err := DocxReaderFromBytes(docx)
	if err != nil {
		t.Fatalf("DocxReaderFromBytes() error = %v", err)
	}

	want := []string{"word/document.xml", "word/header1.xml", "word/footer2.xml", "word/header.xml"}
	if got := dr.TemplateParts(); !reflect.DeepEqual(got, want) {
		t.Errorf("TemplateParts() = %v, want %v", got, want)
	}

	if got := dr.ListParts(); len(got) != 9 || got[0] != "[Content_Types].xml" {
		t.Errorf("ListParts() = %v", got)
	}
}

func TestDocxReader_WritePackage(t *testing.T) {
	docx := simpleDocx(t, run("[A]"))
	dr, err := DocxReaderFromBytes(docx)
	if err != nil {
		t.Fatalf("DocxReaderFromBytes() error = %v", err)
	}

	out, err := dr.WritePackage(map[string][]byte{
		"word/document.xml": []byte(documentXML(run("done"))),
	})
	if err != nil {
		t.Fatalf("WritePackage() error = %v", err)
	}

	written, err := DocxReaderFromBytes(out)
	if err != nil {
		t.Fatalf("output is not a valid docx: %v", err)
	}
	if !reflect.DeepEqual(written.ListParts(), dr.ListParts()) {
		t.Errorf("part order changed: %v", written.ListParts())
	}
	if got := partText(t, out, "word/document.xml"); got != "done" {
		t.Errorf("document text = %q, want %q", got, "done")
	}

	// Untouched parts keep their compressed bytes.
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/styles.xml"} {
		if got, want := rawPart(t, out, name), rawPart(t, docx, name); !bytes.Equal(got, want) {
			t.Errorf("raw bytes of %s changed", name)
		}
	}
}

// rawPart returns the stored (compressed) bytes of a zip entry.
func rawPart(t *testing.T, docx []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.OpenRaw()
		if err != nil {
			t.Fatalf("failed to open raw %s: %v", name, err)
		}
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("failed to read raw %s: %v", name, err)
		}
		return b
	}
	t.Fatalf("part %s not found", name)
	return nil
}
