package docfill

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
)

const documentPart = "word/document.xml"

// templatePartPattern matches the parts that may hold placeholders: the body
// and any numbered header or footer.
var templatePartPattern = regexp.MustCompile(`^word/(document|header\d*|footer\d*)\.xml$`)

// DocxReader handles reading and parsing DOCX files
type DocxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// NewDocxReader creates a new DOCX reader
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read zip file: %v", ErrInvalidDocument, err)
	}

	dr := &DocxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts[documentPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, documentPart)
	}

	return dr, nil
}

// DocxReaderFromBytes creates a DocxReader over an in-memory package
func DocxReaderFromBytes(content []byte) (*DocxReader, error) {
	return NewDocxReader(bytes.NewReader(content), int64(len(content)))
}

// GetDocumentXML retrieves the content of word/document.xml
func (dr *DocxReader) GetDocumentXML() (string, error) {
	content, err := dr.GetPart(documentPart)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open part %s: %v", ErrInvalidDocument, partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read part %s: %v", ErrInvalidDocument, partName, err)
	}

	return content, nil
}

// ListParts returns the names of all parts in archive order
func (dr *DocxReader) ListParts() []string {
	parts := make([]string, 0, len(dr.reader.File))
	for _, file := range dr.reader.File {
		parts = append(parts, file.Name)
	}
	return parts
}

// TemplateParts returns the body, header and footer parts in archive order
func (dr *DocxReader) TemplateParts() []string {
	var parts []string
	for _, file := range dr.reader.File {
		if templatePartPattern.MatchString(file.Name) {
			parts = append(parts, file.Name)
		}
	}
	return parts
}

// WritePackage writes a new DOCX in which the given parts are replaced.
// Every other entry is copied without recompression, so its bytes are
// identical to the source.
func (dr *DocxReader) WritePackage(replaced map[string][]byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, file := range dr.reader.File {
		content, ok := replaced[file.Name]
		if !ok {
			if err := w.Copy(file); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   file.Method,
			Modified: file.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}
