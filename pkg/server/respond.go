package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// writeDecodeError maps a decodeJSON failure to a response.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
}

var docxSuffix = regexp.MustCompile(`(?i)\.docx$`)

// outputName derives the download name from the client's filename hint.
func outputName(hint string) string {
	base := docxSuffix.ReplaceAllString(hint, "")
	if base == "" {
		base = "filled"
	}
	return base + "-completed.docx"
}

// contentDisposition builds an attachment header. Names that are not plain
// ASCII also get an RFC 5987 filename* parameter.
func contentDisposition(name string) string {
	plain := true
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			plain = false
			break
		}
	}
	if plain {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
		return `attachment; filename="` + escaped + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return `attachment; filename="download.docx"; filename*=UTF-8''` + url.PathEscape(name)
}
