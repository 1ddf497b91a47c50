package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benjaminschreck/go-docfill/pkg/assist"
	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/store"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// multipartOverhead is allowed on top of the file size for the form framing.
const multipartOverhead = 64 << 10

type detectResponse struct {
	FileID       string   `json:"fileId"`
	Filename     string   `json:"filename"`
	Placeholders []string `json:"placeholders"`
}

type generateRequest struct {
	FileID   string         `json:"fileId"`
	Data     map[string]any `json:"data"`
	Filename string         `json:"filename"`
}

type suggestRequest struct {
	Placeholders []string       `json:"placeholders"`
	Answers      map[string]any `json:"answers"`
	Context      string         `json:"context"`
}

type suggestResponse struct {
	Suggestions []assist.Suggestion `json:"suggestions"`
}

type autofillResponse struct {
	Values map[string]string `json:"values"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleDetect accepts a multipart upload in field "file", lists its
// placeholders and keeps the document for a later generate call.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded", "")
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large", "")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".docx") {
		writeError(w, http.StatusBadRequest, "Only .docx files are supported", "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded", err.Error())
		return
	}

	placeholders, err := s.engine.ExtractBytes(data)
	if err != nil {
		s.metrics.observeExtraction(resultInvalid, 0)
		writeError(w, http.StatusBadRequest, "Failed to parse the document", err.Error())
		return
	}
	s.metrics.observeExtraction(resultOK, len(placeholders))

	id, err := s.store.Save(r.Context(), data)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to store upload")
		writeError(w, http.StatusInternalServerError, "Failed to parse the document", "")
		return
	}

	s.logger.WithFields(docfill.Fields{
		"file_id":      id,
		"placeholders": len(placeholders),
	}).Info("Template uploaded")

	writeJSON(w, http.StatusOK, detectResponse{
		FileID:       id,
		Filename:     header.Filename,
		Placeholders: placeholders,
	})
}

// handleGenerate renders a stored upload with the posted values and returns
// the completed document as an attachment.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, generateBodyLimit, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "fileId is required", "")
		return
	}

	src, err := s.store.Load(r.Context(), req.FileID)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid fileId", "")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Source file not found: "+req.FileID, "")
		return
	case err != nil:
		s.logger.WithField("error", err.Error()).Error("Failed to load upload")
		writeError(w, http.StatusInternalServerError, "Failed to generate the document", err.Error())
		return
	}

	start := time.Now()
	out, err := s.engine.Render(src, docfill.ValuesFrom(req.Data))
	elapsed := time.Since(start)
	if err != nil {
		var re *docfill.RenderError
		switch {
		case errors.As(err, &re):
			s.metrics.observeRender(resultInvalid, elapsed)
			writeError(w, http.StatusBadRequest, "Failed to generate the document", re.Details())
		case docfill.IsDocumentError(err):
			s.metrics.observeRender(resultInvalid, elapsed)
			writeError(w, http.StatusBadRequest, "Failed to generate the document", err.Error())
		default:
			s.metrics.observeRender(resultError, elapsed)
			writeError(w, http.StatusInternalServerError, "Failed to generate the document", err.Error())
		}
		return
	}
	s.metrics.observeRender(resultOK, elapsed)

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(outputName(req.Filename)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(w, r, assistBodyLimit, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	answers := docfill.ValuesFrom(req.Answers)

	suggestions, err := s.suggester.Suggest(r.Context(), assist.SuggestRequest{
		Placeholders: req.Placeholders,
		Answers:      answers,
		Context:      req.Context,
	})
	if err != nil {
		s.metrics.observeAssist("suggest", resultError)
		s.logger.WithField("error", err.Error()).Error("Suggest failed")
		writeError(w, http.StatusInternalServerError, "Suggest failed", "")
		return
	}
	s.metrics.observeAssist("suggest", resultOK)

	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
}

func (s *Server) handleAutofill(w http.ResponseWriter, r *http.Request) {
	var req assist.AutofillRequest
	if err := decodeJSON(w, r, assistBodyLimit, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	values, err := s.autofiller.Autofill(r.Context(), req)
	if errors.Is(err, assist.ErrNoPlaceholders) {
		s.metrics.observeAssist("autofill", resultInvalid)
		writeError(w, http.StatusBadRequest, "No placeholders provided", "")
		return
	}
	if err != nil {
		s.metrics.observeAssist("autofill", resultError)
		s.logger.WithField("error", err.Error()).Error("Autofill failed")
		writeError(w, http.StatusInternalServerError, "Autofill failed", "")
		return
	}
	s.metrics.observeAssist("autofill", resultOK)

	writeJSON(w, http.StatusOK, autofillResponse{Values: values})
}
