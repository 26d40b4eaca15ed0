package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/internal/records"
	"github.com/goliatone/go-formtree/pkg/transport"
)

const maxBodyBytes = 1 << 20

type saveResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
	FormID   string `json:"archetype_id"`
}

func (s *Server) listForms(w http.ResponseWriter, _ *http.Request) {
	list := []Summary{}
	if s.lister != nil {
		if entries := s.lister(); entries != nil {
			list = entries
		}
	}
	if s.metrics != nil {
		s.metrics.CatalogSize.Set(float64(len(list)))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) formSchema(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	schema, err := s.fetcher.FetchSchema(r.Context(), id)
	switch {
	case errors.Is(err, transport.ErrNotFound):
		s.metrics.fetch("not_found")
		writeError(w, http.StatusNotFound, "Archetype ID not found or has no parsable form fields.")
		return
	case err != nil:
		s.metrics.fetch("error")
		s.logger.Error().Err(err).Str("form_id", id).Msg("schema fetch failed")
		writeError(w, http.StatusInternalServerError, "Server error while parsing archetype.")
		return
	}
	s.metrics.fetch("ok")
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) saveDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		s.metrics.submission("api", "invalid")
		writeError(w, http.StatusBadRequest, "Missing JSON data.")
		return
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		s.metrics.submission("api", "invalid")
		writeError(w, http.StatusBadRequest, "Missing JSON data.")
		return
	}

	formID, _ := body[s.keys.Form].(string)
	if strings.TrimSpace(formID) == "" {
		s.metrics.submission("api", "invalid")
		writeError(w, http.StatusBadRequest, "Missing '"+s.keys.Form+"' in form data.")
		return
	}
	subject, _ := body[s.keys.Subject].(string)
	if subject == "" {
		subject = records.UnknownSubject
	}

	rec, err := s.store.Save(r.Context(), formID, subject, body)
	if err != nil {
		s.metrics.submission("api", "error")
		s.logger.Error().Err(err).Str("form_id", formID).Msg("save document failed")
		writeError(w, http.StatusInternalServerError, "Failed to save document to database.")
		return
	}
	s.metrics.submission("api", "stored")
	writeJSON(w, http.StatusCreated, saveResponse{
		Status:   "success",
		Message:  "Document saved successfully",
		RecordID: rec.ID,
		FormID:   rec.FormID,
	})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), r.URL.Query().Get("archetype_id"), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list records failed")
		writeError(w, http.StatusInternalServerError, "Failed to list records.")
		return
	}
	if list == nil {
		list = []records.Record{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, records.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found.")
	case err != nil:
		s.logger.Error().Err(err).Msg("get record failed")
		writeError(w, http.StatusInternalServerError, "Failed to load record.")
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}
