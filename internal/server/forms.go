package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formtree/pkg/interpreter"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/transport"
)

func (s *Server) formRequest(r *http.Request, id, subject string) orchestrator.Request {
	return orchestrator.Request{
		FormID:        id,
		Subject:       subject,
		Title:         s.title(id),
		Action:        r.URL.Path,
		Method:        http.MethodPost,
		RenderOptions: render.RenderOptions{Theme: s.theme},
	}
}

func (s *Server) showForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req := s.formRequest(r, id, r.URL.Query().Get(s.keys.Subject))

	output, _, err := s.orchestrator.Generate(r.Context(), req)
	if err != nil {
		s.formError(w, id, err)
		return
	}
	writeHTML(w, http.StatusOK, output)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	req := s.formRequest(r, id, r.PostForm.Get(s.keys.Subject))

	session, err := s.orchestrator.Open(r.Context(), req)
	if err != nil {
		s.formError(w, id, err)
		return
	}
	if err := applyPosted(session.Container.Form(), r.PostForm); err != nil {
		s.metrics.submission("form", "invalid")
		req.RenderOptions.FormErrors = []string{err.Error()}
		s.renderSession(w, r, session, req, http.StatusBadRequest)
		return
	}

	result, err := s.orchestrator.Submit(r.Context(), session)
	if err != nil {
		s.metrics.submission("form", "error")
		status := http.StatusInternalServerError
		req.RenderOptions.FormErrors = []string{"Submission failed."}
		var subErr *transport.SubmissionError
		if errors.As(err, &subErr) {
			status = http.StatusUnprocessableEntity
			mapping := render.MapErrorPayload(session.Container.Form(), subErr.Fields)
			req.RenderOptions.Errors = mapping.Fields
			req.RenderOptions.FormErrors = render.MergeFormErrors(
				[]string{"Submission failed: " + subErr.Description}, mapping.Form...)
		}
		s.renderSession(w, r, session, req, status)
		return
	}
	s.metrics.submission("form", "stored")

	req.RenderOptions.Notices = []string{fmt.Sprintf("%s (record %s)", result.Message, result.RecordID)}
	output, _, err := s.orchestrator.Generate(r.Context(), req)
	if err != nil {
		s.formError(w, id, err)
		return
	}
	writeHTML(w, http.StatusCreated, output)
}

func (s *Server) renderSession(w http.ResponseWriter, r *http.Request, session *orchestrator.Session, req orchestrator.Request, status int) {
	output, err := s.orchestrator.Render(r.Context(), session, req)
	if err != nil {
		s.logger.Error().Err(err).Str("form_id", session.FormID).Msg("render form failed")
		http.Error(w, "failed to render form", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, output)
}

func (s *Server) formError(w http.ResponseWriter, id string, err error) {
	var loadErr *orchestrator.SchemaLoadError
	switch {
	case errors.Is(err, transport.ErrNotFound):
		s.metrics.fetch("not_found")
		http.Error(w, "form not found", http.StatusNotFound)
	case errors.As(err, &loadErr):
		s.metrics.fetch("error")
		s.logger.Error().Err(err).Str("form_id", id).Msg("schema load failed")
		http.Error(w, "could not load form", http.StatusBadGateway)
	default:
		s.logger.Error().Err(err).Str("form_id", id).Msg("form failed")
		http.Error(w, "could not build form", http.StatusInternalServerError)
	}
}

func (s *Server) title(id string) string {
	if s.lister == nil {
		return ""
	}
	for _, entry := range s.lister() {
		if entry.ID == id {
			return entry.Name
		}
	}
	return ""
}

// applyPosted turns posted HTML values into edits. Fields whose posted value
// equals the current one are not edited, so untouched clusters stay absent.
// Unchecked checkboxes are not posted and read as false.
func applyPosted(units []interpreter.Unit, form url.Values) error {
	var errs []error
	interpreter.Walk(units, func(unit interpreter.Unit) bool {
		if !unit.Editable() {
			return true
		}
		key := unit.Path.String()
		switch unit.Control {
		case interpreter.ControlCheckbox:
			if checked := form.Has(key); checked != unit.Checked() {
				errs = append(errs, unit.Emit(checked))
			}
		default:
			if !form.Has(key) {
				return true
			}
			if value := form.Get(key); value != unit.Text() {
				errs = append(errs, unit.Emit(value))
			}
		}
		return true
	})
	return errors.Join(errs...)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
