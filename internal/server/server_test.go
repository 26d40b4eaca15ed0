package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formtree/internal/records"
	"github.com/goliatone/go-formtree/internal/server"
	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/transport"
	"github.com/goliatone/go-formtree/pkg/values"
)

const vitalsID = "vitals"

func vitalsSchema() model.Schema {
	return model.Schema{
		{Kind: model.KindText, Name: "note", Label: "Note"},
		{Kind: model.KindBoolean, Name: "fasting", Label: "Fasting"},
		{Kind: model.KindCluster, Name: "contact", Label: "Contact", Children: []model.FieldNode{
			{Kind: model.KindText, Name: "phone", Label: "Phone"},
		}},
	}
}

func fetcher() transport.SchemaFetcher {
	return transport.SchemaFetcherFunc(func(_ context.Context, id string) (model.Schema, error) {
		switch id {
		case vitalsID:
			return vitalsSchema(), nil
		case "broken":
			return nil, errors.New("parse failure")
		default:
			return nil, transport.ErrNotFound
		}
	})
}

type fixture struct {
	srv   *httptest.Server
	store *records.Store
}

func newFixture(t *testing.T, options ...server.Option) fixture {
	t.Helper()
	store, err := records.Open(context.Background(), records.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	options = append([]server.Option{
		server.WithLister(func() []server.Summary {
			return []server.Summary{{ID: vitalsID, Name: "Vital signs"}}
		}),
	}, options...)
	s, err := server.New(fetcher(), store, options...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, store: store}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestServer_ListForms(t *testing.T) {
	fx := newFixture(t)

	resp, err := http.Get(fx.srv.URL + "/api/archetypes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got []server.Summary
	if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []server.Summary{{ID: vitalsID, Name: "Vital signs"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_FormSchema(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		id     string
		status int
	}{
		{id: vitalsID, status: http.StatusOK},
		{id: "missing", status: http.StatusNotFound},
		{id: "broken", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			resp, err := http.Get(fx.srv.URL + "/api/archetype/form/" + tt.id)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body := readBody(t, resp)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
			if tt.status != http.StatusOK {
				if !strings.Contains(body, `"error"`) {
					t.Fatalf("expected error body, got %s", body)
				}
				return
			}
			schema, err := model.DecodeSchemaJSON([]byte(body))
			if err != nil {
				t.Fatalf("parse served schema: %v", err)
			}
			if diff := cmp.Diff(vitalsSchema(), schema, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServer_SaveDocument(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest},
		{name: "invalid json", body: "{", status: http.StatusBadRequest},
		{name: "missing form id", body: `{"note":"x"}`, status: http.StatusBadRequest},
		{name: "stored", body: `{"archetypeId":"vitals","note":"x"}`, status: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(fx.srv.URL+"/api/ehr/save", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			body := readBody(t, resp)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
		})
	}

	list, err := fx.store.List(context.Background(), vitalsID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one stored record, got %d", len(list))
	}
	if list[0].Subject != records.UnknownSubject {
		t.Fatalf("expected default subject, got %q", list[0].Subject)
	}
}

func TestServer_SaveResponseAndRecords(t *testing.T) {
	fx := newFixture(t)

	resp, err := http.Post(fx.srv.URL+"/api/ehr/save", "application/json",
		strings.NewReader(`{"archetypeId":"vitals","patientId":"PAT-7","note":"ok"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var saved map[string]string
	if err := json.Unmarshal([]byte(readBody(t, resp)), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved["status"] != "success" || saved["message"] != "Document saved successfully" || saved["archetype_id"] != vitalsID {
		t.Fatalf("unexpected response: %v", saved)
	}
	if saved["record_id"] == "" {
		t.Fatal("expected record id")
	}

	resp, err = http.Get(fx.srv.URL + "/api/ehr/records/" + saved["record_id"])
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	var rec records.Record
	if err := json.Unmarshal([]byte(readBody(t, resp)), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Subject != "PAT-7" || rec.Data["note"] != "ok" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	resp, err = http.Get(fx.srv.URL + "/api/ehr/records/nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(fx.srv.URL + "/api/ehr/records?limit=x")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestServer_HTMLFormRoundTrip(t *testing.T) {
	fx := newFixture(t)

	resp, err := http.Get(fx.srv.URL + "/forms/" + vitalsID + "?patientId=PAT-1")
	if err != nil {
		t.Fatalf("get form: %v", err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, page)
	}
	for _, fragment := range []string{
		`name="archetypeId" value="vitals"`,
		`name="patientId" value="PAT-1"`,
		`name="note"`,
		`name="contact.phone"`,
		"Vital signs",
	} {
		if !strings.Contains(page, fragment) {
			t.Fatalf("expected %q in page:\n%s", fragment, page)
		}
	}

	form := url.Values{
		"archetypeId":   {vitalsID},
		"patientId":     {"PAT-1"},
		"note":          {"steady"},
		"fasting":       {"true"},
		"contact.phone": {""},
	}
	resp, err = http.PostForm(fx.srv.URL+"/forms/"+vitalsID, form)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	page = readBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, page)
	}
	if !strings.Contains(page, "Document saved successfully") {
		t.Fatalf("expected notice in page:\n%s", page)
	}

	list, err := fx.store.List(context.Background(), vitalsID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record, got %d", len(list))
	}
	want := map[string]any{
		"archetypeId": vitalsID,
		"patientId":   "PAT-1",
		"note":        "steady",
		"fasting":     true,
	}
	if diff := cmp.Diff(want, list[0].Data); diff != "" {
		t.Fatalf("stored data mismatch (-want +got):\n%s", diff)
	}
}

type submitterFunc func(ctx context.Context, formID string, tree values.Tree, subject string) (transport.Result, error)

func (f submitterFunc) Submit(ctx context.Context, formID string, tree values.Tree, subject string) (transport.Result, error) {
	return f(ctx, formID, tree, subject)
}

func TestServer_HTMLFormShowsBackendFieldErrors(t *testing.T) {
	backend := submitterFunc(func(context.Context, string, values.Tree, string) (transport.Result, error) {
		return transport.Result{}, &transport.SubmissionError{
			Status:      http.StatusUnprocessableEntity,
			Description: "validation failed",
			Fields: map[string][]string{
				"data/contact/phone": {"phone is required"},
				"visit.reference":    {"reference expired"},
			},
		}
	})
	fx := newFixture(t, server.WithOrchestrator(orchestrator.New(
		orchestrator.WithFetcher(fetcher()),
		orchestrator.WithSubmitter(backend),
	)))

	form := url.Values{"archetypeId": {vitalsID}, "note": {"steady"}}
	resp, err := http.PostForm(fx.srv.URL+"/forms/"+vitalsID, form)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, page)
	}
	for _, fragment := range []string{
		`<p class="formtree-field-error" role="alert">phone is required</p>`,
		`<p class="formtree-error" role="alert">Submission failed: validation failed</p>`,
		`<p class="formtree-error" role="alert">reference expired</p>`,
	} {
		if !strings.Contains(page, fragment) {
			t.Fatalf("expected %q in page:\n%s", fragment, page)
		}
	}
}

func TestServer_HTMLFormErrors(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		id     string
		status int
	}{
		{id: "missing", status: http.StatusNotFound},
		{id: "broken", status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, err := http.Get(fx.srv.URL + "/forms/" + tt.id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		readBody(t, resp)
		if resp.StatusCode != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.id, tt.status, resp.StatusCode)
		}
	}
}

func TestServer_MetricsAndHealth(t *testing.T) {
	fx := newFixture(t, server.WithMetrics(server.NewMetrics(), "/metrics"))

	for _, path := range []string{"/healthz", "/api/archetype/form/" + vitalsID, "/api/archetype/form/missing"} {
		resp, err := http.Get(fx.srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		readBody(t, resp)
	}

	resp, err := http.Get(fx.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body := readBody(t, resp)
	for _, fragment := range []string{
		`formtree_http_requests_total{method="GET",route="/api/archetype/form/{id}",status="200"} 1`,
		`formtree_schema_fetches_total{result="not_found"} 1`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %q in metrics:\n%s", fragment, body)
		}
	}
}
