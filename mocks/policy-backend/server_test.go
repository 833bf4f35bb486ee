package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func post(t *testing.T, h http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
	out := map[string]string{}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr, out
}

func TestHandoffFlow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	h := newServer(func() time.Time { return now }).routes()

	rr, org := post(t, h, "/api/organizations", map[string]any{
		"company_name": "Acme Corp", "industry": "Technology", "size": "IG1 (<500 employees)",
		"employee_count": 120, "has_mfa": true, "has_password_manager": false, "has_mdm": true,
	})
	if rr.Code != http.StatusOK || org["org_id"] == "" {
		t.Fatalf("create organization: %d %s", rr.Code, rr.Body.String())
	}

	rr, q := post(t, h, "/api/questionnaire/submit", map[string]any{
		"org_id":    org["org_id"],
		"responses": map[string]any{"q23_byod": "Allowed with MDM", "q13_mdm": "Yes"},
	})
	if rr.Code != http.StatusOK || q["status"] != "completed" {
		t.Fatalf("submit: %d %s", rr.Code, rr.Body.String())
	}

	rr, doc := post(t, h, "/api/policies/generate", map[string]string{
		"org_id": org["org_id"], "questionnaire_id": q["questionnaire_id"],
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", rr.Code, rr.Body.String())
	}
	if want := "Acme_Corp_Acceptable_Use_Policy_20260301_093000.docx"; doc["filename"] != want {
		t.Fatalf("filename = %q, want %q", doc["filename"], want)
	}
	if !strings.HasPrefix(doc["document_url"], "/download/policies/") {
		t.Fatalf("document_url = %q", doc["document_url"])
	}

	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, doc["document_url"], nil))
	if dl.Code != http.StatusOK || dl.Header().Get("Content-Type") != docxMediaType {
		t.Fatalf("download: %d %s", dl.Code, dl.Header().Get("Content-Type"))
	}
}

func TestSubmitRejections(t *testing.T) {
	h := newServer(time.Now).routes()

	rr, body := post(t, h, "/api/questionnaire/submit", map[string]any{
		"org_id":    "missing",
		"responses": map[string]any{"q23_byod": "Allowed with MDM", "q13_mdm": "No"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("byod conflict status = %d", rr.Code)
	}
	if body["detail"] != "Cannot allow BYOD with MDM enrollment when MDM solution is not available" {
		t.Fatalf("detail = %q", body["detail"])
	}

	rr, body = post(t, h, "/api/questionnaire/submit", map[string]any{
		"org_id": "missing", "responses": map[string]any{},
	})
	if rr.Code != http.StatusNotFound || body["detail"] != "Organization not found" {
		t.Fatalf("unknown org: %d %q", rr.Code, body["detail"])
	}

	rr, body = post(t, h, "/api/policies/generate", map[string]string{"org_id": "missing", "questionnaire_id": "x"})
	if rr.Code != http.StatusNotFound || body["detail"] != "Organization not found" {
		t.Fatalf("generate unknown org: %d %q", rr.Code, body["detail"])
	}
}

func TestHealth(t *testing.T) {
	h := newServer(time.Now).routes()
	for _, path := range []string{"/", "/api/health"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rr.Code)
		}
	}
}
