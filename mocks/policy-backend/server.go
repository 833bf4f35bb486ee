package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type organization struct {
	CompanyName        string `json:"company_name"`
	Industry           string `json:"industry"`
	Size               string `json:"size"`
	EmployeeCount      int    `json:"employee_count"`
	HasMFA             bool   `json:"has_mfa"`
	HasPasswordManager bool   `json:"has_password_manager"`
	HasMDM             bool   `json:"has_mdm"`
}

type questionnaire struct {
	OrgID     string         `json:"org_id"`
	Responses map[string]any `json:"responses"`
}

type generateRequest struct {
	OrgID           string `json:"org_id"`
	QuestionnaireID string `json:"questionnaire_id"`
}

type server struct {
	now func() time.Time

	mu             sync.Mutex
	orgs           map[string]organization
	questionnaires map[string]questionnaire
	documents      map[string]string
}

func newServer(now func() time.Time) *server {
	return &server{
		now:            now,
		orgs:           map[string]organization{},
		questionnaires: map[string]questionnaire{},
		documents:      map[string]string{},
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/organizations", s.handleCreateOrganization)
	mux.HandleFunc("POST /api/questionnaire/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/policies/generate", s.handleGenerate)
	mux.HandleFunc("GET /download/policies/{filename}", s.handleDownload)
	return mux
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "policy backend mock is running"})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339),
		"database":  "in-memory",
	})
}

func (s *server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var org organization
	if err := json.NewDecoder(r.Body).Decode(&org); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid organization payload")
		return
	}
	if org.CompanyName == "" || org.EmployeeCount < 1 {
		writeDetail(w, http.StatusUnprocessableEntity, "company_name and employee_count are required")
		return
	}
	id := newID()
	s.mu.Lock()
	s.orgs[id] = org
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"org_id":     id,
		"created_at": s.now().Format(time.RFC3339),
	})
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var q questionnaire
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid questionnaire payload")
		return
	}
	if q.Responses["q23_byod"] == "Allowed with MDM" && q.Responses["q13_mdm"] == "No" {
		writeDetail(w, http.StatusBadRequest, "Cannot allow BYOD with MDM enrollment when MDM solution is not available")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[q.OrgID]; !ok {
		writeDetail(w, http.StatusNotFound, "Organization not found")
		return
	}
	id := newID()
	s.questionnaires[id] = q
	writeJSON(w, http.StatusOK, map[string]string{
		"questionnaire_id": id,
		"status":           "completed",
	})
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid generate payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[req.OrgID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Organization not found")
		return
	}
	q, ok := s.questionnaires[req.QuestionnaireID]
	if !ok || q.OrgID != req.OrgID {
		writeDetail(w, http.StatusNotFound, "Questionnaire not found")
		return
	}
	filename := fmt.Sprintf("%s_Acceptable_Use_Policy_%s.docx", slug(org.CompanyName), s.now().Format("20060102_150405"))
	s.documents[filename] = renderDocument(org, q)
	writeJSON(w, http.StatusOK, map[string]string{
		"policy_id":    newID(),
		"document_url": "/download/policies/" + filename,
		"filename":     filename,
	})
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	s.mu.Lock()
	body, ok := s.documents[filename]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", docxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(body))
}

// renderDocument produces a plain-text placeholder; the mock does not build
// real Word files.
func renderDocument(org organization, q questionnaire) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Acceptable Use Policy\n%s (%s, %d employees)\n\n", org.CompanyName, org.Industry, org.EmployeeCount)
	fmt.Fprintf(&b, "%d responses recorded.\n", len(q.Responses))
	return b.String()
}

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonWord.ReplaceAllString(name, "_"), "_")
	if s == "" {
		return "Organization"
	}
	return s
}

func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
