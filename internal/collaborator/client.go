// Package collaborator is the HTTP client for the policy backend: organization
// registration, questionnaire storage and document generation.
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policywriter/internal/questionnaire/submission"
	"policywriter/pkg/platform/circuit"
	"policywriter/pkg/requestcontext"
)

// Operation names one backend call.
type Operation string

const (
	OpRegisterOrganization Operation = "register_organization"
	OpSubmitQuestionnaire  Operation = "submit_questionnaire"
	OpGenerateDocument     Operation = "generate_document"
	OpHealth               Operation = "health"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20

	groupIntake    = "intake"
	groupDocuments = "documents"

	unavailableDetail = "The policy service is temporarily unavailable. Please try again shortly."
)

var genericDetail = map[Operation]string{
	OpRegisterOrganization: "failed to register organization",
	OpSubmitQuestionnaire:  "failed to submit questionnaire",
	OpGenerateDocument:     "failed to generate policy",
	OpHealth:               "policy service health check failed",
}

var (
	errBreakerOpen = errors.New("circuit open")
	tracer         = otel.Tracer("policywriter/collaborator")
)

// Document is a generated policy document.
type Document struct {
	PolicyID    string `json:"policy_id"`
	DocumentURL string `json:"document_url"`
	Filename    string `json:"filename"`
}

// Client talks to the policy backend. Registration and submission share one
// breaker; document generation has its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *Metrics
	breakers   map[string]*circuit.Breaker
	clock      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every call, on top of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock drives breaker cooldowns in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.clock = now
		}
	}
}

// New builds a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid policy backend url %q", baseURL)
	}
	c := &Client{
		baseURL:    u.String(),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     slog.Default(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breakers = map[string]*circuit.Breaker{
		groupIntake: circuit.New(groupIntake,
			circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2), circuit.WithClock(c.clock)),
		groupDocuments: circuit.New(groupDocuments,
			circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2), circuit.WithClock(c.clock)),
	}
	return c, nil
}

type registerResponse struct {
	OrgID     string `json:"org_id"`
	CreatedAt string `json:"created_at"`
}

// RegisterOrganization creates the organization record and returns its id.
func (c *Client) RegisterOrganization(ctx context.Context, org submission.OrgPayload) (string, error) {
	var resp registerResponse
	if err := c.call(ctx, OpRegisterOrganization, groupIntake, http.MethodPost, "/api/organizations", org, &resp); err != nil {
		return "", err
	}
	if resp.OrgID == "" {
		return "", newError(CategoryBadData, OpRegisterOrganization, genericDetail[OpRegisterOrganization], 0,
			errors.New("response missing org_id"))
	}
	return resp.OrgID, nil
}

type submitRequest struct {
	OrgID     string         `json:"org_id"`
	Responses map[string]any `json:"responses"`
}

type submitResponse struct {
	QuestionnaireID string `json:"questionnaire_id"`
	Status          string `json:"status"`
}

// SubmitQuestionnaire stores the answer set against orgID and returns the
// questionnaire id.
func (c *Client) SubmitQuestionnaire(ctx context.Context, orgID string, q submission.QuestionnairePayload) (string, error) {
	var resp submitResponse
	req := submitRequest{OrgID: orgID, Responses: q.Responses()}
	if err := c.call(ctx, OpSubmitQuestionnaire, groupIntake, http.MethodPost, "/api/questionnaire/submit", req, &resp); err != nil {
		return "", err
	}
	if resp.QuestionnaireID == "" {
		return "", newError(CategoryBadData, OpSubmitQuestionnaire, genericDetail[OpSubmitQuestionnaire], 0,
			errors.New("response missing questionnaire_id"))
	}
	return resp.QuestionnaireID, nil
}

type generateRequest struct {
	OrgID           string `json:"org_id"`
	QuestionnaireID string `json:"questionnaire_id"`
}

// GenerateDocument asks the backend to render the policy document for a
// stored questionnaire.
func (c *Client) GenerateDocument(ctx context.Context, orgID, questionnaireID string) (Document, error) {
	var doc Document
	req := generateRequest{OrgID: orgID, QuestionnaireID: questionnaireID}
	if err := c.call(ctx, OpGenerateDocument, groupDocuments, http.MethodPost, "/api/policies/generate", req, &doc); err != nil {
		return Document{}, err
	}
	if doc.DocumentURL == "" {
		return Document{}, newError(CategoryBadData, OpGenerateDocument, genericDetail[OpGenerateDocument], 0,
			errors.New("response missing document_url"))
	}
	return doc, nil
}

// Health pings the backend. It bypasses the breakers.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, OpHealth, "", http.MethodGet, "/api/health", nil, nil)
}

// BreakerOpen reports whether the named operation group is failing fast.
func (c *Client) BreakerOpen(op Operation) bool {
	b := c.breakers[groupFor(op)]
	return b != nil && b.IsOpen()
}

func groupFor(op Operation) string {
	switch op {
	case OpRegisterOrganization, OpSubmitQuestionnaire:
		return groupIntake
	case OpGenerateDocument:
		return groupDocuments
	default:
		return ""
	}
}

type errorBody struct {
	Detail any `json:"detail"`
}

func (c *Client) call(ctx context.Context, op Operation, group, method, path string, body, out any) (err error) {
	start := c.clock()
	ctx, span := tracer.Start(ctx, "collaborator."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		))
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(CategoryOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		c.metrics.observeCall(op, outcome, c.clock().Sub(start))
	}()

	breaker := c.breakers[group]
	if breaker != nil && !breaker.Allow() {
		span.SetAttributes(attribute.Bool("collaborator.breaker_open", true))
		return newError(CategoryOutage, op, unavailableDetail, 0, errBreakerOpen)
	}

	err = c.roundTrip(ctx, op, method, path, body, out)
	if breaker != nil && CategoryOf(err) != CategoryCanceled {
		c.record(ctx, breaker, err)
	}
	return err
}

func (c *Client) roundTrip(parent context.Context, op Operation, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return newError(CategoryInternal, op, genericDetail[op], 0, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newError(CategoryInternal, op, genericDetail[op], 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(parent.Err(), context.Canceled) {
			return newError(CategoryCanceled, op, genericDetail[op], 0, err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return newError(CategoryTimeout, op, genericDetail[op], 0, err)
		}
		return newError(CategoryOutage, op, genericDetail[op], 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(parent.Err(), context.Canceled) {
			return newError(CategoryCanceled, op, genericDetail[op], resp.StatusCode, err)
		}
		return newError(CategoryOutage, op, genericDetail[op], resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newError(categoryForStatus(resp.StatusCode), op, detailFrom(raw, genericDetail[op]), resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newError(CategoryBadData, op, genericDetail[op], resp.StatusCode, err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, b *circuit.Breaker, err error) {
	var change circuit.StateChange
	if err != nil && countsAgainstBreaker(err) {
		_, change = b.RecordFailure()
	} else {
		_, change = b.RecordSuccess()
	}
	switch {
	case change.Opened:
		c.logger.WarnContext(ctx, "policy backend circuit opened", "group", b.Name())
		c.metrics.incBreaker(b.Name(), "open")
	case change.Closed:
		c.logger.InfoContext(ctx, "policy backend circuit closed", "group", b.Name())
		c.metrics.incBreaker(b.Name(), "closed")
	}
}

func categoryForStatus(status int) Category {
	switch {
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return CategoryOutage
	default:
		return CategoryRejected
	}
}

// detailFrom extracts a string "detail" from an error body. Structured
// details (lists of field errors) fall back to the generic message.
func detailFrom(raw []byte, fallback string) string {
	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		return fallback
	}
	if s, ok := body.Detail.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
