// Package api is the typed client for the CV analysis backend. It owns
// error normalization and defensive defaulting; the store and orchestrator
// above it only ever see the ClientError taxonomy and fully-populated
// models.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"cv-analyzer-client/internal/common/config"
	clienterrors "cv-analyzer-client/internal/common/errors"
	"cv-analyzer-client/internal/common/httpclient"
	"cv-analyzer-client/internal/common/logger"
	"cv-analyzer-client/internal/common/metrics"
	"cv-analyzer-client/internal/models"
)

// Backend defines the operations the orchestrator and front-end depend on.
type Backend interface {
	CheckHealth(ctx context.Context) (models.HealthStatus, error)
	UploadCandidate(ctx context.Context, filename string, content io.Reader) (models.CandidateRecord, error)
	UploadJobDescription(ctx context.Context, filename string, content io.Reader) (models.JobDescription, error)
	ListCandidates(ctx context.Context) ([]models.CandidateRecord, error)
	ListJobDescriptions(ctx context.Context) ([]models.JobDescription, error)
	GetCandidate(ctx context.Context, id string) (models.CandidateRecord, error)
	GetJobDescription(ctx context.Context, id string) (models.JobDescription, error)
	DeleteCandidate(ctx context.Context, id string) error
	DeleteJobDescription(ctx context.Context, id string) error
	SearchCandidates(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	AnalyzeAndMatch(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResponse, error)
}

type Client struct {
	baseURL string
	// quick holds the metadata timeout; analyze gets its own client so a
	// large batch never trips the short deadline.
	quick   *httpclient.Client
	analyze *httpclient.Client
	log     logger.Logger
}

var _ Backend = (*Client)(nil)

func NewClient(cfg config.APIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		quick:   httpclient.NewClient(config.GetDuration(cfg.Timeout), log),
		analyze: httpclient.NewClient(config.GetDuration(cfg.AnalyzeTimeout), log),
		log:     log,
	}
}

// CheckHealth probes backend liveness. Failure is non-fatal to the rest of
// the app; callers typically log and continue.
func (c *Client) CheckHealth(ctx context.Context) (models.HealthStatus, error) {
	var health models.HealthStatus
	err := c.doJSON(ctx, "checkHealth", "", http.MethodGet, "/health", nil, &health)
	return health, err
}

func (c *Client) UploadCandidate(ctx context.Context, filename string, content io.Reader) (models.CandidateRecord, error) {
	var record models.CandidateRecord
	err := c.doMultipart(ctx, "uploadCandidate", "/api/jobs/upload-cv", filename, content, &record)
	if err != nil {
		return models.CandidateRecord{}, err
	}
	if record.Filename == "" {
		record.Filename = filename
	}
	return record, nil
}

func (c *Client) UploadJobDescription(ctx context.Context, filename string, content io.Reader) (models.JobDescription, error) {
	var jd models.JobDescription
	err := c.doMultipart(ctx, "uploadJobDescription", "/api/jobs/upload-jd", filename, content, &jd)
	if err != nil {
		return models.JobDescription{}, err
	}
	return jd, nil
}

func (c *Client) ListCandidates(ctx context.Context) ([]models.CandidateRecord, error) {
	var out struct {
		CVs []models.CandidateRecord `json:"cvs"`
	}
	if err := c.doJSON(ctx, "listCandidates", "", http.MethodGet, "/api/jobs/list-cvs", nil, &out); err != nil {
		return nil, err
	}
	if out.CVs == nil {
		out.CVs = []models.CandidateRecord{}
	}
	return out.CVs, nil
}

func (c *Client) ListJobDescriptions(ctx context.Context) ([]models.JobDescription, error) {
	var out struct {
		JDs []models.JobDescription `json:"jds"`
	}
	if err := c.doJSON(ctx, "listJobDescriptions", "", http.MethodGet, "/api/jobs/list-jds", nil, &out); err != nil {
		return nil, err
	}
	if out.JDs == nil {
		out.JDs = []models.JobDescription{}
	}
	return out.JDs, nil
}

func (c *Client) GetCandidate(ctx context.Context, id string) (models.CandidateRecord, error) {
	var record models.CandidateRecord
	err := c.doJSON(ctx, "getCandidate", id, http.MethodGet, "/api/jobs/cv/"+id, nil, &record)
	return record, err
}

func (c *Client) GetJobDescription(ctx context.Context, id string) (models.JobDescription, error) {
	var jd models.JobDescription
	err := c.doJSON(ctx, "getJobDescription", id, http.MethodGet, "/api/jobs/jd/"+id, nil, &jd)
	return jd, err
}

func (c *Client) DeleteCandidate(ctx context.Context, id string) error {
	return c.doJSON(ctx, "deleteCandidate", id, http.MethodDelete, "/api/jobs/cv/"+id, nil, nil)
}

func (c *Client) DeleteJobDescription(ctx context.Context, id string) error {
	return c.doJSON(ctx, "deleteJobDescription", id, http.MethodDelete, "/api/jobs/jd/"+id, nil, nil)
}

func (c *Client) SearchCandidates(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	body := map[string]interface{}{
		"query": query,
		"limit": limit,
	}
	var out struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, "searchCandidates", query, http.MethodPost, "/search/", body, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []models.SearchResult{}
	}
	return out.Results, nil
}

// AnalyzeAndMatch submits one job description against N candidate texts.
// The backend expects the candidate texts joined into a single string. The
// response shape is validated before decoding, and absent list fields are
// defaulted here so downstream layers never see nil slices.
func (c *Client) AnalyzeAndMatch(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResponse, error) {
	const op = "analyzeAndMatch"

	body := map[string]interface{}{
		"job_description": req.JobDescription,
		"cv_texts":        strings.Join(req.CVTexts, models.CandidateTextSeparator),
	}

	raw, err := c.doRaw(ctx, op, "", c.analyze, http.MethodPost, "/api/jobs/analyze-and-match", body)
	if err != nil {
		return models.AnalysisResponse{}, err
	}

	if err := validateAnalysisResponse(raw); err != nil {
		c.log.Warn("analysis response failed schema validation", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return models.AnalysisResponse{}, clienterrors.NewServiceError(op, "", http.StatusOK, "malformed analysis response")
	}

	var resp models.AnalysisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.AnalysisResponse{}, clienterrors.NewServiceError(op, "", http.StatusOK, "malformed analysis response")
	}

	if resp.Matches == nil {
		resp.Matches = []models.MatchResult{}
	}
	for i := range resp.Matches {
		if resp.Matches[i].Strengths == nil {
			resp.Matches[i].Strengths = []string{}
		}
		if resp.Matches[i].Gaps == nil {
			resp.Matches[i].Gaps = []string{}
		}
		if resp.Matches[i].Recommendations == nil {
			resp.Matches[i].Recommendations = []string{}
		}
	}
	return resp, nil
}

// doJSON issues a request on the quick client and decodes a JSON response
// into out (out may be nil for operations without a meaningful body).
func (c *Client) doJSON(ctx context.Context, op, target, method, path string, body interface{}, out interface{}) error {
	raw, err := c.doRaw(ctx, op, target, c.quick, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clienterrors.NewServiceError(op, target, http.StatusOK, "malformed response body")
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, op, target string, hc *httpclient.Client, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, clienterrors.Normalize(op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, clienterrors.Normalize(op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(op, target, hc, req)
}

func (c *Client) doMultipart(ctx context.Context, op, path, filename string, content io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return clienterrors.Normalize(op, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return clienterrors.Normalize(op, err)
	}
	if err := writer.Close(); err != nil {
		return clienterrors.Normalize(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return clienterrors.Normalize(op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := c.send(op, filename, c.quick, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clienterrors.NewServiceError(op, filename, http.StatusOK, "malformed response body")
	}
	return nil
}

// send executes the request and maps every failure mode onto the single
// error taxonomy.
func (c *Client) send(op, target string, hc *httpclient.Client, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return nil, clienterrors.NewTransportError(op, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return nil, clienterrors.NewTransportError(op, target, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		metrics.APIRequestsTotal.WithLabelValues(op, "not_found").Inc()
		return nil, clienterrors.NewNotFoundError(op, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APIRequestsTotal.WithLabelValues(op, "service_error").Inc()
		return nil, clienterrors.NewServiceError(op, target, resp.StatusCode, serverMessage(raw))
	}

	metrics.APIRequestsTotal.WithLabelValues(op, "success").Inc()
	return raw, nil
}

// serverMessage extracts a human-readable message from an error body. The
// backend variants use "detail", "error", or "message" interchangeably.
func serverMessage(raw []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, msg := range []string{body.Detail, body.Error, body.Message} {
		if msg != "" {
			return msg
		}
	}
	return ""
}
