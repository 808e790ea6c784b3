package factus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/factusapp/factusapp/internal/cache"
	"github.com/factusapp/factusapp/internal/config"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/httpclient"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
)

// Operation names used for metrics and logs
const (
	OpToken       = "token"
	OpSubmit      = "submit"
	OpStatus      = "status"
	OpCancel      = "cancel"
	OpDownloadXML = "download_xml"
	OpDownloadPDF = "download_pdf"
)

// Client talks to the fiscal provider
type Client interface {
	// Submit sends a bill for validation and returns the provider's envelope
	Submit(ctx context.Context, req *BillRequest) (*BillEnvelope, error)
	// Status fetches the current state of a submitted bill
	Status(ctx context.Context, externalID string) (*BillEnvelope, error)
	// Cancel voids a submitted bill with the given motive
	Cancel(ctx context.Context, externalID, motive string) (*BillEnvelope, error)
	// DownloadXML fetches the signed XML of a bill by its fiscal number
	DownloadXML(ctx context.Context, number string) (*Document, error)
	// DownloadPDF fetches the graphic representation of a bill by its fiscal number
	DownloadPDF(ctx context.Context, number string) (*Document, error)
}

// NewClient returns the simulator in demo mode and the API client otherwise
func NewClient(cfg *config.Configuration, c cache.Cache, log *logger.Logger, m *metrics.Metrics) Client {
	if cfg.Factus.DemoMode {
		log.Infow("fiscal provider running in demo mode")
		return NewDemoClient(log)
	}
	return NewAPIClient(cfg.Factus, httpclient.NewClientWithTimeout(cfg.Factus.GetTimeout()), c, log, m)
}

// APIClient is the HTTP client of the provider API
type APIClient struct {
	baseURL string
	http    httpclient.Client
	session *Session
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewAPIClient creates a client authenticating with the password grant of cfg
func NewAPIClient(cfg config.FactusConfig, hc httpclient.Client, c cache.Cache, log *logger.Logger, m *metrics.Metrics) *APIClient {
	client := &APIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  log,
		metrics: m,
	}
	creds := tokenRequest{
		GrantType:    "password",
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Password:     cfg.Password,
	}
	client.session = NewSession(c, cfg.ClientID+":"+cfg.Username, func(ctx context.Context) (*TokenResponse, error) {
		return client.fetchToken(ctx, creds)
	}, log, m)
	return client
}

func (c *APIClient) fetchToken(ctx context.Context, creds tokenRequest) (*TokenResponse, error) {
	start := time.Now()
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := c.http.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/oauth/token",
		Headers: map[string]string{"Accept": "application/json"},
		Body:    body,
	})
	if err != nil {
		err = c.translateError(OpToken, err)
		c.metrics.ObserveFiscalCall(OpToken, start, err)
		return nil, err
	}

	var token TokenResponse
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		err = decodeError(OpToken, err)
		c.metrics.ObserveFiscalCall(OpToken, start, err)
		return nil, err
	}
	c.metrics.ObserveFiscalCall(OpToken, start, nil)
	return &token, nil
}

func (c *APIClient) Submit(ctx context.Context, req *BillRequest) (*BillEnvelope, error) {
	var env BillEnvelope
	if err := c.do(ctx, OpSubmit, http.MethodPost, "/v1/bills/validate", req, &env); err != nil {
		return nil, err
	}
	if err := env.RequireBill(); err != nil {
		c.logger.Errorw("fiscal provider accepted a bill without identifiers",
			"reference_code", req.ReferenceCode,
			"status", env.StatusText(),
			"message", env.Message,
		)
		return nil, err
	}
	c.logger.Infow("bill submitted to fiscal provider",
		"reference_code", req.ReferenceCode,
		"external_id", env.Data.Bill.ID,
		"number", env.Data.Bill.Number,
	)
	return &env, nil
}

func (c *APIClient) Status(ctx context.Context, externalID string) (*BillEnvelope, error) {
	var env BillEnvelope
	if err := c.do(ctx, OpStatus, http.MethodGet, "/v1/bills/"+url.PathEscape(externalID), nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *APIClient) Cancel(ctx context.Context, externalID, motive string) (*BillEnvelope, error) {
	var env BillEnvelope
	path := fmt.Sprintf("/v1/bills/%s/cancel", url.PathEscape(externalID))
	if err := c.do(ctx, OpCancel, http.MethodPost, path, cancelRequest{Motive: motive}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *APIClient) DownloadXML(ctx context.Context, number string) (*Document, error) {
	return c.download(ctx, OpDownloadXML, DocumentKindXML, "/v1/bills/download-xml/"+url.PathEscape(number))
}

func (c *APIClient) DownloadPDF(ctx context.Context, number string) (*Document, error) {
	return c.download(ctx, OpDownloadPDF, DocumentKindPDF, "/v1/bills/download-pdf/"+url.PathEscape(number))
}

func (c *APIClient) download(ctx context.Context, op string, kind DocumentKind, path string) (*Document, error) {
	var env DocumentEnvelope
	if err := c.do(ctx, op, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.toDocument(kind), nil
}

// do performs an authenticated call and decodes the body into out
func (c *APIClient) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveFiscalCall(op, start, err) }()

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return err
	}

	req := &httpclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Accept":        "application/json",
			"Authorization": "Bearer " + token,
		},
	}
	if in != nil {
		body, mErr := json.Marshal(in)
		if mErr != nil {
			return ierr.WithError(mErr).
				WithHint("Could not encode the fiscal provider request").
				Mark(ierr.ErrSystem)
		}
		req.Body = body
	}

	resp, err := c.http.Send(ctx, req)
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusUnauthorized {
			c.session.Invalidate(ctx)
		}
		return c.translateError(op, err)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

// translateError turns transport and status errors into external service errors
// carrying the provider's message
func (c *APIClient) translateError(op string, err error) error {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		c.logger.Errorw("fiscal provider unreachable", "operation", op, "error", err)
		return ierr.WithError(err).
			WithHint("The fiscal provider could not be reached").
			WithReportableDetails(map[string]any{"operation": op}).
			Mark(ierr.ErrExternalService)
	}

	message := parseErrorMessage(httpErr.Response)
	c.logger.Errorw("fiscal provider returned an error",
		"operation", op,
		"status_code", httpErr.StatusCode,
		"message", message,
	)

	hint := "The fiscal provider rejected the request"
	if message != "" {
		hint = fmt.Sprintf("Fiscal provider error: %s", message)
	}
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(map[string]any{
			"operation":   op,
			"status_code": httpErr.StatusCode,
			"message":     message,
		}).
		Mark(ierr.ErrExternalService)
}

// parseErrorMessage extracts the most specific message of an error body,
// falling back to the raw body
func parseErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if text := env.text(); text != "" {
			return text
		}
	}
	return strings.TrimSpace(string(body))
}

func decodeError(op string, err error) error {
	return ierr.WithError(err).
		WithHint("The fiscal provider returned an unexpected response").
		WithReportableDetails(map[string]any{"operation": op}).
		Mark(ierr.ErrExternalService)
}
