// Package remote is the boundary to the patient assessment service: the
// retrying page fetcher and the one-shot report submitter. Response
// bodies are normalized here so the rest of the system only ever sees a
// flat record list.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/collect"
	"github.com/ehr/triage/internal/domain/triage"
)

// APIKeyHeader is the header carrying the static API key on every request.
const APIKeyHeader = "x-api-key"

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 1 << 20

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithPageLimit sets the per-page record limit requested from the service.
func WithPageLimit(n int) ClientOption {
	return func(cl *Client) { cl.pageLimit = n }
}

// WithBackoff sets the rate-limit base delay and the fixed transient
// retry delay.
func WithBackoff(rateLimitBase, transient time.Duration) ClientOption {
	return func(cl *Client) {
		cl.rateLimitBase = rateLimitBase
		cl.transientDelay = transient
	}
}

// Client talks to the patient assessment service.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	pageLimit      int
	rateLimitBase  time.Duration
	transientDelay time.Duration
	logger         zerolog.Logger
}

// NewClient creates a Client with production defaults.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		pageLimit:      5,
		rateLimitBase:  2 * time.Second,
		transientDelay: 1 * time.Second,
		logger:         logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchPage retrieves one page, retrying per the failure taxonomy until
// the attempt budget runs out. Rate limiting backs off with a delay that
// grows with the attempt count; transient failures wait a fixed shorter
// delay; anything else aborts the page on the spot.
func (c *Client) FetchPage(ctx context.Context, page, budget int) (*collect.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		result, err := c.fetchOnce(ctx, page)
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch classifyFailure(err) {
		case failureRateLimited:
			delay := time.Duration(attempt) * c.rateLimitBase
			c.logger.Warn().
				Int("page", page).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("rate limited, backing off")
			if attempt < budget {
				time.Sleep(delay)
			}
		case failureTransient:
			c.logger.Warn().
				Int("page", page).
				Int("attempt", attempt).
				Err(err).
				Msg("transient fetch failure, retrying")
			if attempt < budget {
				time.Sleep(c.transientDelay)
			}
		default:
			c.logger.Error().Int("page", page).Err(err).Msg("unrecoverable fetch failure")
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
	}
	return nil, fmt.Errorf("page %d: %w after %d attempts: %v", page, ErrBudgetExhausted, budget, lastErr)
}

// fetchOnce performs a single request/normalize cycle for a page.
func (c *Client) fetchOnce(ctx context.Context, page int) (*collect.Page, error) {
	url := fmt.Sprintf("%s/patients?page=%d&limit=%d", c.baseURL, page, c.pageLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}

	result, err := normalizePage(body)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrEmptyPage
	}
	return result, nil
}

// SubmitAssessment posts the report once. There is no retry here: a
// submission failure is reported to the caller, never re-attempted.
func (c *Client) SubmitAssessment(ctx context.Context, report *triage.AssessmentReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit-assessment", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit assessment: %w", err)
	}
	defer resp.Body.Close()

	// The response body is opaque to us; keep a bounded snippet for the log.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit assessment: status %d: %s", resp.StatusCode, snippet)
	}

	c.logger.Info().
		Int("status", resp.StatusCode).
		Str("response", string(snippet)).
		Msg("assessment submitted")
	return nil
}
