package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

type textSink interface {
	SetText(text string)
}

// RequestObserver receives timing for every backend call.
type RequestObserver interface {
	ObserveBackendRequest(method, route string, status int, duration time.Duration)
}

// BackendClient speaks JSON to the remote bus pass API on behalf of a principal.
type BackendClient struct {
	baseURL  string
	client   *http.Client
	observer RequestObserver
	logger   *zap.Logger
}

// NewBackendClient constructs a client for the configured origin.
func NewBackendClient(baseURL string, timeout time.Duration, observer RequestObserver, logger *zap.Logger) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *BackendClient) WithHTTPClient(client *http.Client) *BackendClient {
	if client != nil {
		c.client = client
	}
	return c
}

// BaseURL returns the configured backend origin.
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

type call struct {
	method string
	// route is the templated path used as metrics label.
	route      string
	path       string
	query      url.Values
	body       interface{}
	credential string
	idempotent bool
}

// HTTPStatusError is the transport failure raised for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend responded %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Body)
}

// StatusCodeOf extracts the backend HTTP status from an error chain, or 0.
func StatusCodeOf(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// do performs the call and decodes the JSON body into dest. It returns
// found=false when the backend answered 2xx with an empty or null body.
func (c *BackendClient) do(ctx context.Context, cl call, dest interface{}) (bool, error) {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.credential != "" {
		req.Header.Set("Authorization", "Bearer "+cl.credential)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	if cl.idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(cl, http.StatusServiceUnavailable, duration)
		return false, appErrors.WrapAs(err, appErrors.ErrTransport, "")
	}
	defer resp.Body.Close()
	c.observe(cl, resp.StatusCode, duration)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, appErrors.WrapAs(err, appErrors.ErrTransport, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)))}
		c.logger.Warn("backend call failed",
			zap.String("method", cl.method),
			zap.String("route", cl.route),
			zap.Int("status", resp.StatusCode),
		)
		return false, classifyStatus(statusErr)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		// Plain-text acknowledgements carry no structured payload.
		switch sink := dest.(type) {
		case *string:
			*sink = string(trimmed)
		case textSink:
			sink.SetText(string(trimmed))
		}
		return true, nil
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "unexpected response from the bus pass service")
	}
	return true, nil
}

func (c *BackendClient) observe(cl call, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(cl.method, cl.route, status, d)
	}
}

func classifyStatus(statusErr *HTTPStatusError) error {
	switch statusErr.StatusCode {
	case http.StatusUnauthorized:
		return appErrors.WrapAs(statusErr, appErrors.ErrUnauthorized, "your session has expired, please sign in again")
	case http.StatusForbidden:
		return appErrors.WrapAs(statusErr, appErrors.ErrForbidden, "")
	case http.StatusNotFound:
		return appErrors.WrapAs(statusErr, appErrors.ErrNotFound, "")
	default:
		message := appErrors.ErrTransport.Message
		if statusErr.StatusCode < 500 && statusErr.Body != "" && !strings.HasPrefix(statusErr.Body, "{") {
			message = statusErr.Body
		}
		return appErrors.Wrap(statusErr, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, message)
	}
}

func principalQuery(p models.Principal) url.Values {
	q := url.Values{}
	q.Set("principal", p.ID.String())
	return q
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
