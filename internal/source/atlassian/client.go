package atlassian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/atlassify/internal/model"
)

// Decrypter resolves an account's encrypted token to plain text.
type Decrypter interface {
	Decrypt(ref string) (string, error)
}

// Client is a thin HTTP client for the Atlassian GraphQL gateway.
// It handles Basic authentication, JSON marshaling, and automatic
// retry with exponential backoff on HTTP 429.
type Client struct {
	endpoint   string
	vault      Decrypter
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a GraphQL client for endpoint. Tokens are resolved
// through vault for every request and never cached.
func NewClient(endpoint string, vault Decrypter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		vault:    vault,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// Do sends a GraphQL request on behalf of account and returns the
// response envelope. result, when non-nil, receives the decoded data.
func (c *Client) Do(
	ctx context.Context,
	account model.Account,
	gqlReq GraphQLRequest,
	result any,
) (*Response, error) {
	data, err := json.Marshal(gqlReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, retryAfter, err := c.send(ctx, account, data, attempt)
		if err == nil {
			return resp, decodeData(resp, result)
		}
		if retryAfter < 0 {
			return nil, err
		}

		lastErr = err
		select {
		case <-ctx.Done():
			return nil, &APIError{Type: ErrorNetwork, Message: ctx.Err().Error(), Err: ctx.Err()}
		case <-time.After(retryAfter):
		}
	}

	return nil, &APIError{
		Type:    ErrorUnknown,
		Message: fmt.Sprintf("max retries (%d) exceeded", c.maxRetries),
		Err:     lastErr,
	}
}

// send performs one HTTP round trip. A non-negative retryAfter means the
// request was rate limited and may be retried after that duration.
func (c *Client) send(
	ctx context.Context,
	account model.Account,
	body []byte,
	attempt int,
) (*Response, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, -1, fmt.Errorf("creating request: %w", err)
	}

	token, err := c.vault.Decrypt(account.EncryptedToken)
	if err != nil {
		return nil, -1, &APIError{
			Type:    ErrorBadCredentials,
			Message: fmt.Sprintf("resolving token for %s", account.Username),
			Err:     err,
		}
	}
	req.SetBasicAuth(account.Username, token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, -1, &APIError{Type: ErrorNetwork, Message: err.Error(), Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, -1, &APIError{Type: ErrorNetwork, Message: "reading response body", Err: readErr}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retryAfterDuration(resp.Header.Get("Retry-After"), attempt), &APIError{
			Type:    ErrorBadRequest,
			Status:  resp.StatusCode,
			Message: "rate limited",
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, -1, &APIError{
			Type:    ClassifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(truncate(string(respBody), 200)),
		}
	}

	var gqlResp Response
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, -1, &APIError{Type: ErrorUnknown, Message: "decoding response", Err: err}
	}

	if len(gqlResp.Errors) > 0 {
		first := gqlResp.Errors[0]
		errType := ErrorUnknown
		if first.Extensions.StatusCode != 0 {
			errType = ClassifyStatus(first.Extensions.StatusCode)
		}
		return nil, -1, &APIError{
			Type:    errType,
			Status:  first.Extensions.StatusCode,
			Message: first.Message,
		}
	}

	return &gqlResp, 0, nil
}

func decodeData(resp *Response, result any) error {
	if result == nil || isNullData(resp.Data) {
		return nil
	}
	if err := json.Unmarshal(resp.Data, result); err != nil {
		return &APIError{Type: ErrorUnknown, Message: "decoding data", Err: err}
	}
	return nil
}

func isNullData(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// retryAfterDuration reads the Retry-After header value and computes a
// wait duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(header string, attempt int) time.Duration {
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
