package atlassian

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrorType classifies a failed API call.
type ErrorType string

const (
	ErrorNetwork        ErrorType = "NETWORK"
	ErrorBadCredentials ErrorType = "BAD_CREDENTIALS"
	ErrorBadRequest     ErrorType = "BAD_REQUEST"
	ErrorUnknown        ErrorType = "UNKNOWN"
)

// APIError is returned by the client for every failed request.
type APIError struct {
	Type    ErrorType
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("atlassian api %s (%d): %s", e.Type, e.Status, e.Message)
	}
	return fmt.Sprintf("atlassian api %s: %s", e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status code onto the error taxonomy.
// 401 and 404 are both reported as bad credentials: the gateway answers
// 404 for tokens that belong to no site.
func ClassifyStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusNotFound:
		return ErrorBadCredentials
	case status >= 400 && status < 500:
		return ErrorBadRequest
	default:
		return ErrorUnknown
	}
}

// Classify returns the ErrorType for any error. Unrecognized errors are
// ErrorUnknown; a nil error is classified as the empty ErrorType.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	if isNetworkError(err) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// IsAuthError reports whether err (or any error in its chain) is a
// bad-credentials APIError.
func IsAuthError(err error) bool {
	return Classify(err) == ErrorBadCredentials
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ErrorDetails is the user-facing description of an ErrorType.
type ErrorDetails struct {
	Title        string
	Descriptions []string
	Emoji        string
}

var errorDetails = map[ErrorType]ErrorDetails{
	ErrorNetwork: {
		Title:        "Network Error",
		Descriptions: []string{"Unable to connect to one or more Atlassian sites."},
		Emoji:        "🛜",
	},
	ErrorBadCredentials: {
		Title:        "Bad Credentials",
		Descriptions: []string{"The API token you are using is invalid or has expired."},
		Emoji:        "🔓",
	},
	ErrorBadRequest: {
		Title:        "Bad Request",
		Descriptions: []string{"The request to the Atlassian API was rejected."},
		Emoji:        "🙅",
	},
	ErrorUnknown: {
		Title:        "Oops! Something went wrong",
		Descriptions: []string{"Please try again later."},
		Emoji:        "🤔",
	},
}

// Details returns the user-facing description for t.
func (t ErrorType) Details() ErrorDetails {
	if d, ok := errorDetails[t]; ok {
		return d
	}
	return errorDetails[ErrorUnknown]
}
