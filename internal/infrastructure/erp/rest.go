package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"
)

// doJSON executes one JSON round trip against an ERP vendor.
func doJSON(ctx context.Context, doer ports.Doer, platform, method, endpoint string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return execute(doer, platform, req, out)
}

// doForm executes one form-encoded round trip. Tiny's API takes its
// token and payload as form fields and answers JSON.
func doForm(ctx context.Context, doer ports.Doer, platform, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return execute(doer, platform, req, out)
}

func execute(doer ports.Doer, platform string, req *http.Request, out interface{}) error {
	operation := req.Method + " " + req.URL.Path

	resp, err := doer.Do(req)
	if err != nil {
		return domain.NewUpstreamError(platform, operation, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError(platform, operation, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		var vendorErr struct {
			Faultstring string `json:"faultstring"`
			Message     string `json:"message"`
			Error       struct {
				Message     string `json:"message"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &vendorErr) == nil {
			switch {
			case vendorErr.Faultstring != "":
				message = vendorErr.Faultstring
			case vendorErr.Error.Message != "":
				message = vendorErr.Error.Message
			case vendorErr.Message != "":
				message = vendorErr.Message
			}
		}
		return &statusError{
			UpstreamError: domain.UpstreamError{Platform: platform, Operation: operation, Message: message},
			statusCode:    resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.NewUpstreamError(platform, operation, "malformed response body", err)
		}
	}
	return nil
}

// statusError carries the HTTP status so lookups can distinguish 404.
type statusError struct {
	domain.UpstreamError
	statusCode int
}

func (e *statusError) Unwrap() error {
	return &e.UpstreamError
}

func isNotFound(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.statusCode == http.StatusNotFound
	}
	return false
}
