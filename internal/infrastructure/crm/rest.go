package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"
)

// doJSON executes one JSON round trip against a CRM vendor. Auth is the
// caller's concern: tokens travel either in headers or in the URL query,
// depending on the vendor.
func doJSON(ctx context.Context, doer ports.Doer, platform, method, url string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return domain.NewUpstreamError(platform, method+" "+req.URL.Path, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError(platform, method+" "+req.URL.Path, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		var vendorErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(raw, &vendorErr) == nil {
			if vendorErr.Message != "" {
				message = vendorErr.Message
			} else if vendorErr.Error != "" {
				message = vendorErr.Error
			}
		}
		return &statusError{
			UpstreamError: domain.UpstreamError{Platform: platform, Operation: method + " " + req.URL.Path, Message: message},
			statusCode:    resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.NewUpstreamError(platform, method+" "+req.URL.Path, "malformed response body", err)
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

// Pipedrive keys records with numeric ids; the canonical model uses
// strings. Zero maps to the empty string in both directions.
func parseID(id string) int64 {
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
