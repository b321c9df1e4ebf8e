package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/topsis/pkg/logger"
)

// RemoteError is an error body returned by the service.
type RemoteError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("service returned %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health checks the service's /healthz endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeRemoteError(resp.StatusCode, body)
	}
	return nil
}

// Process uploads the input file to /process and returns the CSV result.
func (c *HTTPClient) Process(ctx context.Context, path, weights, impacts string) ([]byte, error) {
	payload, contentType, err := buildForm(path, weights, impacts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach service: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug(ctx, "process request completed",
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
		logger.String("elapsed", time.Since(start).String()))

	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp.StatusCode, body)
	}
	return body, nil
}

// buildForm encodes the multipart body the service expects.
func buildForm(path, weights, impacts string) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("weights", weights); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("impacts", impacts); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func decodeRemoteError(status int, body []byte) error {
	re := &RemoteError{Status: status}
	if err := json.Unmarshal(body, re); err != nil || re.Code == "" {
		re.Code = http.StatusText(status)
		re.Message = strings.TrimSpace(string(body))
	}
	return re
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
