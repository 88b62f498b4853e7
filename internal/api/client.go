// Package api uploads finished recordings to the display server.
package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wopr-sim/wopr/pkg/core"
)

const (
	uploadPath  = "/api/v1/recordings"
	healthPath  = "/healthz"
	maxAttempts = 3
)

// StatusError is returned when the server answers with a non-success code.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Code, e.Message)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// Client talks to the display server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client with a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the wait before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a client for the server at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Healthcheck checks if the display server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + healthPath)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	return checkStatus("healthcheck", resp)
}

// Upload sends an exported game file with its metadata. Network failures
// and 5xx answers are retried; other errors return at once.
func (c *Client) Upload(filePath string, meta core.UploadMetadata) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	wait := c.backoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = c.uploadOnce(filePath, meta); err == nil || !retryable(err) {
			return err
		}
		if attempt < maxAttempts {
			time.Sleep(wait)
			wait *= 2
		}
	}
	return fmt.Errorf("upload failed after %d attempts: %w", maxAttempts, err)
}

func (c *Client) uploadOnce(filePath string, meta core.UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fields := [][2]string{
		{"secret", c.apiKey},
		{"filename", filepath.Base(filePath)},
		{"gameId", meta.GameID.String()},
		{"outcome", meta.Outcome},
		{"finalTurn", strconv.Itoa(meta.FinalTurn)},
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, fields, file))
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	return checkStatus("upload", resp)
}

// writeForm streams the metadata fields then the file part.
func writeForm(form *multipart.Writer, fields [][2]string, file *os.File) error {
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}
	part, err := form.CreateFormFile("file", filepath.Base(file.Name()))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return form.Close()
}

// checkStatus closes the body and turns a non-2xx answer into a StatusError.
func checkStatus(op string, resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Op: op, Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}
