// Package ocr turns receipt images into plain text through an
// OCR.space-compatible HTTP service.
package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrDisabled is returned when no OCR service is configured.
var ErrDisabled = errors.New("ocr is not configured")

// Recognizer extracts the text printed on an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, contentType string) (string, error)
}

// Disabled is the recognizer used when no API key is set.
type Disabled struct{}

func (Disabled) Recognize(context.Context, []byte, string) (string, error) {
	return "", ErrDisabled
}

// Options configures an HTTPRecognizer.
type Options struct {
	Endpoint   string
	APIKey     string
	Language   string
	Timeout    time.Duration
	MaxRetries uint64
}

// HTTPRecognizer posts base64 encoded images to an OCR.space style endpoint.
type HTTPRecognizer struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
}

// New returns Disabled when opts has no API key, an HTTPRecognizer otherwise.
func New(opts Options, logger *zap.Logger) Recognizer {
	if opts.APIKey == "" {
		return Disabled{}
	}
	return NewHTTPRecognizer(opts, logger)
}

func NewHTTPRecognizer(opts Options, logger *zap.Logger) *HTTPRecognizer {
	if opts.Language == "" {
		opts.Language = "pol"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPRecognizer{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

type parsedResult struct {
	ParsedText string `json:"ParsedText"`
}

type ocrResponse struct {
	ParsedResults         []parsedResult  `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// errorText flattens ErrorMessage, which the service sends either as a
// string or as a list of strings.
func (r *ocrResponse) errorText() string {
	if len(r.ErrorMessage) == 0 {
		return "unknown error"
	}
	var list []string
	if err := json.Unmarshal(r.ErrorMessage, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(r.ErrorMessage, &s); err == nil && s != "" {
		return s
	}
	return string(r.ErrorMessage)
}

// Recognize sends image to the service and returns the concatenated text of
// every parsed page. Server errors and transport failures are retried with
// exponential backoff; client errors are not.
func (r *HTTPRecognizer) Recognize(ctx context.Context, image []byte, contentType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}

	form := url.Values{}
	form.Set("apikey", r.opts.APIKey)
	form.Set("language", r.opts.Language)
	form.Set("isTable", "true")
	form.Set("base64Image", fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image)))
	body := form.Encode()

	var text string
	attempt := 0
	op := func() error {
		attempt++
		t, err := r.post(ctx, body)
		if err != nil {
			r.logger.Warn("ocr request failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		text = t
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return text, nil
}

func (r *HTTPRecognizer) post(ctx context.Context, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint, strings.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build ocr request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("ocr service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", backoff.Permanent(fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode ocr response: %w", err))
	}
	if out.IsErroredOnProcessing {
		return "", backoff.Permanent(fmt.Errorf("ocr processing failed: %s", out.errorText()))
	}

	pages := make([]string, 0, len(out.ParsedResults))
	for _, p := range out.ParsedResults {
		if t := strings.TrimSpace(p.ParsedText); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n"), nil
}
