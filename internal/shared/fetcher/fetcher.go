// Package fetcher performs the GET requests against upstream HTTP services.
package fetcher

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode"

	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxBodySize = 4 << 20

// StatusError is returned for non-2xx responses. It unwraps to ErrUpstreamUnavailable.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error {
	return errors.ErrUpstreamUnavailable
}

// IsStatus reports whether err was caused by a response with the given status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return stderrors.As(err, &statusErr) && statusErr.StatusCode == code
}

type Options struct {
	Timeout       time.Duration
	MaxConcurrent int64
	Client        *http.Client
	Logger        *slog.Logger
}

// Fetcher issues GET requests. At most MaxConcurrent requests are in flight,
// further callers wait until a slot frees up or their context ends.
type Fetcher struct {
	client *http.Client
	sem    *semaphore.Weighted
	logger *slog.Logger
}

func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client: client,
		sem:    semaphore.NewWeighted(opts.MaxConcurrent),
		logger: logger,
	}
}

// GetJSON requests rawURL with the query parameters and decodes the body into out.
// The body is always read as UTF-8, whatever charset the server declares.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, body, err := f.get(ctx, rawURL, query)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return oops.
			With("url", resp.Request.URL.String(), "status_code", resp.StatusCode).
			Wrap(&StatusError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})
	}

	decoded, _, err := transform.Bytes(xunicode.BOMOverride(xunicode.UTF8.NewDecoder()), body)
	if err != nil {
		return oops.With("url", rawURL).Wrapf(errors.ErrUpstreamMalformed, "decoding body: %v", err)
	}

	if err := json.Unmarshal(decoded, out); err != nil {
		return oops.With("url", rawURL).Wrapf(errors.ErrUpstreamMalformed, "decoding json: %v", err)
	}

	return nil
}

// ResolveURL requests rawURL, follows redirects and returns the final location.
// The status code of the final response is not inspected.
func (f *Fetcher) ResolveURL(ctx context.Context, rawURL string) (string, error) {
	resp, _, err := f.get(ctx, rawURL, nil)
	if err != nil {
		return "", err
	}
	return resp.Request.URL.String(), nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, query url.Values) (*http.Response, []byte, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, nil, err
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, oops.With("url", rawURL).Wrapf(errors.ErrInvalidRequest, "parsing url: %v", err)
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, oops.With("url", target.String()).Wrapf(errors.ErrUpstreamUnavailable, "waiting for request slot: %v", err)
	}
	defer f.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, nil, oops.With("url", target.String()).Wrapf(errors.ErrInvalidRequest, "building request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	f.logger.Debug("Sending request", "url", target.String())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, oops.With("url", target.String()).Wrapf(errors.ErrUpstreamUnavailable, "%v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, oops.With("url", target.String()).Wrapf(errors.ErrUpstreamUnavailable, "reading body: %v", err)
	}

	return resp, body, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return oops.Wrapf(errors.ErrInvalidRequest, "url must not be empty")
	}
	for _, r := range rawURL {
		if !unicode.IsPrint(r) {
			return oops.With("url", rawURL).Wrapf(errors.ErrInvalidRequest, "url contains non-printable character %q", r)
		}
	}
	return nil
}
