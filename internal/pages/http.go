package pages

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36"

// HTTPSource fetches pages live using a signed-in browser session cookie.
type HTTPSource struct {
	http *resty.Client
}

// NewHTTPSource creates a live source. cookie is the raw Cookie header copied
// from a signed-in browser session.
func NewHTTPSource(cookie string, timeout time.Duration) *HTTPSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if cookie != "" {
		rc.SetHeader("Cookie", cookie)
	}
	return &HTTPSource{http: rc}
}

func (h *HTTPSource) Fetch(ctx context.Context, pageURL string) (string, error) {
	res, err := h.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("HTTPSource: GET %s: %w", pageURL, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("HTTPSource: GET %s: unexpected status %d", pageURL, res.StatusCode())
	}
	return res.String(), nil
}
