package inspire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the INSPIRE-HEP site root.
	BaseURL = "https://inspirehep.net"

	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second

	// RateLimit stays under INSPIRE's documented 15 requests per 5 seconds.
	RateLimit = 2.0

	// DefaultAttempts and DefaultRetryDelay bound the retry loop per request.
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second

	// SearchFields are the literature fields requested by Search.
	SearchFields = "control_number,texkeys,arxiv_eprints"

	// CocitationMarker separates citations from co-citations on the citations page.
	CocitationMarker = "Co-cited with"

	userAgent = "citeweb (+https://github.com/matsen/citeweb)"
)

var recordLinkPattern = regexp.MustCompile(`/record/([0-9]+)`)

// Client is a rate-limited, retrying HTTP client for INSPIRE-HEP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	attempts   int
	retryDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (mirrors and tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets the request rate in requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets how many attempts a request gets and the fixed delay between them.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a new INSPIRE client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
// Server-side and throttling failures are marked retryable.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &RetryableError{Err: &APIError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}}
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}
	}
	return nil
}

// Fetch downloads one URL with rate limiting and bounded retries.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.attempts, c.retryDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, text/html;q=0.9")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetworkError, err)}
		}
		defer resp.Body.Close()

		if err := checkHTTPErrors(resp); err != nil {
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &RetryableError{Err: fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Search runs one page of a literature query. Pages are 1-based.
func (c *Client) Search(ctx context.Context, query string, page, size int) ([]Hit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	params.Set("fields", SearchFields)

	body, err := c.Fetch(ctx, c.baseURL+"/api/literature?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	hits := make([]Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hit := h.toHit()
		if hit.ID == "" {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// FetchReferences returns the ids cited by the record.
func (c *Client) FetchReferences(ctx context.Context, id string) ([]string, error) {
	body, err := c.Fetch(ctx, fmt.Sprintf("%s/record/%s/references", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	return ParseRecordLinks(string(body), id), nil
}

// FetchCitations returns the ids citing the record and, from the same page,
// the ids listed after CocitationMarker.
func (c *Client) FetchCitations(ctx context.Context, id string) (citations, cocitations []string, err error) {
	body, err := c.Fetch(ctx, fmt.Sprintf("%s/record/%s/citations", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, nil, err
	}
	citations, cocitations = SplitCitationsPage(string(body), id)
	return citations, cocitations, nil
}

// ParseRecordLinks extracts record ids from /record/<id> links in page order,
// without duplicates and without the page's own id.
func ParseRecordLinks(page, self string) []string {
	seen := map[string]bool{self: true}
	var ids []string
	for _, m := range recordLinkPattern.FindAllStringSubmatch(page, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	return ids
}

// SplitCitationsPage splits a citations page at CocitationMarker.
// Without a marker every link is a citation.
func SplitCitationsPage(page, self string) (citations, cocitations []string) {
	idx := strings.Index(strings.ToLower(page), strings.ToLower(CocitationMarker))
	if idx < 0 {
		return ParseRecordLinks(page, self), nil
	}
	return ParseRecordLinks(page[:idx], self), ParseRecordLinks(page[idx:], self)
}
