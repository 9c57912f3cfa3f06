package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/finbrief/finbrief/internal/models"
)

const (
	// DefaultFeedTimeout is the default HTTP timeout for feed requests.
	DefaultFeedTimeout = 30 * time.Second

	// DefaultFeedRateLimit is the default rate limit (requests per second)
	// against the announcement feed.
	DefaultFeedRateLimit = 2
)

// FeedClient fetches company announcements and their document text.
type FeedClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// FeedOption configures the FeedClient.
type FeedOption func(*FeedClient)

// WithFeedBaseURL sets a custom feed base URL.
func WithFeedBaseURL(baseURL string) FeedOption {
	return func(c *FeedClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithFeedHTTPClient sets a custom HTTP client.
func WithFeedHTTPClient(httpClient *http.Client) FeedOption {
	return func(c *FeedClient) {
		c.httpClient = httpClient
	}
}

// WithFeedLogger sets a logger.
func WithFeedLogger(logger arbor.ILogger) FeedOption {
	return func(c *FeedClient) {
		c.logger = logger
	}
}

// WithFeedRateLimit sets a custom rate limit.
func WithFeedRateLimit(requestsPerSecond int) FeedOption {
	return func(c *FeedClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewFeedClient creates a new announcement feed client.
func NewFeedClient(baseURL, apiKey string, opts ...FeedOption) *FeedClient {
	c := &FeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultFeedTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultFeedRateLimit), DefaultFeedRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// announcementRecord is the feed's wire format for a single announcement.
type announcementRecord struct {
	SecName     string `json:"secName"`
	ReportTitle string `json:"reportTitle"`
	ReportDate  string `json:"reportDate"`
	DocumentURL string `json:"pdfUrl"`
}

type announcementsResponse struct {
	Announcements []announcementRecord `json:"announcements"`
}

// FetchAnnouncements returns the announcements published in the inclusive
// date window. Dates are "YYYY-MM-DD".
func (c *FeedClient) FetchAnnouncements(ctx context.Context, startDate, endDate string) ([]models.Announcement, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	params := url.Values{}
	params.Set("access_token", c.apiKey)
	params.Set("date_start", startDate)
	params.Set("date_end", endDate)

	reqURL := fmt.Sprintf("%s/announcements?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("date_start", startDate).
			Str("date_end", endDate).
			Msg("Fetching announcements")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch announcements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("announcement feed returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded announcementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode announcement feed response: %w", err)
	}

	announcements := make([]models.Announcement, 0, len(decoded.Announcements))
	for _, record := range decoded.Announcements {
		if record.ReportTitle == "" || record.DocumentURL == "" {
			continue
		}
		announcements = append(announcements, models.Announcement{
			SecName:     record.SecName,
			ReportTitle: record.ReportTitle,
			ReportDate:  record.ReportDate,
			DocumentURL: record.DocumentURL,
		})
	}

	return announcements, nil
}

// FetchDocumentText downloads an announcement document and returns its plain
// text. HTML documents are stripped to text; anything else is returned as-is
// when it looks like text, otherwise an error is reported so the caller can
// skip the announcement.
func (c *FeedClient) FetchDocumentText(ctx context.Context, documentURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned %d for %s", resp.StatusCode, documentURL)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "text/html"):
		return extractHTMLText(resp.Body)
	case strings.HasPrefix(contentType, "text/"):
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read document body: %w", err)
		}
		return string(body), nil
	default:
		return "", fmt.Errorf("unsupported document content type %q for %s", contentType, documentURL)
	}
}

// extractHTMLText strips markup and collapses whitespace, keeping only the
// visible text the classifier needs.
func extractHTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse document HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}

	// Collect text node by node rather than via Selection.Text, which joins
	// adjacent elements with no separator and fuses words across tags.
	var b strings.Builder
	for _, node := range sel.Nodes {
		appendTextNodes(&b, node)
	}

	return strings.Join(strings.Fields(b.String()), " "), nil
}

func appendTextNodes(b *strings.Builder, node *html.Node) {
	if node.Type == html.TextNode {
		b.WriteString(node.Data)
		b.WriteByte(' ')
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		appendTextNodes(b, child)
	}
}
