package classifierapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
)

var _ ports.ClassifierService = (*Client)(nil)

// Client talks to the remote classification service. It performs exactly one
// HTTP call per method; retries belong to the caller's fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	// Timeout of zero leaves calls unbounded; slow calls surface only when
	// the transport reports a timeout.
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
}

func New(baseURL string, options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	var limiter *rate.Limiter
	if options.RateLimit > 0 {
		burst := options.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
	}
}

func (c *Client) ListCategories(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/categories/", &raw, "list categories"); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) UploadDocument(ctx context.Context, filename string, body io.Reader) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postFile(ctx, "/upload/", "file", filename, body, &raw, "upload document"); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) ListDocuments(ctx context.Context, page, limit int) (domain.RawDocumentPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var out domain.RawDocumentPage
	if err := c.getJSON(ctx, "/documents/?"+query.Encode(), &out, "list documents"); err != nil {
		return domain.RawDocumentPage{}, err
	}
	return out, nil
}

func (c *Client) DownloadURL(ctx context.Context, id domain.DocumentID) (string, error) {
	var response struct {
		DownloadURL string `json:"download_url"`
	}
	path := "/documents/" + url.PathEscape(id.String()) + "/download"
	if err := c.getJSON(ctx, path, &response, "get download url"); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.DownloadURL) == "" {
		return "", domain.WrapError(domain.ErrInvalidResponseFormat, "get download url", fmt.Errorf("empty download_url"))
	}
	return response.DownloadURL, nil
}

func (c *Client) DocumentStats(ctx context.Context) (json.RawMessage, error) {
	var response struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "/documents/stats", &response, "document stats"); err != nil {
		return nil, err
	}
	return response.Data, nil
}
