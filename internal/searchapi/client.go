// Package searchapi talks to the remote search engine backend: ranked and
// extended-boolean queries, the keyword index, the query cache, and crawl
// administration.
package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"

	"github.com/runnerr0/recall/internal/model"
)

const maxErrorBody = 4 << 10

// normalizeFlags canonicalizes crawl seeds so equivalent URLs are not
// crawled twice under different spellings.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search api: status %d", e.Status)
	}
	return fmt.Sprintf("search api: status %d: %s", e.Status, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a ranked query.
func (c *Client) Search(ctx context.Context, query string, usePageRank bool) ([]model.ResultEntry, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("usePageRank", strconv.FormatBool(usePageRank))
	return c.results(ctx, "/search/query", params)
}

// ExtendedSearch runs a soft boolean query joined by operator (AND or OR).
func (c *Client) ExtendedSearch(ctx context.Context, query, operator string, usePageRank bool) ([]model.ResultEntry, error) {
	op := strings.ToUpper(operator)
	if op != "AND" && op != "OR" {
		return nil, fmt.Errorf("operator must be AND or OR, got %q", operator)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("operator", op)
	params.Set("usePageRank", strconv.FormatBool(usePageRank))
	return c.results(ctx, "/search/extended-boolean", params)
}

func (c *Client) results(ctx context.Context, path string, params url.Values) ([]model.ResultEntry, error) {
	var results []model.ResultEntry
	if _, err := c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ResultEntry{}
	}
	return results, nil
}

// Keywords lists the stemmed keywords of the index. An empty index answers
// 204 and yields an empty list.
func (c *Client) Keywords(ctx context.Context) ([]string, error) {
	var keywords []string
	status, err := c.do(ctx, http.MethodGet, "/search/keywords", nil, &keywords)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || keywords == nil {
		return []string{}, nil
	}
	return keywords, nil
}

type crawlRequest struct {
	StartingURL  string `json:"startingUrl"`
	MaxIndexPage int    `json:"maxIndexPage"`
}

// Crawl starts a crawl from startingURL indexing at most maxPages pages. It
// returns the normalized seed that was sent.
func (c *Client) Crawl(ctx context.Context, startingURL string, maxPages int) (string, error) {
	if maxPages < 1 {
		return "", fmt.Errorf("max pages must be positive, got %d", maxPages)
	}
	seed, err := NormalizeURL(startingURL)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(crawlRequest{StartingURL: seed, MaxIndexPage: maxPages})
	if err != nil {
		return "", fmt.Errorf("marshaling crawl request: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, "/crawl", body, nil); err != nil {
		return "", err
	}
	return seed, nil
}

// CleanDB purges the remote index and returns the server's message.
func (c *Client) CleanDB(ctx context.Context) (string, error) {
	return c.message(ctx, "/clean-db")
}

// message POSTs to path and returns the plain-text reply.
func (c *Client) message(ctx context.Context, path string) (string, error) {
	var msg bytes.Buffer
	if _, err := c.do(ctx, http.MethodPost, path, nil, &msg); err != nil {
		return "", err
	}
	return strings.TrimSpace(msg.String()), nil
}

// HotTopic is a frequently issued query from the backend's query cache.
type HotTopic struct {
	Query     string `json:"query"`
	Frequency int    `json:"frequency"`
}

// HotTopics returns the most frequent cached queries, most frequent first.
func (c *Client) HotTopics(ctx context.Context) ([]HotTopic, error) {
	var topics []HotTopic
	if _, err := c.do(ctx, http.MethodGet, "/search/hot-topic", nil, &topics); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []HotTopic{}
	}
	return topics, nil
}

// CleanCache empties the backend's query cache and returns the server's message.
func (c *Client) CleanCache(ctx context.Context) (string, error) {
	return c.message(ctx, "/search/clean-cache")
}

// CrawledPage is one page of the crawled index. The word lists map word ids
// to occurrence counts.
type CrawledPage struct {
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Size          int64           `json:"size"`
	LastModified  json.RawMessage `json:"lastModified,omitempty"`
	BodyWordList  map[string]int  `json:"bodyWordList,omitempty"`
	TitleWordList map[string]int  `json:"titleWordList,omitempty"`
}

// CrawledPages lists every page the crawler has indexed.
func (c *Client) CrawledPages(ctx context.Context) ([]CrawledPage, error) {
	var pages []CrawledPage
	if _, err := c.do(ctx, http.MethodGet, "/crawled-pages", nil, &pages); err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []CrawledPage{}
	}
	return pages, nil
}

// DBStatus reports whether the backend's index database exists.
type DBStatus struct {
	Status string `json:"status"`
}

// Exists reports whether the status names an existing database.
func (s DBStatus) Exists() bool {
	return s.Status == "Database exists"
}

// DBStatus asks the backend whether its index database exists.
func (c *Client) DBStatus(ctx context.Context) (DBStatus, error) {
	var status DBStatus
	if _, err := c.do(ctx, http.MethodGet, "/check-db-status", nil, &status); err != nil {
		return DBStatus{}, err
	}
	return status, nil
}

// NormalizeURL validates an absolute http(s) URL and returns its canonical form.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: must be absolute", raw)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	return purell.NormalizeURL(u, normalizeFlags), nil
}

// do sends the request and decodes a 2xx body into out. out may be nil to
// discard, or a *bytes.Buffer to capture the raw body.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("search api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if buf, ok := out.(*bytes.Buffer); ok {
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return resp.StatusCode, fmt.Errorf("reading response: %w", err)
		}
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}
