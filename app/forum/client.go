package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultSort is a recency-biased sort order understood by the forum API.
	DefaultSort = "newest"
	// DefaultPage is the first page of a paginated collection.
	DefaultPage = 1
)

// Client wraps the forum's JSON services endpoint. Credentials are fixed at
// construction and sent as HTTP Basic auth on every call.
type Client struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, username, password, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    normalizeBaseURL(baseURL),
		username:   username,
		password:   password,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// BaseURL returns the normalized base URL, always ending with a single slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListQuestions(ctx context.Context, page int, sort string) ([]Activity, error) {
	return c.list(ctx, "question", page, sort)
}

func (c *Client) ListAnswers(ctx context.Context, page int, sort string) ([]Activity, error) {
	return c.list(ctx, "answer", page, sort)
}

func (c *Client) ListComments(ctx context.Context, page int, sort string) ([]Activity, error) {
	return c.list(ctx, "comment", page, sort)
}

func (c *Client) ListArticles(ctx context.Context, page int, sort string) ([]Activity, error) {
	return c.list(ctx, "kbentry", page, sort)
}

func (c *Client) GetQuestion(ctx context.Context, id int64) (Activity, error) {
	return c.get(ctx, "question", id)
}

func (c *Client) GetArticle(ctx context.Context, id int64) (Activity, error) {
	return c.get(ctx, "article", id)
}

func (c *Client) list(ctx context.Context, resource string, page int, sort string) ([]Activity, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if sort == "" {
		sort = DefaultSort
	}

	url := fmt.Sprintf("%sservices/v2/%s.json?page=%d&sort=%s", c.baseURL, resource, page, sort)

	var result Page
	if err := c.call(ctx, url, &result); err != nil {
		return nil, err
	}

	return result.List, nil
}

func (c *Client) get(ctx context.Context, resource string, id int64) (Activity, error) {
	url := fmt.Sprintf("%sservices/v2/%s/%d.json", c.baseURL, resource, id)

	var result Activity
	if err := c.call(ctx, url, &result); err != nil {
		return Activity{}, err
	}

	return result, nil
}

func (c *Client) call(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &RequestError{URL: url, Err: err}
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{URL: url, Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{URL: url, Err: err}
	}

	return nil
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/"
}
