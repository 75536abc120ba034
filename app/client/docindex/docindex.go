package docindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"infrachat/app/config"

	"github.com/samber/do"
)

const requestTimeout = 15 * time.Second

// Client talks to the full-text document search service. One service hosts
// multiple named indexes; each search targets exactly one of them.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.Search.URL, cfg.Search.APIKey), nil
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type searchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
	Select string `json:"select"`
}

type searchResponse struct {
	Value []struct {
		Content string `json:"content"`
	} `json:"value"`
}

// Search runs a full-text query against one index and returns the content
// field of the top ranked documents.
func (c *Client) Search(ctx context.Context, index, query string, top int) ([]string, error) {
	payload, err := json.Marshal(searchRequest{
		Search: query,
		Top:    top,
		Select: "content",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search", c.baseURL, url.PathEscape(index))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	contents := make([]string, 0, len(decoded.Value))
	for _, doc := range decoded.Value {
		if doc.Content != "" {
			contents = append(contents, doc.Content)
		}
	}

	return contents, nil
}
