// Package client is a small HTTP client for the cards API, used by the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/cards/api"
	"github.com/papercomputeco/cards/pkg/card"
)

// ErrStatus is wrapped by every non-2xx response.
var ErrStatus = errors.New("unexpected API response")

// Client calls a running cards API server.
type Client struct {
	target string
	token  string
	http   *http.Client
}

// New creates a Client for the API at target, e.g. "http://localhost:8080".
// A non-empty token is sent as a bearer token.
func New(target, token string) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL %q", target)
	}

	return &Client{
		target: strings.TrimRight(target, "/"),
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Create submits a card and returns its id.
func (c *Client) Create(ctx context.Context, content, topic, side string, link *string) (string, error) {
	body := api.CreateRequest{Content: &content, Topic: &topic, Side: &side, Link: link}

	resp, err := c.do(ctx, http.MethodPost, "/card", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	return strings.TrimPrefix(location, "/card/"), nil
}

// Search returns one page of cards ranked by similarity to query.
func (c *Client) Search(ctx context.Context, query string, page int) ([]card.ScoredCard, error) {
	path := "/card/search"
	if page > 1 {
		path += "/" + strconv.Itoa(page)
	}

	resp, err := c.do(ctx, http.MethodPost, path, api.SearchRequest{Content: &query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results []card.ScoredCard
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return results, nil
}

// Get fetches a card by id.
func (c *Client) Get(ctx context.Context, id string) (*card.RetrievedCard, error) {
	resp, err := c.do(ctx, http.MethodGet, "/card/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var got card.RetrievedCard
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		return nil, fmt.Errorf("failed to parse card: %w", err)
	}
	return &got, nil
}

// Vote adds an up or down vote to a card.
func (c *Client) Vote(ctx context.Context, id string, upvote bool) error {
	resp, err := c.do(ctx, http.MethodPost, "/card/vote", api.VoteRequest{CardID: &id, Vote: &upvote})
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cards API at %s: %w", c.target, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body api.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("%w (HTTP %d): %s", ErrStatus, resp.StatusCode, body.Error)
	}
	return fmt.Errorf("%w (HTTP %d): %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(raw)))
}
