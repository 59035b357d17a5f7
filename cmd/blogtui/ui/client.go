package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blog-system/backend/app/dto"
)

// ErrNoArticles is returned by Lucky when the blog is empty.
var ErrNoArticles = errors.New("no articles yet")

// Client talks to the blog's JSON surface.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) List(ctx context.Context) ([]dto.ArticleResponse, error) {
	var out dto.ArticleListResponse
	if err := c.get(ctx, "/Article/List", &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

func (c *Client) Details(ctx context.Context, id uint) (*dto.ArticleResponse, error) {
	var out dto.ArticleResponse
	if err := c.get(ctx, fmt.Sprintf("/Article/Details/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Lucky(ctx context.Context) (*dto.ArticleResponse, error) {
	var out dto.ArticleResponse
	err := c.get(ctx, "/Article/IFeelLucky", &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, ErrNoArticles
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
