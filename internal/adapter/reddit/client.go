// internal/adapter/reddit/client.go

package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentiscan/internal/domain/mention"
)

// Config contains configuration for the Reddit client
type Config struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	CommentLimit int
	Logger       *slog.Logger
}

// Client searches subreddits and reads comment trees through Reddit's public
// JSON endpoints
type Client struct {
	HTTPClient   *http.Client
	BaseURL      string
	UserAgent    string
	CommentLimit int

	logger *slog.Logger
}

// Post represents a submission in a Reddit listing
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	Created     float64 `json:"created_utc"`
}

// Comment represents a comment in a Reddit comment tree. Replies is either an
// empty string or a nested listing.
type Comment struct {
	ID      string          `json:"id"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Created float64         `json:"created_utc"`
	Replies json.RawMessage `json:"replies"`
}

// Listing represents the structure of a Reddit listing response
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

const (
	kindComment = "t1"
	kindPost    = "t3"
)

// NewClient creates a new Reddit API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "sentiscan/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CommentLimit <= 0 {
		cfg.CommentLimit = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		UserAgent:    cfg.UserAgent,
		CommentLimit: cfg.CommentLimit,
		logger:       cfg.Logger,
	}
}

// Search fetches submissions matching q.Term inside the subreddit q.Channel
func (c *Client) Search(ctx context.Context, q mention.Query) ([]mention.Item, error) {
	if q.Channel == "" {
		return nil, fmt.Errorf("%w: empty subreddit", mention.ErrUnknownChannel)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	sort := q.Sort
	if sort == "" {
		sort = mention.SortNew
	}

	params := url.Values{}
	params.Set("q", q.Term)
	params.Set("restrict_sr", "1")
	params.Set("sort", string(sort))
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("raw_json", "1")

	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.BaseURL, url.PathEscape(q.Channel), params.Encode())

	var listing Listing
	if err := c.get(ctx, endpoint, &listing); err != nil {
		return nil, err
	}

	items := make([]mention.Item, 0, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		if child.Kind != kindPost {
			continue
		}

		var p Post
		if err := json.Unmarshal(child.Data, &p); err != nil {
			c.logger.Warn("skipping malformed Reddit post",
				"channel", q.Channel,
				"index", i,
				"error", err)
			continue
		}

		subreddit := p.Subreddit
		if subreddit == "" {
			subreddit = q.Channel
		}

		items = append(items, mention.Item{
			ID:          p.ID,
			Channel:     subreddit,
			Title:       p.Title,
			Body:        p.SelfText,
			Score:       p.Score,
			CreatedUTC:  p.Created,
			URL:         c.permalinkURL(p.Permalink),
			NumComments: p.NumComments,
		})
	}

	return items, nil
}

// Replies fetches the comment tree of item and flattens it breadth-first.
// "Load more" stubs are dropped.
func (c *Client) Replies(ctx context.Context, item mention.Item) ([]mention.Reply, error) {
	endpoint := fmt.Sprintf("%s/comments/%s.json?limit=%d&raw_json=1",
		c.BaseURL, url.PathEscape(item.ID), c.CommentLimit)

	var listings []Listing
	if err := c.get(ctx, endpoint, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("unexpected response format from Reddit API: %d listings", len(listings))
	}

	var replies []mention.Reply
	queue := []Listing{listings[1]}
	for len(queue) > 0 {
		listing := queue[0]
		queue = queue[1:]

		for i, child := range listing.Data.Children {
			if child.Kind != kindComment {
				continue
			}

			var cm Comment
			if err := json.Unmarshal(child.Data, &cm); err != nil {
				c.logger.Warn("skipping malformed Reddit comment",
					"item_id", item.ID,
					"index", i,
					"error", err)
				continue
			}

			replies = append(replies, mention.Reply{
				ID:         cm.ID,
				Body:       cm.Body,
				Score:      cm.Score,
				CreatedUTC: cm.Created,
				URL:        item.URL + cm.ID,
			})

			if nested, ok := nestedListing(cm.Replies); ok {
				queue = append(queue, nested)
			}
		}
	}

	return replies, nil
}

func nestedListing(raw json.RawMessage) (Listing, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Listing{}, false
	}

	var l Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return Listing{}, false
	}
	return l, true
}

func (c *Client) permalinkURL(permalink string) string {
	if permalink == "" {
		return ""
	}
	return "https://reddit.com" + permalink
}

// get performs a GET request and decodes the JSON body into out
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Reddit throttles requests without a descriptive User-Agent
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classify("failed to connect to Reddit API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Reddit API returned status code %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return mention.Transient("reddit request", err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return mention.Transient("reading Reddit API response", err)
		}
		return fmt.Errorf("failed to decode Reddit API response: %w", err)
	}

	return nil
}

// classify marks timeouts, dial and socket failures and truncated responses
// as transient. Other transport errors, such as a bad scheme or a rejected
// certificate, are permanent.
func classify(op string, err error) error {
	if isTransportTransient(err) {
		return mention.Transient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransportTransient(err error) bool {
	if isTimeout(err) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
