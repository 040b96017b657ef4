// internal/adapter/twitter/client.go

package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	gotwitter "github.com/g8rswimmer/go-twitter/v2"

	"sentiscan/internal/domain/mention"
)

// Config contains configuration for the Twitter client
type Config struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

// Client searches recent tweets and reads their reply conversations through
// the Twitter v2 API
type Client struct {
	api *gotwitter.Client
}

type authorizer struct {
	token string
}

func (a authorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", a.token))
}

// Recent search accepts between 10 and 100 results per page
const (
	minResults = 10
	maxResults = 100
)

// NewClient creates a new Twitter API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("Twitter bearer token not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twitter.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		api: &gotwitter.Client{
			Authorizer: authorizer{token: cfg.BearerToken},
			Client: &http.Client{
				Timeout: cfg.Timeout,
			},
			Host: strings.TrimRight(cfg.BaseURL, "/"),
		},
	}, nil
}

// Search fetches recent tweets matching q.Term. Twitter has no communities to
// scope a search to, so q.Channel only labels the results.
func (c *Client) Search(ctx context.Context, q mention.Query) ([]mention.Item, error) {
	limit := q.Limit
	if limit < minResults {
		limit = minResults
	}
	if limit > maxResults {
		limit = maxResults
	}

	tweets, err := c.search(ctx, q.Term+" -is:retweet -is:reply", limit)
	if err != nil {
		return nil, err
	}

	channel := "twitter"
	if q.Channel != "" {
		channel += ":" + q.Channel
	}

	items := make([]mention.Item, 0, len(tweets))
	for i, tweet := range tweets {
		if i >= q.Limit && q.Limit > 0 {
			break
		}

		item := mention.Item{
			ID:         tweet.ID,
			Channel:    channel,
			Body:       tweet.Text,
			CreatedUTC: epoch(tweet.CreatedAt),
			URL:        statusURL(tweet.ID),
		}
		if m := tweet.PublicMetrics; m != nil {
			item.Score = m.Likes
			item.NumComments = m.Replies
		}
		items = append(items, item)
	}

	return items, nil
}

// Replies fetches recent tweets in the conversation started by item
func (c *Client) Replies(ctx context.Context, item mention.Item) ([]mention.Reply, error) {
	tweets, err := c.search(ctx, "conversation_id:"+item.ID, maxResults)
	if err != nil {
		return nil, err
	}

	replies := make([]mention.Reply, 0, len(tweets))
	for _, tweet := range tweets {
		if tweet.ID == item.ID {
			continue
		}

		reply := mention.Reply{
			ID:         tweet.ID,
			Body:       tweet.Text,
			CreatedUTC: epoch(tweet.CreatedAt),
			URL:        statusURL(tweet.ID),
		}
		if m := tweet.PublicMetrics; m != nil {
			reply.Score = m.Likes
		}
		replies = append(replies, reply)
	}

	return replies, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]*gotwitter.TweetObj, error) {
	opts := gotwitter.TweetRecentSearchOpts{
		TweetFields: []gotwitter.TweetField{
			gotwitter.TweetFieldCreatedAt,
			gotwitter.TweetFieldConversationID,
			gotwitter.TweetFieldPublicMetrics,
		},
		MaxResults: limit,
	}

	resp, err := c.api.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(err)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}

	return resp.Raw.Tweets, nil
}

// classify marks throttling, server errors and transient transport failures
// as transient
func classify(err error) error {
	var apiErr *gotwitter.ErrorResponse
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return mention.Transient("twitter request", err)
		}
		return fmt.Errorf("Twitter API returned status code %d: %w", apiErr.StatusCode, err)
	}

	var httpErr *gotwitter.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500 {
			return mention.Transient("twitter request", err)
		}
		return fmt.Errorf("Twitter API returned status code %d: %w", httpErr.StatusCode, err)
	}

	if isTransportTransient(err) {
		return mention.Transient("twitter request", err)
	}

	return fmt.Errorf("twitter request: %w", err)
}

// isTransportTransient reports timeouts, dial and socket failures and
// truncated responses. A bad scheme or rejected certificate is permanent.
func isTransportTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func epoch(createdAt string) float64 {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

func statusURL(id string) string {
	return "https://twitter.com/i/web/status/" + id
}
