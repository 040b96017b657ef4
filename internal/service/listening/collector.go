// internal/service/listening/collector.go

package listening

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sentiscan/internal/domain/mention"
)

var errEmptyTerm = errors.New("empty search term")

// CollectorConfig contains configuration for the collector
type CollectorConfig struct {
	SearchTerms []string
	Channels    []string
	ResultLimit int
	Sort        mention.Sort
	ItemDelay   time.Duration
}

// WaitFunc blocks for d or until ctx is done
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default WaitFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Collector searches every configured channel for every search term and turns
// relevant items and replies into scored records. A Collector is not safe for
// concurrent use; each Run starts with an empty dedup set.
type Collector struct {
	source     mention.Source
	classifier *Classifier
	scorer     mention.Scorer
	config     CollectorConfig
	wait       WaitFunc
	logger     *slog.Logger
	progress   *Progress

	seen    map[string]struct{}
	records []mention.Record
}

// CollectorOption customizes a Collector
type CollectorOption func(*Collector)

// WithWait replaces the delay between processed items
func WithWait(wait WaitFunc) CollectorOption {
	return func(c *Collector) { c.wait = wait }
}

// WithLogger sets the logger used at every failure boundary
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) { c.logger = logger }
}

// WithProgress publishes run progress to p
func WithProgress(p *Progress) CollectorOption {
	return func(c *Collector) { c.progress = p }
}

// NewCollector creates a new collector
func NewCollector(
	source mention.Source,
	classifier *Classifier,
	scorer mention.Scorer,
	config CollectorConfig,
	opts ...CollectorOption,
) *Collector {
	c := &Collector{
		source:     source,
		classifier: classifier,
		scorer:     scorer,
		config:     config,
		wait:       Sleep,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run collects records until every term and channel is exhausted or ctx is
// cancelled. On cancellation the records gathered so far are returned together
// with the context error.
func (c *Collector) Run(ctx context.Context) ([]mention.Record, error) {
	c.seen = make(map[string]struct{})
	c.records = nil
	defer c.progress.finished()

	if len(c.config.SearchTerms) == 0 || len(c.config.Channels) == 0 {
		c.logger.Warn("nothing to collect",
			"search_terms", len(c.config.SearchTerms),
			"channels", len(c.config.Channels))
	}

	for _, term := range c.config.SearchTerms {
		if err := ctx.Err(); err != nil {
			return c.records, err
		}

		if err := c.collectTerm(ctx, term); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return c.records, ctxErr
			}
			c.progress.failed(TierTerm)
			c.logger.Error("search term failed", "term", term, "error", err)
		}
	}

	return c.records, nil
}

// collectTerm searches every channel for one term
func (c *Collector) collectTerm(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return errEmptyTerm
	}

	c.progress.termStarted(term)
	c.logger.Info("searching", "term", term)

	for _, channel := range c.config.Channels {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.collectChannel(ctx, term, channel); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.progress.failed(TierChannel)
			c.logger.Error("channel failed",
				"term", term,
				"channel", channel,
				"transient", mention.IsTransient(err),
				"error", err)
		}
	}

	return nil
}

// collectChannel processes the items one channel returns for one term
func (c *Collector) collectChannel(ctx context.Context, term, channel string) error {
	c.progress.channelStarted(channel)

	items, err := c.source.Search(ctx, mention.Query{
		Channel: channel,
		Term:    term,
		Limit:   c.config.ResultLimit,
		Sort:    c.config.Sort,
	})
	if err != nil {
		return fmt.Errorf("search %q: %w", term, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		processed, err := c.collectItem(ctx, channel, item)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.progress.failed(TierItem)
			c.logger.Error("item failed",
				"term", term,
				"channel", channel,
				"item_id", item.ID,
				"error", err)
			continue
		}

		if !processed {
			continue
		}

		if err := c.wait(ctx, c.config.ItemDelay); err != nil {
			return err
		}
	}

	return nil
}

// collectItem records item and its relevant replies. It reports false when the
// item was skipped as a duplicate or as irrelevant.
func (c *Collector) collectItem(ctx context.Context, channel string, item mention.Item) (bool, error) {
	if item.ID == "" {
		return false, fmt.Errorf("%w: missing id", mention.ErrMalformedItem)
	}

	if _, ok := c.seen[item.ID]; ok {
		c.progress.itemSeen(true)
		return false, nil
	}
	c.seen[item.ID] = struct{}{}
	c.progress.itemSeen(false)

	title := Normalize(item.Title)
	body := Normalize(item.Body)

	if !c.classifier.IsRelevant(body, title) {
		c.progress.rejected()
		return false, nil
	}

	post, err := c.buildPost(channel, item, title, body)
	if err != nil {
		return false, err
	}
	c.append(post)

	c.logger.Info("post collected",
		"channel", post.Category,
		"item_id", item.ID,
		"title", truncate(post.Title, 100),
		"sentiment", post.Sentiment)

	if err := c.collectReplies(ctx, post, item); err != nil {
		if !mention.IsTransient(err) {
			return false, fmt.Errorf("replies: %w", err)
		}
		c.progress.failed(TierReplies)
		c.logger.Warn("abandoning replies",
			"channel", post.Category,
			"item_id", item.ID,
			"error", err)
	}

	return true, nil
}

func (c *Collector) buildPost(channel string, item mention.Item, title, body string) (mention.Record, error) {
	text := body
	if text == "" {
		text = title
	}
	if text == "" {
		return mention.Record{}, fmt.Errorf("%w: item %s has no text", mention.ErrMalformedItem, item.ID)
	}

	category := item.Channel
	if category == "" {
		category = channel
	}

	return mention.Record{
		Kind:        mention.KindPost,
		Category:    category,
		Title:       title,
		Text:        text,
		Score:       item.Score,
		CreatedAt:   mention.EpochTime(item.CreatedUTC),
		URL:         item.URL,
		NumComments: item.NumComments,
		Sentiment:   c.scorer.Score(text),
	}, nil
}

// collectReplies appends a comment record for every relevant reply of item
func (c *Collector) collectReplies(ctx context.Context, post mention.Record, item mention.Item) error {
	replies, err := c.source.Replies(ctx, item)
	if err != nil {
		return err
	}

	for _, reply := range replies {
		if reply.ID != "" {
			key := "comment:" + reply.ID
			if _, ok := c.seen[key]; ok {
				continue
			}
			c.seen[key] = struct{}{}
		}

		text := Normalize(reply.Body)
		if text == "" || !c.classifier.IsRelevant(text, "") {
			continue
		}

		c.append(mention.Record{
			Kind:        mention.KindComment,
			Category:    post.Category,
			Text:        text,
			Score:       reply.Score,
			CreatedAt:   mention.EpochTime(reply.CreatedUTC),
			URL:         reply.URL,
			NumComments: 0,
			Sentiment:   c.scorer.Score(text),
		})
	}

	return nil
}

func (c *Collector) append(r mention.Record) {
	c.records = append(c.records, r)
	c.progress.recorded(r)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
