package listening

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiscan/internal/domain/mention"
)

// fakeSource serves canned items keyed by "channel|term"
type fakeSource struct {
	items      map[string][]mention.Item
	searchErrs map[string]error
	replies    map[string][]mention.Reply
	replyErrs  map[string]error
	onSearch   func(q mention.Query)
	searches   []mention.Query
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items:      make(map[string][]mention.Item),
		searchErrs: make(map[string]error),
		replies:    make(map[string][]mention.Reply),
		replyErrs:  make(map[string]error),
	}
}

func (f *fakeSource) Search(ctx context.Context, q mention.Query) ([]mention.Item, error) {
	f.searches = append(f.searches, q)
	if f.onSearch != nil {
		f.onSearch(q)
	}
	key := q.Channel + "|" + q.Term
	if err := f.searchErrs[key]; err != nil {
		return nil, err
	}
	return f.items[key], nil
}

func (f *fakeSource) Replies(ctx context.Context, item mention.Item) ([]mention.Reply, error) {
	if err := f.replyErrs[item.ID]; err != nil {
		return nil, err
	}
	return f.replies[item.ID], nil
}

// lengthScorer scores by text length so tests can tell records apart
type lengthScorer struct{}

func (lengthScorer) Score(text string) float64 {
	return float64(len(text)) / 1000
}

type waitRecorder struct {
	calls int
	last  time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.calls++
	w.last = d
	return ctx.Err()
}

func newTestCollector(t *testing.T, src mention.Source, cfg CollectorConfig, w *waitRecorder) (*Collector, *bytes.Buffer) {
	t.Helper()

	classifier, err := NewClassifier("iberia", []string{"flight", "delayed", "luggage"})
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	if cfg.ResultLimit == 0 {
		cfg.ResultLimit = 10
	}
	if cfg.Sort == "" {
		cfg.Sort = mention.SortNew
	}
	if cfg.ItemDelay == 0 {
		cfg.ItemDelay = 2 * time.Second
	}

	return NewCollector(src, classifier, lengthScorer{}, cfg,
		WithWait(w.wait),
		WithLogger(logger),
	), &logs
}

func TestCollectorEndToEnd(t *testing.T) {
	src := newFakeSource()
	src.items["travel|iberia"] = []mention.Item{
		{
			ID:          "a",
			Channel:     "travel",
			Title:       "Iberia flight review",
			Body:        "My  iberia flight\nwas great",
			Score:       12,
			CreatedUTC:  1700000000,
			URL:         "https://reddit.com/r/travel/comments/a/",
			NumComments: 2,
		},
		{
			ID:    "b",
			Title: "Delayed flight",
			Body:  "my flight was delayed for hours",
		},
	}
	src.replies["a"] = []mention.Reply{
		{ID: "c1", Body: "Iberia lost my luggage", Score: 3, CreatedUTC: 1700000100, URL: "https://reddit.com/r/travel/comments/a/c1"},
		{ID: "c2", Body: "I love Madrid", Score: 1},
	}

	w := &waitRecorder{}
	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"iberia"},
		Channels:    []string{"travel"},
	}, w)

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	post := records[0]
	assert.Equal(t, mention.KindPost, post.Kind)
	assert.Equal(t, "travel", post.Category)
	assert.Equal(t, "Iberia flight review", post.Title)
	assert.Equal(t, "My iberia flight was great", post.Text)
	assert.Equal(t, 12, post.Score)
	assert.Equal(t, 2, post.NumComments)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), post.CreatedAt)
	assert.InDelta(t, float64(len(post.Text))/1000, post.Sentiment, 1e-9)

	comment := records[1]
	assert.Equal(t, mention.KindComment, comment.Kind)
	assert.Equal(t, "travel", comment.Category)
	assert.Empty(t, comment.Title)
	assert.Equal(t, "Iberia lost my luggage", comment.Text)
	assert.Equal(t, 0, comment.NumComments)
	assert.Equal(t, "https://reddit.com/r/travel/comments/a/c1", comment.URL)

	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 2*time.Second, w.last)
}

func TestCollectorQueriesEveryTermAndChannel(t *testing.T) {
	src := newFakeSource()
	w := &waitRecorder{}
	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{`"iberia" airline`, `"iberia" flight`},
		Channels:    []string{"travel", "flights"},
		ResultLimit: 10,
		Sort:        mention.SortNew,
	}, w)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, src.searches, 4)
	assert.Equal(t, mention.Query{Channel: "travel", Term: `"iberia" airline`, Limit: 10, Sort: mention.SortNew}, src.searches[0])
	assert.Equal(t, "flights", src.searches[1].Channel)
	assert.Equal(t, `"iberia" flight`, src.searches[2].Term)
}

func TestCollectorDeduplicatesItems(t *testing.T) {
	item := mention.Item{ID: "dup", Body: "iberia flight", Channel: "travel"}

	src := newFakeSource()
	src.items["travel|t1"] = []mention.Item{item, item}
	src.items["flights|t1"] = []mention.Item{item}
	src.items["travel|t2"] = []mention.Item{item}

	w := &waitRecorder{}
	progress := NewProgress("run")
	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t1", "t2"},
		Channels:    []string{"travel", "flights"},
	}, w)
	c.progress = progress

	records, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, 1, w.calls)

	snap := progress.Snapshot()
	assert.Equal(t, 1, snap.ItemsSeen)
	assert.Equal(t, 3, snap.Duplicates)
	assert.NotNil(t, snap.FinishedAt)
}

func TestCollectorDedupIsScopedToRun(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{{ID: "x", Body: "iberia flight"}}

	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, &waitRecorder{})

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	second, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestCollectorDuplicateRepliesAcrossItems(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{
		{ID: "p1", Body: "iberia flight"},
		{ID: "p2", Body: "iberia flight again"},
	}
	shared := mention.Reply{ID: "r", Body: "iberia delayed"}
	src.replies["p1"] = []mention.Reply{shared}
	src.replies["p2"] = []mention.Reply{shared}

	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, &waitRecorder{})

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestCollectorTransientReplyFailureKeepsPost(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{
		{ID: "x", Body: "iberia flight one"},
		{ID: "y", Body: "iberia flight two"},
	}
	src.replyErrs["x"] = mention.Transient("fetch comments", context.DeadlineExceeded)
	src.replies["y"] = []mention.Reply{{ID: "yc", Body: "iberia luggage lost"}}

	w := &waitRecorder{}
	progress := NewProgress("run")
	c, logs := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, w)
	c.progress = progress

	records, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "iberia flight one", records[0].Text)
	assert.Equal(t, "iberia flight two", records[1].Text)
	assert.Equal(t, mention.KindComment, records[2].Kind)
	assert.Equal(t, 2, w.calls)

	assert.Equal(t, 1, progress.Snapshot().Failures[TierReplies])
	assert.Contains(t, logs.String(), "abandoning replies")
	assert.Contains(t, logs.String(), "item_id=x")
}

func TestCollectorPermanentReplyFailureSkipsItemOnly(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{
		{ID: "x", Body: "iberia flight one"},
		{ID: "y", Body: "iberia flight two"},
	}
	src.replyErrs["x"] = errors.New("unexpected listing shape")

	w := &waitRecorder{}
	c, logs := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, w)

	records, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "iberia flight one", records[0].Text)
	assert.Equal(t, 1, w.calls)
	assert.Contains(t, logs.String(), "item failed")
}

func TestCollectorMalformedItemIsSkipped(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{
		{ID: "", Body: "iberia flight"},
		{ID: "ok", Body: "iberia flight"},
	}

	c, logs := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, &waitRecorder{})

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Contains(t, logs.String(), mention.ErrMalformedItem.Error())
}

func TestCollectorTitleUsedWhenBodyEmpty(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{{ID: "x", Title: "  Iberia   flight  ", Body: "   "}}

	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"travel"},
	}, &waitRecorder{})

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Iberia flight", records[0].Text)
	assert.Equal(t, "Iberia flight", records[0].Title)
}

func TestCollectorChannelFailureContinues(t *testing.T) {
	src := newFakeSource()
	src.searchErrs["broken|t"] = mention.Transient("search", errors.New("connection reset"))
	src.items["travel|t"] = []mention.Item{{ID: "x", Body: "iberia flight"}}

	progress := NewProgress("run")
	c, logs := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t"},
		Channels:    []string{"broken", "travel"},
	}, &waitRecorder{})
	c.progress = progress

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, progress.Snapshot().Failures[TierChannel])
	assert.Contains(t, logs.String(), "channel=broken")
	assert.Contains(t, logs.String(), "transient=true")
}

func TestCollectorEmptyTermFailsTermOnly(t *testing.T) {
	src := newFakeSource()
	src.items["travel|t"] = []mention.Item{{ID: "x", Body: "iberia flight"}}

	progress := NewProgress("run")
	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"  ", "t"},
		Channels:    []string{"travel"},
	}, &waitRecorder{})
	c.progress = progress

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, progress.Snapshot().Failures[TierTerm])
}

func TestCollectorDegenerateConfiguration(t *testing.T) {
	src := newFakeSource()
	c, logs := newTestCollector(t, src, CollectorConfig{}, &waitRecorder{})

	records, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, src.searches)
	assert.Contains(t, logs.String(), "nothing to collect")
}

func TestCollectorCancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newFakeSource()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("i%d", i)
		src.items["travel|t"] = append(src.items["travel|t"], mention.Item{ID: id, Body: "iberia flight " + id})
	}

	calls := 0
	wait := func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}

	classifier, err := NewClassifier("iberia", []string{"flight"})
	require.NoError(t, err)
	c := NewCollector(src, classifier, lengthScorer{}, CollectorConfig{
		SearchTerms: []string{"t", "u"},
		Channels:    []string{"travel", "flights"},
		ResultLimit: 10,
	}, WithWait(wait), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	records, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, records, 2)
	assert.Len(t, src.searches, 1)
}

func TestCollectorCancelledSearchIsNotSwallowed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := newFakeSource()
	src.onSearch = func(q mention.Query) { cancel() }
	src.searchErrs["travel|t"] = context.Canceled

	c, _ := newTestCollector(t, src, CollectorConfig{
		SearchTerms: []string{"t", "u"},
		Channels:    []string{"travel", "flights"},
	}, &waitRecorder{})

	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, src.searches, 1)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
