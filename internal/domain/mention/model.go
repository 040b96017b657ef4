// internal/domain/mention/model.go

package mention

import (
	"time"
)

// Kind distinguishes top-level posts from their replies
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Sort orders search results returned by a source
type Sort string

const (
	SortNew       Sort = "new"
	SortRelevance Sort = "relevance"
	SortTop       Sort = "top"
	SortHot       Sort = "hot"
	SortComments  Sort = "comments"
)

// Valid reports whether s is a sort order understood by the sources
func (s Sort) Valid() bool {
	switch s {
	case SortNew, SortRelevance, SortTop, SortHot, SortComments:
		return true
	}
	return false
}

// Query describes one search against one channel
type Query struct {
	Channel string
	Term    string
	Limit   int
	Sort    Sort
}

// Item is a top-level post returned by a source channel
type Item struct {
	ID          string
	Channel     string
	Title       string
	Body        string
	Score       int
	CreatedUTC  float64
	URL         string
	NumComments int
}

// Reply is a nested response attached to an Item
type Reply struct {
	ID         string
	Body       string
	Score      int
	CreatedUTC float64
	URL        string
}

// Record is one finalized, scored row of the dataset
type Record struct {
	Kind        Kind      `json:"type"`
	Category    string    `json:"subreddit"`
	Title       string    `json:"title,omitempty"`
	Text        string    `json:"text"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"created_utc"`
	URL         string    `json:"url"`
	NumComments int       `json:"num_comments"`
	Sentiment   float64   `json:"sentiment"`
}

// EpochTime converts fractional seconds since the epoch to a UTC time
func EpochTime(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
