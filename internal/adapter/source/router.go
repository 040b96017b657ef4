// internal/adapter/source/router.go

package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sentiscan/internal/domain/mention"
)

// Router dispatches channels of the form "platform:name" to the source
// registered for that platform. Channels without a prefix go to the default
// platform.
type Router struct {
	defaultPlatform string
	platforms       map[string]mention.Source

	// owners remembers which platform returned each item id
	mu     sync.Mutex
	owners map[string]string
}

// NewRouter creates a router whose bare channels belong to defaultPlatform
func NewRouter(defaultPlatform string) *Router {
	return &Router{
		defaultPlatform: defaultPlatform,
		platforms:       make(map[string]mention.Source),
		owners:          make(map[string]string),
	}
}

// Register adds a source for platform
func (r *Router) Register(platform string, src mention.Source) {
	r.platforms[strings.ToLower(platform)] = src
}

// Platforms returns the registered platform names
func (r *Router) Platforms() []string {
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	return names
}

// Resolve splits channel into its platform and the platform-local name
func (r *Router) Resolve(channel string) (platform, name string) {
	if i := strings.Index(channel, ":"); i > 0 {
		return strings.ToLower(channel[:i]), channel[i+1:]
	}
	return r.defaultPlatform, channel
}

// Search forwards q to the source that owns q.Channel
func (r *Router) Search(ctx context.Context, q mention.Query) ([]mention.Item, error) {
	platform, name := r.Resolve(q.Channel)
	src, ok := r.platforms[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s (platform %q not configured)", mention.ErrUnknownChannel, q.Channel, platform)
	}

	q.Channel = name
	items, err := src.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	for _, item := range items {
		r.owners[item.ID] = platform
	}
	r.mu.Unlock()

	return items, nil
}

// Replies forwards to the source that returned item
func (r *Router) Replies(ctx context.Context, item mention.Item) ([]mention.Reply, error) {
	r.mu.Lock()
	platform, ok := r.owners[item.ID]
	r.mu.Unlock()
	if !ok {
		platform = r.defaultPlatform
	}

	src, ok := r.platforms[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no source for item %s", mention.ErrUnknownChannel, item.ID)
	}
	return src.Replies(ctx, item)
}
