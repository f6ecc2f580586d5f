package dedup

import "github.com/amishk599/postscout/internal/model"

// Deduplicator remembers the post URLs seen during one scrape cycle. It is
// reset at the start of every cycle and never persisted across runs.
type Deduplicator struct {
	seen map[string]struct{}
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Offer registers post and returns true if its URL is new. Invalid posts and
// repeats return false and are not registered, so the first occurrence wins.
func (d *Deduplicator) Offer(post *model.Post) bool {
	if post == nil || !post.Valid() {
		return false
	}
	if _, ok := d.seen[post.URL]; ok {
		return false
	}
	d.seen[post.URL] = struct{}{}
	return true
}

// Reset forgets every URL.
func (d *Deduplicator) Reset() {
	clear(d.seen)
}

// Len returns the number of URLs registered since the last Reset.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
