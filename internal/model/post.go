package model

import (
	"context"
	"strconv"
)

// PostBaseURL prefixes a post's data-urn to build its canonical URL.
const PostBaseURL = "https://www.linkedin.com/feed/update/"

// Record keys shared by every sink.
const (
	FieldContent             = "content"
	FieldURL                 = "url"
	FieldProfileName         = "profile_name"
	FieldHiringPost          = "hiring_post"
	FieldNamesClassification = "names_classification"
)

// BaseFields are always present in a persisted record, in this order.
var BaseFields = []string{FieldContent, FieldURL, FieldProfileName}

// Classification is a binary model label: 0 or 1.
type Classification int

const (
	Negative Classification = 0
	Positive Classification = 1
)

// Valid reports whether c is one of the two allowed labels.
func (c Classification) Valid() bool {
	return c == Negative || c == Positive
}

// Post is a scraped LinkedIn post moving through the pipeline.
// Annotations start nil and are only ever added.
type Post struct {
	Content     string // post body text
	URL         string // feed/update URL built from data-urn; unique per cycle
	ProfileName string // first line of the actor title

	HiringPost          *Classification // set by the hiring pass
	NamesClassification *Classification // set by the names pass
}

// Valid reports whether the post carries the fields required to enter the pipeline.
func (p Post) Valid() bool {
	return p.Content != "" && p.URL != ""
}

// IsHiring reports whether the hiring pass labelled the post positive.
func (p Post) IsHiring() bool {
	return p.HiringPost != nil && *p.HiringPost == Positive
}

// Record flattens the post into the key/value shape handed to sinks.
// Classification keys appear only when the annotation is present.
func (p Post) Record() map[string]string {
	rec := map[string]string{
		FieldContent:     p.Content,
		FieldURL:         p.URL,
		FieldProfileName: p.ProfileName,
	}
	if p.HiringPost != nil {
		rec[FieldHiringPost] = strconv.Itoa(int(*p.HiringPost))
	}
	if p.NamesClassification != nil {
		rec[FieldNamesClassification] = strconv.Itoa(int(*p.NamesClassification))
	}
	return rec
}

// PostFromRecord is the inverse of Record. Unparseable labels are left nil.
func PostFromRecord(rec map[string]string) Post {
	p := Post{
		Content:     rec[FieldContent],
		URL:         rec[FieldURL],
		ProfileName: rec[FieldProfileName],
	}
	p.HiringPost = parseLabel(rec[FieldHiringPost])
	p.NamesClassification = parseLabel(rec[FieldNamesClassification])
	return p
}

func parseLabel(s string) *Classification {
	if s == "" {
		return nil
	}
	// pandas writes integer columns containing blanks as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		c := Classification(int(f))
		if c.Valid() {
			return &c
		}
	}
	return nil
}

// PostFilter decides whether a post is relevant enough to classify.
type PostFilter interface {
	Match(post *Post) bool
}

// PostSink persists classified posts. On failure the whole batch is returned
// as unsaved and the underlying store is left untouched.
type PostSink interface {
	Append(ctx context.Context, posts []Post) (unsaved []Post, err error)
	Close() error
}

// Notifier reports newly persisted hiring posts.
type Notifier interface {
	Notify(ctx context.Context, posts []Post) error
}
