package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/dedup"
	"github.com/amishk599/postscout/internal/extract"
	"github.com/amishk599/postscout/internal/model"
	"github.com/amishk599/postscout/internal/ratelimit"
)

// flushTimeout bounds persistence once the iteration context may already be
// cancelled.
const flushTimeout = 30 * time.Second

// Inferencer classifies one input under a prompt and schema.
type Inferencer interface {
	Inference(ctx context.Context, input, prompt string, schema ai.Schema) (model.Classification, error)
}

// Options carries the per-run classification settings.
type Options struct {
	HiringPrompt  string
	NamesPrompt   string
	ClassifyNames bool
}

// Result summarises one iteration.
type Result struct {
	Collected int
	Hiring    int
	Persisted int
	Posts     []model.Post
}

// Pipeline owns one scrape-and-classify cycle:
// extract → dedup → filter → classify → persist → notify.
type Pipeline struct {
	source     extract.Source
	dedup      *dedup.Deduplicator
	filter     model.PostFilter
	classifier Inferencer
	cooldown   ratelimit.Throttle
	sink       model.PostSink
	notifier   model.Notifier
	opts       Options
	logger     *slog.Logger
}

// New creates a pipeline wired with all its dependencies. A nil filter keeps
// every deduplicated post.
func New(
	source extract.Source,
	filter model.PostFilter,
	classifier Inferencer,
	cooldown ratelimit.Throttle,
	sink model.PostSink,
	notifier model.Notifier,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	if cooldown == nil {
		cooldown = ratelimit.Nop{}
	}
	if opts.HiringPrompt == "" {
		opts.HiringPrompt = ai.HiringPostPrompt()
	}
	if opts.NamesPrompt == "" {
		opts.NamesPrompt = ai.NamesClassificationPrompt()
	}
	return &Pipeline{
		source:     source,
		dedup:      dedup.New(),
		filter:     filter,
		classifier: classifier,
		cooldown:   cooldown,
		sink:       sink,
		notifier:   notifier,
		opts:       opts,
		logger:     logger,
	}
}

// pass describes one classification sweep over a batch. With skipEmpty set,
// posts whose input is blank stay unlabelled; otherwise they reach the
// classifier, which rejects empty input.
type pass struct {
	name      string
	schema    ai.Schema
	input     func(*model.Post) string
	set       func(*model.Post, model.Classification)
	skipEmpty bool
}

var (
	hiringPass = pass{
		name:   "hiring",
		schema: ai.HiringPostSchema,
		input:  func(p *model.Post) string { return p.Content },
		set:    func(p *model.Post, c model.Classification) { p.HiringPost = &c },
	}
	// Profile names can be blank.
	namesPass = pass{
		name:      "names",
		schema:    ai.NamesClassificationSchema,
		input:     func(p *model.Post) string { return p.ProfileName },
		set:       func(p *model.Post, c model.Classification) { p.NamesClassification = &c },
		skipEmpty: true,
	}
)

// ClassifyJobs labels every post's content with hiring intent, in place.
// An empty batch makes no model calls and skips the cooldown.
func (p *Pipeline) ClassifyJobs(ctx context.Context, posts []model.Post, prompt string) ([]model.Post, error) {
	return p.classify(ctx, posts, prompt, hiringPass)
}

// ClassifyNames labels every post's profile name, in place.
func (p *Pipeline) ClassifyNames(ctx context.Context, posts []model.Post, prompt string) ([]model.Post, error) {
	return p.classify(ctx, posts, prompt, namesPass)
}

func (p *Pipeline) classify(ctx context.Context, posts []model.Post, prompt string, ps pass) ([]model.Post, error) {
	if len(posts) == 0 {
		p.logger.Warn("no posts available to classify", "pass", ps.name)
		return []model.Post{}, nil
	}

	p.logger.Info("classifying posts", "pass", ps.name, "total", len(posts))
	if err := p.cooldown.Wait(ctx); err != nil {
		return posts, err
	}

	for i := range posts {
		post := &posts[i]
		input := ps.input(post)
		if input == "" && ps.skipEmpty {
			p.logger.Debug("skipped post with empty input", "pass", ps.name, "index", i, "url", post.URL)
			continue
		}
		label, err := p.classifier.Inference(ctx, input, prompt, ps.schema)
		if err != nil {
			return posts, fmt.Errorf("classify %s post %d (%s): %w", ps.name, i, post.URL, err)
		}
		ps.set(post, label)
		p.logger.Debug("classified post", "pass", ps.name, "index", i+1, "total", len(posts), "label", int(label))
	}

	p.logger.Info("classification complete", "pass", ps.name)
	return posts, nil
}

// Collect pulls the next batch from the source and returns the unique,
// relevant posts in source order.
func (p *Pipeline) Collect(ctx context.Context) ([]model.Post, error) {
	p.dedup.Reset()

	elements, err := p.source.ExtractNextBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("extracting next batch: %w", err)
	}

	var (
		posts                        []model.Post
		dropped, duplicates, skipped int
	)
	for _, el := range elements {
		post, err := extract.Extract(el)
		if err != nil {
			dropped++
			p.logger.Debug("dropped element", "urn", el.URN, "error", err)
			continue
		}
		if !p.dedup.Offer(&post) {
			duplicates++
			continue
		}
		if p.filter != nil && !p.filter.Match(&post) {
			skipped++
			continue
		}
		posts = append(posts, post)
	}

	p.logger.Info("collected posts",
		"elements", len(elements),
		"dropped", dropped,
		"duplicates", duplicates,
		"filtered", skipped,
		"kept", len(posts),
	)
	return posts, nil
}

// RunIteration runs one full cycle. If ctx is cancelled mid-classification
// the posts already labelled are still persisted before the error returns.
func (p *Pipeline) RunIteration(ctx context.Context) (Result, error) {
	var res Result

	posts, err := p.Collect(ctx)
	if err != nil {
		return res, err
	}
	res.Collected = len(posts)
	if len(posts) == 0 {
		p.logger.Warn("iteration collected no posts")
		return res, nil
	}

	posts, err = p.ClassifyJobs(ctx, posts, p.opts.HiringPrompt)
	if err == nil && p.opts.ClassifyNames {
		posts, err = p.ClassifyNames(ctx, posts, p.opts.NamesPrompt)
	}
	if err != nil {
		if ctx.Err() == nil {
			return res, err
		}
		done := labelled(posts)
		p.logger.Warn("interrupted during classification, flushing labelled posts", "labelled", len(done), "total", len(posts))
		if _, ferr := p.persist(ctx, done); ferr != nil {
			return res, errors.Join(err, ferr)
		}
		res.Persisted = len(done)
		res.Posts = done
		return res, err
	}
	res.Posts = posts

	if _, err := p.persist(ctx, posts); err != nil {
		return res, err
	}
	res.Persisted = len(posts)

	hiring := hiringOnly(posts)
	res.Hiring = len(hiring)
	if len(hiring) > 0 && p.notifier != nil {
		if err := p.notifier.Notify(ctx, hiring); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}
	return res, nil
}

// persist writes posts under a context detached from cancellation so an
// interrupt cannot tear a write in half.
func (p *Pipeline) persist(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	unsaved, err := p.sink.Append(flushCtx, posts)
	if err != nil {
		p.logger.Error("failed to persist posts", "unsaved", len(unsaved), "error", err)
		return unsaved, err
	}
	return nil, nil
}

func labelled(posts []model.Post) []model.Post {
	var out []model.Post
	for _, p := range posts {
		if p.HiringPost != nil {
			out = append(out, p)
		}
	}
	return out
}

func hiringOnly(posts []model.Post) []model.Post {
	var out []model.Post
	for _, p := range posts {
		if p.IsHiring() {
			out = append(out, p)
		}
	}
	return out
}
