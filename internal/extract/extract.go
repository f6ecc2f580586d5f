// Package extract turns raw post elements captured from the search results
// page into Post candidates.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/postscout/internal/model"
)

// CSS selectors inside a single post container.
const (
	ContentSelector    = "span.break-words"
	ActorTitleSelector = "span.update-components-actor__title"
)

// ErrMissingField is returned when an element lacks content or a post URN.
var ErrMissingField = errors.New("missing required field")

// RawElement is one post container as captured from the page: its outer HTML
// and, when the source read it directly, the data-urn attribute.
type RawElement struct {
	HTML string
	URN  string
}

// Source yields the post elements currently loaded on the results page.
type Source interface {
	ExtractNextBatch(ctx context.Context) ([]RawElement, error)
}

// Extract parses el into a Post. Elements without post text or without a URN
// fail with ErrMissingField and should be dropped by the caller.
func Extract(el RawElement) (model.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(el.HTML))
	if err != nil {
		return model.Post{}, fmt.Errorf("parse element html: %w", err)
	}

	content := text(doc.Find(ContentSelector).First())
	if content == "" {
		return model.Post{}, fmt.Errorf("content: %w", ErrMissingField)
	}

	// Only the container's own data-urn identifies the post. Nested ones
	// belong to reshared or embedded posts.
	urn := strings.TrimSpace(el.URN)
	if urn == "" {
		urn, _ = doc.Find("body").Children().First().Attr("data-urn")
		urn = strings.TrimSpace(urn)
	}
	if urn == "" {
		return model.Post{}, fmt.Errorf("data-urn: %w", ErrMissingField)
	}

	return model.Post{
		Content:     content,
		URL:         model.PostBaseURL + urn,
		ProfileName: profileName(doc.Find(ActorTitleSelector).First()),
	}, nil
}

// profileName returns the first line of the actor title. LinkedIn renders the
// name twice (visible and screen-reader copies), so prefer the visible span.
func profileName(sel *goquery.Selection) string {
	if visible := sel.Find(`span[aria-hidden="true"]`).First(); visible.Length() > 0 {
		sel = visible
	}
	return firstLine(text(sel))
}

// text returns the selection's text with <br> rendered as a newline.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	sel = sel.Clone()
	sel.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(sel.Text())
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
