// Package notifier reports newly persisted hiring posts.
package notifier

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/postscout/internal/model"
)

const excerptLen = 280

// excerpt returns the first excerptLen runes of content on a single line.
func excerpt(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:excerptLen])) + "…"
}

func displayName(p model.Post) string {
	if p.ProfileName == "" {
		return "Unknown author"
	}
	return p.ProfileName
}

// SendTestMessage sends a sample hiring post to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	hiring := model.Positive
	sample := model.Post{
		Content:     "We are hiring! Backend engineer, 3+ years of Go experience required. Send your resume to test@example.com.",
		URL:         model.PostBaseURL + "urn:li:activity:0000000000000000000",
		ProfileName: "postscout test",
		HiringPost:  &hiring,
	}
	return n.Notify(ctx, []model.Post{sample})
}
