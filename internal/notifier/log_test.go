package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/postscout/internal/model"
)

func TestLogNotifier_Notify_zeroPosts(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_logsEachPost(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	posts := []model.Post{
		samplePost("Priya Sharma", "We are hiring a backend engineer"),
		samplePost("", "Hiring interns, apply now"),
	}
	if err := n.Notify(context.Background(), posts); err != nil {
		t.Fatalf("Notify(posts) = %v, want nil", err)
	}

	out := buf.String()
	if got := strings.Count(out, "msg=\"hiring post\""); got != 2 {
		t.Errorf("logged %d hiring posts, want 2:\n%s", got, out)
	}
	if !strings.Contains(out, "Priya Sharma") || !strings.Contains(out, "Unknown author") {
		t.Errorf("output missing author names:\n%s", out)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("  line one\n\nline   two "); got != "line one line two" {
		t.Errorf("excerpt collapsed whitespace = %q", got)
	}
	long := strings.Repeat("é", excerptLen+10)
	got := excerpt(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long excerpt should end with an ellipsis")
	}
	if n := len([]rune(got)); n != excerptLen+1 {
		t.Errorf("excerpt rune length = %d, want %d", n, excerptLen+1)
	}
}
