package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/postscout/internal/model"
)

func label01(v model.Classification) *model.Classification { return &v }

func samplePosts() []model.Post {
	return []model.Post{
		{Content: "We are hiring Go engineers, apply now", URL: "u1", ProfileName: "Ana", HiringPost: label01(model.Positive)},
		{Content: "Happy to share my new role", URL: "u2", ProfileName: "Ben", HiringPost: label01(model.Negative)},
		{Content: "Unlabelled post", URL: "u3"},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(m reviewModel) reviewModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(reviewModel)
}

func press(t *testing.T, m reviewModel, keys ...string) (reviewModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(reviewModel)
	}
	return m, cmd
}

func TestNewReviewModel_SplitsHiringPosts(t *testing.T) {
	m := newReviewModel(samplePosts(), nil)
	if len(m.allPosts) != 3 {
		t.Fatalf("allPosts = %d, want 3", len(m.allPosts))
	}
	if len(m.hiringPosts) != 1 || m.hiringPosts[0].URL != "u1" {
		t.Fatalf("hiringPosts = %+v, want only u1", m.hiringPosts)
	}
}

func TestView_BeforeSizeIsPlaceholder(t *testing.T) {
	if got := newReviewModel(samplePosts(), nil).View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestListView_ShowsCounts(t *testing.T) {
	m := sized(newReviewModel(samplePosts(), nil))
	out := m.View()
	for _, want := range []string{"All Posts (3)", "Hiring Posts (1)", "1 unlabelled"} {
		if !strings.Contains(out, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestCursorClampsAndOpensDetail(t *testing.T) {
	m := sized(newReviewModel(samplePosts(), nil))
	m, _ = press(t, m, "down", "down", "down", "down")
	if m.leftCursor != 2 {
		t.Fatalf("leftCursor = %d, want 2", m.leftCursor)
	}

	m, _ = press(t, m, "enter")
	if m.view != viewDetail || m.detailPost.URL != "u3" {
		t.Fatalf("detail = %v %q, want detail view of u3", m.view, m.detailPost.URL)
	}
	if !strings.Contains(m.renderDetail(), "Unknown author") {
		t.Error("detail should name an unknown author")
	}

	m, _ = press(t, m, "esc")
	if m.view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestTabSwitchesToHiringPane(t *testing.T) {
	m := sized(newReviewModel(samplePosts(), nil))
	m, _ = press(t, m, "tab", "enter")
	if m.detailPost.URL != "u1" {
		t.Fatalf("opened %q, want u1", m.detailPost.URL)
	}
}

func TestOpenURLKey(t *testing.T) {
	var opened string
	m := sized(newReviewModel(samplePosts(), nil))
	m.openURL = func(u string) { opened = u }

	m, _ = press(t, m, "enter", "o")
	if opened != "u1" {
		t.Errorf("opened %q, want u1", opened)
	}
}

func TestClassifyOnDemand(t *testing.T) {
	var got model.Post
	classify := func(_ context.Context, p model.Post) (model.Post, error) {
		got = p
		p.HiringPost = label01(model.Positive)
		return p, nil
	}
	m := sized(newReviewModel(samplePosts(), classify))
	m, cmd := press(t, m, "down", "down", "enter", "c")
	if cmd == nil || !m.classifying {
		t.Fatal("c on an unlabelled post should start classification")
	}

	next, _ := m.Update(cmd())
	m = next.(reviewModel)
	if got.URL != "u3" {
		t.Errorf("classified %q, want u3", got.URL)
	}
	if m.classifying || !m.detailPost.IsHiring() {
		t.Errorf("detail post not updated: %+v", m.detailPost)
	}
	if len(m.hiringPosts) != 2 {
		t.Errorf("hiringPosts = %d, want 2 after relabel", len(m.hiringPosts))
	}
}

func TestClassifySkipsLabelledAndReportsErrors(t *testing.T) {
	classify := func(context.Context, model.Post) (model.Post, error) {
		return model.Post{}, errors.New("ollama down")
	}
	m := sized(newReviewModel(samplePosts(), classify))

	m, cmd := press(t, m, "enter", "c")
	if cmd != nil {
		t.Fatal("labelled post should not be reclassified")
	}

	m, _ = press(t, m, "esc", "down", "down", "enter")
	m, cmd = press(t, m, "c")
	next, _ := m.Update(cmd())
	m = next.(reviewModel)
	if !strings.Contains(m.classifyError, "ollama down") {
		t.Errorf("classifyError = %q", m.classifyError)
	}
	if m.detailPost.URL != "u3" {
		t.Error("failed classification must keep the original post")
	}
}

func TestTruncateAndWrap(t *testing.T) {
	if got := truncate("a  b\n c", 10); got != "a b c" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghijkl", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
	if got := wordWrap("one two three", 7); got != "one two\nthree" {
		t.Errorf("wordWrap = %q", got)
	}
}

func TestLoaderModel(t *testing.T) {
	m := loaderModel{source: "x.csv"}
	next, cmd := m.Update(loadDoneMsg{posts: samplePosts()})
	lm := next.(loaderModel)
	if !lm.done || len(lm.result) != 3 || cmd == nil {
		t.Fatalf("loader did not finish: %+v", lm)
	}

	next, _ = loaderModel{}.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if err := next.(loaderModel).err; !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}
