// Package review is an interactive terminal browser over persisted posts.
package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/postscout/internal/model"
)

// Lines per post in the list view (author + excerpt + blank separator).
const postItemHeight = 3

const listExcerptRunes = 90

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	authorStyle  = lipgloss.NewStyle().Bold(true)
	excerptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedAuthorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedExcerptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// ClassifyFunc labels a single post on demand from the detail view.
type ClassifyFunc func(ctx context.Context, post model.Post) (model.Post, error)

// classifiedMsg is sent when an on-demand classification completes.
type classifiedMsg struct {
	post model.Post
	err  error
}

type reviewModel struct {
	allPosts      []model.Post
	hiringPosts   []model.Post
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detailPost     model.Post
	detailViewport viewport.Model

	classify      ClassifyFunc
	classifying   bool
	classifyError string
	openURL       func(string)
}

func newReviewModel(posts []model.Post, classify ClassifyFunc) reviewModel {
	m := reviewModel{
		allPosts: posts,
		classify: classify,
		openURL:  openURL,
	}
	m.hiringPosts = hiringOnly(posts)
	return m
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case classifiedMsg:
		m.classifying = false
		if msg.err != nil {
			m.classifyError = fmt.Sprintf("classification failed: %v", msg.err)
		} else {
			m.classifyError = ""
			m.detailPost = msg.post
			m.replacePost(msg.post)
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detailPost.URL != "" {
			m.openURL(m.detailPost.URL)
		}
		return m, nil
	case "c":
		if m.canClassify() {
			m.classifying = true
			m.classifyError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.classifyCmd(m.detailPost)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) canClassify() bool {
	return m.classify != nil && !m.classifying && m.detailPost.HiringPost == nil
}

func (m reviewModel) classifyCmd(post model.Post) tea.Cmd {
	classify := m.classify
	return func() tea.Msg {
		labelled, err := classify(context.Background(), post)
		return classifiedMsg{post: labelled, err: err}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allPosts)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.hiringPosts)-1, 0))
	}
}

func (m *reviewModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.activePane == 1 {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	top := cursor * postItemHeight
	bottom := top + postItemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	posts := m.activePosts()
	if len(posts) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailPost = posts[m.activeCursor()]
	m.classifyError = ""
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

// replacePost swaps in an updated copy of a post, matched by URL, and
// rebuilds the hiring pane.
func (m *reviewModel) replacePost(post model.Post) {
	for i := range m.allPosts {
		if m.allPosts[i].URL == post.URL {
			m.allPosts[i] = post
			break
		}
	}
	m.hiringPosts = hiringOnly(m.allPosts)
	m.rightCursor = clamp(m.rightCursor, 0, max(len(m.hiringPosts)-1, 0))
	m.recalcContent()
}

func (m *reviewModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)
	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	width := m.leftViewport.Width
	m.leftViewport.SetContent(renderPosts(m.allPosts, m.leftCursor, m.activePane == 0, width))
	m.rightViewport.SetContent(renderPosts(m.hiringPosts, m.rightCursor, m.activePane == 1, width))
}

func (m reviewModel) activePosts() []model.Post {
	if m.activePane == 0 {
		return m.allPosts
	}
	return m.hiringPosts
}

func (m reviewModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m reviewModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Posts (%d)", len(m.allPosts))
	rightHeader := fmt.Sprintf(" Hiring Posts (%d)", len(m.hiringPosts))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == 1 {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	statusText := fmt.Sprintf(" %d total | %d hiring | %d unlabelled    ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
		len(m.allPosts), len(m.hiringPosts), countUnlabelled(m.allPosts))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Post Details")
	if m.classifying {
		title += "  (classifying...)"
	}

	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open post  esc/backspace back  ↑/↓ scroll  q quit"
	if m.canClassify() {
		statusText = " o open post  c classify  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	p := m.detailPost
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Author", authorOf(p))
	addField("Hiring", label(p.HiringPost))
	addField("Names label", label(p.NamesClassification))
	addField("URL", p.URL)

	if m.classifyError != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.classifyError) + "\n")
	} else if m.classifying {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  classifying post...") + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	b.WriteString(dividerStyle.Render("── Content "+strings.Repeat("─", max(wrapWidth-11, 3))) + "\n\n")
	b.WriteString(bodyStyle.Render(wordWrap(p.Content, wrapWidth)) + "\n")

	return b.String()
}

func renderPosts(posts []model.Post, cursor int, isActive bool, width int) string {
	if len(posts) == 0 {
		return "  (no posts)"
	}

	excerptWidth := min(max(width-4, 10), listExcerptRunes)
	var b strings.Builder
	for i, p := range posts {
		authorSt, excerptSt, prefix := authorStyle, excerptStyle, "  "
		if isActive && i == cursor {
			authorSt, excerptSt, prefix = selectedAuthorStyle, selectedExcerptStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(authorSt.Render(fmt.Sprintf("%s · %s", authorOf(p), label(p.HiringPost))))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(excerptSt.Render(truncate(p.Content, excerptWidth)))
		b.WriteByte('\n')

		if i < len(posts)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
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

func countUnlabelled(posts []model.Post) int {
	n := 0
	for _, p := range posts {
		if p.HiringPost == nil {
			n++
		}
	}
	return n
}

func authorOf(p model.Post) string {
	if p.ProfileName == "" {
		return "Unknown author"
	}
	return p.ProfileName
}

func label(c *model.Classification) string {
	switch {
	case c == nil:
		return "unlabelled"
	case *c == model.Positive:
		return "yes"
	default:
		return "no"
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the split-pane review TUI over posts, newest last as stored.
// classify may be nil; when set, 'c' labels an unlabelled post from the
// detail view.
func Run(posts []model.Post, classify ClassifyFunc) error {
	p := tea.NewProgram(newReviewModel(posts, classify), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
