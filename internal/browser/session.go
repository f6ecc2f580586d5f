// Package browser drives a LinkedIn session with playwright and hands the
// loaded post containers to the pipeline.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/amishk599/postscout/internal/config"
	"github.com/amishk599/postscout/internal/extract"
	"github.com/amishk599/postscout/internal/ratelimit"
)

const (
	linkedInURL = "https://www.linkedin.com"
	loginURL    = linkedInURL + "/login"
	feedURL     = linkedInURL + "/feed/"
)

// Page selectors.
const (
	EmailSelector       = "#username"
	PasswordSelector    = "#password"
	GlobalNavSelector   = "#global-nav"
	SearchBarSelector   = "input.search-global-typeahead__input"
	SortBySelector      = "button:has-text('Sort by')"
	LatestSelector      = "span:has-text('Latest')"
	ShowResultsSelector = "button:has-text('Show results')"
)

// PostsTabSelectors are tried in order until one becomes visible.
var PostsTabSelectors = []string{
	"a:has-text('Posts')",
	"a:has-text('See all post')",
}

// ContainerSelectors are tried in order; the first that matches anything wins.
var ContainerSelectors = []string{
	"div.feed-shared-update-v2",
	"div.update-components-actor",
	"div[data-urn^='urn:li:activity']",
}

// ErrSession marks failures that leave the browser session unusable.
var ErrSession = errors.New("browser session failed")

// driver is the slice of page behaviour a scrape cycle needs.
type driver interface {
	Reload() error
	Scroll() error
	Containers(selector string) ([]extract.RawElement, error)
}

// Session is a logged-in LinkedIn page positioned on the latest posts for a
// search query. It implements extract.Source.
type Session struct {
	cfg      config.LinkedInConfig
	password string
	jitter   ratelimit.Throttle
	logger   *slog.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	driver  driver
}

// NewSession prepares a session. Nothing is launched until Start.
func NewSession(cfg config.LinkedInConfig, password string, logger *slog.Logger) *Session {
	return &Session{
		cfg:      cfg,
		password: password,
		jitter:   ratelimit.NewJitter(cfg.MinSleep, cfg.MaxSleep, nil),
		logger:   logger,
	}
}

// Start launches Chromium, signs in (reusing saved cookies when possible)
// and navigates to the search results sorted by latest. Any failure is
// wrapped in ErrSession.
func (s *Session) Start(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("%w: %w", ErrSession, err)
	}
	return nil
}

func (s *Session) start(ctx context.Context) error {
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	s.pw = pw

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
	})
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}

	s.bctx, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1366, Height: 900},
	})
	if err != nil {
		return fmt.Errorf("new browser context: %w", err)
	}
	s.page, err = s.bctx.NewPage()
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}
	s.page.SetDefaultTimeout(ms(s.cfg.WaitTimeout))
	s.driver = pageDriver{page: s.page}

	if err := s.authenticate(ctx); err != nil {
		return err
	}
	return s.openLatestPosts(ctx)
}

func (s *Session) authenticate(ctx context.Context) error {
	if s.restoreCookies(ctx) {
		return nil
	}
	if s.password == "" {
		return errors.New("no reusable cookies and no password")
	}

	s.logger.Info("logging in to linkedin", "email", s.cfg.Email)
	if _, err := s.page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}
	if err := s.page.Locator(EmailSelector).Fill(s.cfg.Email); err != nil {
		return fmt.Errorf("fill email: %w", err)
	}
	password := s.page.Locator(PasswordSelector)
	if err := password.Fill(s.password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := password.Press("Enter"); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if err := s.waitVisible(GlobalNavSelector); err != nil {
		return fmt.Errorf("login not confirmed (checkpoint or wrong credentials?): %w", err)
	}
	s.logger.Info("linkedin login successful")

	s.saveCookies()
	return nil
}

// restoreCookies reports whether saved cookies produced a signed-in feed.
func (s *Session) restoreCookies(ctx context.Context) bool {
	if s.cfg.CookiesPath == "" {
		return false
	}
	cookies, err := LoadCookies(s.cfg.CookiesPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("ignoring saved cookies", "path", s.cfg.CookiesPath, "error", err)
		}
		return false
	}
	if len(cookies) == 0 {
		return false
	}
	if err := s.bctx.AddCookies(cookies); err != nil {
		s.logger.Warn("adding saved cookies failed", "error", err)
		return false
	}
	if _, err := s.page.Goto(feedURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		s.logger.Warn("loading feed with saved cookies failed", "error", err)
		return false
	}
	if err := s.waitVisible(GlobalNavSelector); err != nil {
		s.logger.Info("saved cookies expired, logging in again")
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	s.logger.Info("reused saved linkedin session", "path", s.cfg.CookiesPath)
	return true
}

func (s *Session) saveCookies() {
	if s.cfg.CookiesPath == "" {
		return
	}
	cookies, err := s.bctx.Cookies()
	if err != nil {
		s.logger.Warn("reading session cookies failed", "error", err)
		return
	}
	if err := SaveCookies(s.cfg.CookiesPath, cookies); err != nil {
		s.logger.Warn("saving session cookies failed", "path", s.cfg.CookiesPath, "error", err)
		return
	}
	s.logger.Debug("saved session cookies", "path", s.cfg.CookiesPath, "count", len(cookies))
}

func (s *Session) openLatestPosts(ctx context.Context) error {
	s.logger.Info("searching posts", "query", s.cfg.SearchText)
	search := s.page.Locator(SearchBarSelector).First()
	if err := search.Fill(s.cfg.SearchText); err != nil {
		return fmt.Errorf("fill search bar: %w", err)
	}
	if err := search.Press("Enter"); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	if err := s.clickFirst(PostsTabSelectors); err != nil {
		return fmt.Errorf("open posts tab: %w", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	if err := s.click(SortBySelector); err != nil {
		return fmt.Errorf("open sort menu: %w", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}
	if err := s.click(LatestSelector); err != nil {
		return fmt.Errorf("choose latest: %w", err)
	}
	if err := s.click(ShowResultsSelector); err != nil {
		return fmt.Errorf("apply sort: %w", err)
	}
	s.logger.Debug("search results sorted by latest")
	return s.pause(ctx)
}

// ExtractNextBatch reloads the results, scrolls to load more posts and
// returns every post container on the page.
func (s *Session) ExtractNextBatch(ctx context.Context) ([]extract.RawElement, error) {
	if s.driver == nil {
		return nil, fmt.Errorf("%w: not started", ErrSession)
	}
	return collect(ctx, s.driver, s.jitter, s.cfg.MaxScrollAttempts, s.logger)
}

func collect(ctx context.Context, d driver, jitter ratelimit.Throttle, scrolls int, logger *slog.Logger) ([]extract.RawElement, error) {
	if err := d.Reload(); err != nil {
		return nil, fmt.Errorf("reload results: %w", err)
	}
	for i := range scrolls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("scrolling", "attempt", i+1, "total", scrolls)
		if err := d.Scroll(); err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		if err := jitter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	for _, sel := range ContainerSelectors {
		elements, err := d.Containers(sel)
		if err != nil {
			logger.Debug("container lookup failed", "selector", sel, "error", err)
			continue
		}
		if len(elements) > 0 {
			logger.Debug("found post containers", "selector", sel, "count", len(elements))
			return elements, nil
		}
	}
	logger.Warn("no posts found on page")
	return []extract.RawElement{}, nil
}

// Close releases the page, browser and driver. It is safe to call more than once.
func (s *Session) Close() error {
	var errs []error
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
		s.browser = nil
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
		s.pw = nil
	}
	s.page, s.bctx, s.driver = nil, nil, nil
	return errors.Join(errs...)
}

func (s *Session) pause(ctx context.Context) error {
	return s.jitter.Wait(ctx)
}

func (s *Session) waitVisible(selector string) error {
	return s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms(s.cfg.WaitTimeout)),
	})
}

func (s *Session) click(selector string) error {
	if err := s.waitVisible(selector); err != nil {
		return err
	}
	return s.page.Locator(selector).First().Click()
}

func (s *Session) clickFirst(selectors []string) error {
	var lastErr error
	for _, sel := range selectors {
		if err := s.click(sel); err != nil {
			s.logger.Debug("selector not found", "selector", sel)
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

type pageDriver struct {
	page playwright.Page
}

func (p pageDriver) Reload() error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p pageDriver) Scroll() error {
	_, err := p.page.Evaluate("window.scrollBy(0, window.innerHeight)")
	return err
}

func (p pageDriver) Containers(selector string) ([]extract.RawElement, error) {
	locators, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}
	out := make([]extract.RawElement, 0, len(locators))
	for _, loc := range locators {
		html, err := loc.Evaluate("el => el.outerHTML", nil)
		if err != nil {
			continue
		}
		s, _ := html.(string)
		if strings.TrimSpace(s) == "" {
			continue
		}
		urn, _ := loc.GetAttribute("data-urn")
		out = append(out, extract.RawElement{HTML: s, URN: urn})
	}
	return out, nil
}

func ms(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
