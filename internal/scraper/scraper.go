// Package scraper fetches a company website and reduces it to plain text for
// the research pipeline.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	fallbackAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// MaxTextLength caps the text handed to the embedder and the LLM.
	MaxTextLength = 2000

	maxBodyBytes = 2 << 20
)

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Config struct {
	UseBrowser     bool
	BrowserTimeout time.Duration
	HTTPTimeout    time.Duration
}

type Scraper struct {
	browser  Fetcher // nil when headless scraping is disabled
	fallback Fetcher
	lg       zerolog.Logger
}

func New(cfg Config, lg zerolog.Logger) *Scraper {
	if cfg.BrowserTimeout <= 0 {
		cfg.BrowserTimeout = 15 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	s := &Scraper{
		fallback: &HTTPFetcher{Client: &http.Client{Timeout: cfg.HTTPTimeout}},
		lg:       lg.With().Str("component", "scraper").Logger(),
	}
	if cfg.UseBrowser {
		s.browser = &BrowserFetcher{Timeout: cfg.BrowserTimeout}
	}
	return s
}

// NewWithFetchers is used by tests and by callers that bring their own transport.
func NewWithFetchers(browser, fallback Fetcher, lg zerolog.Logger) *Scraper {
	return &Scraper{browser: browser, fallback: fallback, lg: lg}
}

// ScrapeWebsite tries the headless browser first and plain HTTP second.
// It returns "" when neither produced any HTML.
func (s *Scraper) ScrapeWebsite(ctx context.Context, url string) (string, error) {
	s.lg.Info().Str("url", url).Msg("attempting to scrape")

	var html string
	if s.browser != nil {
		page, err := s.browser.Fetch(ctx, url)
		if err != nil {
			s.lg.Warn().Err(err).Str("url", url).Msg("browser scrape failed, falling back to http")
		} else {
			html = page
		}
	}

	if strings.TrimSpace(html) == "" {
		page, err := s.fallback.Fetch(ctx, url)
		if err != nil {
			s.lg.Warn().Err(err).Str("url", url).Msg("fallback request also failed")
			return "", nil
		}
		html = page
	}

	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	text, err := ExtractText(html, MaxTextLength)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return text, nil
}

// NormalizeURL adds https:// to bare domains.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http") {
		return "https://" + raw
	}
	return raw
}

// HTTPFetcher is the plain GET fallback.
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fallbackAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BrowserFetcher renders the page in headless Chromium.
type BrowserFetcher struct {
	Timeout time.Duration
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	l := launcher.New().
		Context(ctx).
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars")
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: browserUserAgent}); err != nil {
		return "", fmt.Errorf("set user agent: %w", err)
	}

	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	wait()

	return page.HTML()
}
