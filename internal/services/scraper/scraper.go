// Package scraper implements the public-page scraper over plain HTTP.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/wasilibs/go-re2"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/retry"
	"github.com/profilebot/profilebot/internal/services"
	"github.com/profilebot/profilebot/internal/store"
)

const defaultTimeout = 30 * time.Second

// counterPattern matches the "1,234 Followers, 56 Following, 789 Posts"
// shape of the og:description meta tag on public profile pages.
var counterPattern = re2.MustCompile(`(?i)([\d.,]+[km]?)\s+Followers?,\s+([\d.,]+[km]?)\s+Following,\s+([\d.,]+[km]?)\s+Posts?`)

// Config holds scraper settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	UserAgent     string
}

// Scraper fetches and parses public profile pages. It must be initialized
// for a profile before any scrape call.
type Scraper struct {
	cfg     Config
	client  *http.Client
	targets *store.Store
	logger  *logger.Logger
	current *profile.Profile
}

var _ services.Scraper = (*Scraper)(nil)

// New creates a Scraper backed by targets for the persisted scrape-target
// list. targets may be nil if target registration is not needed.
func New(cfg Config, targets *store.Store, log *logger.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		targets: targets,
		logger:  log,
	}
}

// Initialize binds the scraper to the profile whose pass is running.
func (s *Scraper) Initialize(ctx context.Context, p *profile.Profile) error {
	s.current = p
	s.logger.Debug("scraper initialized", logger.Field{Key: "profile", Value: p.UserName})
	return nil
}

// Cleanup releases the profile binding.
func (s *Scraper) Cleanup(ctx context.Context) error {
	s.current = nil
	return nil
}

// ScrapeUserProfile fetches a public profile page and extracts counters,
// display name, and a markdown rendering of the page header.
func (s *Scraper) ScrapeUserProfile(ctx context.Context, userName string, options []any) (*services.ScrapeResult, error) {
	if s.current == nil {
		return nil, services.ErrNotReady
	}

	body, err := s.fetch(ctx, s.profileURL(userName))
	if err != nil {
		return nil, fmt.Errorf("fetch profile page for %s: %w", userName, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse profile page for %s: %w", userName, err)
	}

	result := &services.ScrapeResult{UserName: userName}

	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if m := counterPattern.FindStringSubmatch(desc); m != nil {
			result.FollowersCount = parseCount(m[1])
			result.FollowingsCount = parseCount(m[2])
			result.PostsCount = parseCount(m[3])
		}
	}

	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		result.FullName = strings.TrimSpace(title)
	}

	if header := doc.Find("header").First(); header.Length() > 0 {
		if html, err := header.Html(); err == nil {
			converter := md.NewConverter("", true, nil)
			if bio, err := converter.ConvertString(html); err == nil {
				result.BioMarkdown = strings.TrimSpace(bio)
			}
		}
	}

	result.Metadata = profile.Metadata{
		PostsCount:      result.PostsCount,
		FollowersCount:  result.FollowersCount,
		FollowingsCount: result.FollowingsCount,
	}

	s.logger.Info("scraped profile",
		logger.Field{Key: "target", Value: userName},
		logger.Field{Key: "followers", Value: result.FollowersCount},
	)
	return result, nil
}

// ScrapeProfileMetadata fetches only the counters for userName.
func (s *Scraper) ScrapeProfileMetadata(ctx context.Context, userName string) (profile.Metadata, error) {
	result, err := s.ScrapeUserProfile(ctx, userName, nil)
	if err != nil {
		return profile.Metadata{}, err
	}
	return result.Metadata, nil
}

// AddScrapingTarget registers target in the persisted target list.
// Registering an existing target is a no-op.
func (s *Scraper) AddScrapingTarget(ctx context.Context, target, targetType string) error {
	if s.targets == nil {
		return services.ErrNotReady
	}
	if target == "" {
		return fmt.Errorf("empty scraping target")
	}
	if targetType == "" {
		targetType = "profile"
	}

	exists, err := s.targets.Exists("target", target)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("scraping target already registered", logger.Field{Key: "target", Value: target})
		return nil
	}

	return s.targets.Create(store.Document{
		"target":     target,
		"targetType": targetType,
		"addedAt":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Scraper) profileURL(userName string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + userName + "/"
}

func (s *Scraper) fetch(ctx context.Context, url string) (string, error) {
	var body string

	err := retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if s.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", s.cfg.UserAgent)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(data)
		return nil
	}, retry.Config{MaxAttempts: s.cfg.RetryAttempts})

	return body, err
}

// parseCount converts a human-formatted counter ("1,234", "12.5k", "3m")
// to an integer. Malformed input yields 0.
func parseCount(raw string) int {
	raw = strings.ToLower(strings.TrimSpace(raw))

	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "k"):
		multiplier = 1_000
		raw = strings.TrimSuffix(raw, "k")
	case strings.HasSuffix(raw, "m"):
		multiplier = 1_000_000
		raw = strings.TrimSuffix(raw, "m")
	}

	raw = strings.ReplaceAll(raw, ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}
