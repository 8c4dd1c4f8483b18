package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/services"
	"github.com/profilebot/profilebot/internal/store"
)

const profilePage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="Alice Example (@alice)" />
<meta property="og:description" content="1,234 Followers, 56 Following, 789 Posts" />
</head>
<body>
<header><h1>Alice Example</h1><p>Travel and <b>coffee</b>.</p></header>
</body>
</html>`

func newTestScraper(t *testing.T, baseURL string) *Scraper {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	targets, err := store.New(filepath.Join(t.TempDir(), "scrapingTargets.json"), log)
	require.NoError(t, err)

	s := New(Config{BaseURL: baseURL, RetryAttempts: 1}, targets, log)
	require.NoError(t, s.Initialize(context.Background(), profile.New("scraper1", profile.TypeScraper)))
	return s
}

func TestScrapeUserProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alice/", r.URL.Path)
		_, _ = w.Write([]byte(profilePage))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL)

	result, err := s.ScrapeUserProfile(context.Background(), "alice", nil)
	require.NoError(t, err)

	assert.Equal(t, "alice", result.UserName)
	assert.Equal(t, "Alice Example (@alice)", result.FullName)
	assert.Equal(t, 1234, result.FollowersCount)
	assert.Equal(t, 56, result.FollowingsCount)
	assert.Equal(t, 789, result.PostsCount)
	assert.Contains(t, result.BioMarkdown, "**coffee**")
}

func TestScrapeUserProfile_NotInitialized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL)
	require.NoError(t, s.Cleanup(context.Background()))

	_, err := s.ScrapeUserProfile(context.Background(), "alice", nil)
	assert.ErrorIs(t, err, services.ErrNotReady)
}

func TestScrapeUserProfile_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL)

	_, err := s.ScrapeUserProfile(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestScrapeProfileMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(profilePage))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL)

	meta, err := s.ScrapeProfileMetadata(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1234, meta.FollowersCount)
	assert.Equal(t, 789, meta.PostsCount)
}

func TestAddScrapingTarget(t *testing.T) {
	s := newTestScraper(t, "http://unused.invalid")

	require.NoError(t, s.AddScrapingTarget(context.Background(), "bob", ""))
	require.NoError(t, s.AddScrapingTarget(context.Background(), "bob", "")) // duplicate no-op

	count, err := s.targets.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, found, err := s.targets.FindOne("target", "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "profile", doc["targetType"])
}

func TestAddScrapingTarget_Empty(t *testing.T) {
	s := newTestScraper(t, "http://unused.invalid")

	assert.Error(t, s.AddScrapingTarget(context.Background(), "", ""))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1,234", 1234},
		{"12.5k", 12500},
		{"3m", 3_000_000},
		{"0", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCount(tt.raw))
		})
	}
}
