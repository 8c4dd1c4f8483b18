// Package services defines the collaborator boundary between the dispatch
// engine and the external automation, scraping, and media tooling.
package services

import (
	"context"
	"errors"

	"github.com/profilebot/profilebot/internal/profile"
)

// ErrNotReady indicates an operation was requested on a service that has not
// been initialized for the current profile.
var ErrNotReady = errors.New("service not initialized")

// ScrapeResult is the full payload pulled from a public profile page.
type ScrapeResult struct {
	UserName        string           `json:"userName"`
	FullName        string           `json:"fullName"`
	BioMarkdown     string           `json:"bioMarkdown"`
	PostsCount      int              `json:"postsCount"`
	FollowersCount  int              `json:"followersCount"`
	FollowingsCount int              `json:"followingsCount"`
	Metadata        profile.Metadata `json:"-"`
}

// AutomationDriver performs actions on behalf of an authenticated profile
// through an external browser driver.
type AutomationDriver interface {
	Initialize(ctx context.Context, p *profile.Profile) error
	FollowUser(ctx context.Context, userName string) error
	LikeUserPosts(ctx context.Context, userName string, options []any) error
	UpdateProfileData(ctx context.Context, force bool) (profile.Metadata, error)
	Cleanup(ctx context.Context) error
}

// Scraper pulls public profile data without authentication.
type Scraper interface {
	Initialize(ctx context.Context, p *profile.Profile) error
	ScrapeUserProfile(ctx context.Context, userName string, options []any) (*ScrapeResult, error)
	ScrapeProfileMetadata(ctx context.Context, userName string) (profile.Metadata, error)
	AddScrapingTarget(ctx context.Context, target, targetType string) error
	Cleanup(ctx context.Context) error
}

// MediaDownloader fetches media assets for one or more accounts.
type MediaDownloader interface {
	DownloadUserMedia(ctx context.Context, userName string, options []any) (int, error)
	DownloadMultipleUsers(ctx context.Context, userNames []string, options []any) (int, error)
}

// MediaEditor transforms downloaded media assets.
type MediaEditor interface {
	ProcessUserMedia(ctx context.Context, userName string, options []any) (int, error)
	ProcessBatchMedia(ctx context.Context, userNames []string, options []any) (int, error)
	ProcessImages(ctx context.Context, paths []string) (int, error)
	ProcessVideos(ctx context.Context, paths []string) (int, error)
}

// Set bundles the collaborators available to a dispatch pass. Any nil field
// means the corresponding capability is unavailable and tasks routed to it
// fail with ErrNotReady.
type Set struct {
	Automation AutomationDriver
	Scraper    Scraper
	Downloader MediaDownloader
	Editor     MediaEditor
}
