package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/services"
)

// registerHandlers builds the routing table. Every (module, action) pair
// the engine understands is listed here; anything else fails with
// ErrUnknownModule or ErrUnknownAction at route time.
func (e *Engine) registerHandlers() {
	e.handlers = map[string]map[string]handlerFunc{
		"automation": {
			"follow":         e.handleFollow,
			"like":           e.handleLike,
			"updateUserData": e.handleUpdateUserData,
		},
		"scraping": {
			"scrapeProfile":  e.handleScrapeProfile,
			"scrapeMetadata": e.handleScrapeMetadata,
			"addTarget":      e.handleAddTarget,
		},
		"mediaDownload": {
			"downloadUserMedia": e.handleDownloadUserMedia,
			"downloadBatch":     e.handleDownloadBatch,
		},
		"mediaEditing": {
			"processUserMedia": e.handleProcessUserMedia,
			"processBatch":     e.handleProcessBatch,
			"processImages":    e.handleProcessImages,
			"processVideos":    e.handleProcessVideos,
		},
		"store": {
			"readProfilesData": e.handleReadProfilesData,
			"getProfileStats":  e.handleGetProfileStats,
		},
	}
}

func (e *Engine) handleFollow(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Automation == nil {
		return "", services.ErrNotReady
	}
	target, err := argString(args, 0, "targetUserName")
	if err != nil {
		return "", err
	}
	if max := e.limits.MaxDailyFollows; max > 0 && p.FollowsOn(e.now()) >= max {
		return "", fmt.Errorf("daily follow limit reached (%d)", max)
	}
	if err := e.services.Automation.FollowUser(ctx, target); err != nil {
		return "", err
	}
	p.AddFollow(target, e.now())
	return fmt.Sprintf("followed %s", target), nil
}

func (e *Engine) handleLike(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Automation == nil {
		return "", services.ErrNotReady
	}
	target, err := argString(args, 0, "targetUserName")
	if err != nil {
		return "", err
	}
	if max := e.limits.MaxDailyLikes; max > 0 && e.likes[e.likeKey(p.UserName)] >= max {
		return "", fmt.Errorf("daily like limit reached (%d)", max)
	}
	if err := e.services.Automation.LikeUserPosts(ctx, target, args[1:]); err != nil {
		return "", err
	}
	e.likes[e.likeKey(p.UserName)]++
	return fmt.Sprintf("liked recent posts of %s", target), nil
}

func (e *Engine) handleUpdateUserData(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Automation == nil {
		return "", services.ErrNotReady
	}
	force := argBool(args, 0, false)
	if !force && p.IsResource() && e.limits.MinDaysToCheckResource > 0 && p.LastUpdate != nil {
		minAge := time.Duration(e.limits.MinDaysToCheckResource) * 24 * time.Hour
		if age := e.now().Sub(*p.LastUpdate); age < minAge {
			return fmt.Sprintf("metadata is %.0f hours old, within the resource check interval", age.Hours()), nil
		}
	}
	meta, err := e.services.Automation.UpdateProfileData(ctx, force)
	if err != nil {
		return "", err
	}
	p.UpdateMetadata(meta, e.now())
	return "profile metadata refreshed", nil
}

func (e *Engine) handleScrapeProfile(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Scraper == nil {
		return "", services.ErrNotReady
	}
	target, err := argString(args, 0, "targetUserName")
	if err != nil {
		return "", err
	}
	scraped, err := e.services.Scraper.ScrapeUserProfile(ctx, target, args[1:])
	if err != nil {
		return "", err
	}
	if err := e.applyScrapedMetadata(p, target, scraped.Metadata); err != nil {
		return "", err
	}
	return fmt.Sprintf("scraped %s: %d posts, %d followers, %d followings",
		target, scraped.PostsCount, scraped.FollowersCount, scraped.FollowingsCount), nil
}

func (e *Engine) handleScrapeMetadata(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Scraper == nil {
		return "", services.ErrNotReady
	}
	target, err := argString(args, 0, "userName")
	if err != nil {
		return "", err
	}
	meta, err := e.services.Scraper.ScrapeProfileMetadata(ctx, target)
	if err != nil {
		return "", err
	}
	if err := e.applyScrapedMetadata(p, target, meta); err != nil {
		return "", err
	}
	return fmt.Sprintf("metadata for %s: %d posts, %d followers", target, meta.PostsCount, meta.FollowersCount), nil
}

// applyScrapedMetadata persists freshly scraped counters onto the matching
// repository profile, if one exists. When the target is the profile whose
// pass is running, the in-memory copy is updated and the engine's final
// save persists it.
func (e *Engine) applyScrapedMetadata(p *profile.Profile, target string, meta profile.Metadata) error {
	if target == p.UserName {
		p.UpdateMetadata(meta, e.now())
		return nil
	}

	other, err := e.repo.GetByUserName(target)
	if err != nil {
		return err
	}
	if other == nil {
		return nil // scraping an account we do not track
	}
	other.UpdateMetadata(meta, e.now())
	return e.repo.Save(other)
}

func (e *Engine) handleAddTarget(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Scraper == nil {
		return "", services.ErrNotReady
	}
	target, err := argString(args, 0, "target")
	if err != nil {
		return "", err
	}
	targetType := ""
	if len(args) > 1 {
		targetType, _ = args[1].(string)
	}
	if err := e.services.Scraper.AddScrapingTarget(ctx, target, targetType); err != nil {
		return "", err
	}
	return fmt.Sprintf("registered scraping target %s", target), nil
}

func (e *Engine) handleDownloadUserMedia(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Downloader == nil {
		return "", services.ErrNotReady
	}
	userName, err := argString(args, 0, "userName")
	if err != nil {
		return "", err
	}
	count, err := e.services.Downloader.DownloadUserMedia(ctx, userName, args[1:])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("downloaded %d media items for %s", count, userName), nil
}

func (e *Engine) handleDownloadBatch(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Downloader == nil {
		return "", services.ErrNotReady
	}
	userNames := argStrings(args, 0)
	if len(userNames) == 0 {
		return "", fmt.Errorf("missing required argument %q", "userNames")
	}
	count, err := e.services.Downloader.DownloadMultipleUsers(ctx, userNames, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("downloaded %d media items for %d users", count, len(userNames)), nil
}

func (e *Engine) handleProcessUserMedia(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Editor == nil {
		return "", services.ErrNotReady
	}
	userName, err := argString(args, 0, "userName")
	if err != nil {
		return "", err
	}
	count, err := e.services.Editor.ProcessUserMedia(ctx, userName, args[1:])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("processed %d media items for %s", count, userName), nil
}

func (e *Engine) handleProcessBatch(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Editor == nil {
		return "", services.ErrNotReady
	}
	userNames := argStrings(args, 0)
	if len(userNames) == 0 {
		return "", fmt.Errorf("missing required argument %q", "userNames")
	}
	count, err := e.services.Editor.ProcessBatchMedia(ctx, userNames, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("processed %d media items for %d users", count, len(userNames)), nil
}

func (e *Engine) handleProcessImages(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Editor == nil {
		return "", services.ErrNotReady
	}
	paths := argStrings(args, 0)
	if len(paths) == 0 {
		return "", fmt.Errorf("missing required argument %q", "paths")
	}
	count, err := e.services.Editor.ProcessImages(ctx, paths)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("processed %d images", count), nil
}

func (e *Engine) handleProcessVideos(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	if e.services.Editor == nil {
		return "", services.ErrNotReady
	}
	paths := argStrings(args, 0)
	if len(paths) == 0 {
		return "", fmt.Errorf("missing required argument %q", "paths")
	}
	count, err := e.services.Editor.ProcessVideos(ctx, paths)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("processed %d videos", count), nil
}

func (e *Engine) handleReadProfilesData(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	all, err := e.repo.GetAll()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d profiles in repository", len(all)), nil
}

func (e *Engine) handleGetProfileStats(ctx context.Context, p *profile.Profile, args []any) (string, error) {
	stats, err := e.repo.GetStats()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
