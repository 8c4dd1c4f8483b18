// Package repository presents Profile-shaped operations over two coupled
// file representations: one shared index file holding every profile's
// canonical record and one detail file per profile holding a merged,
// possibly richer, copy of the same data. The index is authoritative for
// existence; detail files tolerate extra fields written by external
// collaborators.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/store"
)

var (
	// ErrNotFound is returned when no profile exists for the given userName.
	ErrNotFound = errors.New("profile not found")

	// ErrDuplicateKey is returned when creating a profile whose userName is taken.
	ErrDuplicateKey = errors.New("profile already exists")

	// ErrValidation is returned when profile data fails a creation check.
	ErrValidation = errors.New("invalid profile data")
)

const userNameField = "userName"

// Stats is a snapshot of aggregate profile counts, computed by a full scan.
type Stats struct {
	Total            int `json:"total"`
	Agents           int `json:"agents"`
	Scrapers         int `json:"scrapers"`
	Resources        int `json:"resources"`
	WithPendingTasks int `json:"withPendingTasks"`
	NeedingUpdate    int `json:"needingUpdate"`
}

// Repository owns the dual representation of profile state. Index writes are
// serialized with a mutex so concurrent callers within one process cannot
// interleave read-modify-write cycles.
type Repository struct {
	index       *store.Store
	dataRoot    string
	logger      *logger.Logger
	now         func() time.Time
	maxAgeHours float64
	mu          sync.Mutex
}

// Option configures the repository.
type Option func(*Repository)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithMaxAge overrides the metadata staleness threshold used by GetStats.
func WithMaxAge(hours float64) Option {
	return func(r *Repository) {
		if hours > 0 {
			r.maxAgeHours = hours
		}
	}
}

// New creates a repository with its index at indexPath and per-profile
// detail files rooted at dataRoot.
func New(indexPath, dataRoot string, log *logger.Logger, opts ...Option) (*Repository, error) {
	index, err := store.New(indexPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile index: %w", err)
	}

	r := &Repository{
		index:       index,
		dataRoot:    dataRoot,
		logger:      log,
		now:         time.Now,
		maxAgeHours: 24,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetAll returns every profile in the index.
func (r *Repository) GetAll() ([]*profile.Profile, error) {
	docs, err := r.index.ReadAll()
	if err != nil {
		return nil, err
	}

	profiles := make([]*profile.Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := profile.FromDocument(doc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// GetByUserName returns the profile for userName, or nil when absent.
// Absence is not an error at this layer.
func (r *Repository) GetByUserName(userName string) (*profile.Profile, error) {
	doc, found, err := r.index.FindOne(userNameField, userName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return profile.FromDocument(doc)
}

// GetByType returns every profile with the given variant tag.
func (r *Repository) GetByType(t profile.Type) ([]*profile.Profile, error) {
	return r.filter(func(p *profile.Profile) bool { return p.Type == t })
}

// GetWithPendingTasks returns every profile whose due-task queue is non-empty.
func (r *Repository) GetWithPendingTasks() ([]*profile.Profile, error) {
	return r.filter((*profile.Profile).HasPendingTasks)
}

// GetNeedingUpdate returns every profile whose metadata is absent or older
// than maxAgeHours.
func (r *Repository) GetNeedingUpdate(maxAgeHours float64) ([]*profile.Profile, error) {
	now := r.now()
	return r.filter(func(p *profile.Profile) bool { return p.NeedsUpdate(maxAgeHours, now) })
}

func (r *Repository) filter(keep func(*profile.Profile) bool) ([]*profile.Profile, error) {
	all, err := r.GetAll()
	if err != nil {
		return nil, err
	}

	var matched []*profile.Profile
	for _, p := range all {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Save upserts the profile into the index and merges it into its detail
// file. The in-memory profile wins on every conflicting field; foreign
// fields already present in the detail file are preserved.
func (r *Repository) Save(p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(p)
}

// save is Save without the lock. Callers must hold r.mu.
func (r *Repository) save(p *profile.Profile) error {
	doc, err := p.ToDocument()
	if err != nil {
		return err
	}

	exists, err := r.index.Exists(userNameField, p.UserName)
	if err != nil {
		return err
	}

	if exists {
		if _, err := r.index.Update(userNameField, p.UserName, doc); err != nil {
			return err
		}
	} else {
		if err := r.index.Create(doc); err != nil {
			return err
		}
	}

	return r.saveDetail(p, doc)
}

// saveDetail merges the profile document into its detail file and stamps
// lastDataOverwriteDate.
func (r *Repository) saveDetail(p *profile.Profile, doc store.Document) error {
	if p.UserDataPath == "" {
		return fmt.Errorf("%w: profile %s has no userDataPath", ErrValidation, p.UserName)
	}

	if err := os.MkdirAll(filepath.Dir(p.UserDataPath), 0755); err != nil {
		return fmt.Errorf("failed to create detail directory: %w", err)
	}

	// Existing detail content is the merge base so fields written by
	// external collaborators survive every save.
	base := store.Document{}
	if data, err := os.ReadFile(p.UserDataPath); err == nil {
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("%w: %s: %v", store.ErrCorruptData, p.UserDataPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read detail file %s: %w", p.UserDataPath, err)
	}

	for k, v := range doc {
		base[k] = v
	}
	base["lastDataOverwriteDate"] = r.now().UTC().Format(time.RFC3339Nano)

	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal detail record: %w", err)
	}

	return store.WriteFileAtomic(p.UserDataPath, data)
}

// SaveAll replaces the entire index with the given profiles. Detail files
// are not touched.
func (r *Repository) SaveAll(profiles []*profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]store.Document, 0, len(profiles))
	for _, p := range profiles {
		doc, err := p.ToDocument()
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return r.index.WriteAll(docs)
}

// Create validates and persists a new profile. The userName must be
// non-empty and unique across the whole store; a default detail-file path
// is assigned when none is supplied.
func (r *Repository) Create(p *profile.Profile) (*profile.Profile, error) {
	p.UserName = profile.NormalizeUserName(p.UserName)
	if p.UserName == "" {
		return nil, fmt.Errorf("%w: userName is required", ErrValidation)
	}
	if p.Type == "" {
		p.Type = profile.TypeAgent
	}
	if p.AutomatedFollow == nil {
		p.AutomatedFollow = []profile.FollowRecord{}
	}
	if p.DueTasks == nil {
		p.DueTasks = []profile.Task{}
	}

	existing, err := r.GetByUserName(p.UserName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, p.UserName)
	}

	if p.UserDataPath == "" {
		p.UserDataPath = r.DefaultDetailPath(p)
	}

	if err := r.Save(p); err != nil {
		return nil, err
	}

	r.logger.Info("profile created",
		logger.Field{Key: "user_name", Value: p.UserName},
		logger.Field{Key: "type", Value: string(p.Type)})

	return p, nil
}

// DefaultDetailPath returns <dataRoot>/<type>sData/<userName>-data.json.
func (r *Repository) DefaultDetailPath(p *profile.Profile) string {
	return filepath.Join(r.dataRoot, string(p.Type)+"sData", p.UserName+"-data.json")
}

// Delete removes the index entry and, if present, the detail file. The two
// deletions are not atomic; a crash in between leaves an orphaned detail
// file, which is an accepted leak since the index is authoritative.
func (r *Repository) Delete(userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.index.Delete(userNameField, userName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, userName)
		}
		return err
	}

	if path, ok := doc["userDataPath"].(string); ok && path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to remove detail file",
				logger.Field{Key: "user_name", Value: userName},
				logger.Field{Key: "path", Value: path},
				logger.Field{Key: "error", Value: err})
		}
	}

	return nil
}

// ReadDetail reads the per-profile detail file as a profile. Extra fields
// in the file are ignored by the entity model but preserved on disk.
func (r *Repository) ReadDetail(userName string) (*profile.Profile, error) {
	p, err := r.GetByUserName(userName)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userName)
	}
	if p.UserDataPath == "" {
		return nil, fmt.Errorf("%w: profile %s has no userDataPath", ErrValidation, userName)
	}

	data, err := os.ReadFile(p.UserDataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: detail file %s", ErrNotFound, p.UserDataPath)
		}
		return nil, fmt.Errorf("failed to read detail file %s: %w", p.UserDataPath, err)
	}

	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrCorruptData, p.UserDataPath, err)
	}

	return profile.FromDocument(doc)
}

// AddTask appends a task to the profile's queue and persists the whole
// profile. The cycle is load-mutate-save; there is no partial-field update.
func (r *Repository) AddTask(userName string, t profile.Task) error {
	return r.mutate(userName, func(p *profile.Profile) {
		p.AddTask(t)
	})
}

// RemoveTask removes every queued task structurally matching t and persists
// the profile.
func (r *Repository) RemoveTask(userName string, t profile.Task) error {
	return r.mutate(userName, func(p *profile.Profile) {
		p.RemoveTask(t)
	})
}

// AddFollowRecord appends to the automated-follow log and persists the
// profile.
func (r *Repository) AddFollowRecord(userName, targetUserName string) error {
	return r.mutate(userName, func(p *profile.Profile) {
		p.AddFollow(targetUserName, r.now())
	})
}

// mutate runs a load-mutate-save cycle under the repository lock so two
// concurrent mutations of the same profile cannot interleave and lose an
// update.
func (r *Repository) mutate(userName string, fn func(*profile.Profile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.GetByUserName(userName)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, userName)
	}

	fn(p)
	return r.save(p)
}

// GetStats computes an aggregate snapshot over every profile. Staleness
// uses the repository's configured max age, 24 hours unless overridden.
func (r *Repository) GetStats() (Stats, error) {
	all, err := r.GetAll()
	if err != nil {
		return Stats{}, err
	}

	now := r.now()
	stats := Stats{Total: len(all)}
	for _, p := range all {
		switch {
		case p.IsAgent():
			stats.Agents++
		case p.IsScraper():
			stats.Scrapers++
		case p.IsResource():
			stats.Resources++
		}
		if p.HasPendingTasks() {
			stats.WithPendingTasks++
		}
		if p.NeedsUpdate(r.maxAgeHours, now) {
			stats.NeedingUpdate++
		}
	}
	return stats, nil
}

// Backup copies the index file to a timestamp-suffixed sibling path.
func (r *Repository) Backup() (string, error) {
	return r.index.Backup()
}
