// Package profile defines the Profile and Task entities used across the
// repository and dispatch engine. The package is pure data and behavior;
// persistence and execution live elsewhere.
package profile

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Type is the profile variant tag. Behavior-free today, but kept as a closed
// enum so future specialization has a place to hang off.
type Type string

const (
	TypeAgent    Type = "agent"
	TypeScraper  Type = "scraper"
	TypeResource Type = "resource"
	TypeUnknown  Type = "unknown"
)

// ParseType maps a raw string to a Type, falling back to TypeUnknown.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeAgent, TypeScraper, TypeResource:
		return Type(s)
	default:
		return TypeUnknown
	}
}

// FollowRecord is one entry of the append-only automated-follow log.
type FollowRecord struct {
	UserName string    `json:"userName"`
	Date     time.Time `json:"date"`
}

// Profile is the unit of automation identity: an account-like entity with
// its own task queue and metadata. UserName is the unique key and is
// immutable after creation.
type Profile struct {
	UserName      string `json:"userName"`
	Type          Type   `json:"type"`
	ProfileTarget string `json:"profileTarget"`
	Password      string `json:"password"`
	UserDataPath  string `json:"userDataPath"`

	// Metadata counters, refreshed by external scraping results.
	PostsCount           int `json:"postsCount"`
	FollowersCount       int `json:"followersCount"`
	FollowingsCount      int `json:"followingsCount"`
	MutualFollowersCount int `json:"mutualFollowersCount"`

	// Resource-variant counters.
	PostsDownloaded    int `json:"postsDownloaded"`
	PostsEdited        int `json:"postsEdited"`
	PostsReadyToUpload int `json:"postsReadyToUpload"`

	// Agent-variant soft reference by key; may point at a profile that does
	// not exist.
	LinkedResourceUserName string `json:"linkedResourceUserName"`

	AutomatedFollow []FollowRecord `json:"automatedFollow"`
	DueTasks        []Task         `json:"dueTasks"`

	LastUpdate            *time.Time `json:"lastUpdate"`
	LastDataOverwriteDate *time.Time `json:"lastDataOverwriteDate"`
}

// New constructs a profile with every omitted field defaulted; the result is
// never a partial record.
func New(userName string, t Type) *Profile {
	if t == "" {
		t = TypeAgent
	}
	return &Profile{
		UserName:        NormalizeUserName(userName),
		Type:            t,
		AutomatedFollow: []FollowRecord{},
		DueTasks:        []Task{},
	}
}

// NormalizeUserName applies NFKC normalization so visually identical
// usernames compare equal as keys.
func NormalizeUserName(userName string) string {
	return norm.NFKC.String(userName)
}

// FromDocument builds a profile from a persisted record, defaulting every
// missing field. Queued tasks are accepted in both the object form and the
// legacy positional-array form.
func FromDocument(doc map[string]any) (*Profile, error) {
	var tasks []Task
	if rawTasks, ok := doc["dueTasks"].([]any); ok {
		tasks = make([]Task, 0, len(rawTasks))
		for _, raw := range rawTasks {
			t, err := TaskFromDocument(raw)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}

		clone := make(map[string]any, len(doc))
		for k, v := range doc {
			clone[k] = v
		}
		delete(clone, "dueTasks")
		doc = clone
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile record: %w", err)
	}

	p.Type = ParseType(string(p.Type))
	if p.AutomatedFollow == nil {
		p.AutomatedFollow = []FollowRecord{}
	}
	if tasks != nil {
		p.DueTasks = tasks
	}
	if p.DueTasks == nil {
		p.DueTasks = []Task{}
	}

	return &p, nil
}

// ToDocument serializes the profile to the persisted record shape. It is the
// exact inverse of FromDocument for well-formed profiles.
func (p *Profile) ToDocument() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}

	return doc, nil
}

// IsAgent reports whether the profile is an agent profile.
func (p *Profile) IsAgent() bool { return p.Type == TypeAgent }

// IsScraper reports whether the profile is a scraper profile.
func (p *Profile) IsScraper() bool { return p.Type == TypeScraper }

// IsResource reports whether the profile is a resource profile.
func (p *Profile) IsResource() bool { return p.Type == TypeResource }

// HasPendingTasks reports whether the due-task queue is non-empty.
func (p *Profile) HasPendingTasks() bool {
	return len(p.DueTasks) > 0
}

// NeedsUpdate reports whether the profile metadata is stale: LastUpdate is
// absent or older than maxAgeHours relative to now.
func (p *Profile) NeedsUpdate(maxAgeHours float64, now time.Time) bool {
	if p.LastUpdate == nil {
		return true
	}
	return now.Sub(*p.LastUpdate).Hours() > maxAgeHours
}

// AddTask appends a task to the due-task queue.
func (p *Profile) AddTask(t Task) {
	p.DueTasks = append(p.DueTasks, t)
}

// RemoveTask removes every queued task that structurally matches t
// (parentModuleName, actionName, argumentsString). Two textually identical
// queued tasks are indistinguishable, so both are removed.
func (p *Profile) RemoveTask(t Task) {
	kept := p.DueTasks[:0]
	for _, queued := range p.DueTasks {
		if !queued.Matches(t) {
			kept = append(kept, queued)
		}
	}
	p.DueTasks = kept
}

// FollowsOn counts automated-follow records dated the same calendar day
// as now, in now's location.
func (p *Profile) FollowsOn(now time.Time) int {
	year, day := now.Year(), now.YearDay()
	count := 0
	for _, rec := range p.AutomatedFollow {
		t := rec.Date.In(now.Location())
		if t.Year() == year && t.YearDay() == day {
			count++
		}
	}
	return count
}

// AddFollow appends a record to the automated-follow log.
func (p *Profile) AddFollow(targetUserName string, date time.Time) {
	p.AutomatedFollow = append(p.AutomatedFollow, FollowRecord{
		UserName: targetUserName,
		Date:     date,
	})
}

// Metadata holds scraped profile counters. Zero values mean "no data" and
// leave the existing counter untouched.
type Metadata struct {
	PostsCount           int
	FollowersCount       int
	FollowingsCount      int
	MutualFollowersCount int
}

// UpdateMetadata refreshes the counters from scraped data and stamps
// LastUpdate with now.
func (p *Profile) UpdateMetadata(m Metadata, now time.Time) {
	if m.PostsCount > 0 {
		p.PostsCount = m.PostsCount
	}
	if m.FollowersCount > 0 {
		p.FollowersCount = m.FollowersCount
	}
	if m.FollowingsCount > 0 {
		p.FollowingsCount = m.FollowingsCount
	}
	if m.MutualFollowersCount > 0 {
		p.MutualFollowersCount = m.MutualFollowersCount
	}
	p.LastUpdate = &now
}
