package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	p := New("alice", "")

	assert.Equal(t, "alice", p.UserName)
	assert.Equal(t, TypeAgent, p.Type)
	assert.NotNil(t, p.AutomatedFollow)
	assert.NotNil(t, p.DueTasks)
	assert.Nil(t, p.LastUpdate)
	assert.Nil(t, p.LastDataOverwriteDate)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeAgent, ParseType("agent"))
	assert.Equal(t, TypeScraper, ParseType("scraper"))
	assert.Equal(t, TypeResource, ParseType("resource"))
	assert.Equal(t, TypeUnknown, ParseType("robot"))
	assert.Equal(t, TypeUnknown, ParseType(""))
}

func TestPredicates(t *testing.T) {
	assert.True(t, New("a", TypeAgent).IsAgent())
	assert.True(t, New("s", TypeScraper).IsScraper())
	assert.True(t, New("r", TypeResource).IsResource())
	assert.False(t, New("a", TypeAgent).IsScraper())
}

func TestRoundTrip_EmptyDefault(t *testing.T) {
	p := New("alice", TypeAgent)

	doc, err := p.ToDocument()
	require.NoError(t, err)

	restored, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, p, restored)
}

func TestRoundTrip_FullyPopulated(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	overwrite := now.Add(time.Hour)

	p := New("alice", TypeResource)
	p.ProfileTarget = "fashion"
	p.Password = "secret"
	p.UserDataPath = "/data/resourcesData/alice-data.json"
	p.PostsCount = 10
	p.FollowersCount = 200
	p.FollowingsCount = 150
	p.MutualFollowersCount = 42
	p.PostsDownloaded = 5
	p.PostsEdited = 3
	p.PostsReadyToUpload = 2
	p.LinkedResourceUserName = "bob"
	p.AddFollow("carol", now)
	p.AddTask(NewTask("automation", "follow", "dave"))
	p.LastUpdate = &now
	p.LastDataOverwriteDate = &overwrite

	doc, err := p.ToDocument()
	require.NoError(t, err)

	restored, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, p, restored)
}

func TestFromDocument_LegacyPositionalTasks(t *testing.T) {
	doc := map[string]any{
		"userName": "alice",
		"type":     "agent",
		"dueTasks": []any{
			[]any{"automation", "follow", "bob"},
			map[string]any{
				"parentModuleName": "scraping",
				"actionName":       "scrapeMetadata",
				"argumentsString":  "",
			},
		},
	}

	p, err := FromDocument(doc)
	require.NoError(t, err)

	require.Len(t, p.DueTasks, 2)
	assert.Equal(t, NewTask("automation", "follow", "bob"), p.DueTasks[0])
	assert.Equal(t, NewTask("scraping", "scrapeMetadata", ""), p.DueTasks[1])
}

func TestFromDocument_MissingFieldsDefaulted(t *testing.T) {
	p, err := FromDocument(map[string]any{"userName": "alice"})
	require.NoError(t, err)

	assert.Equal(t, "alice", p.UserName)
	assert.Equal(t, TypeUnknown, p.Type)
	assert.NotNil(t, p.AutomatedFollow)
	assert.NotNil(t, p.DueTasks)
}

func TestHasPendingTasks(t *testing.T) {
	p := New("alice", TypeAgent)
	assert.False(t, p.HasPendingTasks())

	p.AddTask(NewTask("automation", "follow", "bob"))
	assert.True(t, p.HasPendingTasks())
}

func TestRemoveTask_StructuralMatch(t *testing.T) {
	p := New("alice", TypeAgent)
	p.AddTask(NewTask("automation", "follow", "bob"))
	p.AddTask(NewTask("automation", "like", "bob"))

	p.RemoveTask(NewTask("automation", "follow", "bob"))

	require.Len(t, p.DueTasks, 1)
	assert.Equal(t, "like", p.DueTasks[0].ActionName)
}

func TestRemoveTask_RemovesAllStructuralDuplicates(t *testing.T) {
	// Two textually identical tasks are indistinguishable; removing "one"
	// removes both. Current behavior, kept on purpose.
	p := New("alice", TypeAgent)
	p.AddTask(NewTask("automation", "follow", "bob"))
	p.AddTask(NewTask("automation", "follow", "bob"))

	p.RemoveTask(NewTask("automation", "follow", "bob"))

	assert.Empty(t, p.DueTasks)
}

func TestNeedsUpdate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New("alice", TypeAgent)

	// Never updated.
	assert.True(t, p.NeedsUpdate(24, now))

	p.UpdateMetadata(Metadata{FollowersCount: 10}, now)
	assert.False(t, p.NeedsUpdate(24, now))

	// Just under the threshold.
	assert.False(t, p.NeedsUpdate(24, now.Add(23*time.Hour)))

	// Past the threshold.
	assert.True(t, p.NeedsUpdate(24, now.Add(25*time.Hour)))
}

func TestUpdateMetadata_ZeroValuesKeepCounters(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New("alice", TypeAgent)
	p.FollowersCount = 100
	p.PostsCount = 7

	p.UpdateMetadata(Metadata{FollowingsCount: 55}, now)

	assert.Equal(t, 100, p.FollowersCount)
	assert.Equal(t, 7, p.PostsCount)
	assert.Equal(t, 55, p.FollowingsCount)
	require.NotNil(t, p.LastUpdate)
	assert.Equal(t, now, *p.LastUpdate)
}

func TestAddFollow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New("alice", TypeAgent)

	p.AddFollow("bob", now)
	p.AddFollow("carol", now.Add(time.Minute))

	require.Len(t, p.AutomatedFollow, 2)
	assert.Equal(t, "bob", p.AutomatedFollow[0].UserName)
	assert.Equal(t, "carol", p.AutomatedFollow[1].UserName)
}

func TestFollowsOn(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New("alice", TypeAgent)

	p.AddFollow("bob", now.Add(-2*time.Hour))
	p.AddFollow("carol", now.Add(-11*time.Hour))
	p.AddFollow("dave", now.Add(-24*time.Hour)) // previous day
	p.AddFollow("erin", now.Add(time.Hour))

	assert.Equal(t, 3, p.FollowsOn(now))
	assert.Equal(t, 1, p.FollowsOn(now.Add(-24*time.Hour)))
	assert.Zero(t, p.FollowsOn(now.Add(48*time.Hour)))
}

func TestNormalizeUserName(t *testing.T) {
	// NFKC folds compatibility characters; plain ASCII passes through.
	assert.Equal(t, "alice", NormalizeUserName("alice"))
	assert.Equal(t, "fiona", NormalizeUserName("ﬁona"))
}
