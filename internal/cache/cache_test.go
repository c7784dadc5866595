package cache

import (
	"testing"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-recommendation-engine/internal/domain"
)

func TestGenerateSubjectKey(t *testing.T) {
	key1 := generateSubjectKey("subject-1")
	key2 := generateSubjectKey("subject-2")

	assert.NotEqual(t, key1, key2)
	assert.Equal(t, key1, generateSubjectKey("subject-1"))
	assert.Contains(t, key1, "recs:subject:")
}

func TestLocalTierHonorsExpiry(t *testing.T) {
	local, err := lru.New[string, *CachedSet](4)
	require.NoError(t, err)

	c := &Client{local: local, defaultTTL: time.Hour}

	set := &domain.RecommendationSet{SubjectID: "subject-1"}
	key := generateSubjectKey(set.SubjectID)

	// Fresh entry is served from the local tier.
	c.local.Add(key, &CachedSet{
		Data:      set,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	cached, ok := c.local.Get(key)
	require.True(t, ok)
	assert.True(t, time.Now().Before(cached.ExpiresAt))

	// Expired entry must not be served.
	c.local.Add(key, &CachedSet{
		Data:      set,
		CachedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	cached, ok = c.local.Get(key)
	require.True(t, ok)
	assert.True(t, time.Now().After(cached.ExpiresAt))
}

func TestLocalTierEvictsOldest(t *testing.T) {
	local, err := lru.New[string, *CachedSet](2)
	require.NoError(t, err)

	entry := &CachedSet{ExpiresAt: time.Now().Add(time.Hour)}
	local.Add("a", entry)
	local.Add("b", entry)
	local.Add("c", entry)

	_, ok := local.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = local.Get("c")
	assert.True(t, ok)
}
