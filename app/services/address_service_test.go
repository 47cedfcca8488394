package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/search"
)

// wholeWords never splits further; fields come from whitespace and punctuation.
var wholeWords = normalizer.TokenizerFunc(func(string) []string { return nil })

func newIndex(t *testing.T, docs ...models.ResolvedAddress) *search.SearchIndex {
	t.Helper()
	si, err := search.New(search.Options{Tokenizer: wholeWords})
	require.NoError(t, err)
	t.Cleanup(func() { _ = si.Close() })
	require.NoError(t, IndexAddresses(si, docs, 2))
	return si
}

var jiangmen = []models.ResolvedAddress{
	{Province: "江门", AddressCode: "A"},
	{County: "江门", AddressCode: "B"},
	{Province: "上海市", District: "浦东新区", AddressCode: "310115"},
}

func TestAddressService_SearchUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(100, time.Minute)
	as := NewAddressService(newIndex(t, jiangmen...), cache, 10, nil)

	first, err := as.Search(ctx, " 江门 ", 0)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, "江门", first.NormalizedQuery)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "B", first.Results[0].AddressCode)

	exists, _ := cache.Exists(ctx, "江门|10")
	assert.True(t, exists)

	second, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)
}

func TestAddressService_SearchFirst(t *testing.T) {
	ctx := context.Background()
	as := NewAddressService(newIndex(t, jiangmen...), nil, 10, nil)

	r, out, err := as.SearchFirst(ctx, "浦东新区")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "310115", r.AddressCode)
	assert.Equal(t, "浦东新区", out.NormalizedQuery)

	r, out, err = as.SearchFirst(ctx, "乌鲁木齐")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Empty(t, out.Results)
}

func TestAddressService_QueryError(t *testing.T) {
	as := NewAddressService(newIndex(t, jiangmen...), NewCacheService(10, time.Minute), 10, nil)

	_, err := as.Search(context.Background(), "，，", 10)
	assert.True(t, search.IsKind(err, search.ErrQuery))
}

func TestAddressService_SetWeightsClearsCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(100, time.Minute)
	as := NewAddressService(newIndex(t, jiangmen...), cache, 10, nil)

	out, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.Equal(t, "B", out.Results[0].AddressCode)

	require.NoError(t, as.SetWeights(ctx, search.FieldWeights{Province: 16, City: 2, District: 4, County: 1}))
	assert.Zero(t, cache.Size())
	assert.Equal(t, 16.0, as.Weights().Province)

	out, err = as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.False(t, out.CacheHit)
	assert.Equal(t, "A", out.Results[0].AddressCode)

	err = as.SetWeights(ctx, search.FieldWeights{})
	assert.True(t, search.IsKind(err, search.ErrInvalidWeights))
}

// interleavedCache runs beforeSet once, ahead of the next write.
type interleavedCache struct {
	*memoryCache
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, key string, results []models.AddressResult) error {
	if f := c.beforeSet; f != nil {
		c.beforeSet = nil
		f()
	}
	return c.memoryCache.Set(ctx, key, results)
}

func TestAddressService_InvalidationDuringSearch(t *testing.T) {
	ctx := context.Background()
	cache := &interleavedCache{memoryCache: newMemoryCache()}
	as := NewAddressService(newIndex(t, jiangmen...), cache, 10, nil)
	cache.beforeSet = func() {
		require.NoError(t, as.SetWeights(ctx, search.FieldWeights{Province: 16, City: 2, District: 4, County: 1}))
	}

	out, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.Equal(t, "B", out.Results[0].AddressCode, "ranked under the old weights")

	exists, err := cache.Exists(ctx, "江门|10")
	require.NoError(t, err)
	assert.False(t, exists)

	out, err = as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.False(t, out.CacheHit)
	assert.Equal(t, []string{"A", "B"}, []string{out.Results[0].AddressCode, out.Results[1].AddressCode})

	out, err = as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.True(t, out.CacheHit)
	assert.Equal(t, "A", out.Results[0].AddressCode)
}

func TestAddressService_SwapDuringSearch(t *testing.T) {
	ctx := context.Background()
	cache := &interleavedCache{memoryCache: newMemoryCache()}
	as := NewAddressService(newIndex(t, jiangmen...), cache, 10, nil)
	next := newIndex(t, models.ResolvedAddress{Province: "江门", AddressCode: "C"})
	cache.beforeSet = func() { as.SwapIndex(ctx, next) }

	out, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)

	out, err = as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	assert.False(t, out.CacheHit)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "C", out.Results[0].AddressCode)
}

func TestAddressService_SimilarityFollowsRawQuery(t *testing.T) {
	ctx := context.Background()
	as := NewAddressService(newIndex(t, jiangmen...), NewCacheService(100, time.Minute), 10, nil)

	exact, err := as.Search(ctx, "浦东新区", 10)
	require.NoError(t, err)
	require.False(t, exact.CacheHit)
	require.Len(t, exact.Results, 1)
	assert.Equal(t, 1.0, exact.Results[0].Similarity)

	padded, err := as.Search(ctx, "浦东新区，", 10)
	require.NoError(t, err)
	assert.True(t, padded.CacheHit)
	assert.Equal(t, exact.NormalizedQuery, padded.NormalizedQuery)
	require.Len(t, padded.Results, 1)
	assert.Equal(t, "310115", padded.Results[0].AddressCode)
	assert.Less(t, padded.Results[0].Similarity, 1.0)

	again, err := as.Search(ctx, "浦东新区", 10)
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	assert.Equal(t, 1.0, again.Results[0].Similarity)
}

func TestAddressService_SwapIndex(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(100, time.Minute)
	old := newIndex(t, jiangmen...)
	as := NewAddressService(old, cache, 10, nil)

	_, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)

	next := newIndex(t, models.ResolvedAddress{Province: "江门", AddressCode: "C"})
	prev := as.SwapIndex(ctx, next)
	assert.Same(t, old, prev)
	assert.Same(t, next, as.Index())
	assert.Zero(t, cache.Size())

	out, err := as.Search(ctx, "江门", 10)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "C", out.Results[0].AddressCode)
}

func TestAddressService_Defaults(t *testing.T) {
	as := NewAddressService(newIndex(t), nil, 0, nil)
	assert.Equal(t, search.DefaultLimit, as.defaultLimit)
	assert.False(t, as.GetStartTime().IsZero())

	stats, err := as.CacheStats(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, stats)
}
