package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/resolver"
	"github.com/KonghaYao/text2location/internal/search"
)

const areasCSV = `id,pid,deep,name,pinyin_prefix,pinyin,ext_id,ext_name
44,0,0,广东,g,guangdong,440000000000,广东省
4414,44,1,梅州,m,meizhou,441400000000,梅州市
441481,4414,2,兴宁,x,xingning,441481000000,兴宁市
441402,4414,2,梅江,m,meijiang,441402000000,梅江区
31,0,0,上海,s,shanghai,310000000000,上海市
3101,31,1,上海,s,shanghai,310100000000,上海市
310115,3101,2,浦东,p,pudong,310115000000,浦东新区
9,0,0,无编码,w,wubianma,,无编码
7,8,3,孤立,g,guli,777777000000,孤立镇
`

func writeAreas(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "areas.csv")
	require.NoError(t, os.WriteFile(path, []byte(areasCSV), 0o644))
	return path
}

func TestLoadAddresses(t *testing.T) {
	src := &regions.CSVSource{Path: writeAreas(t)}
	addrs, err := LoadAddresses(context.Background(), src, resolver.Options{Workers: 2, ChunkSize: 3}, nil)
	require.NoError(t, err)

	require.Len(t, addrs, 8, "region without code is skipped")
	assert.Equal(t, "广东省", addrs[2].Province)
	assert.Equal(t, "梅州市", addrs[2].City)
	assert.Equal(t, "兴宁市", addrs[2].District)
	assert.Equal(t, "441481000000", addrs[2].AddressCode)

	// broken chain keeps what it resolved
	assert.Equal(t, "孤立镇", addrs[7].County)
	assert.Empty(t, addrs[7].Province)
}

func TestLoadAddresses_DuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,pid,deep,ext_id,ext_name\n1,0,0,a,A\n1,0,0,b,B\n"), 0o644))

	_, err := LoadAddresses(context.Background(), &regions.CSVSource{Path: path}, resolver.Options{}, nil)
	var dup *regions.DuplicateIDError
	assert.ErrorAs(t, err, &dup)
}

func newAdmin(t *testing.T, csvPath string) (*AdminService, *AddressService) {
	t.Helper()
	addresses := NewAddressService(newIndex(t), NewCacheService(100, time.Minute), 10, nil)
	admin := NewAdminService(addresses, AdminOptions{
		OpenSource: func(ctx context.Context) (regions.Source, error) {
			return &regions.CSVSource{Path: csvPath}, nil
		},
		Resolve:   resolver.Options{Workers: 2, ChunkSize: 4},
		BatchSize: 3,
		Index:     search.Options{Tokenizer: wholeWords},
	}, nil)
	return admin, addresses
}

func TestAdminService_Rebuild(t *testing.T) {
	ctx := context.Background()
	admin, addresses := newAdmin(t, writeAreas(t))
	old := addresses.Index()

	require.NoError(t, addresses.SetWeights(ctx, search.FieldWeights{Province: 1, City: 2, District: 5, County: 8}))

	result, err := admin.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Documents)
	assert.NotSame(t, old, addresses.Index())
	assert.Equal(t, 5.0, addresses.Weights().District, "rebuild keeps current weights")

	r, _, err := addresses.SearchFirst(ctx, "兴宁市")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "441481000000", r.AddressCode)
	assert.Equal(t, "code: 441481000000 | province: 广东省 | city: 梅州市 | district: 兴宁市 | county: ", r.String())

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), stats.Documents)
	assert.Equal(t, "queryable", stats.State)
	assert.Equal(t, "per_field", stats.Strategy)
	require.NotNil(t, stats.LastRebuild)
	assert.Equal(t, 8, stats.LastRebuild.Documents)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, "memory", stats.Cache.Tier)
	assert.Contains(t, stats.MemoryUsage, "alloc_mb")
}

func TestAdminService_RebuildFailureKeepsIndex(t *testing.T) {
	admin, addresses := newAdmin(t, filepath.Join(t.TempDir(), "missing.csv"))
	old := addresses.Index()

	_, err := admin.Rebuild(context.Background())
	assert.Error(t, err)
	assert.Same(t, old, addresses.Index())
}

func TestAdminService_ExportDisabled(t *testing.T) {
	admin, _ := newAdmin(t, writeAreas(t))
	_, err := admin.ExportMeili(context.Background())
	assert.ErrorIs(t, err, ErrExportDisabled)
}
