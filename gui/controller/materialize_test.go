package controller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacebover/clutter-finder/finder"
)

func imageEntry(path string, similarity uint32) finder.ImagesEntry {
	return finder.ImagesEntry{
		Path:         path,
		Size:         2048,
		ModifiedDate: 1700000000,
		Width:        640,
		Height:       480,
		Similarity:   similarity,
	}
}

func TestSplitU64IntoI32s_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, math.MaxUint32, math.MaxUint32 + 1, 1700000000, math.MaxInt64, math.MaxUint64}
	for _, v := range values {
		high, low := SplitU64IntoI32s(v)
		assert.Equal(t, v, JoinI32s(high, low), "value %d", v)
	}

	high, low := SplitU64IntoI32s(math.MaxUint64)
	assert.Equal(t, int32(-1), high)
	assert.Equal(t, int32(-1), low)
}

func TestMaterializeSimilarImages_HeaderPerGroup(t *testing.T) {
	groups := [][]finder.ImagesEntry{
		{imageEntry("/p/a.png", 0), imageEntry("/p/b.png", 1)},
		{},
		{imageEntry("/q/c.png", 0), imageEntry("/q/d.png", 3), imageEntry("/q/e.png", 6)},
	}

	rows := MaterializeSimilarImages(groups, 8)
	require.Len(t, rows, 2+1+0+1+3+1)

	headers := []int{}
	for i, row := range rows {
		if row.HeaderRow {
			headers = append(headers, i)
			assert.Empty(t, row.ValStr)
			assert.Empty(t, row.ValInt)
		}
	}
	assert.Equal(t, []int{0, 3, 4}, headers)

	assert.Equal(t, "Very High", rows[2].ValStr[0])
	assert.Equal(t, "Medium", rows[6].ValStr[0])
}

func TestMaterializeSimilarImagesReferenced_Rows(t *testing.T) {
	groups := []finder.ReferencedGroup{
		{Reference: imageEntry("/ref/a.png", 0), Similar: []finder.ImagesEntry{imageEntry("/x/a.png", 4)}},
		{Reference: imageEntry("/ref/lonely.png", 0)},
	}

	rows := MaterializeSimilarImagesReferenced(groups, 16)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].HeaderRow)
	assert.Equal(t, []string{"Original", "2.0 KiB", "640x480", "a.png", "/ref", "2023-11-14 22:13:20"}, rows[0].ValStr)
	assert.False(t, rows[1].HeaderRow)
	assert.Equal(t, "High", rows[1].ValStr[0])
	assert.True(t, rows[2].HeaderRow)
	assert.Equal(t, "lonely.png", rows[2].ValStr[3])

	modHi, modLo := SplitU64IntoI32s(1700000000)
	assert.Equal(t, []int32{modHi, modLo, 0, 2048, 640, 480}, rows[0].ValInt)
}

func TestMaterializeEmptyFiles_Flat(t *testing.T) {
	entries := []finder.FileEntry{
		{Path: "/tmp/a/empty.txt", ModifiedDate: 0},
		{Path: "/tmp/b", ModifiedDate: 86400, Size: 0},
	}

	rows := MaterializeEmptyFiles(entries)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"empty.txt", "/tmp/a", "1970-01-01 00:00:00"}, rows[0].ValStr)
	assert.Equal(t, []string{"b", "/tmp", "1970-01-02 00:00:00"}, rows[1].ValStr)
	for _, row := range rows {
		assert.False(t, row.HeaderRow)
		assert.Len(t, row.ValInt, 4)
	}
}

func TestMaterializeEmptyFolders_Flat(t *testing.T) {
	entries := []finder.FolderEntry{
		{Path: "/home/u/old", ModifiedDate: math.MaxUint32 + 5},
	}

	rows := MaterializeEmptyFolders(entries)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HeaderRow)
	assert.Equal(t, "old", rows[0].ValStr[0])
	require.Len(t, rows[0].ValInt, 2)
	assert.Equal(t, uint64(math.MaxUint32+5), JoinI32s(rows[0].ValInt[0], rows[0].ValInt[1]))
}

func TestMaterialize_DeterministicFreshSlices(t *testing.T) {
	groups := [][]finder.ImagesEntry{{imageEntry("/p/a.png", 0), imageEntry("/p/b.png", 4)}}

	first := MaterializeSimilarImages(groups, 8)
	second := MaterializeSimilarImages(groups, 8)
	assert.Equal(t, first, second)

	first[1].ValStr[0] = "changed"
	first[1].ValInt[0] = 42
	third := MaterializeSimilarImages(groups, 8)
	assert.Equal(t, second, third)

	assert.Empty(t, MaterializeEmptyFiles(nil))
	assert.Empty(t, MaterializeEmptyFolders(nil))
	assert.Empty(t, MaterializeSimilarImages(nil, 8))
	assert.Empty(t, MaterializeSimilarImagesReferenced(nil, 8))
}
