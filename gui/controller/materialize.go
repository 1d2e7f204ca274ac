package controller

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kacebover/clutter-finder/finder"
)

// DateFormat is the layout of the date column
const DateFormat = "2006-01-02 15:04:05"

// DisplayRow is one row of a results list. Groups of similar images start
// with a header row; the empty file and folder lists are flat.
type DisplayRow struct {
	HeaderRow   bool
	Checked     bool
	SelectedRow bool
	ValStr      []string
	ValInt      []int32
}

// SplitU64IntoI32s splits v into two int32 halves for list models that only carry int32
func SplitU64IntoI32s(v uint64) (high, low int32) {
	return int32(uint32(v >> 32)), int32(uint32(v))
}

// JoinI32s reverses SplitU64IntoI32s
func JoinI32s(high, low int32) uint64 {
	return uint64(uint32(high))<<32 | uint64(uint32(low))
}

// MaterializeSimilarImagesReferenced builds rows for reference mode: each
// group opens with the reference image followed by the images similar to it.
func MaterializeSimilarImagesReferenced(groups []finder.ReferencedGroup, hashSize uint8) []DisplayRow {
	rows := make([]DisplayRow, 0, countReferencedRows(groups))
	for _, g := range groups {
		rows = append(rows, imageRow(g.Reference, hashSize, true))
		for _, e := range g.Similar {
			rows = append(rows, imageRow(e, hashSize, false))
		}
	}
	return rows
}

// MaterializeSimilarImages builds rows for groups without a reference. Each
// group opens with an empty header row, even when the group has no members.
func MaterializeSimilarImages(groups [][]finder.ImagesEntry, hashSize uint8) []DisplayRow {
	total := 0
	for _, g := range groups {
		total += len(g) + 1
	}

	rows := make([]DisplayRow, 0, total)
	for _, g := range groups {
		rows = append(rows, DisplayRow{HeaderRow: true, ValStr: []string{}, ValInt: []int32{}})
		for _, e := range g {
			rows = append(rows, imageRow(e, hashSize, false))
		}
	}
	return rows
}

// MaterializeEmptyFiles builds one row per empty file
func MaterializeEmptyFiles(entries []finder.FileEntry) []DisplayRow {
	rows := make([]DisplayRow, 0, len(entries))
	for _, e := range entries {
		dir, file := finder.SplitPath(e.Path)
		modHi, modLo := SplitU64IntoI32s(e.ModifiedDate)
		sizeHi, sizeLo := SplitU64IntoI32s(e.Size)
		rows = append(rows, DisplayRow{
			ValStr: []string{file, dir, formatDate(e.ModifiedDate)},
			ValInt: []int32{modHi, modLo, sizeHi, sizeLo},
		})
	}
	return rows
}

// MaterializeEmptyFolders builds one row per empty folder
func MaterializeEmptyFolders(entries []finder.FolderEntry) []DisplayRow {
	rows := make([]DisplayRow, 0, len(entries))
	for _, e := range entries {
		dir, file := finder.SplitPath(e.Path)
		modHi, modLo := SplitU64IntoI32s(e.ModifiedDate)
		rows = append(rows, DisplayRow{
			ValStr: []string{file, dir, formatDate(e.ModifiedDate)},
			ValInt: []int32{modHi, modLo},
		})
	}
	return rows
}

func imageRow(e finder.ImagesEntry, hashSize uint8, header bool) DisplayRow {
	dir, file := finder.SplitPath(e.Path)
	modHi, modLo := SplitU64IntoI32s(e.ModifiedDate)
	sizeHi, sizeLo := SplitU64IntoI32s(e.Size)
	return DisplayRow{
		HeaderRow: header,
		ValStr: []string{
			finder.GetStringFromSimilarity(e.Similarity, hashSize),
			humanize.IBytes(e.Size),
			fmt.Sprintf("%dx%d", e.Width, e.Height),
			file,
			dir,
			formatDate(e.ModifiedDate),
		},
		ValInt: []int32{modHi, modLo, sizeHi, sizeLo, int32(e.Width), int32(e.Height)},
	}
}

func countReferencedRows(groups []finder.ReferencedGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Similar) + 1
	}
	return total
}

func formatDate(unix uint64) string {
	return time.Unix(int64(unix), 0).UTC().Format(DateFormat)
}
