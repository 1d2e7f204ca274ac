package controller

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacebover/clutter-finder/logging"
)

// scanRecorder captures every callback in the order the event loop ran them
type scanRecorder struct {
	mu       sync.Mutex
	events   []string
	progress []ProgressToSend
	rows     []DisplayRow
	summary  string
	info     string
	ended    chan struct{}
}

func newTestController(t *testing.T, settings *Settings) (*ScanController, *scanRecorder) {
	t.Helper()

	loop := NewQueueLoop(logging.Discard())
	go loop.Run()
	t.Cleanup(loop.Stop)

	ctrl := NewScanController(loop, settings, logging.Discard())
	rec := &scanRecorder{ended: make(chan struct{}, 4)}

	ctrl.SetOnProgress(func(p ProgressToSend) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.events = append(rec.events, "progress")
		rec.progress = append(rec.progress, p)
	})
	ctrl.SetOnResults(func(_ CurrentTab, rows []DisplayRow) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.events = append(rec.events, "results")
		rec.rows = rows
	})
	ctrl.SetOnScanEnded(func(_ CurrentTab, summary string) {
		rec.mu.Lock()
		rec.events = append(rec.events, "ended")
		rec.summary = summary
		rec.mu.Unlock()
	})
	ctrl.SetOnInfoText(func(_ CurrentTab, text string) {
		rec.mu.Lock()
		rec.events = append(rec.events, "info")
		rec.info = text
		rec.mu.Unlock()
		rec.ended <- struct{}{}
	})

	return ctrl, rec
}

func (r *scanRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ended:
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not finish")
	}
}

func (r *scanRecorder) snapshot() ([]string, []ProgressToSend, []DisplayRow, string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), append([]ProgressToSend(nil), r.progress...), r.rows, r.summary, r.info
}

func testSettings(dirs ...string) *Settings {
	s := DefaultSettings()
	s.IncludedDirectories = dirs
	s.ExcludedItems = ""
	s.MinimumFileSizeKB = 0
	s.UseCache = false
	s.ThreadNumber = 2
	return s
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeSplitPNG writes a black and white image split vertically or horizontally
func writeSplitPNG(t *testing.T, path string, vertical bool) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			white := x >= 32
			if !vertical {
				white = y >= 32
			}
			if white {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// TestScanController_NewController tests controller creation
func TestScanController_NewController(t *testing.T) {
	ctrl := NewScanController(NewQueueLoop(logging.Discard()), nil, logging.Discard())

	require.NotNil(t, ctrl)
	assert.False(t, ctrl.IsScanning())
	assert.Equal(t, ProgressToSend{AllProgress: 0, CurrentProgress: -1}, ctrl.Progress())
	assert.NotNil(t, ctrl.GetSettings())
}

// TestScanController_SettingsTabPanics tests that the settings tab cannot start a scan
func TestScanController_SettingsTabPanics(t *testing.T) {
	ctrl := NewScanController(NewQueueLoop(logging.Discard()), testSettings(t.TempDir()), logging.Discard())

	assert.PanicsWithValue(t, "scan button should be disabled", func() {
		ctrl.StartScan(TabSettings)
	})
	assert.False(t, ctrl.IsScanning())
}

// TestScanController_EmptyFolders tests the three empty folder scenario
func TestScanController_EmptyFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "c", "a", "b/inner")
	writeFile(t, filepath.Join(root, "full", "keep.txt"), "data")

	ctrl, rec := newTestController(t, testSettings(root))
	ctrl.StartScan(TabEmptyFolders)
	rec.wait(t)

	events, progress, rows, summary, info := rec.snapshot()

	require.Len(t, rows, 3)
	assert.Equal(t, "Found 3 empty folders", summary)
	assert.Contains(t, info, "Found 3 empty folders")

	var names []string
	for _, row := range rows {
		assert.False(t, row.HeaderRow)
		require.Len(t, row.ValStr, 3)
		require.Len(t, row.ValInt, 2)
		assert.Equal(t, root, row.ValStr[1])
		names = append(names, row.ValStr[0])
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NotEmpty(t, progress)
	assert.Equal(t, ProgressToSend{AllProgress: 0, CurrentProgress: -1, StepName: ""}, progress[0])

	// results, summary and info are the last three events of the scan
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, []string{"results", "ended", "info"}, events[len(events)-3:])
	assert.False(t, ctrl.IsScanning())
}

// TestScanController_EmptyFiles tests flat empty file rows sorted by path
func TestScanController_EmptyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "")
	writeFile(t, filepath.Join(root, "z.txt"), "")
	writeFile(t, filepath.Join(root, "a.txt"), "")
	writeFile(t, filepath.Join(root, "full.txt"), "not empty")

	ctrl, rec := newTestController(t, testSettings(root))
	ctrl.StartScan(TabEmptyFiles)
	rec.wait(t)

	_, _, rows, summary, _ := rec.snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, "Found 3 empty files", summary)

	assert.Equal(t, []string{"a.txt", root}, rows[0].ValStr[:2])
	assert.Equal(t, []string{"z.txt", root}, rows[1].ValStr[:2])
	assert.Equal(t, []string{"b.txt", filepath.Join(root, "sub")}, rows[2].ValStr[:2])
	for _, row := range rows {
		assert.False(t, row.HeaderRow)
		require.Len(t, row.ValInt, 4)
		assert.Equal(t, uint64(0), JoinI32s(row.ValInt[2], row.ValInt[3]))
	}
}

// TestScanController_SimilarImages tests the two group scenario
func TestScanController_SimilarImages(t *testing.T) {
	root := t.TempDir()
	writeSplitPNG(t, filepath.Join(root, "a1.png"), true)
	writeSplitPNG(t, filepath.Join(root, "a2.png"), true)
	writeSplitPNG(t, filepath.Join(root, "b1.png"), false)
	writeSplitPNG(t, filepath.Join(root, "b2.png"), false)
	writeSplitPNG(t, filepath.Join(root, "b3.png"), false)

	settings := testSettings(root)
	settings.UseCache = true
	settings.CachePath = filepath.Join(t.TempDir(), "cache.db")
	settings.SimilarImagesHashSize = 16
	settings.SimilarImagesHashType = "mean"
	settings.SimilarImagesResizeAlgorithm = "nearest"
	settings.SimilarImagesSimilarity = 10

	ctrl, rec := newTestController(t, settings)
	ctrl.StartScan(TabSimilarImages)
	rec.wait(t)

	_, _, rows, summary, _ := rec.snapshot()
	require.Len(t, rows, 7)
	assert.Equal(t, "Found 2 similar images files", summary)

	for i, row := range rows {
		if i == 0 || i == 3 {
			assert.True(t, row.HeaderRow, "row %d", i)
			assert.Empty(t, row.ValStr)
			assert.Empty(t, row.ValInt)
			continue
		}
		assert.False(t, row.HeaderRow, "row %d", i)
		require.Len(t, row.ValStr, 6)
		require.Len(t, row.ValInt, 6)
		assert.Equal(t, "64x64", row.ValStr[2])
		assert.Equal(t, int32(64), row.ValInt[4])
	}
	assert.Equal(t, "Original", rows[1].ValStr[0])
	assert.Equal(t, "a1.png", rows[1].ValStr[3])
	assert.Equal(t, "b1.png", rows[4].ValStr[3])

	// A second run is served from the cache and gives the same rows
	ctrl.StartScan(TabSimilarImages)
	rec.wait(t)
	_, _, cachedRows, _, _ := rec.snapshot()
	assert.Equal(t, rows, cachedRows)
}

// TestScanController_SimilarImagesReferenced tests reference mode rows
func TestScanController_SimilarImagesReferenced(t *testing.T) {
	root := t.TempDir()
	writeSplitPNG(t, filepath.Join(root, "ref", "master.png"), true)
	writeSplitPNG(t, filepath.Join(root, "other", "copy1.png"), true)
	writeSplitPNG(t, filepath.Join(root, "other", "copy2.png"), true)
	writeSplitPNG(t, filepath.Join(root, "other", "unrelated.png"), false)

	settings := testSettings(root)
	settings.ReferencedDirectories = []string{filepath.Join(root, "ref")}
	settings.SimilarImagesHashSize = 8
	settings.SimilarImagesHashType = "mean"
	settings.SimilarImagesResizeAlgorithm = "nearest"
	settings.SimilarImagesSimilarity = 2

	ctrl, rec := newTestController(t, settings)
	ctrl.StartScan(TabSimilarImages)
	rec.wait(t)

	_, _, rows, summary, _ := rec.snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, "Found 1 similar images files", summary)

	assert.True(t, rows[0].HeaderRow)
	assert.Equal(t, "master.png", rows[0].ValStr[3])
	assert.Equal(t, []string{"copy1.png", "copy2.png"}, []string{rows[1].ValStr[3], rows[2].ValStr[3]})
	assert.False(t, rows[1].HeaderRow)
}

// TestScanController_CancelScan tests that a stopped scan still completes
func TestScanController_CancelScan(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 200; i++ {
		mkdirs(t, root, fmt.Sprintf("d%03d/e/f", i))
	}

	ctrl, rec := newTestController(t, testSettings(root))
	ctrl.StartScan(TabEmptyFolders)
	ctrl.StopScan()
	ctrl.StopScan()
	rec.wait(t)

	events, _, _, summary, _ := rec.snapshot()
	assert.Contains(t, summary, "empty folders")
	assert.Equal(t, "info", events[len(events)-1])
	assert.False(t, ctrl.IsScanning())

	// Stopping with nothing running is a no-op
	ctrl.StopScan()
}

// TestScanController_SecondStartIgnored tests the busy guard
func TestScanController_SecondStartIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	loop := NewQueueLoop(logging.Discard())
	ctrl := NewScanController(loop, testSettings(root), logging.Discard())

	ended := 0
	ctrl.SetOnScanEnded(func(CurrentTab, string) { ended++ })

	ctrl.StartScan(TabEmptyFiles)
	require.True(t, ctrl.IsScanning())
	ctrl.StartScan(TabEmptyFiles)

	require.Eventually(t, func() bool {
		loop.RunPending()
		return ended > 0
	}, 10*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	loop.RunPending()
	assert.Equal(t, 1, ended)
	assert.False(t, ctrl.IsScanning())
}

// TestScanController_SnapshotIsolation tests that settings edits do not reach a running scan
func TestScanController_SnapshotIsolation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	settings := testSettings(root)
	ctrl, rec := newTestController(t, settings)
	ctrl.StartScan(TabEmptyFiles)
	settings.IncludedDirectories[0] = "/does/not/exist"
	rec.wait(t)

	_, _, rows, _, _ := rec.snapshot()
	assert.Len(t, rows, 1)
}

// TestScanController_UpdateSettings tests validation and persistence
func TestScanController_UpdateSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	ctrl := NewScanController(NewQueueLoop(logging.Discard()), nil, logging.Discard())
	ctrl.SetSettingsPath(path)

	s := DefaultSettings()
	s.ThreadNumber = 0
	s.SimilarImagesHashType = "blockhash"
	require.NoError(t, ctrl.UpdateSettings(s))

	got := ctrl.GetSettings()
	assert.GreaterOrEqual(t, got.ThreadNumber, 1)
	assert.Equal(t, "blockhash", got.SimilarImagesHashType)

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "blockhash", loaded.SimilarImagesHashType)
}

func TestScanController_ReplaceSettingsDoesNotSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	ctrl := NewScanController(NewQueueLoop(logging.Discard()), nil, logging.Discard())
	ctrl.SetSettingsPath(path)

	s := DefaultSettings()
	s.SimilarImagesResizeAlgorithm = "nope"
	ctrl.ReplaceSettings(s)

	assert.Equal(t, "nearest", ctrl.GetSettings().SimilarImagesResizeAlgorithm)
	assert.NoFileExists(t, path)
}

func TestScanController_UpdateSettingsRejectsUnknownNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	ctrl := NewScanController(NewQueueLoop(logging.Discard()), nil, logging.Discard())
	ctrl.SetSettingsPath(path)

	s := DefaultSettings()
	s.SimilarImagesHashType = "phash"
	s.ExcludedItems = "*.changed"
	err := ctrl.UpdateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phash")

	assert.Equal(t, DefaultSettings().ExcludedItems, ctrl.GetSettings().ExcludedItems)
	assert.NoFileExists(t, path)
}

func TestParseTab(t *testing.T) {
	for _, tab := range []CurrentTab{TabEmptyFolders, TabEmptyFiles, TabSimilarImages} {
		got, err := ParseTab(tab.String())
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}

	_, err := ParseTab("settings")
	assert.Error(t, err)
}

func BenchmarkScanController_EmptyFiles(b *testing.B) {
	root := b.TempDir()
	for i := 0; i < 100; i++ {
		_ = os.WriteFile(filepath.Join(root, fmt.Sprintf("f%03d", i)), nil, 0o644)
	}

	loop := NewQueueLoop(logging.Discard())
	go loop.Run()
	defer loop.Stop()

	ctrl := NewScanController(loop, testSettings(root), logging.Discard())
	done := make(chan struct{})
	ctrl.SetOnScanEnded(func(CurrentTab, string) { done <- struct{}{} })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctrl.StartScan(TabEmptyFiles)
		<-done
	}
}
