package controller

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kacebover/clutter-finder/finder"
)

// progressBuffer is how many progress updates may wait for the forwarder
// before the finders start dropping them.
const progressBuffer = 16

// scanOutput is everything a finished worker hands to the event loop.
// Results stay as finder entries; display rows are built on the loop.
type scanOutput struct {
	kind     CurrentTab
	found    int
	messages string

	folders    []finder.FolderEntry
	files      []finder.FileEntry
	groups     [][]finder.ImagesEntry
	referenced []finder.ReferencedGroup
	hashSize   uint8
	useRef     bool
}

// rows materializes the results of the scan
func (out scanOutput) rows() []DisplayRow {
	switch out.kind {
	case TabEmptyFolders:
		return MaterializeEmptyFolders(out.folders)
	case TabEmptyFiles:
		return MaterializeEmptyFiles(out.files)
	case TabSimilarImages:
		if out.useRef {
			return MaterializeSimilarImagesReferenced(out.referenced, out.hashSize)
		}
		return MaterializeSimilarImages(out.groups, out.hashSize)
	default:
		return nil
	}
}

// applyCommonSettings copies the settings every finder shares onto engine
func applyCommonSettings(engine finder.CommonData, s ScanSettings) {
	engine.SetIncludedDirectory(s.IncludedDirectories)
	engine.SetReferenceDirectory(s.ReferencedDirectories)
	engine.SetExcludedDirectory(s.ExcludedDirectories)
	engine.SetRecursiveSearch(s.RecursiveSearch)
	engine.SetMinimalFileSize(kbToBytes(s.MinimumFileSizeKB))
	engine.SetMaximalFileSize(kbToBytes(s.MaximumFileSizeKB))
	engine.SetAllowedExtensions(s.AllowedExtensions)
	engine.SetExcludedExtensions(s.ExcludedExtensions)
	engine.SetExcludedItems(s.ExcludedItemsList())
	engine.SetExcludeOtherFilesystems(s.IgnoreOtherFileSystems)
	engine.SetUseCache(s.UseCache)
	engine.SetSaveAlsoAsJSON(s.SaveAlsoAsJSON)
	engine.SetThreadNumber(s.ThreadNumber)
}

func kbToBytes(kb int64) uint64 {
	if kb <= 0 {
		return 0
	}
	if uint64(kb) > math.MaxUint64/1024 {
		return math.MaxUint64
	}
	return uint64(kb) * 1024
}

// runScan runs one finder on the calling goroutine and posts its results to the loop.
// Progress closures are always posted before the final one.
func (sc *ScanController) runScan(ctx context.Context, kind CurrentTab, settings ScanSettings) scanOutput {
	progress := make(chan finder.ProgressData, progressBuffer)
	forwarded := make(chan struct{})
	go sc.forwardProgress(progress, forwarded)

	var out scanOutput
	switch kind {
	case TabEmptyFolders:
		out = scanEmptyFolders(ctx, settings, progress)
	case TabEmptyFiles:
		out = scanEmptyFiles(ctx, settings, progress)
	case TabSimilarImages:
		out = scanSimilarImages(ctx, settings, progress)
	default:
		panic(fmt.Sprintf("unsupported scan kind %d", kind))
	}

	close(progress)
	<-forwarded
	return out
}

// forwardProgress moves finder progress onto the event loop until progress is closed
func (sc *ScanController) forwardProgress(progress <-chan finder.ProgressData, done chan<- struct{}) {
	defer close(done)
	for p := range progress {
		update := ProgressToSend{
			AllProgress:     p.AllProgress,
			CurrentProgress: p.CurrentProgress,
			StepName:        p.StepName,
		}
		sc.loop.Do(func() {
			sc.publishProgress(update)
		})
	}
}

func scanEmptyFolders(ctx context.Context, s ScanSettings, progress chan<- finder.ProgressData) scanOutput {
	engine := finder.NewEmptyFolder()
	applyCommonSettings(engine, s)

	engine.FindEmptyFolders(ctx, progress)

	folders := make([]finder.FolderEntry, 0, len(engine.GetEmptyFolderList()))
	for _, fe := range engine.GetEmptyFolderList() {
		folders = append(folders, fe)
	}
	sortFolderEntries(folders)

	return scanOutput{
		kind:     TabEmptyFolders,
		folders:  folders,
		found:    len(folders),
		messages: engine.GetTextMessages().CreateMessagesText(),
	}
}

func scanEmptyFiles(ctx context.Context, s ScanSettings, progress chan<- finder.ProgressData) scanOutput {
	engine := finder.NewEmptyFiles()
	applyCommonSettings(engine, s)

	engine.FindEmptyFiles(ctx, progress)

	files := slices.Clone(engine.GetEmptyFiles())
	sortFileEntries(files)

	return scanOutput{
		kind:     TabEmptyFiles,
		files:    files,
		found:    len(files),
		messages: engine.GetTextMessages().CreateMessagesText(),
	}
}

func scanSimilarImages(ctx context.Context, s ScanSettings, progress chan<- finder.ProgressData) scanOutput {
	engine := finder.NewSimilarImages()
	applyCommonSettings(engine, s)
	if s.CachePath != "" {
		engine.SetCachePath(s.CachePath)
	}

	engine.SetHashSize(s.SimilarImagesHashSize)
	engine.SetImageFilter(LookupResizeAlgorithm(s.SimilarImagesResizeAlgorithm))
	engine.SetHashAlg(LookupHashType(s.SimilarImagesHashType))
	engine.SetExcludeImagesWithSameSize(s.SimilarImagesIgnoreSameSize)
	engine.SetSimilarity(similarityThreshold(s.SimilarImagesSimilarity))

	engine.FindSimilarImages(ctx, progress)

	out := scanOutput{
		kind:     TabSimilarImages,
		messages: engine.GetTextMessages().CreateMessagesText(),
		hashSize: s.SimilarImagesHashSize,
		useRef:   engine.GetUseReference(),
	}
	if out.useRef {
		out.referenced = engine.GetSimilarImagesReferenced()
		sortReferencedGroups(out.referenced)
		out.found = len(out.referenced)
	} else {
		out.groups = engine.GetSimilarImages()
		sortImageGroups(out.groups)
		out.found = len(out.groups)
	}
	return out
}

// similarityThreshold truncates the slider value, the way the settings tab shows it
func similarityThreshold(similarity float32) uint32 {
	if similarity <= 0 {
		return 0
	}
	return uint32(similarity)
}

func sortFileEntries(entries []finder.FileEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return finder.SplitPathCompare(entries[i].Path, entries[j].Path) < 0
	})
}

func sortFolderEntries(entries []finder.FolderEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return finder.SplitPathCompare(entries[i].Path, entries[j].Path) < 0
	})
}

// sortImageGroups orders each group by ascending similarity; the order of groups is kept.
func sortImageGroups(groups [][]finder.ImagesEntry) {
	var g errgroup.Group
	for _, group := range groups {
		g.Go(func() error {
			sortBySimilarity(group)
			return nil
		})
	}
	_ = g.Wait()
}

func sortReferencedGroups(groups []finder.ReferencedGroup) {
	var g errgroup.Group
	for i := range groups {
		g.Go(func() error {
			sortBySimilarity(groups[i].Similar)
			return nil
		})
	}
	_ = g.Wait()
}

func sortBySimilarity(entries []finder.ImagesEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Similarity < entries[j].Similarity
	})
}

func foundText(kind CurrentTab, found int) string {
	switch kind {
	case TabSimilarImages:
		return fmt.Sprintf("Found %d similar images files", found)
	case TabEmptyFiles:
		return fmt.Sprintf("Found %d empty files", found)
	case TabEmptyFolders:
		return fmt.Sprintf("Found %d empty folders", found)
	default:
		return ""
	}
}
