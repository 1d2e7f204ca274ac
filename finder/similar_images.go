package finder

import (
	"context"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/kacebover/clutter-finder/cache"
)

// ImageExtensions are the file extensions the similar image finder looks at
var ImageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"bmp": true, "tiff": true, "tif": true, "webp": true,
}

// SimilarImages groups visually similar images by perceptual hash
type SimilarImages struct {
	CommonToolData

	hashSize                  uint8
	imageFilter               FilterType
	hashAlg                   HashAlg
	similarity                uint32
	excludeImagesWithSameSize bool

	similarVectors    [][]ImagesEntry
	similarReferenced []ReferencedGroup
}

// NewSimilarImages creates a similar image finder with default settings
func NewSimilarImages() *SimilarImages {
	return &SimilarImages{
		CommonToolData: newCommonToolData(),
		hashSize:       8,
		imageFilter:    FilterNearest,
		hashAlg:        HashGradient,
		similarity:     SimilarValues[0][2],
	}
}

// SetHashSize sets the hash edge length; only 8, 16, 32 and 64 are valid
func (si *SimilarImages) SetHashSize(hashSize uint8) {
	hashSizeIndex(hashSize) // panics on unsupported sizes
	si.hashSize = hashSize
}

func (si *SimilarImages) SetImageFilter(filter FilterType) {
	si.imageFilter = filter
}

func (si *SimilarImages) SetHashAlg(alg HashAlg) {
	si.hashAlg = alg
}

// SetSimilarity sets the maximal Hamming distance for two images to be grouped
func (si *SimilarImages) SetSimilarity(similarity uint32) {
	si.similarity = similarity
}

func (si *SimilarImages) SetExcludeImagesWithSameSize(exclude bool) {
	si.excludeImagesWithSameSize = exclude
}

func (si *SimilarImages) HashSize() uint8                 { return si.hashSize }
func (si *SimilarImages) ImageFilter() FilterType         { return si.imageFilter }
func (si *SimilarImages) HashAlgorithm() HashAlg          { return si.hashAlg }
func (si *SimilarImages) Similarity() uint32              { return si.similarity }
func (si *SimilarImages) ExcludeImagesWithSameSize() bool { return si.excludeImagesWithSameSize }

func (si *SimilarImages) cacheKey() cache.Key {
	return cache.Key{HashSize: si.hashSize, HashAlg: si.hashAlg.String(), Filter: si.imageFilter.String()}
}

// FindSimilarImages runs the scan. It blocks until done or ctx is cancelled;
// after cancellation the groups built from the images hashed so far are kept.
func (si *SimilarImages) FindSimilarImages(ctx context.Context, progress chan<- ProgressData) {
	si.similarVectors = nil
	si.similarReferenced = nil

	pr := newProgressReporter(progress, 3)

	pr.startStage(0, "Collecting images")
	files := si.collectFiles(ctx, pr, collectOptions{checkSize: true, extensions: ImageExtensions})
	if si.excludeImagesWithSameSize {
		files = keepFirstOfEachSize(files)
	}

	pr.startStage(1, "Hashing images")
	entries := si.hashImages(ctx, pr, files)

	pr.startStage(2, "Comparing hashes")
	if si.useReferenceFolders {
		si.similarReferenced = si.groupReferenced(ctx, entries)
	} else {
		si.similarVectors = si.groupSimilar(ctx, entries)
	}

	if isStopped(ctx) {
		si.messages.AddMessage("Scan was stopped, results are incomplete")
	}
	si.messages.AddMessage("Found %d groups of similar images", si.groupCount())
}

func (si *SimilarImages) groupCount() int {
	if si.useReferenceFolders {
		return len(si.similarReferenced)
	}
	return len(si.similarVectors)
}

// hashImages decodes and hashes files concurrently, reusing cached hashes
// for files whose size and modification date did not change.
func (si *SimilarImages) hashImages(ctx context.Context, pr *progressReporter, files []FileEntry) []ImagesEntry {
	var (
		store  *cache.Store
		cached map[string]cache.Entry
		key    = si.cacheKey()
	)
	if si.useCache {
		var err error
		store, err = cache.Open(si.resolveCachePath())
		if err != nil {
			si.messages.AddWarning("Cannot open cache, reason %v", err)
		} else {
			defer store.Close()
			if cached, err = store.Load(ctx, key); err != nil {
				si.messages.AddWarning("Cannot load cache, reason %v", err)
			}
		}
	}

	results := make([]*ImagesEntry, len(files))
	fresh := make([]bool, len(files))
	var done atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(si.threadNumber)
	for i, fe := range files {
		if isStopped(ctx) {
			break
		}
		g.Go(func() error {
			defer func() {
				pr.update(int(done.Add(1)), len(files))
			}()
			if isStopped(ctx) {
				return nil
			}
			if c, ok := cached[fe.Path]; ok && c.Size == fe.Size && c.ModifiedDate == fe.ModifiedDate {
				results[i] = &ImagesEntry{
					Path: fe.Path, Size: fe.Size, ModifiedDate: fe.ModifiedDate,
					Width: c.Width, Height: c.Height, Hash: c.Hash,
				}
				return nil
			}
			if entry, ok := si.hashFile(fe); ok {
				results[i] = entry
				fresh[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]ImagesEntry, 0, len(files))
	var toSave []cache.Entry
	for i, entry := range results {
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
		if fresh[i] {
			toSave = append(toSave, cache.Entry{
				Path: entry.Path, Size: entry.Size, ModifiedDate: entry.ModifiedDate,
				Width: entry.Width, Height: entry.Height, Hash: entry.Hash,
			})
		}
	}

	if store != nil {
		si.saveCache(store, key, toSave)
	}

	return entries
}

// saveCache runs with a fresh context so a cancelled scan still keeps its hashes
func (si *SimilarImages) saveCache(store *cache.Store, key cache.Key, entries []cache.Entry) {
	ctx := context.Background()
	if len(entries) > 0 {
		if err := store.Save(ctx, key, entries); err != nil {
			si.messages.AddWarning("Cannot save cache, reason %v", err)
			return
		}
	}
	if _, err := store.Prune(ctx, key); err != nil {
		si.messages.AddWarning("Cannot prune cache, reason %v", err)
	}
	if si.saveAlsoAsJSON {
		if _, err := store.ExportJSON(ctx, key); err != nil {
			si.messages.AddWarning("Cannot save cache as json, reason %v", err)
		}
	}
}

func (si *SimilarImages) hashFile(fe FileEntry) (*ImagesEntry, bool) {
	mtype, err := mimetype.DetectFile(fe.Path)
	if err != nil {
		si.messages.AddWarning("Cannot read file %s, reason %v", fe.Path, err)
		return nil, false
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		si.messages.AddWarning("File %s is not an image (%s)", fe.Path, mtype.String())
		return nil, false
	}

	f, err := os.Open(fe.Path)
	if err != nil {
		si.messages.AddWarning("Cannot open file %s, reason %v", fe.Path, err)
		return nil, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		si.messages.AddWarning("Cannot decode image %s, reason %v", fe.Path, err)
		return nil, false
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		si.messages.AddWarning("Image %s has no pixels", fe.Path)
		return nil, false
	}

	return &ImagesEntry{
		Path:         fe.Path,
		Size:         fe.Size,
		ModifiedDate: fe.ModifiedDate,
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		Hash:         ComputeHash(img, si.hashSize, si.hashAlg, si.imageFilter),
	}, true
}

// groupSimilar builds groups of mutually similar images. The first image of
// each group is its original (similarity 0); every other member records its
// distance to that original.
func (si *SimilarImages) groupSimilar(ctx context.Context, entries []ImagesEntry) [][]ImagesEntry {
	sortImagesByPath(entries)
	assigned := make([]bool, len(entries))
	var groups [][]ImagesEntry

	for i := range entries {
		if assigned[i] {
			continue
		}
		if isStopped(ctx) {
			break
		}

		var members []ImagesEntry
		for j := i + 1; j < len(entries); j++ {
			if assigned[j] {
				continue
			}
			d := HammingDistance(entries[i].Hash, entries[j].Hash)
			if d > si.similarity {
				continue
			}
			member := entries[j]
			member.Similarity = d
			members = append(members, member)
			assigned[j] = true
		}

		if len(members) == 0 {
			continue
		}
		assigned[i] = true
		original := entries[i]
		original.Similarity = 0
		groups = append(groups, append([]ImagesEntry{original}, members...))
	}

	return groups
}

// groupReferenced compares every image from a reference directory with the
// images outside the reference directories.
func (si *SimilarImages) groupReferenced(ctx context.Context, entries []ImagesEntry) []ReferencedGroup {
	sortImagesByPath(entries)

	var references, others []ImagesEntry
	for _, e := range entries {
		if si.isReferencePath(e.Path) {
			references = append(references, e)
		} else {
			others = append(others, e)
		}
	}

	assigned := make([]bool, len(others))
	var groups []ReferencedGroup

	for _, ref := range references {
		if isStopped(ctx) {
			break
		}

		var similar []ImagesEntry
		for j, other := range others {
			if assigned[j] {
				continue
			}
			d := HammingDistance(ref.Hash, other.Hash)
			if d > si.similarity {
				continue
			}
			other.Similarity = d
			similar = append(similar, other)
			assigned[j] = true
		}

		if len(similar) == 0 {
			continue
		}
		ref.Similarity = 0
		groups = append(groups, ReferencedGroup{Reference: ref, Similar: similar})
	}

	return groups
}

// GetSimilarImages returns the groups of the last scan in non-reference mode
func (si *SimilarImages) GetSimilarImages() [][]ImagesEntry {
	return si.similarVectors
}

// GetSimilarImagesReferenced returns the groups of the last scan in reference mode
func (si *SimilarImages) GetSimilarImagesReferenced() []ReferencedGroup {
	return si.similarReferenced
}

func keepFirstOfEachSize(files []FileEntry) []FileEntry {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	seen := make(map[uint64]bool)
	out := files[:0]
	for _, fe := range files {
		if seen[fe.Size] {
			continue
		}
		seen[fe.Size] = true
		out = append(out, fe)
	}
	return out
}

func sortImagesByPath(entries []ImagesEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
