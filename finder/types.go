package finder

// ProgressData is sent on the progress channel while a finder runs.
type ProgressData struct {
	AllProgress     int    // overall progress across all stages, 0-100
	CurrentProgress int    // progress of the current stage, 0-100, or -1 if unknown
	StepName        string // human readable name of the current stage
}

// ResultEntry is implemented by every entry a finder can return
type ResultEntry interface {
	GetPath() string
	GetModifiedDate() uint64
	GetSize() uint64
}

// FileEntry is a single file found during traversal
type FileEntry struct {
	Path         string
	Size         uint64
	ModifiedDate uint64 // unix seconds
}

func (fe FileEntry) GetPath() string         { return fe.Path }
func (fe FileEntry) GetModifiedDate() uint64 { return fe.ModifiedDate }
func (fe FileEntry) GetSize() uint64         { return fe.Size }

// FolderEntry is a directory visited by the empty folder finder
type FolderEntry struct {
	Path         string
	ParentPath   string
	IsEmpty      bool
	ModifiedDate uint64
}

func (fe FolderEntry) GetPath() string         { return fe.Path }
func (fe FolderEntry) GetModifiedDate() uint64 { return fe.ModifiedDate }
func (fe FolderEntry) GetSize() uint64         { return 0 }

// ImagesEntry is an image with its perceptual hash.
// Similarity is the Hamming distance to the group's original or reference image.
type ImagesEntry struct {
	Path         string
	Size         uint64
	ModifiedDate uint64
	Width        uint32
	Height       uint32
	Hash         []byte
	Similarity   uint32
}

func (ie ImagesEntry) GetPath() string         { return ie.Path }
func (ie ImagesEntry) GetModifiedDate() uint64 { return ie.ModifiedDate }
func (ie ImagesEntry) GetSize() uint64         { return ie.Size }

// ReferencedGroup pairs an image from a reference directory with the images similar to it
type ReferencedGroup struct {
	Reference ImagesEntry
	Similar   []ImagesEntry
}
