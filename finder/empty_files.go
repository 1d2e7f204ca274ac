package finder

import "context"

// EmptyFiles finds zero-byte files
type EmptyFiles struct {
	CommonToolData
	emptyFiles []FileEntry
}

// NewEmptyFiles creates an empty file finder with default settings
func NewEmptyFiles() *EmptyFiles {
	return &EmptyFiles{CommonToolData: newCommonToolData()}
}

// FindEmptyFiles runs the scan. It blocks until the walk ends or ctx is cancelled;
// a cancelled scan keeps the files found so far.
func (ef *EmptyFiles) FindEmptyFiles(ctx context.Context, progress chan<- ProgressData) {
	ef.emptyFiles = nil
	pr := newProgressReporter(progress, 1)
	pr.startStage(0, "Collecting files")

	files := ef.collectFiles(ctx, pr, collectOptions{})
	for _, fe := range files {
		if fe.Size == 0 {
			ef.emptyFiles = append(ef.emptyFiles, fe)
		}
	}

	if isStopped(ctx) {
		ef.messages.AddMessage("Scan was stopped, results are incomplete")
	}
	ef.messages.AddMessage("Found %d empty files", len(ef.emptyFiles))
}

// GetEmptyFiles returns the files found by the last scan
func (ef *EmptyFiles) GetEmptyFiles() []FileEntry {
	return ef.emptyFiles
}
