// Package controller provides the bridge between UI and scanning logic
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CurrentTab identifies the tool tab a scan is started from
type CurrentTab int

const (
	TabEmptyFolders CurrentTab = iota
	TabEmptyFiles
	TabSimilarImages
	TabSettings
)

func (t CurrentTab) String() string {
	switch t {
	case TabEmptyFolders:
		return "empty-folders"
	case TabEmptyFiles:
		return "empty-files"
	case TabSimilarImages:
		return "similar-images"
	case TabSettings:
		return "settings"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// ParseTab returns the scannable tab with the given name
func ParseTab(name string) (CurrentTab, error) {
	for _, t := range []CurrentTab{TabEmptyFolders, TabEmptyFiles, TabSimilarImages} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q (expected empty-folders, empty-files or similar-images)", name)
}

// ProgressToSend is the progress state shown by the UI.
// CurrentProgress is -1 while the current step has no known total.
type ProgressToSend struct {
	AllProgress     int
	CurrentProgress int
	StepName        string
}

// LogLevel represents log message severity
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarning
	LogError
	LogDebug
)

// ScanController starts scans on a worker goroutine and delivers every
// result to the UI through its EventLoop.
type ScanController struct {
	loop         EventLoop
	logger       *slog.Logger
	settingsPath string

	// Callbacks, always invoked on the event loop
	onProgress   func(ProgressToSend)
	onResults    func(CurrentTab, []DisplayRow)
	onScanEnded  func(CurrentTab, string)
	onInfoText   func(CurrentTab, string)
	onLogMessage func(LogLevel, string)

	// State
	mu         sync.RWMutex
	settings   *Settings
	progress   ProgressToSend
	isScanning bool
	cancelFunc context.CancelFunc
	scanID     string
}

// NewScanController creates a scan controller. A nil settings value means defaults.
func NewScanController(loop EventLoop, settings *Settings, logger *slog.Logger) *ScanController {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &ScanController{
		loop:     loop,
		logger:   logger.With("component", "scan-controller"),
		settings: settings,
		progress: ProgressToSend{CurrentProgress: -1},
	}
}

// SetOnProgress sets the callback for progress updates
func (sc *ScanController) SetOnProgress(callback func(ProgressToSend)) {
	sc.onProgress = callback
}

// SetOnResults sets the callback that receives the rows of a finished scan
func (sc *ScanController) SetOnResults(callback func(CurrentTab, []DisplayRow)) {
	sc.onResults = callback
}

// SetOnScanEnded sets the callback for scan completion. It receives the "Found N ..." summary.
func (sc *ScanController) SetOnScanEnded(callback func(CurrentTab, string)) {
	sc.onScanEnded = callback
}

// SetOnInfoText sets the callback that receives the finder's message log
func (sc *ScanController) SetOnInfoText(callback func(CurrentTab, string)) {
	sc.onInfoText = callback
}

// SetOnLogMessage sets the callback for log messages
func (sc *ScanController) SetOnLogMessage(callback func(LogLevel, string)) {
	sc.onLogMessage = callback
}

// SetSettingsPath sets where UpdateSettings persists the settings; empty disables saving.
func (sc *ScanController) SetSettingsPath(path string) {
	sc.settingsPath = path
}

// GetSettings returns a copy of the current settings
func (sc *ScanController) GetSettings() *Settings {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	snap := sc.settings.Snapshot()
	s := Settings(snap)
	return &s
}

// UpdateSettings validates, stores and saves settings. A running scan keeps its snapshot.
// Settings naming an unknown hash type or resize filter are rejected and nothing changes.
func (sc *ScanController) UpdateSettings(settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	sc.store(settings)
	if sc.settingsPath == "" {
		return nil
	}
	return SaveSettings(sc.settingsPath, settings)
}

// ReplaceSettings validates and stores settings without saving them,
// for settings that were just read from disk.
func (sc *ScanController) ReplaceSettings(settings *Settings) {
	if err := settings.Validate(); err != nil {
		sc.logger.Warn("settings replaced with defaults", "error", err)
	}
	sc.store(settings)
}

func (sc *ScanController) store(settings *Settings) {
	sc.mu.Lock()
	sc.settings = settings
	sc.mu.Unlock()
}

// StartScan starts a scan for kind on a new goroutine and returns immediately.
// A request while another scan runs is ignored.
func (sc *ScanController) StartScan(kind CurrentTab) {
	if kind == TabSettings {
		panic("scan button should be disabled")
	}

	sc.mu.Lock()
	if sc.isScanning {
		sc.mu.Unlock()
		sc.logger.Warn("scan already running, ignoring request", "kind", kind.String(), "scan_id", sc.currentScanID())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	scanID := uuid.NewString()
	snapshot := sc.settings.Snapshot()
	sc.isScanning = true
	sc.cancelFunc = cancel
	sc.scanID = scanID
	sc.mu.Unlock()

	reset := ProgressToSend{AllProgress: 0, CurrentProgress: -1, StepName: ""}
	sc.loop.Do(func() {
		sc.publishProgress(reset)
	})

	logger := sc.logger.With("scan_id", scanID, "kind", kind.String())
	logger.Info("scan started", "included", snapshot.IncludedDirectories)
	sc.log(LogInfo, "Starting scan: "+kind.String())

	go func() {
		start := time.Now()
		out := sc.runScan(ctx, kind, snapshot)
		cancelled := ctx.Err() != nil
		cancel()

		logger.Info("scan finished",
			"found", out.found,
			"cancelled", cancelled,
			"duration", time.Since(start).Round(time.Millisecond),
		)
		if cancelled {
			sc.log(LogInfo, "Scan cancelled by user")
		} else {
			sc.log(LogInfo, "Scan completed successfully")
		}

		sc.loop.Do(func() {
			sc.finishScan(out)
		})
	}()
}

// finishScan runs on the event loop once the worker is done
func (sc *ScanController) finishScan(out scanOutput) {
	sc.mu.Lock()
	sc.isScanning = false
	sc.cancelFunc = nil
	sc.mu.Unlock()

	if sc.onResults != nil {
		sc.onResults(out.kind, out.rows())
	}
	if sc.onScanEnded != nil {
		sc.onScanEnded(out.kind, foundText(out.kind, out.found))
	}
	if sc.onInfoText != nil {
		sc.onInfoText(out.kind, out.messages)
	}
}

// StopScan asks the running scan to stop. Partial results are still delivered.
func (sc *ScanController) StopScan() {
	sc.mu.Lock()
	cancel := sc.cancelFunc
	sc.cancelFunc = nil
	sc.mu.Unlock()

	if cancel != nil {
		cancel()
		sc.logger.Info("scan stop requested", "scan_id", sc.currentScanID())
	}
}

// IsScanning returns whether a scan is currently running
func (sc *ScanController) IsScanning() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.isScanning
}

// Progress returns the last progress published to the UI
func (sc *ScanController) Progress() ProgressToSend {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.progress
}

func (sc *ScanController) currentScanID() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.scanID
}

func (sc *ScanController) publishProgress(p ProgressToSend) {
	sc.mu.Lock()
	sc.progress = p
	sc.mu.Unlock()

	if sc.onProgress != nil {
		sc.onProgress(p)
	}
}

// log emits a log message to slog and, through the event loop, to the UI
func (sc *ScanController) log(level LogLevel, message string) {
	switch level {
	case LogError:
		sc.logger.Error(message)
	case LogWarning:
		sc.logger.Warn(message)
	case LogDebug:
		sc.logger.Debug(message)
	default:
		sc.logger.Info(message)
	}

	if sc.onLogMessage != nil {
		callback := sc.onLogMessage
		sc.loop.Do(func() {
			callback(level, message)
		})
	}
}
