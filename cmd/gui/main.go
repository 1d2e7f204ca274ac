package main

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/kacebover/clutter-finder/gui/controller"
	"github.com/kacebover/clutter-finder/logging"
)

// ClutterGUI is the desktop front-end of the scan controller
type ClutterGUI struct {
	app    fyne.App
	window fyne.Window
	logger *slog.Logger
	ctrl   *controller.ScanController

	tabs     *container.AppTabs
	results  map[controller.CurrentTab]*resultsTab
	settings *settingsForm
	current  controller.CurrentTab

	scanButton *widget.Button
	stopButton *widget.Button

	allProgress   *widget.ProgressBar
	stageProgress *widget.ProgressBar
	stageLabel    *widget.Label
	statusLabel   *widget.Label
	timeLabel     *widget.Label
	startTime     time.Time
}

// NewClutterGUI builds the window. loop delivers controller callbacks on the UI thread.
func NewClutterGUI(a fyne.App, loop controller.EventLoop, settings *controller.Settings, logger *slog.Logger) *ClutterGUI {
	w := a.NewWindow("🧹 Clutter Finder")
	w.Resize(fyne.NewSize(1200, 800))
	w.CenterOnScreen()

	g := &ClutterGUI{
		app:     a,
		window:  w,
		logger:  logger,
		ctrl:    controller.NewScanController(loop, settings, logger),
		results: make(map[controller.CurrentTab]*resultsTab),
		current: controller.TabEmptyFolders,
	}

	for _, kind := range []controller.CurrentTab{controller.TabEmptyFolders, controller.TabEmptyFiles, controller.TabSimilarImages} {
		g.results[kind] = newResultsTab(kind, g.setStatus)
	}
	g.settings = newSettingsForm()
	g.settings.load(g.ctrl.GetSettings())

	g.wireController()
	g.buildUI()
	g.setupShortcuts()
	return g
}

func (g *ClutterGUI) wireController() {
	g.ctrl.SetOnProgress(g.onProgress)
	g.ctrl.SetOnResults(func(kind controller.CurrentTab, rows []controller.DisplayRow) {
		g.results[kind].setRows(rows)
	})
	g.ctrl.SetOnScanEnded(func(kind controller.CurrentTab, text string) {
		g.results[kind].summary.SetText(text)
		g.setStatus("✅ " + text)
		g.timeLabel.SetText(fmt.Sprintf("Time: %.1fs", time.Since(g.startTime).Seconds()))
		g.updateButtons()
	})
	g.ctrl.SetOnInfoText(func(kind controller.CurrentTab, text string) {
		g.results[kind].info.SetText(text)
	})
	g.ctrl.SetOnLogMessage(func(level controller.LogLevel, msg string) {
		if level == controller.LogError {
			g.setStatus("❌ " + msg)
		}
	})
}

func (g *ClutterGUI) buildUI() {
	title := canvas.NewText("🧹 Clutter Finder", theme.Color(theme.ColorNameForeground))
	title.TextSize = 24
	title.TextStyle.Bold = true

	subtitle := canvas.NewText("Empty files, empty folders and similar images", theme.Color(theme.ColorNameForeground))
	subtitle.TextSize = 13

	g.scanButton = widget.NewButton("▶️ Scan", g.onStartScan)
	g.scanButton.Importance = widget.HighImportance
	g.stopButton = widget.NewButton("⏹️ Stop", g.onStopScan)
	g.stopButton.Importance = widget.DangerImportance
	g.stopButton.Disable()

	helpButton := widget.NewButton("❓ Help", g.showHelp)
	helpButton.Importance = widget.LowImportance

	header := container.NewBorder(
		nil, nil,
		container.NewVBox(title, subtitle),
		container.NewHBox(g.scanButton, g.stopButton, helpButton),
	)

	g.tabs = container.NewAppTabs(
		container.NewTabItem("Empty Folders", g.results[controller.TabEmptyFolders].content()),
		container.NewTabItem("Empty Files", g.results[controller.TabEmptyFiles].content()),
		container.NewTabItem("Similar Images", g.results[controller.TabSimilarImages].content()),
		container.NewTabItem("Settings", g.settings.content(g.onSaveSettings, g.onResetSettings)),
	)
	g.tabs.OnSelected = func(*container.TabItem) {
		g.current = tabKinds[g.tabs.SelectedIndex()]
		g.updateButtons()
	}

	g.allProgress = widget.NewProgressBar()
	g.stageProgress = widget.NewProgressBar()
	g.stageLabel = widget.NewLabel("")
	g.statusLabel = widget.NewLabel("Ready")
	g.timeLabel = widget.NewLabel("Time: --")

	footer := container.NewVBox(
		widget.NewSeparator(),
		container.NewGridWithColumns(2, g.allProgress, g.stageProgress),
		container.NewHBox(g.stageLabel, layout.NewSpacer(), g.timeLabel),
		g.statusLabel,
	)

	g.window.SetContent(container.NewBorder(
		container.NewVBox(container.NewPadded(header), widget.NewSeparator()),
		container.NewPadded(footer),
		nil, nil,
		g.tabs,
	))
}

// tabKinds maps tab indexes to the controller's tab kinds
var tabKinds = []controller.CurrentTab{
	controller.TabEmptyFolders,
	controller.TabEmptyFiles,
	controller.TabSimilarImages,
	controller.TabSettings,
}

func (g *ClutterGUI) setupShortcuts() {
	g.window.Canvas().SetOnTypedKey(func(ke *fyne.KeyEvent) {
		switch ke.Name {
		case fyne.KeyF5:
			if !g.scanButton.Disabled() {
				g.onStartScan()
			}
		case fyne.KeyEscape:
			if g.ctrl.IsScanning() {
				g.onStopScan()
			}
		}
	})
}

// updateButtons enables scanning only on a tool tab while nothing runs
func (g *ClutterGUI) updateButtons() {
	scanning := g.ctrl.IsScanning()
	if scanning || g.current == controller.TabSettings {
		g.scanButton.Disable()
	} else {
		g.scanButton.Enable()
	}
	if scanning {
		g.stopButton.Enable()
	} else {
		g.stopButton.Disable()
	}
}

func (g *ClutterGUI) onStartScan() {
	if g.ctrl.IsScanning() {
		return
	}
	g.startTime = time.Now()
	g.timeLabel.SetText("Time: --")
	g.setStatus("🔄 Scanning...")
	g.ctrl.StartScan(g.current)
	g.updateButtons()
}

func (g *ClutterGUI) onStopScan() {
	g.ctrl.StopScan()
	g.setStatus("⏹️ Stopping...")
}

func (g *ClutterGUI) onProgress(p controller.ProgressToSend) {
	g.allProgress.SetValue(float64(p.AllProgress) / 100)
	if p.CurrentProgress < 0 {
		g.stageProgress.SetValue(0)
	} else {
		g.stageProgress.SetValue(float64(p.CurrentProgress) / 100)
	}
	g.stageLabel.SetText(p.StepName)
}

func (g *ClutterGUI) onSaveSettings() {
	s, err := g.settings.apply(g.ctrl.GetSettings())
	if err != nil {
		dialog.ShowError(err, g.window)
		return
	}
	if err := g.ctrl.UpdateSettings(s); err != nil {
		g.logger.Error("saving settings failed", "error", err)
		dialog.ShowError(err, g.window)
		return
	}
	g.settings.load(g.ctrl.GetSettings())
	g.setStatus("✅ Settings saved")
}

func (g *ClutterGUI) onResetSettings() {
	defaults := controller.DefaultSettings()
	defaults.Logging = g.ctrl.GetSettings().Logging
	g.settings.load(defaults)
	g.setStatus("Defaults loaded, press Save to keep them")
}

// reloadSettings takes settings changed on disk by another process
func (g *ClutterGUI) reloadSettings(s *controller.Settings) {
	if reflect.DeepEqual(s, g.ctrl.GetSettings()) {
		// our own save
		return
	}
	g.ctrl.ReplaceSettings(s)
	g.settings.load(g.ctrl.GetSettings())
	g.setStatus("Settings reloaded from disk")
}

func (g *ClutterGUI) setStatus(text string) {
	g.statusLabel.SetText(text)
}

func (g *ClutterGUI) showHelp() {
	helpText := `🧹 Clutter Finder

TOOLS:
• Empty Folders - folders that hold nothing but other empty folders
• Empty Files - files of zero bytes
• Similar Images - pictures that look alike, grouped together

SIMILAR IMAGES:
• Reference directories hold the originals; other images are compared against them
• A bigger hash size finds fewer, closer matches
• Similarity is the allowed difference between two image hashes

KEYS:
• F5 - scan the current tab
• Esc - stop the running scan`

	dialog.ShowInformation("Help", helpText, g.window)
}

func (g *ClutterGUI) Run() {
	g.window.ShowAndRun()
}

func loadSettings() (*controller.Settings, string) {
	path, err := controller.SettingsPath()
	if err != nil {
		slog.Warn("no settings location, using defaults", "error", err)
		return controller.DefaultSettings(), ""
	}
	settings, err := controller.LoadSettings(path)
	if err != nil {
		slog.Warn("settings could not be loaded, using defaults", "path", path, "error", err)
	}
	return settings, path
}

func main() {
	settings, path := loadSettings()

	logger, closer := logging.New(settings.Logging)
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)
	logger.Info("starting", "settings", path, "logging", settings.Logging.String())

	a := app.NewWithID("com.clutterfinder.app")
	gui := NewClutterGUI(a, controller.EventLoopFunc(fyne.Do), settings, logger)
	gui.ctrl.SetSettingsPath(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if path != "" {
		go watchSettings(ctx, path, logger, gui)
	}

	gui.Run()
	gui.ctrl.StopScan()
}

func watchSettings(ctx context.Context, path string, logger *slog.Logger, gui *ClutterGUI) {
	err := controller.WatchSettings(ctx, path, logger, func(s *controller.Settings) {
		fyne.Do(func() { gui.reloadSettings(s) })
	})
	if err != nil {
		logger.Warn("settings watcher stopped", "error", err)
	}
}
