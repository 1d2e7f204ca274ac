package main

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/kacebover/clutter-finder/finder"
	"github.com/kacebover/clutter-finder/gui/controller"
)

// settingsForm holds the widgets of the settings tab
type settingsForm struct {
	included   *widget.Entry
	referenced *widget.Entry
	excluded   *widget.Entry

	excludedItems *widget.Entry
	allowedExt    *widget.Entry
	excludedExt   *widget.Entry
	minSize       *widget.Entry
	maxSize       *widget.Entry
	threads       *widget.Entry

	recursive *widget.Check
	otherFS   *widget.Check
	useCache  *widget.Check
	saveJSON  *widget.Check

	hashSize        *widget.Select
	resize          *widget.Select
	hashType        *widget.Select
	similarity      *widget.Slider
	similarityLabel *widget.Label
	ignoreSameSize  *widget.Check
}

func newSettingsForm() *settingsForm {
	f := &settingsForm{
		included:      multiLine("One directory per line"),
		referenced:    multiLine("Reference directories, one per line"),
		excluded:      multiLine("Directories to skip, one per line"),
		excludedItems: widget.NewEntry(),
		allowedExt:    widget.NewEntry(),
		excludedExt:   widget.NewEntry(),
		minSize:       widget.NewEntry(),
		maxSize:       widget.NewEntry(),
		threads:       widget.NewEntry(),

		recursive: widget.NewCheck("Search subdirectories", nil),
		otherFS:   widget.NewCheck("Stay on the same filesystem", nil),
		useCache:  widget.NewCheck("Cache image hashes", nil),
		saveJSON:  widget.NewCheck("Also write the cache as JSON", nil),

		resize:          widget.NewSelect(resizeGUINames(), nil),
		hashType:        widget.NewSelect(hashTypeGUINames(), nil),
		similarity:      widget.NewSlider(0, float64(finder.MaxSimilarity(16))),
		similarityLabel: widget.NewLabel(""),
		ignoreSameSize:  widget.NewCheck("Keep one image per file size", nil),
	}
	f.excludedItems.SetPlaceHolder("*/.git/*,*/node_modules/*")
	f.allowedExt.SetPlaceHolder("jpg,png")

	f.similarity.Step = 1
	f.similarity.OnChanged = func(float64) { f.updateSimilarityLabel() }

	sizes := make([]string, 0, len(controller.AllowedHashSizeValues))
	for _, hs := range controller.AllowedHashSizeValues {
		sizes = append(sizes, hs.GUIName)
	}
	f.hashSize = widget.NewSelect(sizes, func(string) {
		f.similarity.Max = float64(finder.MaxSimilarity(f.selectedHashSize()))
		if f.similarity.Value > f.similarity.Max {
			f.similarity.SetValue(f.similarity.Max)
		}
		f.similarity.Refresh()
		f.updateSimilarityLabel()
	})

	return f
}

func multiLine(placeholder string) *widget.Entry {
	e := widget.NewMultiLineEntry()
	e.SetPlaceHolder(placeholder)
	e.SetMinRowsVisible(3)
	return e
}

func resizeGUINames() []string {
	var names []string
	for _, alg := range controller.AllowedResizeAlgorithmValues {
		names = append(names, alg.GUIName)
	}
	return names
}

func hashTypeGUINames() []string {
	var names []string
	for _, ht := range controller.AllowedHashTypeValues {
		names = append(names, ht.GUIName)
	}
	return names
}

func (f *settingsForm) selectedHashSize() uint8 {
	for _, hs := range controller.AllowedHashSizeValues {
		if hs.GUIName == f.hashSize.Selected {
			return hs.Value
		}
	}
	return 16
}

func (f *settingsForm) updateSimilarityLabel() {
	value := uint32(f.similarity.Value)
	f.similarityLabel.SetText(fmt.Sprintf("%d (%s)", value, finder.GetStringFromSimilarity(value, f.selectedHashSize())))
}

// load copies settings into the widgets
func (f *settingsForm) load(s *controller.Settings) {
	f.included.SetText(strings.Join(s.IncludedDirectories, "\n"))
	f.referenced.SetText(strings.Join(s.ReferencedDirectories, "\n"))
	f.excluded.SetText(strings.Join(s.ExcludedDirectories, "\n"))
	f.excludedItems.SetText(s.ExcludedItems)
	f.allowedExt.SetText(s.AllowedExtensions)
	f.excludedExt.SetText(s.ExcludedExtensions)
	f.minSize.SetText(strconv.FormatInt(s.MinimumFileSizeKB, 10))
	f.maxSize.SetText(strconv.FormatInt(s.MaximumFileSizeKB, 10))
	f.threads.SetText(strconv.Itoa(s.ThreadNumber))

	f.recursive.SetChecked(s.RecursiveSearch)
	f.otherFS.SetChecked(s.IgnoreOtherFileSystems)
	f.useCache.SetChecked(s.UseCache)
	f.saveJSON.SetChecked(s.SaveAlsoAsJSON)
	f.ignoreSameSize.SetChecked(s.SimilarImagesIgnoreSameSize)

	f.hashSize.SetSelected(strconv.Itoa(int(s.SimilarImagesHashSize)))
	for _, alg := range controller.AllowedResizeAlgorithmValues {
		if alg.SettingName == s.SimilarImagesResizeAlgorithm {
			f.resize.SetSelected(alg.GUIName)
		}
	}
	for _, ht := range controller.AllowedHashTypeValues {
		if ht.SettingName == s.SimilarImagesHashType {
			f.hashType.SetSelected(ht.GUIName)
		}
	}
	f.similarity.SetValue(float64(s.SimilarImagesSimilarity))
	f.updateSimilarityLabel()
}

// apply returns base updated with the widget values. Fields the form does not
// show, such as logging, are kept from base.
func (f *settingsForm) apply(base *controller.Settings) (*controller.Settings, error) {
	snap := base.Snapshot()
	s := controller.Settings(snap)

	minSize, err := parseKB("minimum file size", f.minSize.Text)
	if err != nil {
		return nil, err
	}
	maxSize, err := parseKB("maximum file size", f.maxSize.Text)
	if err != nil {
		return nil, err
	}
	threads, err := strconv.Atoi(strings.TrimSpace(f.threads.Text))
	if err != nil || threads < 1 {
		return nil, fmt.Errorf("thread number must be a positive number, got %q", f.threads.Text)
	}

	s.IncludedDirectories = lines(f.included.Text)
	s.ReferencedDirectories = lines(f.referenced.Text)
	s.ExcludedDirectories = lines(f.excluded.Text)
	s.ExcludedItems = strings.TrimSpace(f.excludedItems.Text)
	s.AllowedExtensions = strings.TrimSpace(f.allowedExt.Text)
	s.ExcludedExtensions = strings.TrimSpace(f.excludedExt.Text)
	s.MinimumFileSizeKB = minSize
	s.MaximumFileSizeKB = maxSize
	s.ThreadNumber = threads

	s.RecursiveSearch = f.recursive.Checked
	s.IgnoreOtherFileSystems = f.otherFS.Checked
	s.UseCache = f.useCache.Checked
	s.SaveAlsoAsJSON = f.saveJSON.Checked

	s.SimilarImagesHashSize = f.selectedHashSize()
	for _, alg := range controller.AllowedResizeAlgorithmValues {
		if alg.GUIName == f.resize.Selected {
			s.SimilarImagesResizeAlgorithm = alg.SettingName
		}
	}
	for _, ht := range controller.AllowedHashTypeValues {
		if ht.GUIName == f.hashType.Selected {
			s.SimilarImagesHashType = ht.SettingName
		}
	}
	s.SimilarImagesSimilarity = float32(f.similarity.Value)
	s.SimilarImagesIgnoreSameSize = f.ignoreSameSize.Checked

	if len(s.IncludedDirectories) == 0 {
		return nil, fmt.Errorf("at least one directory to search is required")
	}
	return &s, nil
}

func parseKB(name, text string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a number of KiB, got %q", name, text)
	}
	return v, nil
}

func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (f *settingsForm) content(onSave, onReset func()) fyne.CanvasObject {
	form := widget.NewForm(
		widget.NewFormItem("Included directories", f.included),
		widget.NewFormItem("Reference directories", f.referenced),
		widget.NewFormItem("Excluded directories", f.excluded),
		widget.NewFormItem("Excluded items", f.excludedItems),
		widget.NewFormItem("Allowed extensions", f.allowedExt),
		widget.NewFormItem("Excluded extensions", f.excludedExt),
		widget.NewFormItem("Minimum size (KiB)", f.minSize),
		widget.NewFormItem("Maximum size (KiB)", f.maxSize),
		widget.NewFormItem("Threads", f.threads),
		widget.NewFormItem("", f.recursive),
		widget.NewFormItem("", f.otherFS),
		widget.NewFormItem("", f.useCache),
		widget.NewFormItem("", f.saveJSON),
	)

	images := widget.NewForm(
		widget.NewFormItem("Hash size", f.hashSize),
		widget.NewFormItem("Resize filter", f.resize),
		widget.NewFormItem("Hash type", f.hashType),
		widget.NewFormItem("Similarity", container.NewBorder(nil, nil, nil, f.similarityLabel, f.similarity)),
		widget.NewFormItem("", f.ignoreSameSize),
	)

	saveBtn := widget.NewButton("💾 Save", onSave)
	saveBtn.Importance = widget.HighImportance
	resetBtn := widget.NewButton("Reset to defaults", onReset)
	resetBtn.Importance = widget.LowImportance

	return container.NewBorder(
		nil,
		container.NewHBox(saveBtn, resetBtn),
		nil, nil,
		container.NewVScroll(container.NewVBox(
			widget.NewLabelWithStyle("📁 Search", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			form,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("🖼️ Similar Images", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			images,
		)),
	)
}
