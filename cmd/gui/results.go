package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/kacebover/clutter-finder/gui/controller"
)

// resultsTab shows the rows of one tool
type resultsTab struct {
	kind    controller.CurrentTab
	rows    []controller.DisplayRow
	list    *widget.List
	summary *widget.Label
	info    *widget.Entry

	selectedCount *widget.Label
	onStatus      func(string)
}

func newResultsTab(kind controller.CurrentTab, onStatus func(string)) *resultsTab {
	rt := &resultsTab{
		kind:          kind,
		summary:       widget.NewLabel("No scan yet"),
		info:          widget.NewMultiLineEntry(),
		selectedCount: widget.NewLabel("0 selected"),
		onStatus:      onStatus,
	}
	rt.info.Wrapping = fyne.TextWrapWord
	rt.info.SetMinRowsVisible(3)
	rt.info.Disable()

	rt.list = widget.NewList(
		func() int { return len(rt.rows) },
		rt.createItem,
		rt.updateItem,
	)
	rt.list.OnSelected = func(id widget.ListItemID) {
		for i := range rt.rows {
			rt.rows[i].SelectedRow = i == id
		}
	}
	return rt
}

func (rt *resultsTab) createItem() fyne.CanvasObject {
	check := widget.NewCheck("", nil)
	text := widget.NewLabel("/path/to/item")
	text.Truncation = fyne.TextTruncateEllipsis
	return container.NewBorder(nil, nil, check, nil, text)
}

func (rt *resultsTab) updateItem(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(rt.rows) {
		return
	}
	row := rt.rows[id]

	border := obj.(*fyne.Container)
	text := border.Objects[0].(*widget.Label)
	check := border.Objects[1].(*widget.Check)

	text.TextStyle.Bold = row.HeaderRow
	text.SetText(rowText(rt.kind, row))

	// the callback must be detached before SetChecked, rows are reused while scrolling
	check.OnChanged = nil
	if row.HeaderRow && len(row.ValStr) == 0 {
		check.Hide()
		return
	}
	check.Show()
	check.SetChecked(row.Checked)
	check.OnChanged = func(checked bool) {
		if id < len(rt.rows) {
			rt.rows[id].Checked = checked
		}
		rt.updateSelectedCount()
	}
}

// setRows replaces the rows shown by the tab
func (rt *resultsTab) setRows(rows []controller.DisplayRow) {
	rt.rows = rows
	rt.list.UnselectAll()
	rt.list.Refresh()
	rt.updateSelectedCount()
}

func (rt *resultsTab) selectAll(checked bool) {
	for i := range rt.rows {
		if rt.rows[i].HeaderRow && len(rt.rows[i].ValStr) == 0 {
			continue
		}
		rt.rows[i].Checked = checked
	}
	rt.list.Refresh()
	rt.updateSelectedCount()
}

// selectAllButFirst checks every image of a group except the first one,
// which is the best candidate to keep
func (rt *resultsTab) selectAllButFirst() {
	first := true
	for i := range rt.rows {
		row := &rt.rows[i]
		if row.HeaderRow {
			// a header carrying data is the reference image and is never selected
			first = len(row.ValStr) == 0
			row.Checked = false
			continue
		}
		row.Checked = !first
		first = false
	}
	rt.list.Refresh()
	rt.updateSelectedCount()
}

func (rt *resultsTab) checkedPaths() []string {
	var paths []string
	for _, row := range rt.rows {
		if row.Checked {
			if path := rowPath(rt.kind, row); path != "" {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

func (rt *resultsTab) updateSelectedCount() {
	rt.selectedCount.SetText(fmt.Sprintf("%d selected", len(rt.checkedPaths())))
}

func (rt *resultsTab) selectedPath() string {
	for _, row := range rt.rows {
		if row.SelectedRow {
			return rowPath(rt.kind, row)
		}
	}
	return ""
}

func (rt *resultsTab) content() fyne.CanvasObject {
	selectAll := widget.NewButton("Select all", func() { rt.selectAll(true) })
	selectAll.Importance = widget.LowImportance
	clearBtn := widget.NewButton("Clear", func() { rt.selectAll(false) })
	clearBtn.Importance = widget.LowImportance
	openBtn := widget.NewButton("📂 Open folder", func() {
		path := rt.selectedPath()
		if path == "" {
			rt.onStatus("Select a row first")
			return
		}
		if err := openInExplorer(path); err != nil {
			rt.onStatus("❌ Could not open the file manager")
		}
	})
	openBtn.Importance = widget.LowImportance

	tools := []fyne.CanvasObject{selectAll, clearBtn}
	if rt.kind == controller.TabSimilarImages {
		keepFirst := widget.NewButton("Select all but first", rt.selectAllButFirst)
		keepFirst.Importance = widget.LowImportance
		tools = append(tools, keepFirst)
	}
	tools = append(tools, widget.NewSeparator(), openBtn, layout.NewSpacer(), rt.selectedCount)

	return container.NewBorder(
		container.NewVBox(rt.summary, container.NewHBox(tools...), widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), rt.info),
		nil, nil,
		rt.list,
	)
}

// rowPath returns the full path of the file or folder a row describes
func rowPath(kind controller.CurrentTab, row controller.DisplayRow) string {
	switch kind {
	case controller.TabSimilarImages:
		if len(row.ValStr) < 5 {
			return ""
		}
		return filepath.Join(row.ValStr[4], row.ValStr[3])
	default:
		if len(row.ValStr) < 2 {
			return ""
		}
		return filepath.Join(row.ValStr[1], row.ValStr[0])
	}
}

// rowText is the single line shown for a row
func rowText(kind controller.CurrentTab, row controller.DisplayRow) string {
	switch kind {
	case controller.TabSimilarImages:
		if row.HeaderRow && len(row.ValStr) == 0 {
			return "── Similar group ──"
		}
		if len(row.ValStr) < 6 {
			return ""
		}
		text := fmt.Sprintf("%s · %s · %s · %s · %s",
			row.ValStr[0], row.ValStr[1], row.ValStr[2], rowPath(kind, row), row.ValStr[5])
		if row.HeaderRow {
			return "Reference: " + text
		}
		return text
	default:
		if len(row.ValStr) < 3 {
			return ""
		}
		return fmt.Sprintf("%s · %s", rowPath(kind, row), row.ValStr[2])
	}
}

func openInExplorer(filePath string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", "-R", filePath)
	case "windows":
		cmd = exec.Command("explorer", "/select,", filePath)
	default:
		cmd = exec.Command("xdg-open", filepath.Dir(filePath))
	}
	return cmd.Start()
}
