// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"labelpress/internal/app"
	"labelpress/internal/printer"
	"labelpress/internal/version"
	"labelpress/ui/canvas"
	"labelpress/ui/panels"
	"labelpress/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir      = "lastDirectory"
	prefKeyLastProject  = "lastProject"
	prefKeyCanvasHeight = "canvasHeight"
	prefKeyFeedLines    = "feedLines"

	projectExt = ".lblproj"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.LabelCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("LabelPress")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	if h := p.Int(prefKeyCanvasHeight, 0); h > 0 {
		state.SetCanvasHeight(h)
		state.SetModified(false)
	}

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewLabelCanvas(mw.state)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("200%")
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%d%%", int(zoom*100)))
	})

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.3)

	status := container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar)
	content := container.NewBorder(
		nil,                          // top
		container.NewPadded(status),  // bottom
		nil,                          // left
		nil,                          // right
		split,                        // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with the common actions.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	addImageBtn := widget.NewButton("Add Image", mw.onAddImage)
	addTextBtn := widget.NewButton("Add Text", mw.onAddText)
	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	printBtn := widget.NewButton("Print", mw.onPrint)

	return container.NewHBox(
		addImageBtn,
		addTextBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		widget.NewSeparator(),
		printBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	layerMenu := fyne.NewMenu("Layer",
		fyne.NewMenuItem("Add Image...", mw.onAddImage),
		fyne.NewMenuItem("Add Text", mw.onAddText),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Duplicate Selected", mw.onDuplicateLayer),
		fyne.NewMenuItem("Remove Selected", mw.onRemoveLayer),
	)

	labelMenu := fyne.NewMenu("Label",
		fyne.NewMenuItem("Label Length...", mw.onCanvasHeight),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Print Preview", mw.onPrint),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, layerMenu, labelMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("LabelPress - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventBitmapUpdated, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventLayersChanged, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventCanvasChanged, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.Canvas().SetOnTypedKey(mw.onTypedKey)

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// onTypedKey nudges the selected layer with the arrow keys. Keys typed
// into a focused widget (the text entry, the name field) stay there.
func (mw *MainWindow) onTypedKey(ev *fyne.KeyEvent) {
	if mw.Canvas().Focused() != nil {
		return
	}
	id := mw.state.Store.Selected()
	if id == 0 {
		return
	}
	var dx, dy float64
	switch ev.Name {
	case fyne.KeyUp:
		dy = -1
	case fyne.KeyDown:
		dy = 1
	case fyne.KeyLeft:
		dx = -1
	case fyne.KeyRight:
		dx = 1
	default:
		return
	}
	if err := mw.state.NudgeLayer(id, dx, dy); err != nil {
		return
	}
	mw.canvas.Refresh()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
	_ = mw.prefs.Save()
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.state.Store.Reset()
	mw.state.Sched.SetActive(0)
	mw.state.ProjectPath = ""
	mw.state.SetCanvasHeight(app.DefaultCanvasHeight)
	mw.state.SetModified(false)
	mw.SetTitle("LabelPress")
	mw.canvas.Refresh()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefKeyLastProject, path)
		_ = mw.prefs.Save()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{projectExt, ".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Saved " + mw.state.ProjectPath)
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != projectExt {
			path += projectExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.SetTitle("LabelPress - " + filepath.Base(path))
		mw.updateStatus("Saved " + path)
	}, mw.Window)
	fd.SetFileName("label" + projectExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if _, err := mw.state.AddImageFromFile(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.Refresh()
		mw.updateStatus("Added " + filepath.Base(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddText() {
	if _, err := mw.state.AddText("New Text"); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onDuplicateLayer() {
	id := mw.state.Store.Selected()
	if id == 0 {
		mw.updateStatus("No layer selected")
		return
	}
	if _, err := mw.state.DuplicateLayer(id); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onRemoveLayer() {
	id := mw.state.Store.Selected()
	if id == 0 {
		mw.updateStatus("No layer selected")
		return
	}
	mw.state.RemoveLayer(id)
	mw.canvas.Refresh()
}

func (mw *MainWindow) onCanvasHeight() {
	_, h := mw.state.CanvasSize()
	entry := widget.NewEntry()
	entry.SetText(strconv.Itoa(h))
	dialog.ShowForm("Label Length", "Apply", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Length (px)", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			n, err := strconv.Atoi(entry.Text)
			if err != nil || n < 1 {
				dialog.ShowError(fmt.Errorf("invalid length %q", entry.Text), mw.Window)
				return
			}
			mw.state.SetCanvasHeight(n)
			mw.prefs.SetInt(prefKeyCanvasHeight, n)
			_ = mw.prefs.Save()
			mw.canvas.Refresh()
		}, mw.Window)
}

func (mw *MainWindow) onExportPNG() {
	bm, err := mw.state.Compose()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		f, err := os.Create(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		defer f.Close()
		if err := png.Encode(f, bm.ToImage()); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + path)
	}, mw.Window)
	fd.SetFileName("label.png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onPrint composes the label and sends it through the loopback client,
// reporting the framed job size. A real transport plugs in behind the same
// Client interface.
func (mw *MainWindow) onPrint() {
	bm, err := mw.state.Compose()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	client := printer.NewPreview()
	defer client.Dispose()

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	opts := printer.Options{FeedLines: mw.prefs.Int(prefKeyFeedLines, 2)}
	if err := client.Print(ctx, bm, opts); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	frames := client.Frames()
	if len(frames) > 0 {
		mw.updateStatus(fmt.Sprintf("Framed %dx%d label: %d bytes",
			bm.Width(), bm.Height(), len(frames[0])))
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About LabelPress",
		fmt.Sprintf("LabelPress v%s\n\n"+
			"A label composer for 384px thermal printers.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// RestoreLastProject reopens the project from the previous session, if any.
func (mw *MainWindow) RestoreLastProject() {
	path := mw.prefs.String(prefKeyLastProject)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		fmt.Printf("restore last project: %v\n", err)
		return
	}
	mw.state.SetModified(false)
}
