// LabelPress is a WYSIWYG label composer for 384-pixel thermal printers.
package main

import (
	"log"
	"os"

	"labelpress/internal/app"
	"labelpress/ui/mainwindow"
	"labelpress/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	fyneApp := fyneapp.NewWithID("labelpress")
	state := app.NewState()
	defer state.Close()

	p := prefs.Load()
	win := mainwindow.New(fyneApp, state, p)
	win.Resize(fyne.NewSize(1100, 680))

	if len(os.Args) > 1 {
		if err := state.LoadProject(os.Args[1]); err != nil {
			log.Printf("open %s: %v", os.Args[1], err)
		}
	} else {
		win.RestoreLastProject()
	}

	win.ShowAndRun()
}
