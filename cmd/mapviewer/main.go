// Command mapviewer is an interactive slippy-map viewer: drag to pan,
// scroll to zoom about the cursor. Tile sources and the session position
// persist in the viewer settings file.
package main

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"

	"slippymap/internal/config"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Printf("[MapViewer] failed to load settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	log.Printf("[MapViewer] tile source: %s", settings.Sources[0].Name)

	refresh := make(chan struct{}, 1)
	widget, err := newMapWidget(settings, refresh)
	if err != nil {
		log.Fatalf("[MapViewer] failed to initialize: %v", err)
	}

	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("slippymap"),
			app.Size(unit.Dp(900), unit.Dp(640)),
		)

		go func() {
			for range refresh {
				w.Invalidate()
			}
		}()

		var ops op.Ops
		for {
			switch e := w.Event().(type) {
			case app.DestroyEvent:
				saveSession(widget, settings)
				if e.Err != nil {
					log.Printf("[MapViewer] window closed with error: %v", e.Err)
					os.Exit(1)
				}
				os.Exit(0)
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				widget.Layout(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}()
	app.Main()
}

// saveSession remembers the last viewed position for the next start
func saveSession(widget *MapWidget, settings *config.ViewerSettings) {
	center := widget.view.Center()
	settings.LastCenterLat = center.Lat
	settings.LastCenterLon = center.Lng
	settings.LastZoom = widget.view.Zoom()
	settings.HasLastView = true
	if err := config.Save(settings); err != nil {
		log.Printf("[MapViewer] failed to save session: %v", err)
		return
	}
	log.Printf("[MapViewer] saved position: lat=%.6f, lon=%.6f, zoom=%.1f",
		center.Lat, center.Lng, widget.view.Zoom())
}
