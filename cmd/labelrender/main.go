// Command labelrender renders a project file headlessly: it composes the
// label raster exactly as the editor would and writes it as a 1-bit PNG,
// optionally also emitting the framed printer bytes.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"

	"labelpress/internal/app"
	"labelpress/internal/printer"
)

func main() {
	projectPath := flag.String("project", "", "Path to project file")
	outPath := flag.String("out", "label.png", "Output PNG path")
	framePath := flag.String("frame", "", "Also write the framed printer bytes to this path")
	feed := flag.Int("feed", 2, "Paper feed lines after the raster")
	flag.Parse()

	if *projectPath == "" {
		fmt.Println("Usage: labelrender -project <path> [-out label.png] [-frame label.bin] [-feed 2]")
		os.Exit(1)
	}

	state := app.NewState()
	defer state.Close()

	if err := state.LoadProject(*projectPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
		os.Exit(1)
	}

	bm, err := state.Compose()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compose label: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Composed %dx%d label, %d ink pixels (%.1f%%)\n",
		bm.Width(), bm.Height(), bm.InkCount(), bm.InkRatio()*100)

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	if err := png.Encode(f, bm.ToImage()); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "Failed to write PNG: %v\n", err)
		os.Exit(1)
	}
	f.Close()
	fmt.Printf("Wrote %s\n", *outPath)

	if *framePath == "" {
		return
	}

	// Run the raster through the loopback client so the emitted bytes are
	// exactly what a transport would send.
	client := printer.NewPreview()
	defer client.Dispose()

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect preview client: %v\n", err)
		os.Exit(1)
	}
	if err := client.Print(ctx, bm, printer.Options{FeedLines: *feed}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to frame raster: %v\n", err)
		os.Exit(1)
	}

	frames := client.Frames()
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "No frame captured")
		os.Exit(1)
	}
	if err := os.WriteFile(*framePath, frames[0], 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write frame: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", *framePath, len(frames[0]))
}
