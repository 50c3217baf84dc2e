// Command gen-depthlog generates sample depth log recordings for testing
// replay.
package main

import (
	"context"
	"flag"
	"io"
	"log"

	"github.com/sensepath-app/sensepath/internal/replay"
	"github.com/sensepath-app/sensepath/internal/timeutil"
)

func main() {
	output := flag.String("o", "sample.splog", "output path")
	frames := flag.Int("n", 300, "number of frames")
	width := flag.Int("width", 64, "frame width in pixels")
	height := flag.Int("height", 48, "frame height in pixels")
	seed := flag.Int64("seed", 0, "noise seed (0 = time-based)")
	flag.Parse()

	gen := replay.NewSyntheticSource(timeutil.RealClock{}, *frames)
	gen.Width = *width
	gen.Height = *height
	if *seed != 0 {
		gen.Seed(*seed)
	}

	w, err := replay.CreateLog(*output, "sample", *width, *height)
	if err != nil {
		log.Fatalf("failed to create log: %v", err)
	}
	defer w.Close()

	ctx := context.Background()
	written := 0
	for {
		frame, err := gen.NextFrame(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("failed to generate frame: %v", err)
		}
		if err := w.WriteFrame(frame); err != nil {
			log.Fatalf("failed to write frame: %v", err)
		}
		written++
		if written%100 == 0 {
			log.Printf("%d/%d frames", written, *frames)
		}
	}
	log.Printf("✓ Created: %s (%d frames)", *output, written)
}
