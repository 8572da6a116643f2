// Command speedydemo runs the keypoint encoding pipeline over a synthetic
// corner mask and prints the downloaded features.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math/rand"
	"os"

	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/backend"
	_ "github.com/balarayen/speedy-vision/backend/native"
)

func main() {
	var (
		width    = flag.Int("width", 640, "mask width")
		height   = flag.Int("height", 480, "mask height")
		corners  = flag.Int("corners", 200, "corner candidates per frame")
		frames   = flag.Int("frames", 10, "frames to run")
		buffered = flag.Bool("buffered", false, "use buffered downloads")
		name     = flag.String("backend", "", "encoder backend (default: best available)")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	speedy.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	enc := backend.Default()
	if *name != "" {
		enc = backend.Get(*name)
	}
	if enc == nil {
		log.Fatalf("no encoder backend available (requested %q)", *name)
	}

	pipe, err := speedy.NewPipeline(enc)
	if err != nil {
		log.Fatalf("create pipeline: %v", err)
	}
	defer pipe.Close()

	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()
	var flags speedy.DownloadFlag
	if *buffered {
		flags |= speedy.DownloadBuffered
	}

	for frame := 0; frame < *frames; frame++ {
		mask := speedy.NewTexture(*width, *height)
		for i := 0; i < *corners; i++ {
			mask.SetCorner(rng.Intn(*width), rng.Intn(*height), 255, uint8(rng.Intn(255)+1))
		}

		if err := pipe.EncodeKeypoints(mask); err != nil {
			log.Fatalf("frame %d: encode: %v", frame, err)
		}
		features, err := pipe.Download(ctx, flags)
		if err != nil {
			log.Fatalf("frame %d: download: %v", frame, err)
		}

		log.Printf("frame %d: backend=%s features=%d encoderLength=%d capacity=%d",
			frame, enc.Name(), len(features), pipe.EncoderLength(), pipe.Capacity())
	}
}
