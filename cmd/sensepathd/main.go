// Command sensepathd runs the pedestrian guidance pipeline and its
// monitoring surface. Frames come from a recorded depth log, the synthetic
// corridor generator, or an external producer POSTing records to /log.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sensepath-app/sensepath/internal/config"
	"github.com/sensepath-app/sensepath/internal/depth"
	"github.com/sensepath-app/sensepath/internal/guidance"
	"github.com/sensepath-app/sensepath/internal/monitor"
	"github.com/sensepath-app/sensepath/internal/pipeline"
	"github.com/sensepath-app/sensepath/internal/replay"
	"github.com/sensepath-app/sensepath/internal/telemetry"
	"github.com/sensepath-app/sensepath/internal/timeutil"
	"github.com/sensepath-app/sensepath/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "guidance.db", "Path to the sqlite telemetry database")
	configFile = flag.String("config", "", "Path to a tuning config JSON file (defaults apply when empty)")
	replayFile = flag.String("replay", "", "Play back a recorded depth log instead of waiting for external input")
	replayRate = flag.Float64("rate", 1.0, "Replay speed multiplier (0 = as fast as possible)")
	synthetic  = flag.Bool("synthetic", false, "Generate a synthetic corridor walk")
	frames     = flag.Int("frames", 0, "Frame count for -synthetic (0 = unbounded)")
	plotsDir   = flag.String("plots", "", "Write sector plots to this directory when the run ends")
	statsEvery = flag.Duration("stats", 30*time.Second, "Interval for throughput stats logging (0 disables)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *replayFile != "" && *synthetic {
		log.Fatal("-replay and -synthetic are mutually exclusive")
	}

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded tuning config from %s", *configFile)
	}

	store, err := telemetry.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open telemetry store: %v", err)
	}
	defer store.Close()

	analyzer := depth.NewAnalyzer(tuning.AnalyzerConfig())
	machine := guidance.NewMachine(tuning.GuidanceThresholds(), timeutil.RealClock{})
	hub := monitor.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	// Optional frame source: a recorded log or the synthetic corridor.
	var source pipeline.FrameSource
	switch {
	case *replayFile != "":
		reader, err := replay.OpenLog(*replayFile)
		if err != nil {
			log.Fatalf("failed to open replay log: %v", err)
		}
		log.Printf("replaying %s (%q, %dx%d)", *replayFile, reader.Label(), reader.Width(), reader.Height())
		src := replay.NewLogSource(reader, timeutil.RealClock{})
		src.Rate = *replayRate
		defer src.Close()
		source = src
	case *synthetic:
		gen := replay.NewSyntheticSource(timeutil.RealClock{}, *frames)
		gen.Paced = true
		source = gen
	}

	var runner *pipeline.Runner
	var plotter *monitor.SectorPlotter
	if source != nil {
		sinks := []pipeline.Sink{
			pipeline.SinkFunc(store.RecordFrame),
			hub,
		}
		if *plotsDir != "" {
			plotter = monitor.NewSectorPlotter(*plotsDir)
			sinks = append(sinks, plotter)
		}

		runner, err = pipeline.NewRunner(pipeline.RunnerConfig{
			Analyzer:      analyzer,
			Machine:       machine,
			Source:        source,
			Sinks:         sinks,
			Clock:         timeutil.RealClock{},
			StatsInterval: *statsEvery,
		})
		if err != nil {
			log.Fatalf("failed to create pipeline: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runner.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("pipeline stopped: %v", err)
			}
			if plotter != nil {
				files, err := plotter.GeneratePlots()
				if err != nil {
					log.Printf("failed to generate plots: %v", err)
				} else {
					for _, f := range files {
						log.Printf("wrote %s", f)
					}
				}
			}
		}()
	}

	sessionID := func() string {
		if runner != nil {
			return runner.SessionID()
		}
		return ""
	}

	serverConfig := monitor.WebServerConfig{
		Address:   *listen,
		Store:     store,
		Hub:       hub,
		SessionID: sessionID,
	}
	if runner != nil {
		serverConfig.Stats = runner.Stats()
	}
	webServer := monitor.NewWebServer(serverConfig)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := webServer.Start(ctx); err != nil {
			log.Printf("web server stopped: %v", err)
		}
	}()

	log.Printf("sensepathd %s listening on %s", version.String(), *listen)
	<-ctx.Done()
	wg.Wait()
}
