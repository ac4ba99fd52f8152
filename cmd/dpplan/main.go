// Command dpplan runs one DP path planning cycle over a JSON or YAML scenario. It
// logs the resolved path and every obstacle decision, and can optionally
// store the cycle, plot it, and serve the debug view until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pathtunnel/internal/config"
	"github.com/banshee-data/pathtunnel/internal/monitoring"
	"github.com/banshee-data/pathtunnel/internal/planning/dppath"
	"github.com/banshee-data/pathtunnel/internal/planning/monitor"
	"github.com/banshee-data/pathtunnel/internal/planning/obstacle"
	"github.com/banshee-data/pathtunnel/internal/planning/scenario"
	"github.com/banshee-data/pathtunnel/internal/planning/storage/sqlite"
	"github.com/banshee-data/pathtunnel/internal/planning/vehicle"
	"github.com/banshee-data/pathtunnel/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to tuning JSON (defaults built in when empty)")
	scenarioPath = flag.String("scenario", "scenarios/example.json", "Path to scenario JSON or YAML")
	dbPath       = flag.String("db", "", "SQLite file to store the cycle in (disabled when empty)")
	plotDir      = flag.String("plot-dir", "", "Directory to write sl.png and xy.png (disabled when empty)")
	listen       = flag.String("listen", "", "Serve the debug view on this address after planning, e.g. :8090")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	configPath   string
	scenarioPath string
	dbPath       string
	plotDir      string
	listen       string
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, options{
		configPath:   *configPath,
		scenarioPath: *scenarioPath,
		dbPath:       *dbPath,
		plotDir:      *plotDir,
		listen:       *listen,
	})
	if err != nil {
		log.Printf("dpplan: %v", err)
		os.Exit(1)
	}
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// run plans one cycle. A planning failure is stored and served like a
// success, and is returned once the outputs are written.
func run(ctx context.Context, opts options) error {
	tuning, err := loadTuning(opts.configPath)
	if err != nil {
		return err
	}
	sc, err := scenario.Load(opts.scenarioPath)
	if err != nil {
		return err
	}
	in, err := sc.Build()
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	monitoring.Logf("dpplan %s: scenario %q, %d obstacles", version.Version, in.Name, len(in.Obstacles))
	opt := dppath.NewOptimizer(dppath.ConfigFromTuning(tuning), vehicle.ParamFromTuning(tuning))
	res, planErr := opt.Process(in.Speed, in.Reference, in.Init, in.Decisions)
	if planErr == nil {
		logResult(res, in.Decisions)
	}

	var store *sqlite.CycleStore
	if opts.dbPath != "" {
		store, err = sqlite.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if v, dirty, err := store.SchemaVersion(); err == nil {
			monitoring.Logf("cycle store %s at schema version %d (dirty=%v)", opts.dbPath, v, dirty)
		}
		rec := sqlite.RecordFromResult(res, in.Obstacles, planErr)
		if err := store.InsertCycle(rec); err != nil {
			return fmt.Errorf("store cycle: %w", err)
		}
		monitoring.Logf("stored cycle %s in %s", rec.CycleID, opts.dbPath)
	}

	if opts.plotDir != "" && planErr == nil {
		written, err := monitor.NewPathPlotter(opts.plotDir).Plot(res, in.Obstacles)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %v", written)
	}

	if opts.listen != "" {
		cfg := monitor.WebServerConfig{Address: opts.listen}
		if store != nil {
			cfg.Store = store
		}
		ws := monitor.NewWebServer(cfg)
		ws.Publish(res, in.Obstacles, planErr)
		if err := ws.Start(ctx); err != nil {
			return err
		}
	}
	return planErr
}

func logResult(res *dppath.Result, decisions *obstacle.DecisionData) {
	monitoring.Logf("path: %d levels, %d samples, %.2f m, cost %.3f, %v",
		len(res.MinCostPath)-1, len(res.Path.DiscretizedPath), res.Path.Length(), res.TotalCost, res.Elapsed)
	for _, o := range decisions.All() {
		kind := "static"
		if !o.IsStatic() {
			kind = "dynamic"
		}
		ds := o.Decisions()
		if len(ds) == 0 {
			monitoring.Logf("  %s (%s): no decision", o.ID, kind)
			continue
		}
		for _, d := range ds {
			monitoring.Logf("  %s (%s): %s", o.ID, kind, obstacle.Describe(d))
		}
	}
	if res.DecisionErr != nil {
		monitoring.Logf("decision errors: %v", res.DecisionErr)
	}
}
