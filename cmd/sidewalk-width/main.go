// Command sidewalk-width measures sidewalk polygons: it extracts each
// polygon's centerline, cuts it into short segments, samples their width
// and classifies them by severity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/sidewalk.report/internal/config"
	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/pipeline"
	"github.com/banshee-data/sidewalk.report/internal/store"
	"github.com/banshee-data/sidewalk.report/internal/tile"
	"github.com/banshee-data/sidewalk.report/internal/vector"
	"github.com/banshee-data/sidewalk.report/internal/version"
)

var (
	sidewalksPath = flag.String("sidewalks", "", "GeoJSON file of sidewalk polygons (required)")
	idProperty    = flag.String("id-property", vector.DefaultIDProperty, "Feature property holding the sidewalk id")
	configPath    = flag.String("config", config.DefaultConfigPath, "Tuning config JSON; empty uses built-in defaults")
	outPath       = flag.String("out", "segments.geojson", "Output GeoJSON of measured segments")
	networkPath   = flag.String("network", "", "Optional output GeoJSON of the length-bounded centerline network")
	tileLists     = flag.String("tiles", "", "Comma-separated tile list CSVs; segments touching tiles present in every list are flagged pc_coverage")
	dsn           = flag.String("db", "", "Optional SQLite path or postgres:// DSN to record the run")
	logLevel      = flag.String("log", "ops", "Log level: quiet, ops, diag or trace")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("sidewalk-width"))
		return
	}
	if *sidewalksPath == "" {
		log.Fatal("-sidewalks is required")
	}
	w, err := monitoring.LevelWriters(os.Stderr, *logLevel)
	if err != nil {
		log.Fatal(err)
	}
	monitoring.SetLogWriters(w)

	cfg := config.EmptySidewalkConfig()
	if *configPath != "" {
		if cfg, err = config.LoadSidewalkConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	fsys := fsutil.OSFileSystem{}
	var opts []pipeline.Option
	if *tileLists != "" {
		codes, err := readTileLists(fsys, strings.Split(*tileLists, ","))
		if err != nil {
			log.Fatalf("Failed to read tile lists: %v", err)
		}
		cov, err := tile.NewCoverage(codes, cfg.GetTileSize())
		if err != nil {
			log.Fatalf("Failed to index tiles: %v", err)
		}
		opts = append(opts, pipeline.WithCoverage(cov))
	}

	runner, err := pipeline.NewRunner(cfg, opts...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sidewalks, crs, err := vector.ReadSidewalks(fsys, *sidewalksPath, *idProperty)
	if err != nil {
		log.Fatalf("Failed to read sidewalks: %v", err)
	}
	if crs == "" {
		crs = cfg.GetCRS()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, runErr := runner.RunWidths(ctx, sidewalks)
	segs := rep.Segments()

	if err := vector.WriteSegments(fsys, *outPath, crs, segs); err != nil {
		log.Fatalf("Failed to write segments: %v", err)
	}
	if *networkPath != "" {
		if err := vector.WriteNetwork(fsys, *networkPath, crs, rep.Network); err != nil {
			log.Fatalf("Failed to write network: %v", err)
		}
	}
	if *dsn != "" {
		if err := record(context.Background(), *dsn, crs, cfg, rep); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
	}

	monitoring.Logf("%d sidewalks: %d measured, %d skipped, %d segments written to %s",
		len(sidewalks), len(rep.Results), len(rep.Skipped), len(segs), *outPath)
	if runErr != nil {
		log.Fatalf("Run interrupted: %v", runErr)
	}
}

// readTileLists returns the tiles present in every list.
func readTileLists(fsys fsutil.FileSystem, paths []string) ([]tile.Code, error) {
	var codes []tile.Code
	for i, p := range paths {
		list, err := tile.ReadList(fsys, strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if i == 0 {
			codes = list
			continue
		}
		codes = tile.Intersect(codes, list)
	}
	return codes, nil
}

func record(ctx context.Context, dsn, crs string, cfg *config.SidewalkConfig, rep *pipeline.WidthReport) error {
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.CreateRun(ctx, store.KindWidths, crs, cfg)
	if err != nil {
		return err
	}
	if err := db.InsertSegments(ctx, runID, rep.Segments()); err != nil {
		return err
	}
	return db.InsertSkipped(ctx, runID, rep.Skipped)
}
