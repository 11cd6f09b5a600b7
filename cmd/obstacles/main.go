// Command obstacles finds obstacles on sidewalks in point-cloud tiles. It
// clips each tile to the sidewalk polygons within a height band above
// ground, clusters the clipped points and outlines every cluster.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/sidewalk.report/internal/config"
	"github.com/banshee-data/sidewalk.report/internal/elevation"
	"github.com/banshee-data/sidewalk.report/internal/fsutil"
	"github.com/banshee-data/sidewalk.report/internal/geom"
	"github.com/banshee-data/sidewalk.report/internal/monitoring"
	"github.com/banshee-data/sidewalk.report/internal/pipeline"
	"github.com/banshee-data/sidewalk.report/internal/pointcloud"
	"github.com/banshee-data/sidewalk.report/internal/store"
	"github.com/banshee-data/sidewalk.report/internal/tile"
	"github.com/banshee-data/sidewalk.report/internal/vector"
	"github.com/banshee-data/sidewalk.report/internal/version"
	"github.com/paulmach/orb"
)

var (
	pointsFlag    = flag.String("points", "", "Comma-separated point tile CSVs named after their tile code, e.g. processed_2386_9702.csv (required)")
	sidewalksPath = flag.String("sidewalks", "", "GeoJSON file of sidewalk polygons (required)")
	gridDir       = flag.String("ground", "", "Directory of <tile>.asc ground grids; enables the height band")
	configPath    = flag.String("config", config.DefaultConfigPath, "Tuning config JSON; empty uses built-in defaults")
	outPath       = flag.String("out", "obstacles.geojson", "Output GeoJSON of obstacle footprints")
	maskDir       = flag.String("masks", "", "Optional directory for per-tile CSVs with sidewalk and obstacle mask columns")
	dsn           = flag.String("db", "", "Optional SQLite path or postgres:// DSN to record the run")
	logLevel      = flag.String("log", "ops", "Log level: quiet, ops, diag or trace")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("obstacles"))
		return
	}
	if *pointsFlag == "" || *sidewalksPath == "" {
		log.Fatal("-points and -sidewalks are required")
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
	sidewalks, crs, err := vector.ReadSidewalks(fsys, *sidewalksPath, "")
	if err != nil {
		log.Fatalf("Failed to read sidewalks: %v", err)
	}
	if crs == "" {
		crs = cfg.GetCRS()
	}
	var polys []orb.Polygon
	for _, sw := range sidewalks {
		parts, err := geom.PolygonsFromGeometry(sw.Geometry)
		if err != nil {
			monitoring.Logf("sidewalk %d ignored: %v", sw.ID, err)
			continue
		}
		polys = append(polys, parts...)
	}

	var ground *elevation.TileSet
	if *gridDir != "" {
		ground = elevation.NewTileSet()
	}
	tiles, loadSkipped := loadTiles(fsys, strings.Split(*pointsFlag, ","), polys, cfg, *gridDir, ground)

	var opts []pipeline.Option
	if ground != nil {
		opts = append(opts, pipeline.WithElevation(ground))
	}
	runner, err := pipeline.NewRunner(cfg, opts...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rep, runErr := runner.RunObstacles(ctx, tiles)
	rep.Skipped = append(loadSkipped, rep.Skipped...)

	ids, fps := rep.Footprints()
	if err := vector.WriteObstacles(fsys, *outPath, crs, ids, fps); err != nil {
		log.Fatalf("Failed to write obstacles: %v", err)
	}
	if *maskDir != "" {
		if err := writeMasks(fsys, *maskDir, tiles, rep); err != nil {
			log.Fatalf("Failed to write masks: %v", err)
		}
	}
	if *dsn != "" {
		if err := record(context.Background(), *dsn, crs, cfg, rep); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
	}

	monitoring.Logf("%d tiles: %d processed, %d skipped, %d obstacles written to %s",
		len(tiles)+len(loadSkipped), len(rep.Results), len(rep.Skipped), len(fps), *outPath)
	if runErr != nil {
		log.Fatalf("Run interrupted: %v", runErr)
	}
}

// loadTiles reads every point file. A file that cannot be read is
// returned as skipped at the input stage. When ground is set, each tile's
// grid is added to it; a missing or unreadable grid leaves the tile
// without elevation.
func loadTiles(fsys fsutil.FileSystem, paths []string, sidewalks []orb.Polygon, cfg *config.SidewalkConfig, gridDir string, ground *elevation.TileSet) ([]pipeline.Tile, []pipeline.Skipped) {
	var (
		tiles   []pipeline.Tile
		skipped []pipeline.Skipped
	)
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		t, err := loadTile(fsys, path, sidewalks, cfg.GetTileSize())
		if err != nil {
			monitoring.Logf("tile %s skipped: %v", path, err)
			skipped = append(skipped, pipeline.Skipped{ID: path, Stage: pipeline.StageInput, Err: err})
			continue
		}
		tiles = append(tiles, t)
		if ground == nil {
			continue
		}
		gp := filepath.Join(gridDir, t.ID+".asc")
		if !fsys.Exists(gp) {
			monitoring.Logf("tile %s has no ground grid at %s", t.ID, gp)
			continue
		}
		g, err := elevation.ReadGrid(fsys, gp)
		if err != nil {
			monitoring.Logf("tile %s ground grid ignored: %v", t.ID, err)
			continue
		}
		ground.Add(t.ID, cfg.GetElevationSurface(), g)
	}
	return tiles, skipped
}

// loadTile reads one point file and keeps the sidewalks overlapping its
// tile. Files whose names carry no tile code keep every sidewalk.
func loadTile(fsys fsutil.FileSystem, path string, sidewalks []orb.Polygon, size float64) (pipeline.Tile, error) {
	ps, err := pointcloud.ReadCSV(fsys, path)
	if err != nil {
		return pipeline.Tile{}, err
	}
	t := pipeline.Tile{Points: ps}
	code, err := tile.ParseFilename(path)
	if err != nil {
		base := filepath.Base(path)
		t.ID = strings.TrimSuffix(base, filepath.Ext(base))
		t.Sidewalks = sidewalks
		return t, nil
	}
	t.ID = code.String()
	b := code.Bound(size)
	for _, p := range sidewalks {
		if p.Bound().Intersects(b) {
			t.Sidewalks = append(t.Sidewalks, p)
		}
	}
	return t, nil
}

func writeMasks(fsys fsutil.FileSystem, dir string, tiles []pipeline.Tile, rep *pipeline.ObstacleReport) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	byID := make(map[string]pipeline.Tile, len(tiles))
	for _, t := range tiles {
		byID[t.ID] = t
	}
	for _, r := range rep.Results {
		path := filepath.Join(dir, r.TileID+"_masks.csv")
		err := pointcloud.WriteCSV(fsys, path, byID[r.TileID].Points,
			pointcloud.MaskColumn{Name: "sidewalk", Mask: r.SidewalkMask},
			pointcloud.MaskColumn{Name: "obstacle", Mask: r.ObstacleMask})
		if err != nil {
			return err
		}
	}
	return nil
}

func record(ctx context.Context, dsn, crs string, cfg *config.SidewalkConfig, rep *pipeline.ObstacleReport) error {
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.CreateRun(ctx, store.KindObstacles, crs, cfg)
	if err != nil {
		return err
	}
	ids, fps := rep.Footprints()
	if err := db.InsertObstacles(ctx, runID, ids, fps); err != nil {
		return err
	}
	return db.InsertSkipped(ctx, runID, rep.Skipped)
}
