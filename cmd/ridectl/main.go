package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/ridegazer/internal/export"
	"github.com/langchou/ridegazer/internal/geo"
	"github.com/langchou/ridegazer/internal/source"
	"github.com/langchou/ridegazer/internal/telemetry"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ridectl failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("ridectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dataDirs = fs.String("data", "", "Comma separated partitions (CSV directories or .db/.sqlite files)")
		outPath  = fs.String("out", "data.json", "Output file")
		format   = fs.String("format", "", "Output format: json|parquet (default by extension)")
		distance = fs.String("distance", "standard", "Distance formula: standard|legacy")
		workers  = fs.Int("workers", 4, "Concurrent partition loads and ride aggregations")
		debug    = fs.Bool("debug", false, "Verbose logging")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -data dir1,dir2 -out data.json [-format json|parquet] [-distance standard|legacy]\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var paths []string
	for _, p := range strings.Split(*dataDirs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		fs.Usage()
		return fmt.Errorf("-data is required")
	}

	mode, err := geo.ParseMode(*distance)
	if err != nil {
		return err
	}

	logger := initLogger(*debug, stderr)
	defer logger.Sync() //nolint:errcheck

	sources, err := source.OpenAll(paths)
	if err != nil {
		return err
	}

	start := time.Now()
	ds, err := telemetry.Build(ctx, sources, telemetry.Options{Mode: mode, Workers: *workers})
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	logger.Info("Dataset built",
		zap.Int("partitions", ds.Partitions()),
		zap.Int("rides", ds.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := export.WriteFile(*outPath, *format, ds); err != nil {
		return err
	}
	logger.Info("Export written", zap.String("path", *outPath))
	return nil
}

// initLogger CLI 日志写到 stderr，非 debug 只输出 Info 以上
func initLogger(debug bool, w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
