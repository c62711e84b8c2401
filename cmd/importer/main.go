package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"runtime"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"library/internal/importer"
	"library/internal/logger"
	"library/internal/storage"
	"library/internal/storage/authors"
	"library/internal/storage/books"
	"library/internal/storage/genres"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

var (
	feedUrl   = os.Getenv("FEED_URL")
	logLevel  = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	dbConnStr = os.Getenv("DATABASE_URL")
	migrate   = getBoolEnv("MIGRATE")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	invalidLvl := false
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelDebug
		invalidLvl = true
	}
	logger.SetupSLog(lvl, path.Dir(path.Dir(path.Dir(thisFile))), nil)

	if invalidLvl {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	if feedUrl == "" {
		slog.Error("You need to specify FEED_URL env var")
		os.Exit(1)
	}

	urlFeed, err := url.Parse(feedUrl)
	if err != nil {
		slog.Error("Invalid URL in FEED_URL: " + err.Error())
		os.Exit(1)
	}

	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		slog.Error("Failed to parse DATABASE_URL: " + err.Error())
		os.Exit(1)
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer(slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pg, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		slog.Error("failed to create postgres pool: " + err.Error())
		os.Exit(1)
	}
	defer pg.Close()

	if migrate {
		if err := storage.Migrate(ctx, pg); err != nil {
			slog.Error("Failed to apply schema: " + err.Error())
			os.Exit(1)
		}
	}

	im := importer.Importer{
		Client:  &http.Client{Timeout: time.Minute},
		Logger:  slog.Default(),
		Authors: authors.NewPGXRepository(pg, slog.Default()),
		Books:   books.NewPGXRepository(pg, slog.Default()),
		Genres:  genres.NewPGXRepository(pg, slog.Default()),
	}

	if _, err := im.Import(ctx, urlFeed); err != nil {
		slog.Error("Import failed: " + err.Error())
		pg.Close()
		os.Exit(1)
	}
}
