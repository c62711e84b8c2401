package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"library/internal/logger"
	"library/internal/response"
	"library/internal/server"
	"library/internal/storage"
	"library/internal/storage/authors"
	"library/internal/storage/books"
	"library/internal/storage/genres"
	"library/internal/views"
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
	logLevel    = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	dbConnStr   = os.Getenv("DATABASE_URL")
	bindAddr    = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode   = getBoolEnv("DEBUG_MODE")
	storageKind = strings.ToLower(getEnvOrDefault("STORAGE", "postgres"))
	migrate     = getBoolEnv("MIGRATE")
)

type repositories struct {
	authors authors.Repository
	books   books.Repository
	genres  genres.Repository
}

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		lvl = slog.LevelDebug
	}
	logger.SetupSLog(lvl, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)

	if err != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	var repos repositories
	switch storageKind {
	case "memory":
		slog.Warn("Using in-memory storage, nothing will survive a restart")
		repos = repositories{
			authors: authors.NewMemoryRepository(),
			books:   books.NewMemoryRepository(),
			genres:  genres.NewMemoryRepository(),
		}
	case "postgres":
		pg := connectPostgres()
		repos = repositories{
			authors: authors.NewPGXRepository(pg, slog.Default()),
			books:   books.NewPGXRepository(pg, slog.Default()),
			genres:  genres.NewPGXRepository(pg, slog.Default()),
		}
	default:
		slog.Error("STORAGE must be postgres or memory")
		os.Exit(1)
	}

	v, err := views.Load()
	if err != nil {
		slog.Error("Failed to load views: " + err.Error())
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests)
	r.Use(middleware.Recoverer)

	r.Mount("/", server.Handler(
		repos.authors,
		repos.books,
		repos.genres,
		&response.Responder{Views: v, DebugMode: debugMode},
	))

	slog.Info("Listening on " + bindAddr)
	slog.Error("aborting: " + http.ListenAndServe(bindAddr, r).Error())
	os.Exit(1)
}

func connectPostgres() *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		slog.Error("Failed to parse DATABASE_URL: " + err.Error())
		os.Exit(1)
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer(slog.Default())

	pg, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to create postgres pool: " + err.Error())
		os.Exit(1)
	}

	if migrate {
		if err := storage.Migrate(context.Background(), pg); err != nil {
			slog.Error("Failed to apply schema: " + err.Error())
			os.Exit(1)
		}
		slog.Info("Schema applied")
	}

	return pg
}
