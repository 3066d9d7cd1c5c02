package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"finguide/internal/config"
	backuphandlers "finguide/internal/handlers/backup"
	insightshandlers "finguide/internal/handlers/insights"
	recurringhandlers "finguide/internal/handlers/recurring"
	"finguide/internal/services/recurrence"
	"finguide/internal/services/storage"
	"finguide/internal/services/store"
	"finguide/internal/version"
)

var logger zerolog.Logger

func main() {
	cfg := config.Load()

	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("data_dir", cfg.DataDirectory).
		Str("version", version.Get().Version).
		Msg("starting finguide server")

	if err := SetupDependencies(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to set up dependencies")
	}

	r := SetupRouter()

	logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

// SetupDependencies opens storage and the data store and initializes every
// handler package. Split out of main so tests can wire the real stack against
// a temporary data directory.
func SetupDependencies(cfg *config.Config) error {
	backend, err := storage.New(cfg.DataDirectory)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if backend.IsEncrypted() {
		if err := unlockStorage(backend, cfg.DataPassword); err != nil {
			return fmt.Errorf("failed to unlock encrypted storage: %w", err)
		}
	}

	st, err := store.Open(cfg.DataFile, backend)
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}

	processor := recurrence.NewProcessor(st, logger, cfg.RecurringCatchUpAll)

	insightshandlers.Initialize(st, cfg, logger)
	recurringhandlers.Initialize(st, processor, logger)
	backuphandlers.Initialize(cfg, backend, st, logger)

	return nil
}

// SetupRouter builds the chi router with middleware and all routes
func SetupRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	insightshandlers.RegisterRoutes(r)
	recurringhandlers.RegisterRoutes(r)
	backuphandlers.RegisterRoutes(r)
	r.Get("/api/health", handleHealth)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// unlockStorage uses the configured password, or prompts on the terminal
// when none is set.
func unlockStorage(backend *storage.Storage, password string) error {
	if password != "" {
		return backend.Unlock(password)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("data directory is encrypted; set FINGUIDE_DATA_PASSWORD")
	}

	fmt.Fprint(os.Stderr, "Data directory is encrypted. Password: ")
	entered, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	return backend.Unlock(string(entered))
}
