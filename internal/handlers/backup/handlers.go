// Package backup serves data export and restore. Backups are plain zip
// archives of the data directory; encrypted files are exported decrypted so
// a backup stays readable without the original password.
package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"finguide/internal/config"
	"finguide/internal/services/storage"
	"finguide/internal/services/store"
)

var (
	cfg     *config.Config
	backend *storage.Storage
	st      *store.Store
	logger  zerolog.Logger
)

// Initialize sets up the backup package with required dependencies
func Initialize(c *config.Config, b *storage.Storage, s *store.Store, log zerolog.Logger) {
	cfg = c
	backend = b
	st = s
	logger = log
}

// RegisterRoutes registers all backup routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/backup", handleBackup)
	r.Post("/api/backup/restore", handleRestore)
}

func handleBackup(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("finguide_backup_%s.zip", timestamp)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	zw := zip.NewWriter(w)
	defer zw.Close()

	dataDir := cfg.DataDirectory
	err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Encryption bookkeeping files stay out of backups
		base := filepath.Base(path)
		if base == ".encrypted" || base == ".encryption-verify" {
			return nil
		}

		relPath, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}

		f, err := zw.Create(relPath)
		if err != nil {
			return err
		}

		// Read through storage so encrypted files export decrypted
		data, err := backend.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	})
	if err != nil {
		// Headers are already on the wire; all we can do is log.
		logger.Error().Err(err).Msg("backup archive incomplete")
		return
	}

	logger.Info().Str("filename", filename).Msg("backup exported")
}

// handleRestore replaces the whole state document with an uploaded one. The
// swap goes through the store so it is atomic: a bad upload leaves current
// data untouched.
func handleRestore(w http.ResponseWriter, r *http.Request) {
	var uploaded store.State
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 50<<20)).Decode(&uploaded); err != nil {
		http.Error(w, "invalid state document: "+err.Error(), http.StatusBadRequest)
		return
	}
	for _, def := range uploaded.Recurring {
		if err := def.Pattern.Validate(); err != nil {
			http.Error(w, "invalid recurring definition "+def.ID+": "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if uploaded.Budgets == nil {
		uploaded.Budgets = make(map[string]float64)
	}

	err := st.Update(func(state *store.State) error {
		*state = uploaded
		return nil
	})
	if err != nil {
		http.Error(w, "failed to restore state: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int("expenses", len(uploaded.Expenses)).
		Int("incomes", len(uploaded.Incomes)).
		Int("recurring", len(uploaded.Recurring)).
		Msg("state restored from backup")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"restored": true,
		"expenses": len(uploaded.Expenses),
		"incomes":  len(uploaded.Incomes),
	})
}
