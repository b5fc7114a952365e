package cli

import (
	"fmt"
	"path/filepath"

	"github.com/splitsig/splitsig/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// tokenFilePath returns where the running server writes its dashboard
// token. Stored alongside the database unless overridden by config.
func tokenFilePath() string {
	if cfg.TokenFile != "" {
		return cfg.TokenFile
	}
	return filepath.Join(filepath.Dir(dbPath), ".splitsig-token")
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
