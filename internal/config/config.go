package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DecksDir           string
	LogLevel           string
	HardQuality        int
	NewCardsPerSession int
	ReviewLimit        int
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		DecksDir:           envOr("DECKS_DIR", defaultDecksDir()),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		HardQuality:        envIntOr("HARD_QUALITY", 3),
		NewCardsPerSession: envIntOr("NEW_CARDS_PER_SESSION", 20),
		ReviewLimit:        envIntOr("REVIEW_LIMIT", 200),
	}
}

// defaultDecksDir mirrors the conventional per-user data location:
// $XDG_DATA_HOME/flashdeck/decks, falling back to ~/.local/share.
func defaultDecksDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "decks")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "flashdeck", "decks")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
