package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config collects the environment knobs the service reads at startup.
type Config struct {
	Port        string
	DBDriver    string
	DSN         string
	AdminKey    string
	QueueReset  string
	BookingOpen bool
}

// Load reads the configuration from the environment. godotenv has
// already populated it from .env when main runs.
func Load() Config {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DBDriver:    getenv("DB_DRIVER", "sqlite"),
		DSN:         getenv("DB_DSN", "food_queue.db"),
		AdminKey:    os.Getenv("ADMIN_KEY"),
		QueueReset:  getenv("QUEUE_RESET", "daily"),
		BookingOpen: getenv("BOOKING_OPEN", "true") == "true",
	}
	return cfg
}

// InitDB opens the configured database.
func InitDB(cfg Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
