package database

import (
	"os"
	"testing"

	"github.com/wnt/memetrack/internal/config"
)

// TestConnectWithMissingConfig tests that Connect fails cleanly when no
// database is reachable at the configured address.
func TestConnectWithMissingConfig(t *testing.T) {
	// Skip in CI environment or when not explicitly enabled
	if os.Getenv("RUN_DB_TESTS") != "true" {
		t.Skip("Skipping database connection test. Set RUN_DB_TESTS=true to enable.")
	}

	cfg := config.Config{
		DBHost:    "localhost",
		DBUser:    "nobody",
		DBName:    "does_not_exist",
		DBPort:    "1",
		DBSSLMode: "disable",
	}

	db, err := Connect(cfg)
	if err == nil {
		t.Error("Connect() should return an error for an unreachable database")
	}
	if db != nil {
		t.Error("Connect() should return nil DB when connection fails")
	}
}
