package db

import (
	"strings"
	"testing"

	"fieldvisit-backend/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.User = "tracker"
	cfg.Database.Password = "pw"
	cfg.Database.Host = "db.local"
	cfg.Database.Port = 5432
	cfg.Database.Name = "location_tracker"
	return cfg
}

func TestPostgresDSN(t *testing.T) {
	got := PostgresDSN(testConfig())
	want := "postgres://tracker:pw@db.local:5432/location_tracker"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Port = 3306

	got := MySQLDSN(cfg)
	if !strings.HasPrefix(got, "tracker:pw@tcp(db.local:3306)/location_tracker") {
		t.Fatalf("dsn = %q", got)
	}
	if !strings.Contains(got, "parseTime=true") {
		t.Fatalf("dsn %q missing parseTime", got)
	}
}
