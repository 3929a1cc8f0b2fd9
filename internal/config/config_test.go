package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Geocoding.Timeout != 10*time.Second {
		t.Errorf("geocoding timeout = %v", cfg.Geocoding.Timeout)
	}
	if cfg.AMQP.Queue != "visit.events" {
		t.Errorf("queue = %q", cfg.AMQP.Queue)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "visits")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("RABBITMQ_URL", "amqp://broker")

	var cfg Config
	cfg.Database.Port = 5432
	applyEnv(&cfg)

	if cfg.Database.Driver != "mysql" || cfg.Database.Port != 3306 || cfg.Database.Name != "visits" {
		t.Errorf("database overrides not applied: %+v", cfg.Database)
	}
	if cfg.JWT.Secret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.AMQP.URL != "amqp://broker" {
		t.Errorf("amqp url = %q", cfg.AMQP.URL)
	}
}

func TestApplyEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	var cfg Config
	cfg.Database.Port = 5432
	applyEnv(&cfg)

	if cfg.Database.Port != 5432 {
		t.Errorf("port = %d, want unchanged 5432", cfg.Database.Port)
	}
}
