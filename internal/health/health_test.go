package health

import (
	"context"
	"errors"
	"testing"
)

func TestCheckBasic(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthChecker(ok)
	h.AddDependency("redis", down)

	status := h.CheckBasic()
	if status.Status != "healthy" {
		t.Errorf("optional dependency failure made instance %s", status.Status)
	}
	if dep := status.Dependencies["redis"]; dep.Status != "unhealthy" || dep.Error == "" {
		t.Errorf("redis = %+v", dep)
	}

	if got := NewHealthChecker(down).CheckBasic(); got.Status != "unhealthy" || got.Database.Status != "unhealthy" {
		t.Errorf("database down reported as %+v", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatBytes(512 * 1024 * 1024); got != "512.0 MB" {
		t.Errorf("formatBytes = %q", got)
	}
	if got := formatBytes(3 * 1024 * 1024 * 1024); got != "3.0 GB" {
		t.Errorf("formatBytes = %q", got)
	}
	if got := formatUptime(90061); got != "1d 1h" {
		t.Errorf("formatUptime = %q", got)
	}
	if got := formatUptime(3900); got != "1h 5m" {
		t.Errorf("formatUptime = %q", got)
	}
}
