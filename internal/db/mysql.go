package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"fieldvisit-backend/internal/config"

	"github.com/go-sql-driver/mysql"
)

// MySQLDSN builds a go-sql-driver DSN. Times are parsed into time.Time in UTC.
func MySQLDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Database.User
	mc.Passwd = cfg.Database.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	mc.DBName = cfg.Database.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// ConnectMySQL opens a database/sql handle on the MySQL driver and pings it.
func ConnectMySQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", MySQLDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.Database.MaxConns))
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	log.Printf("[DB] Connected to MySQL at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	return sqlDB, nil
}
