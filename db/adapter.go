package db

import (
	"fmt"

	"github.com/kasuganosora/filmorate/config"
	dbmysql "github.com/kasuganosora/filmorate/db/mysql"
	dbpostgres "github.com/kasuganosora/filmorate/db/postgres"
	dbsqlite "github.com/kasuganosora/filmorate/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModeMySQL    = "mysql"
	ModePostgres = "postgres"
)

// IsRelational reports whether mode is backed by a SQL database.
func IsRelational(mode string) bool {
	switch mode {
	case ModeSQLite, ModeMySQL, ModePostgres:
		return true
	}
	return false
}

// Open returns a *gorm.DB for the configured relational mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case ModePostgres:
		return dbpostgres.Open(cfg.PostgresDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case ModeMemory:
		return nil, fmt.Errorf("db: mode %q has no SQL database", cfg.Mode)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
