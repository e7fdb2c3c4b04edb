package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/ShortURL/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect names the storage engine selected by the connection string.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	defaultPingTimeout = 5 * time.Second
	sqliteParams       = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
)

// ErrUnsupportedURL is returned for connection strings naming an unknown engine.
var ErrUnsupportedURL = errors.New("database: unsupported connection string")

// Target is a parsed connection string.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ParseURL maps the service's single connection string to a driver and DSN.
// Accepted forms: postgres:// or postgresql:// URLs, sqlite:<path>, sqlite://<path>,
// file:<path> and bare file paths.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = config.DefaultDatabaseURL
	}

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := pgconn.ParseConfig(raw); err != nil {
			return Target{}, fmt.Errorf("database: parse postgres url: %w", err)
		}
		return Target{Dialect: DialectPostgres, DSN: raw}, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return sqliteTarget(strings.TrimPrefix(raw, "sqlite://"))
	case strings.HasPrefix(raw, "sqlite:"):
		return sqliteTarget(strings.TrimPrefix(raw, "sqlite:"))
	case strings.HasPrefix(raw, "file:"):
		return sqliteTarget(raw)
	case strings.Contains(raw, "://"):
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, schemeOf(raw))
	default:
		return sqliteTarget(raw)
	}
}

func sqliteTarget(path string) (Target, error) {
	if path == "" {
		return Target{}, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
	}
	if path == ":memory:" {
		return Target{Dialect: DialectSQLite, DSN: path}, nil
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return Target{Dialect: DialectSQLite, DSN: path + sep + sqliteParams}, nil
}

func schemeOf(raw string) string {
	scheme, _, _ := strings.Cut(raw, "://")
	return scheme
}

// Open connects to the store named by cfg.URL and verifies it with a ping.
// The returned handle is shared by every request for the life of the process.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, Target, error) {
	target, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, Target{}, err
	}

	var dialector gorm.Dialector
	switch target.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(target.DSN)
	default:
		dialector = sqlite.Open(target.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   NewGormLogger(log),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, Target{}, fmt.Errorf("database: open %s: %w", target.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, Target{}, fmt.Errorf("database: retrieve sql db: %w", err)
	}

	if target.DSN == ":memory:" {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			_ = sqlDB.Close()
			return nil, Target{}, fmt.Errorf("database: invalid conn_max_lifetime %q: %w", cfg.ConnMaxLifetime, err)
		}
		sqlDB.SetConnMaxLifetime(d)
	}

	if err := Ping(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, Target{}, err
	}

	return db, target, nil
}

// Ping checks connectivity with a bounded timeout.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: retrieve sql db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// AutoMigrate creates or updates the tables and indexes for the provided models.
func AutoMigrate(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if db == nil || len(models) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("database: auto migrate: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
