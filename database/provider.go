package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/marior032001/jwt-pizza-service/config"
	"github.com/marior032001/jwt-pizza-service/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Provider lazily opens the one database handle of the process and bootstraps
// the schema on first use. It replaces a package-level connection.
type Provider struct {
	cfg  config.DBConfig
	seed Seed

	mu    sync.Mutex
	db    *gorm.DB
	reads *gorm.DB
}

func NewProvider(cfg config.DBConfig, seed Seed) *Provider {
	return &Provider{cfg: cfg, seed: seed}
}

// NewMemoryProvider uses a private in-memory SQLite database. Each call gets
// its own database.
func NewMemoryProvider(seed Seed) *Provider {
	return NewProvider(config.DBConfig{
		Driver:   config.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		LogLevel: logger.Silent,
	}, seed)
}

// Conn returns the live handle bound to ctx, opening and bootstrapping it on
// the first call. Failures are not cached; the next call tries again.
func (p *Provider) Conn(ctx context.Context) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db.WithContext(ctx), nil
	}

	db, err := p.open(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).
			WithField("driver", p.cfg.Driver).
			Error("database unavailable")
		return nil, utils.StorageUnavailable(err)
	}

	reads, err := p.openReads(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		utils.ErrorLogger.WithError(err).
			WithField("driver", p.cfg.Driver).
			Error("database unavailable")
		return nil, utils.StorageUnavailable(err)
	}

	p.db = db
	p.reads = reads
	return p.db.WithContext(ctx), nil
}

// ReadConn returns a handle for short lookups that must not queue behind an
// open unit of work. For SQLite it is a separate pool; otherwise it is the
// main handle.
func (p *Provider) ReadConn(ctx context.Context) (*gorm.DB, error) {
	if _, err := p.Conn(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reads == nil {
		return nil, utils.StorageUnavailable(fmt.Errorf("provider closed"))
	}
	return p.reads.WithContext(ctx), nil
}

// RunInTx runs fn as one unit of work. The unit commits when fn returns nil
// and rolls back on error or panic. All statements of the unit must go
// through tx.
func (p *Provider) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Close releases the pool. A later Conn opens a new one.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	if p.reads != nil && p.reads != p.db {
		if readDB, err := p.reads.DB(); err == nil {
			readDB.Close()
		}
	}
	p.reads = nil
	sqlDB, err := p.db.DB()
	p.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Provider) open(ctx context.Context) (*gorm.DB, error) {
	dialector, err := p.dialector(ctx)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, p.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if p.cfg.Driver == config.DriverSQLite {
		// one writer connection; lookups go through openReads
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(p.cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(p.cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)
	}

	if err := bootstrap(ctx, db.WithContext(ctx), p.seed); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (p *Provider) gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(utils.InfoLogger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  p.cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// openReads opens the lookup pool. SQLite file databases run in WAL mode so
// readers never wait for the writer. Shared-cache memory databases read
// uncommitted, which skips the table locks a writer holds. A private
// ":memory:" database cannot be shared and falls back to db.
func (p *Provider) openReads(db *gorm.DB) (*gorm.DB, error) {
	if p.cfg.Driver != config.DriverSQLite {
		return db, nil
	}

	dsn := sqliteDSN(p.cfg.GetDSN())
	memory := isMemoryDSN(dsn)
	if memory && !strings.Contains(dsn, "cache=shared") {
		return db, nil
	}

	reads, err := gorm.Open(sqlite.Open(dsn), p.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite readers: %w", err)
	}
	sqlDB, err := reads.DB()
	if err != nil {
		return nil, err
	}

	if memory {
		// the pragma is per connection, so keep exactly one
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		if err := reads.Exec("PRAGMA read_uncommitted = true").Error; err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("configure sqlite readers: %w", err)
		}
		return reads, nil
	}

	sqlDB.SetMaxOpenConns(p.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(p.cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)
	return reads, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sqliteDSN adds WAL and a busy timeout to file databases.
func sqliteDSN(dsn string) string {
	if isMemoryDSN(dsn) {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_journal_mode=") {
		dsn += sep + "_journal_mode=WAL"
		sep = "&"
	}
	if !strings.Contains(dsn, "_busy_timeout=") {
		dsn += sep + "_busy_timeout=5000"
	}
	return dsn
}

func (p *Provider) dialector(ctx context.Context) (gorm.Dialector, error) {
	switch p.cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(sqliteDSN(p.cfg.GetDSN())), nil
	case config.DriverMySQL:
		if p.cfg.DSN == "" {
			if err := createDatabase(ctx, p.cfg); err != nil {
				return nil, err
			}
		}
		return mysql.Open(p.cfg.GetDSN()), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", p.cfg.Driver)
}

// createDatabase makes sure the configured MySQL database exists.
func createDatabase(ctx context.Context, cfg config.DBConfig) error {
	if !dbNamePattern.MatchString(cfg.Name) {
		return fmt.Errorf("invalid database name %q", cfg.Name)
	}

	conn, err := sql.Open("mysql", cfg.ServerDSN())
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS `"+cfg.Name+"`"); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}
