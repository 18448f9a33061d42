package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour repositories emit DDL for.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

// Options describes how to reach the database.
type Options struct {
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
}

// DB is the shared connection pool handed to every repository.
type DB struct {
	*sql.DB
	dialect Dialect
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Open builds the connection pool for the configured driver. It does not
// contact a remote server; callers decide what to do when Ping fails.
func Open(opts Options) (*DB, error) {
	switch Dialect(opts.Driver) {
	case SQLite, "":
		return openSQLite(opts.Path)
	case MySQL:
		return openMySQL(opts)
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}
}

// openSQLite opens (or creates) a sqlite database at the given path and ensures directories exist.
func openSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection keeps :memory: databases and connection pragmas stable
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{DB: db, dialect: SQLite}, nil
}

func openMySQL(opts Options) (*DB, error) {
	mc := mysql.NewConfig()
	mc.User = opts.User
	mc.Passwd = opts.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	mc.DBName = opts.Name
	mc.ParseTime = true
	mc.Loc = time.UTC

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql db: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{DB: db, dialect: MySQL}, nil
}

// Ping verifies the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return isConstraint(liteErr, "UNIQUE")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		return isConstraint(liteErr, "FOREIGN KEY")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1452
	}
	return false
}

// isConstraint handles drivers that surface only the primary result code.
func isConstraint(err *sqlite.Error, kind string) bool {
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), kind)
}

// nowUTC truncates to microseconds so values round-trip through DATETIME(6).
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
