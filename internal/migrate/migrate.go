// Package migrate applies the embedded schema migrations with goose.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Dialect names the SQL flavour of a database driver.
type Dialect struct {
	Driver string // database/sql driver name
	Goose  string // goose dialect
	Dir    string // directory under migrations/
}

var dialects = map[string]Dialect{
	"postgres": {Driver: "pgx", Goose: "postgres", Dir: "migrations/postgres"},
	"sqlite":   {Driver: "sqlite3", Goose: "sqlite3", Dir: "migrations/sqlite3"},
}

// DialectFor returns the dialect for a configured database driver.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("no migrations for database driver %q", driver)
	}
	return d, nil
}

// Run applies all pending migrations. It opens and closes its own DB handle
// so it is independent of the app store.
func Run(driver, dsn string) error {
	d, err := DialectFor(driver)
	if err != nil {
		return err
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	return Up(db, driver)
}

// Up applies pending migrations on an already open handle.
func Up(db *sql.DB, driver string) error {
	d, err := DialectFor(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(log.StandardLogger())

	if err := goose.SetDialect(d.Goose); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, d.Dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(db *sql.DB, driver string) (int64, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(d.Goose); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}
