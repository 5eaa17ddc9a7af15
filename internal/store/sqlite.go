// Package store persists entities in sqlite and implements the
// packaging store interfaces. Entities are kept as JSON payloads in a
// single table, with the columns lookups go through (kind, key, alias,
// name, parent) lifted out for indexing.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	kind      TEXT NOT NULL,
	key       TEXT NOT NULL DEFAULT '',
	alias     TEXT NOT NULL DEFAULT '',
	name      TEXT NOT NULL DEFAULT '',
	parent_id INTEGER NOT NULL DEFAULT 0,
	payload   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entities_kind_key   ON entities(kind, key);
CREATE INDEX IF NOT EXISTS idx_entities_kind_alias ON entities(kind, alias);
CREATE INDEX IF NOT EXISTS idx_entities_kind_name  ON entities(kind, name);
CREATE INDEX IF NOT EXISTS idx_entities_parent     ON entities(kind, parent_id);
`

// DB is a sqlite-backed entity store. It hands out read stores and
// transactional scopes; it satisfies packaging.ScopeProvider.
type DB struct {
	sql *sql.DB
}

// Open opens (and if needed initializes) the database at path. The
// special path ":memory:" yields a throwaway in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// sqlite serializes writers; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	logger.Debug("Entity database ready", "path", path)
	return &DB{sql: db}, nil
}

// Close releases the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// querier is the subset of database/sql shared by DB and Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ReadStores returns stores reading outside any transaction.
func (d *DB) ReadStores() packaging.Stores {
	return storesOver(d.sql)
}

// CreateScope begins a transaction-backed scope. Writes through its
// stores only land when Complete succeeds; Close rolls back an
// uncompleted scope.
func (d *DB) CreateScope() (packaging.Scope, error) {
	tx, err := d.sql.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &scope{tx: tx}, nil
}

type scope struct {
	tx        *sql.Tx
	completed bool
}

func (s *scope) Stores() packaging.Stores {
	return storesOver(s.tx)
}

func (s *scope) Complete() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit scope: %w", err)
	}
	s.completed = true
	return nil
}

func (s *scope) Close() error {
	if s.completed {
		return nil
	}
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("roll back scope: %w", err)
	}
	return nil
}

func storesOver(q querier) packaging.Stores {
	return packaging.Stores{
		Macros:        &macroStore{q},
		Templates:     &templateStore{q},
		Stylesheets:   &stylesheetStore{q},
		DataTypes:     &dataTypeStore{q},
		Languages:     &languageStore{q},
		Dictionary:    &dictionaryStore{q},
		DocumentTypes: &documentTypeStore{q},
		Content:       &contentStore{q},
		Folders:       &folderStore{q},
	}
}
