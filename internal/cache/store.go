// Package cache owns the persisted reference-data store and the policy
// for when to use, refresh, or discard it.
package cache

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"pescan/internal/errors"
	"pescan/internal/logging"
	"pescan/internal/malapi"
)

// formatVersion marks the persisted store layout. A store written under a
// different version is treated as absent and refreshed, never migrated.
const formatVersion = 1

// cacheFileName is the canonical store file inside the cache directory
const cacheFileName = "malapi.db"

// ErrNoStore is returned by Load when no persisted store exists
var ErrNoStore = stderrors.New("no persisted store")

// Store persists a manifest as a single SQLite file. A refresh writes a
// complete replacement database beside the canonical path and renames it
// into place; the canonical file is never written in place, so readers
// and crashes never observe a half-written store. There is no
// inter-process locking: concurrent refreshes race on the rename and the
// last writer wins.
type Store struct {
	path   string
	logger *logging.Logger
}

// DefaultDir returns the per-user cache directory for pescan
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pescan"), nil
}

// NewStore creates a store rooted at dir. An empty dir selects the
// per-user default location.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, errors.New(errors.CacheInvalid, "no usable cache directory", err)
		}
	}

	return &Store{
		path:   filepath.Join(dir, cacheFileName),
		logger: logger,
	}, nil
}

// Path returns the canonical store file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted manifest. It returns ErrNoStore when the file
// does not exist and a CACHE_INVALID error when the file exists but is
// corrupt, empty, or carries a different format version. Callers treat
// both the same way: no valid store.
func (s *Store) Load() (*malapi.Manifest, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStore
		}
		return nil, errors.New(errors.CacheInvalid, "cannot stat store file", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.New(errors.CacheInvalid, "cannot open store file", err)
	}
	defer db.Close()

	if err := s.checkVersion(db); err != nil {
		return nil, err
	}

	manifest, err := readManifest(db)
	if err != nil {
		return nil, errors.New(errors.CacheInvalid, "store file is corrupt", err)
	}
	if len(manifest.Categories) == 0 {
		return nil, errors.Newf(errors.CacheInvalid, "store file contains no categories")
	}

	return manifest, nil
}

// Save atomically replaces the persisted manifest
func (s *Store) Save(manifest *malapi.Manifest) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New(errors.CacheInvalid, "cannot create cache directory", err)
	}

	tmpPath := s.path + ".tmp"
	_ = os.Remove(tmpPath) // leftover from an interrupted refresh

	if err := writeManifest(tmpPath, manifest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(errors.CacheInvalid, "cannot replace store file", err)
	}

	s.logger.Debug("store file replaced", map[string]interface{}{
		"path":       s.path,
		"categories": len(manifest.Categories),
	})

	return nil
}

func (s *Store) checkVersion(db *sql.DB) error {
	var value string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'format_version'`).Scan(&value)
	if err != nil {
		return errors.New(errors.CacheInvalid, "store file has no format version", err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return errors.New(errors.CacheInvalid, "store file has a malformed format version", err)
	}
	if version != formatVersion {
		return errors.Newf(errors.CacheInvalid,
			"store format version %d does not match %d", version, formatVersion)
	}

	return nil
}

func readManifest(db *sql.DB) (*malapi.Manifest, error) {
	rows, err := db.Query(`SELECT position, header FROM categories ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	manifest := &malapi.Manifest{}
	positions := make(map[int]int) // category position -> slice index
	for rows.Next() {
		var position int
		var header string
		if err := rows.Scan(&position, &header); err != nil {
			return nil, err
		}
		positions[position] = len(manifest.Categories)
		manifest.Categories = append(manifest.Categories, malapi.Category{Header: header})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	apiRows, err := db.Query(`
		SELECT category, name, info, library, documentation
		FROM apis
		ORDER BY category, position
	`)
	if err != nil {
		return nil, err
	}
	defer apiRows.Close()

	for apiRows.Next() {
		var category int
		var api malapi.API
		if err := apiRows.Scan(&category, &api.Name, &api.Info, &api.Library, &api.Documentation); err != nil {
			return nil, err
		}
		idx, ok := positions[category]
		if !ok {
			return nil, fmt.Errorf("api row references unknown category %d", category)
		}
		manifest.Categories[idx].APIs = append(manifest.Categories[idx].APIs, api)
	}
	if err := apiRows.Err(); err != nil {
		return nil, err
	}

	return manifest, nil
}

func writeManifest(path string, manifest *malapi.Manifest) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.New(errors.CacheInvalid, "cannot create store file", err)
	}
	defer db.Close()

	// The temp database is renamed into place after a clean close, so a
	// rollback journal is pure overhead here.
	if _, err := db.Exec(`PRAGMA journal_mode=OFF`); err != nil {
		return errors.New(errors.CacheInvalid, "cannot configure store file", err)
	}

	schema := []string{
		`CREATE TABLE meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE categories (
			position INTEGER PRIMARY KEY,
			header   TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE apis (
			category      INTEGER NOT NULL REFERENCES categories(position),
			position      INTEGER NOT NULL,
			name          TEXT NOT NULL,
			info          TEXT NOT NULL DEFAULT '',
			library       TEXT NOT NULL DEFAULT '',
			documentation TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (category, position),
			UNIQUE (category, name)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.New(errors.CacheInvalid, "cannot create store schema", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.New(errors.CacheInvalid, "cannot begin store transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('format_version', ?)`,
		strconv.Itoa(formatVersion)); err != nil {
		return errors.New(errors.CacheInvalid, "cannot write format version", err)
	}

	for ci, category := range manifest.Categories {
		if _, err := tx.Exec(`INSERT INTO categories (position, header) VALUES (?, ?)`,
			ci, category.Header); err != nil {
			return errors.New(errors.CacheInvalid,
				fmt.Sprintf("cannot write category %q", category.Header), err)
		}
		for ai, api := range category.APIs {
			if _, err := tx.Exec(`
				INSERT INTO apis (category, position, name, info, library, documentation)
				VALUES (?, ?, ?, ?, ?, ?)
			`, ci, ai, api.Name, api.Info, api.Library, api.Documentation); err != nil {
				return errors.New(errors.CacheInvalid,
					fmt.Sprintf("cannot write api %q", api.Name), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.New(errors.CacheInvalid, "cannot commit store transaction", err)
	}

	return nil
}
