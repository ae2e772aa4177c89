package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nerrad567/gray-logic-addon/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Domain-specific errors for add-on settings.
var (
	// ErrNotInstalled indicates the gateway has no settings row for the
	// package, so there is nothing to load or update.
	ErrNotInstalled = errors.New("settings: package not installed")

	// ErrNoDatabase indicates no database path could be resolved.
	ErrNoDatabase = errors.New("settings: no database path")

	// ErrCorrupt indicates the stored value is not the expected JSON shape.
	ErrCorrupt = errors.New("settings: stored value is corrupt")
)

// databaseFile is the gateway's settings database file name.
const databaseFile = "db.sqlite3"

// ResolvePath picks the settings database: the configured path when set,
// otherwise the one the gateway announced in its user profile.
func ResolvePath(configured string, profile protocol.UserProfile) (string, error) {
	switch {
	case configured != "":
		return configured, nil
	case profile.ConfigDir != "":
		return filepath.Join(profile.ConfigDir, databaseFile), nil
	case profile.BaseDir != "":
		return filepath.Join(profile.BaseDir, "config", databaseFile), nil
	default:
		return "", ErrNoDatabase
	}
}

// Store reads and writes one package's configuration in the gateway's
// settings table. The row is keyed "addons.<package>" and holds a JSON
// object whose moziot.config member is the add-on's configuration. Other
// members belong to the gateway and are preserved on save.
type Store struct {
	db          *database.DB
	packageName string
}

// NewStore returns a Store for packageName backed by db.
func NewStore(db *database.DB, packageName string) (*Store, error) {
	if db == nil {
		return nil, errors.New("settings: database is required")
	}
	if packageName == "" {
		return nil, errors.New("settings: package name is required")
	}
	return &Store{db: db, packageName: packageName}, nil
}

// Key returns the settings row key.
func (s *Store) Key() string {
	return "addons." + s.packageName
}

// LoadConfig decodes the stored configuration into v. It reports false,
// leaving v untouched, when the package has no row or no configuration.
func (s *Store) LoadConfig(ctx context.Context, v any) (bool, error) {
	doc, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotInstalled) {
			return false, nil
		}
		return false, err
	}

	var moziot map[string]json.RawMessage
	if raw, ok := doc["moziot"]; !ok || json.Unmarshal(raw, &moziot) != nil {
		return false, nil
	}
	raw, ok := moziot["config"]
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: decoding config for %s: %v", ErrCorrupt, s.packageName, err)
	}
	return true, nil
}

// SaveConfig replaces the stored configuration with v. The gateway must
// already have a row for the package.
func (s *Store) SaveConfig(ctx context.Context, v any) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	moziot := make(map[string]json.RawMessage)
	if raw, ok := doc["moziot"]; ok {
		if err := json.Unmarshal(raw, &moziot); err != nil {
			return fmt.Errorf("%w: moziot member of %s: %v", ErrCorrupt, s.Key(), err)
		}
	}

	config, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding config for %s: %w", s.packageName, err)
	}
	moziot["config"] = config

	if doc["moziot"], err = json.Marshal(moziot); err != nil {
		return fmt.Errorf("encoding settings for %s: %w", s.packageName, err)
	}
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding settings for %s: %w", s.packageName, err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", s.Key(), string(value)); err != nil {
		return fmt.Errorf("saving config for %s: %w", s.packageName, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (map[string]json.RawMessage, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", s.Key()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, s.packageName)
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings for %s: %w", s.packageName, err)
	}
	if !value.Valid {
		return map[string]json.RawMessage{}, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value.String), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Key(), err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}
