// Package sqlite persists characters in a single-file SQLite database using
// the pure-Go modernc.org/sqlite driver. Structured fields are stored as JSON
// text columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/storage"
)

// Errors re-exported from storage so callers may match either package.
var (
	ErrCharacterNotFound  = storage.ErrCharacterNotFound
	ErrCharacterNameTaken = storage.ErrCharacterNameTaken
)

const characterColumns = `id, name, level, exp, realm, spirit_root, spirit_stones, location,
       stats, inventory, equipment, combat_state, created_at_ms, updated_at_ms`

// CharacterRepository stores characters in SQLite.
type CharacterRepository struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
// The path ":memory:" opens a private in-memory database.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a ready repository or a non-nil error; no handle
// is leaked on error.
func Open(ctx context.Context, path string) (*CharacterRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("creating database dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &CharacterRepository{db: db}, nil
}

// Close releases the database handle.
func (r *CharacterRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS characters (
    id            TEXT    PRIMARY KEY,
    name          TEXT    NOT NULL UNIQUE,
    level         INTEGER NOT NULL DEFAULT 1,
    exp           INTEGER NOT NULL DEFAULT 0,
    realm         TEXT    NOT NULL,
    spirit_root   TEXT    NOT NULL,
    spirit_stones INTEGER NOT NULL DEFAULT 0,
    location      TEXT    NOT NULL,
    stats         TEXT    NOT NULL,
    inventory     TEXT    NOT NULL DEFAULT '{}',
    equipment     TEXT    NOT NULL DEFAULT '{}',
    combat_state  TEXT    NOT NULL DEFAULT '',
    created_at_ms INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_level ON characters(level DESC, exp DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring sqlite schema: %w", err)
		}
	}
	return nil
}

// Create inserts a new character and returns it with timestamps set.
//
// Precondition: c.ID and c.Name must be non-empty.
// Postcondition: Returns the stored character, or ErrCharacterNameTaken on duplicate name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	docs, err := encodeDocuments(c)
	if err != nil {
		return nil, err
	}
	nowMs := time.Now().UTC().UnixMilli()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO characters (
    id, name, level, exp, realm, spirit_root, spirit_stones, location,
    stats, inventory, equipment, combat_state, created_at_ms, updated_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.ID, c.Name, c.Level, c.Exp, c.Realm, c.SpiritRoot, c.SpiritStones, c.Location,
		docs.stats, docs.inventory, docs.equipment, c.CombatState, nowMs, nowMs)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return r.GetByID(ctx, c.ID)
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*character.Character, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	return getOne(row)
}

// GetByName retrieves a character by its unique name.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*character.Character, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE name = ?`, name)
	return getOne(row)
}

// List returns every character, highest level first.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+characterColumns+`
FROM characters ORDER BY level DESC, exp DESC, created_at_ms ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// Save writes every mutable field of c back to its row.
//
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	docs, err := encodeDocuments(c)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE characters SET
    level = ?, exp = ?, realm = ?, spirit_stones = ?, location = ?,
    stats = ?, inventory = ?, equipment = ?, combat_state = ?, updated_at_ms = ?
WHERE id = ?
`, c.Level, c.Exp, c.Realm, c.SpiritStones, c.Location,
		docs.stats, docs.inventory, docs.equipment, c.CombatState,
		time.Now().UTC().UnixMilli(), c.ID)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	if n == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes the character with the given ID.
//
// Postcondition: Returns ErrCharacterNotFound if no row was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if n == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

type documents struct {
	stats     string
	inventory string
	equipment string
}

func encodeDocuments(c *character.Character) (documents, error) {
	var d documents
	stats, err := json.Marshal(c.Stats)
	if err != nil {
		return d, fmt.Errorf("encoding stats: %w", err)
	}
	inv := c.Inventory
	if inv.Items == nil {
		inv.Items = map[string]*character.ItemStack{}
	}
	inventory, err := json.Marshal(inv)
	if err != nil {
		return d, fmt.Errorf("encoding inventory: %w", err)
	}
	eq := c.Equipment
	if eq == nil {
		eq = map[character.Slot]*character.Equipment{}
	}
	equipment, err := json.Marshal(eq)
	if err != nil {
		return d, fmt.Errorf("encoding equipment: %w", err)
	}
	return documents{stats: string(stats), inventory: string(inventory), equipment: string(equipment)}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func getOne(row scanner) (*character.Character, error) {
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

func scanCharacter(row scanner) (*character.Character, error) {
	var (
		c                          character.Character
		stats, inventory, equipped string
		createdMs, updatedMs       int64
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Level, &c.Exp, &c.Realm, &c.SpiritRoot, &c.SpiritStones, &c.Location,
		&stats, &inventory, &equipped, &c.CombatState, &createdMs, &updatedMs,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stats), &c.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats of %q: %w", c.Name, err)
	}
	if err := json.Unmarshal([]byte(inventory), &c.Inventory); err != nil {
		return nil, fmt.Errorf("decoding inventory of %q: %w", c.Name, err)
	}
	if err := json.Unmarshal([]byte(equipped), &c.Equipment); err != nil {
		return nil, fmt.Errorf("decoding equipment of %q: %w", c.Name, err)
	}
	if c.Equipment == nil {
		c.Equipment = make(map[character.Slot]*character.Equipment)
	}
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	c.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &c, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
