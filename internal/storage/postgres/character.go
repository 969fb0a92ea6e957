package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/storage"
)

// Errors re-exported from storage so callers may match either package.
var (
	ErrCharacterNotFound  = storage.ErrCharacterNotFound
	ErrCharacterNameTaken = storage.ErrCharacterNameTaken
)

const characterColumns = `id, name, level, exp, realm, spirit_root, spirit_stones, location,
		       stats, inventory, equipment, combat_state, created_at, updated_at`

// CharacterRepository provides character persistence operations. Stats,
// inventory, and equipment are stored as JSONB documents.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character and returns it with timestamps set.
//
// Precondition: c.ID must be a UUID; c.Name must be non-empty.
// Postcondition: Returns the stored character, or ErrCharacterNameTaken on duplicate name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(id, name, level, exp, realm, spirit_root, spirit_stones, location,
			 stats, inventory, equipment, combat_state)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+characterColumns,
		c.ID, c.Name, c.Level, c.Exp, c.Realm, c.SpiritRoot, c.SpiritStones, c.Location,
		c.Stats, inventoryDoc(c), equipmentDoc(c), c.CombatState,
	)
	out, err := scanCharacter(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	return getOne(row)
}

// GetByName retrieves a character by its unique name.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByName(ctx context.Context, name string) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE name = $1`, name)
	return getOne(row)
}

// List returns every character, strongest realm and level first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+characterColumns+`
		FROM characters ORDER BY level DESC, exp DESC, created_at ASC`)
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
// Precondition: c.ID must reference an existing character.
// Postcondition: Returns nil on success, ErrCharacterNotFound if no row updated.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET
			level = $2, exp = $3, realm = $4, spirit_stones = $5, location = $6,
			stats = $7, inventory = $8, equipment = $9, combat_state = $10,
			updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Level, c.Exp, c.Realm, c.SpiritStones, c.Location,
		c.Stats, inventoryDoc(c), equipmentDoc(c), c.CombatState,
	)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes the character with the given ID.
//
// Postcondition: Returns ErrCharacterNotFound if no row was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

func getOne(row pgx.Row) (*character.Character, error) {
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	err := row.Scan(
		&c.ID, &c.Name, &c.Level, &c.Exp, &c.Realm, &c.SpiritRoot, &c.SpiritStones, &c.Location,
		&c.Stats, &c.Inventory, &c.Equipment, &c.CombatState, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Equipment == nil {
		c.Equipment = make(map[character.Slot]*character.Equipment)
	}
	return &c, nil
}

func inventoryDoc(c *character.Character) character.Inventory {
	if c.Inventory.Items == nil {
		return character.Inventory{Items: map[string]*character.ItemStack{}}
	}
	return c.Inventory
}

func equipmentDoc(c *character.Character) map[character.Slot]*character.Equipment {
	if c.Equipment == nil {
		return map[character.Slot]*character.Equipment{}
	}
	return c.Equipment
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique-violation (23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
