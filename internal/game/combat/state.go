// Package combat implements the turn-based duel between a character and a
// generated monster. Progress between commands lives in a JSON snapshot
// stored on the character.
package combat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Turn says whose move it is.
type Turn string

const (
	TurnPlayer  Turn = "player"
	TurnMonster Turn = "monster"
)

// ErrNotInCombat is returned for an in-combat action when no snapshot is stored.
var ErrNotInCombat = errors.New("not in combat")

// ErrStateCorrupt is returned when the stored snapshot cannot be parsed.
var ErrStateCorrupt = errors.New("combat state abnormal")

// State is the persisted snapshot of a fight in progress.
type State struct {
	MonsterID      string `json:"monster_id"`
	MonsterName    string `json:"monster_name"`
	MonsterHP      int    `json:"monster_hp"`
	MonsterMaxHP   int    `json:"monster_max_hp"`
	MonsterAttack  int    `json:"monster_attack"`
	MonsterDefense int    `json:"monster_defense"`
	MonsterLevel   int    `json:"monster_level"`
	Turn           Turn   `json:"turn"`
	Round          int    `json:"round"`
}

// Encode serializes the snapshot.
//
// Postcondition: Decode(Encode(s)) == s.
func (s State) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding combat state: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored snapshot.
//
// Postcondition: Returns ErrNotInCombat for an empty blob and an error
// wrapping ErrStateCorrupt for anything unparseable or inconsistent.
func Decode(blob string) (State, error) {
	if blob == "" {
		return State{}, ErrNotInCombat
	}
	var s State
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if s.MonsterID == "" || s.MonsterMaxHP <= 0 || s.Round < 1 {
		return State{}, fmt.Errorf("%w: incomplete snapshot", ErrStateCorrupt)
	}
	if s.Turn != TurnPlayer && s.Turn != TurnMonster {
		return State{}, fmt.Errorf("%w: unknown turn %q", ErrStateCorrupt, s.Turn)
	}
	return s, nil
}
