// Package storage holds the errors shared by every character store.
package storage

import "errors"

var (
	// ErrCharacterNotFound is returned when a character lookup yields no results.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrCharacterNameTaken is returned when creating a character whose name is already in use.
	ErrCharacterNameTaken = errors.New("character name already taken")
)
