// Package store defines save-slot persistence. Backends live in the file,
// sqlite and redis subpackages; storetest holds the shared contract.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned when a slot has never been saved.
	ErrNotFound = errors.New("save slot not found")
	// ErrInvalidName is returned for slot names that are not plain words.
	ErrInvalidName = errors.New("invalid save slot name")
)

// Store persists serialized playthroughs under slot names.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	// List returns slot names sorted alphabetically.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

var slotName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateName rejects slot names that could escape a directory or key
// namespace.
func ValidateName(name string) error {
	if !slotName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
