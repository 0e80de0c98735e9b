// Package cinema provides the static cinema reference directory.
//
// Cinemas are administered outside this system; both the ingestion pipeline
// and the recommendation path read them but never write them.
package cinema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Cinema is one cinema location.
type Cinema struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city,omitempty"`
}

// ErrNotFound is returned when a cinema id is not in the directory.
var ErrNotFound = errors.New("cinema not found")

// Directory is a read-only view over the cinema reference data.
type Directory interface {
	// All returns every cinema.
	All(ctx context.Context) ([]Cinema, error)

	// Get returns a cinema by id.
	Get(ctx context.Context, id string) (*Cinema, error)

	// FindByPostalCode returns the cinemas in the same département as the
	// given postal code (matched on the first two digits, so both "75" and
	// "75001" find every cinema in Paris).
	FindByPostalCode(ctx context.Context, postalCode string) ([]Cinema, error)

	// Count returns the number of cinemas.
	Count(ctx context.Context) (int, error)
}

// StaticDirectory implements Directory over a fixed in-memory list.
type StaticDirectory struct {
	cinemas []Cinema
	byID    map[string]Cinema
}

// NewStaticDirectory creates a directory over the given cinemas.
func NewStaticDirectory(cinemas []Cinema) *StaticDirectory {
	byID := make(map[string]Cinema, len(cinemas))
	for _, c := range cinemas {
		byID[c.ID] = c
	}
	return &StaticDirectory{cinemas: cinemas, byID: byID}
}

// LoadDirectory reads a JSON array of cinemas from a file.
func LoadDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cinema directory: %w", err)
	}

	var cinemas []Cinema
	if err := json.Unmarshal(data, &cinemas); err != nil {
		return nil, fmt.Errorf("decoding cinema directory: %w", err)
	}

	return NewStaticDirectory(cinemas), nil
}

// All returns every cinema.
func (d *StaticDirectory) All(_ context.Context) ([]Cinema, error) {
	result := make([]Cinema, len(d.cinemas))
	copy(result, d.cinemas)
	return result, nil
}

// Get returns a cinema by id.
func (d *StaticDirectory) Get(_ context.Context, id string) (*Cinema, error) {
	c, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &c, nil
}

// FindByPostalCode matches cinemas by département prefix.
func (d *StaticDirectory) FindByPostalCode(_ context.Context, postalCode string) ([]Cinema, error) {
	if len(postalCode) < 2 {
		return nil, nil
	}
	departement := postalCode[:2]

	var result []Cinema
	for _, c := range d.cinemas {
		if len(c.PostalCode) >= 2 && c.PostalCode[:2] == departement {
			result = append(result, c)
		}
	}
	return result, nil
}

// Count returns the number of cinemas.
func (d *StaticDirectory) Count(_ context.Context) (int, error) {
	return len(d.cinemas), nil
}

// Ensure StaticDirectory implements Directory
var _ Directory = (*StaticDirectory)(nil)
