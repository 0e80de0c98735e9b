// Package recommend provides the retrieval engine that ranks a cinema's film
// catalog against a user's accumulated preferences.
package recommend

import (
	"fmt"
	"strings"
)

// fallbackQuery is embedded when a user has expressed no preference at all.
// An empty query string would embed to a meaningless vector.
const fallbackQuery = "Film populaire de qualité avec bonne note"

// Preferences holds the extracted user preferences feeding a retrieval call.
// Every field is optional; pointer and slice fields distinguish "not set"
// from explicit zero values so merges never clobber earlier answers.
type Preferences struct {
	PostalCode  *string  `json:"postal_code,omitempty"`
	Genre       *string  `json:"genre,omitempty"`
	MaxDuration *int     `json:"max_duration,omitempty"`
	Actors      []string `json:"actors,omitempty"`
	Director    *string  `json:"director,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Merge overlays partial onto p field by field. Set fields in partial win;
// absent (nil) fields leave p untouched. Nothing is ever replaced wholesale.
func (p *Preferences) Merge(partial Preferences) {
	if partial.PostalCode != nil {
		p.PostalCode = partial.PostalCode
	}
	if partial.Genre != nil {
		p.Genre = partial.Genre
	}
	if partial.MaxDuration != nil {
		p.MaxDuration = partial.MaxDuration
	}
	if partial.Actors != nil {
		p.Actors = partial.Actors
	}
	if partial.Director != nil {
		p.Director = partial.Director
	}
	if partial.Keywords != nil {
		p.Keywords = partial.Keywords
	}
}

// IsEmpty reports whether no retrieval-relevant preference is set. The postal
// code alone does not count: it scopes cinemas, not film similarity.
func (p Preferences) IsEmpty() bool {
	return p.Genre == nil && p.MaxDuration == nil && len(p.Actors) == 0 &&
		p.Director == nil && len(p.Keywords) == 0
}

// QueryText builds the text embedded for a retrieval query, using the same
// label-prefixed, omit-if-absent convention as the catalog's embedding texts
// so query and record vectors live in the same space.
func QueryText(p Preferences) string {
	var parts []string

	if p.Genre != nil && *p.Genre != "" {
		parts = append(parts, fmt.Sprintf("Genre: %s", *p.Genre))
	}
	if p.Director != nil && *p.Director != "" {
		parts = append(parts, fmt.Sprintf("Réalisateur: %s", *p.Director))
	}
	if len(p.Actors) > 0 {
		parts = append(parts, fmt.Sprintf("Acteurs: %s", strings.Join(p.Actors, ", ")))
	}
	if p.MaxDuration != nil && *p.MaxDuration > 0 {
		parts = append(parts, fmt.Sprintf("Durée maximale: %d minutes", *p.MaxDuration))
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Mots-clés: %s", strings.Join(p.Keywords, ", ")))
	}

	if len(parts) == 0 {
		return fallbackQuery
	}

	return strings.Join(parts, "\n")
}
