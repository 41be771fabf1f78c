package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// SongID identifies a record in the vector store. It is either an unsigned
// decimal integer or a UUID. In JSON it may be written as a number or a string.
type SongID string

// UnmarshalJSON accepts both `42` and `"42"`.
func (id *SongID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = SongID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("song id must be a string or a number: %w", err)
	}
	*id = SongID(n.String())
	return nil
}

// Validate reports whether id is a form the vector store accepts.
func (id SongID) Validate() error {
	if id == "" {
		return Invalid("ID is required")
	}
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return nil
	}
	if _, err := uuid.Parse(string(id)); err == nil {
		return nil
	}
	return Invalid(fmt.Sprintf("ID %q must be an unsigned integer or a UUID", string(id)))
}

// SongQuery is the descriptive part of a song, used both to search and to index.
type SongQuery struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Texts returns the three strings that are embedded for a song, in vector order:
// title and artist joined by a space, then category, then description.
func (q SongQuery) Texts() []string {
	return []string{q.Title + " " + q.Artist, q.Category, q.Description}
}

// Song is a record owned by the vector store.
type Song struct {
	SongQuery
	ID        SongID
	Lyrics    string
	Embedding Embedding
}

// Validate checks that every descriptive field is present.
func (s Song) Validate() error {
	if s.Title == "" || s.Artist == "" || s.Category == "" || s.Description == "" {
		return Invalid("Missing required fields")
	}
	return nil
}

// Payload returns the metadata written next to the song's vector.
func (s Song) Payload() Payload {
	return Payload{
		"title":         s.Title,
		"artist_name":   s.Artist,
		"category_name": s.Category,
		"description":   s.Description,
		"lyrics":        s.Lyrics,
		"id":            string(s.ID),
	}
}
