package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEmbedding(t *testing.T) {
	t.Run("Concat Preserves Order", func(t *testing.T) {
		got := Concat(Embedding{1, 2}, Embedding{3}, Embedding{4, 5})
		want := Embedding{1, 2, 3, 4, 5}
		if len(got) != len(want) {
			t.Fatalf("expected %d values, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("Mean", func(t *testing.T) {
		got, err := Mean([]Embedding{{1, 2, 3}, {3, 4, 5}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := Embedding{2, 3, 4}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("Mean Of Nothing", func(t *testing.T) {
		if _, err := Mean(nil); !errors.Is(err, ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("Mean With Mismatched Dimensions", func(t *testing.T) {
		if _, err := Mean([]Embedding{{1, 2}, {1}}); err == nil {
			t.Error("expected an error for mismatched dimensions")
		}
	})
}

func TestSong(t *testing.T) {
	full := Song{SongQuery: SongQuery{Title: "A", Artist: "B", Category: "C", Description: "D"}, ID: "42"}

	t.Run("Validate", func(t *testing.T) {
		if err := full.Validate(); err != nil {
			t.Errorf("expected complete song to validate, got %v", err)
		}

		for name, mutate := range map[string]func(*Song){
			"title":       func(s *Song) { s.Title = "" },
			"artist":      func(s *Song) { s.Artist = "" },
			"category":    func(s *Song) { s.Category = "" },
			"description": func(s *Song) { s.Description = "" },
		} {
			t.Run("Missing "+name, func(t *testing.T) {
				s := full
				mutate(&s)
				err := s.Validate()
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if err.Error() != "Missing required fields" {
					t.Errorf("unexpected message %q", err.Error())
				}
			})
		}
	})

	t.Run("Texts", func(t *testing.T) {
		got := full.Texts()
		want := []string{"A B", "C", "D"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("Payload", func(t *testing.T) {
		p := full.Payload()
		if p["id"] != "42" {
			t.Errorf("expected payload id \"42\", got %v", p["id"])
		}
		if p["artist_name"] != "B" || p["category_name"] != "C" {
			t.Errorf("unexpected payload %v", p)
		}
		if p["lyrics"] != "" {
			t.Errorf("expected empty lyrics, got %v", p["lyrics"])
		}
	})
}

func TestSongID(t *testing.T) {
	t.Run("Unmarshal", func(t *testing.T) {
		cases := map[string]SongID{
			`{"id": 42}`:     "42",
			`{"id": "42"}`:   "42",
			`{"id": null}`:   "",
			`{}`:             "",
			`{"id": "abcd"}`: "abcd",
		}
		for input, want := range cases {
			var body struct {
				ID SongID `json:"id"`
			}
			if err := json.Unmarshal([]byte(input), &body); err != nil {
				t.Errorf("%s: unexpected error %v", input, err)
				continue
			}
			if body.ID != want {
				t.Errorf("%s: expected %q, got %q", input, want, body.ID)
			}
		}
	})

	t.Run("Unmarshal Rejects Objects", func(t *testing.T) {
		var body struct {
			ID SongID `json:"id"`
		}
		if err := json.Unmarshal([]byte(`{"id": {"x": 1}}`), &body); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := []SongID{"0", "42", "18446744073709551615", "6f1c1c3e-7c2b-4c9e-9d7e-2a0e8c1b5f10"}
		for _, id := range valid {
			if err := id.Validate(); err != nil {
				t.Errorf("%q: expected valid, got %v", id, err)
			}
		}
		invalid := []SongID{"", "-1", "1.5", "song-1"}
		for _, id := range invalid {
			if err := id.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("%q: expected validation error, got %v", id, err)
			}
		}
	})
}

func TestRoles(t *testing.T) {
	t.Run("ParseRole", func(t *testing.T) {
		if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
			t.Errorf("expected admin, got %q (%v)", r, err)
		}
		if _, err := ParseRole("root"); err == nil {
			t.Error("expected unknown role to fail")
		}
	})

	t.Run("Authorize", func(t *testing.T) {
		user := Claims{Username: "u", Role: RoleUser}
		if !Authorize(user, []Role{RoleUser, RoleAdmin}) {
			t.Error("expected user to be allowed")
		}
		if Authorize(user, []Role{RoleAdmin}) {
			t.Error("expected user to be refused on admin routes")
		}
	})
}
