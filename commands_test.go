package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordCommand(t *testing.T) {
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		app := &cli.Command{
			Name:     "song-search-api",
			Writer:   &out,
			Commands: []*cli.Command{hashPasswordCommand()},
		}
		err := app.Run(context.Background(), append([]string{"song-search-api", "hash-password"}, args...))
		return strings.TrimSpace(out.String()), err
	}

	t.Run("Prints Bcrypt Hash", func(t *testing.T) {
		hash, err := run("--cost", "4", "s3cret")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
			t.Errorf("expected printed hash to match the password, got %q: %v", hash, err)
		}
	})

	t.Run("Requires Password", func(t *testing.T) {
		if _, err := run(); err == nil {
			t.Error("expected missing password to fail")
		}
	})
}
