package httpapi

import (
	"fmt"
	"strings"

	"song-search-api/domain"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.Invalid("cannot parse json")
	}
	return nil
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireRole verifies the bearer token and refuses the request unless its role is one of roles.
func (s *Server) requireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.auth.Authenticate(bearerToken(c.Get(fiber.HeaderAuthorization)), roles...)
		if err != nil {
			return err
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func claimsOf(c *fiber.Ctx) domain.Claims {
	claims, _ := c.Locals(claimsKey).(domain.Claims)
	return claims
}

// Login exchanges a username and password for an access token.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Info("login refused", "username", req.Username)
		return err
	}
	return c.JSON(LoginResponse{AccessToken: token})
}

// Search returns the songs nearest to one song description.
func (s *Server) Search(c *fiber.Ctx) error {
	var req SearchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	results, err := s.songs.Search(c.UserContext(), req.SongQuery, req.TopK)
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// SearchHome searches with the mean vector of several song descriptions.
func (s *Server) SearchHome(c *fiber.Ctx) error {
	var req SearchHomeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	results, err := s.songs.SearchHome(c.UserContext(), req.Songs, req.TopK)
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// AddSong embeds a song and stores it.
func (s *Server) AddSong(c *fiber.Ctx) error {
	var req AddSongRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id, err := s.songs.AddSong(c.UserContext(), domain.Song{SongQuery: req.SongQuery, ID: req.ID})
	if err != nil {
		return err
	}
	s.logger.Info("song added", "id", id, "by", claimsOf(c).Username)
	return c.JSON(MessageResponse{Message: "Song added successfully"})
}

// Delete removes a song by id.
func (s *Server) Delete(c *fiber.Ctx) error {
	var req DeleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.songs.DeleteSong(c.UserContext(), req.ID); err != nil {
		return err
	}
	s.logger.Info("song deleted", "id", req.ID, "by", claimsOf(c).Username)
	return c.JSON(MessageResponse{Message: fmt.Sprintf("Vector with ID %s has been deleted.", req.ID)})
}

// Vectors lists the payloads of the first page of stored songs.
func (s *Server) Vectors(c *fiber.Ctx) error {
	results, err := s.songs.ListSongs(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// Health reports that the process is serving.
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Schema returns the JSON schema of every request body, keyed by route.
func (s *Server) Schema(c *fiber.Ctx) error {
	return c.JSON(s.schemas)
}
