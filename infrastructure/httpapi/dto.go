package httpapi

import "song-search-api/domain"

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	domain.SongQuery
	TopK int `json:"top_k,omitempty"`
}

// SearchHomeRequest is the body of POST /search-in-home.
type SearchHomeRequest struct {
	Songs []domain.SongQuery `json:"songs"`
	TopK  int                `json:"top_k,omitempty"`
}

// AddSongRequest is the body of POST /add_song. An empty ID gets a generated UUID.
type AddSongRequest struct {
	domain.SongQuery
	ID domain.SongID `json:"id"`
}

// DeleteRequest is the body of POST /delete.
type DeleteRequest struct {
	ID domain.SongID `json:"id"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
