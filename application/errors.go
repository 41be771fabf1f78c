package application

import (
	"errors"

	"song-search-api/domain"
)

func isExternal(err error) bool {
	return errors.Is(err, domain.ErrEmbedding) || errors.Is(err, domain.ErrVectorStore)
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}
