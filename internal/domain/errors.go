package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing or invalid input the user must fix (paths, persona, keys).
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalService marks a failed call to an embedding or language-model service.
	ErrExternalService = errors.New("external service error")
	// ErrIndexNotFound is returned when querying before an index has been built.
	ErrIndexNotFound = errors.New("index not found")

	ErrEmbeddingService = fmt.Errorf("embedding service: %w", ErrExternalService)
	ErrDocumentNotFound = fmt.Errorf("document not found: %w", ErrConfiguration)
	ErrPersonaNotFound  = fmt.Errorf("persona not found: %w", ErrConfiguration)
)
