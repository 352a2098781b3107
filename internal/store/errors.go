package store

import (
	"errors"
	"fmt"

	"dubber/internal/models"
)

var (
	ErrNotFound  = fmt.Errorf("store: resource not found: %w", models.ErrNotFound)
	ErrDuplicate = errors.New("store: duplicate resource")
	ErrConflict  = errors.New("store: conflicting resource state")
)
