package service

import (
	"errors"
	"fmt"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/retrieval"
)

var (
	// ErrInput marks a request rejected before any retrieval happened.
	ErrInput = errors.New("invalid input")
	// ErrValidation marks a model reply that failed parsing or cardinality checks.
	ErrValidation = errors.New("invalid model output")
	// ErrOracleUnavailable marks a failed completion call.
	ErrOracleUnavailable = errors.New("completion model unavailable")
	// ErrIndexUnavailable marks a collection with no usable index.
	ErrIndexUnavailable = index.ErrIndexUnavailable
	// ErrNotFound marks a lookup with no exact match.
	ErrNotFound = retrieval.ErrNotFound
)

// KindOf classifies an error for callers that only see the ErrorResult.
func KindOf(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrInput):
		return models.ErrorKindInput
	case errors.Is(err, ErrValidation):
		return models.ErrorKindValidation
	case errors.Is(err, ErrOracleUnavailable):
		return models.ErrorKindOracleUnavailable
	case errors.Is(err, ErrIndexUnavailable):
		return models.ErrorKindIndexUnavailable
	case errors.Is(err, ErrNotFound):
		return models.ErrorKindNotFound
	}
	return models.ErrorKindInternal
}

// NewErrorResult renders err as "Failed to <action>: <err>".
func NewErrorResult(action string, err error) *models.ErrorResult {
	return &models.ErrorResult{
		Error: fmt.Sprintf("Failed to %s: %v", action, err),
		Kind:  KindOf(err),
	}
}
