// Package systemmap owns a tenant's live view of the System Map: the loaded
// dataset, the active filters, the current graph, and the impact edge
// mutations that change it.
package systemmap

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cindral/core/internal/models"
)

// Source reads a tenant's dataset from the compliance backend.
type Source interface {
	Fetch(ctx context.Context, tenantID string) (*models.SystemMapData, error)
}

// ImpactAPI writes impact edges. CreateImpact must behave as create-or-update.
type ImpactAPI interface {
	CreateImpact(ctx context.Context, tenantID string, imp models.Impact) error
	UpdateImpact(ctx context.Context, tenantID string, imp models.Impact) error
	DeleteImpact(ctx context.Context, tenantID, articleID, systemID string) error
}

// Backend is a collaborator that serves both reads and writes.
type Backend interface {
	Source
	ImpactAPI
}

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindNetwork    ErrorKind = "network"
	KindBackend    ErrorKind = "backend"
)

// MutationError is the typed failure of a create, update or delete.
type MutationError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s impact: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Classify maps a collaborator error onto an ErrorKind.
func Classify(err error) ErrorKind {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Kind
	}

	var netErr net.Error
	switch {
	case errors.Is(err, models.ErrInvalid):
		return KindValidation
	case errors.Is(err, models.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &netErr):
		return KindNetwork
	}
	return KindBackend
}

func mutationError(op string, err error) *MutationError {
	var me *MutationError
	if errors.As(err, &me) {
		return me
	}
	return &MutationError{Op: op, Kind: Classify(err), Err: err}
}

func invalid(op, format string, args ...any) *MutationError {
	return &MutationError{
		Op:   op,
		Kind: KindValidation,
		Err:  fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), models.ErrInvalid),
	}
}
