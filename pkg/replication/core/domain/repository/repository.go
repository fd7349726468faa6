// Package repository declares the persistence contracts of the replication core.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

var (
	// ErrActorNotFound is returned when an actor id is unknown.
	ErrActorNotFound = errors.New("actor not found")
	// ErrVersionNotFound is returned when an actor definition version id is unknown.
	ErrVersionNotFound = errors.New("actor definition version not found")
	// ErrDefinitionNotFound is returned when an actor definition id is unknown.
	ErrDefinitionNotFound = errors.New("actor definition not found")
)

// JobStatusStore records the lifecycle of job runs.
//
// Write only moves a key forward in the order
// NOT_STARTED < INITIALIZING < RUNNING < {SUCCEEDED, FAILED}. Writing the current
// status again is a no-op; any other non-forward write returns an error wrapping
// model.ErrInvalidStatusTransition and leaves the stored status unchanged.
// Read returns NOT_STARTED for keys that were never written.
type JobStatusStore interface {
	Write(ctx context.Context, key model.JobRunKey, status model.JobStatus) error
	Read(ctx context.Context, key model.JobRunKey) (model.JobStatus, error)
}

// ActorDefinitionRepository loads connector definitions, actors and versions.
type ActorDefinitionRepository interface {
	GetActorDefinition(ctx context.Context, definitionID uuid.UUID) (*model.ActorDefinition, error)
	GetActor(ctx context.Context, actorID uuid.UUID) (*model.Actor, error)
	GetActorDefinitionVersion(ctx context.Context, versionID uuid.UUID) (*model.ActorDefinitionVersion, error)
}
