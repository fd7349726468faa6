package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
)

// ActorDefinitionRepository is an in-memory repository.ActorDefinitionRepository.
// Stored values are copied on the way in and out.
type ActorDefinitionRepository struct {
	mu          sync.RWMutex
	definitions map[uuid.UUID]model.ActorDefinition
	actors      map[uuid.UUID]model.Actor
	versions    map[uuid.UUID]model.ActorDefinitionVersion
}

// NewActorDefinitionRepository creates an empty repository.
func NewActorDefinitionRepository() *ActorDefinitionRepository {
	return &ActorDefinitionRepository{
		definitions: make(map[uuid.UUID]model.ActorDefinition),
		actors:      make(map[uuid.UUID]model.Actor),
		versions:    make(map[uuid.UUID]model.ActorDefinitionVersion),
	}
}

func (r *ActorDefinitionRepository) SaveActorDefinition(def model.ActorDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.DefinitionID] = def
}

func (r *ActorDefinitionRepository) SaveActor(actor model.Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[actor.ActorID] = actor
}

func (r *ActorDefinitionRepository) SaveActorDefinitionVersion(v model.ActorDefinitionVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[v.VersionID] = v
}

func (r *ActorDefinitionRepository) GetActorDefinition(ctx context.Context, id uuid.UUID) (*model.ActorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[id]
	if !ok {
		return nil, fmt.Errorf("definition %s: %w", id, repository.ErrDefinitionNotFound)
	}
	return &def, nil
}

func (r *ActorDefinitionRepository) GetActor(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.actors[id]
	if !ok {
		return nil, fmt.Errorf("actor %s: %w", id, repository.ErrActorNotFound)
	}
	return &actor, nil
}

func (r *ActorDefinitionRepository) GetActorDefinitionVersion(ctx context.Context, id uuid.UUID) (*model.ActorDefinitionVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, repository.ErrVersionNotFound)
	}
	return &v, nil
}

var _ repository.ActorDefinitionRepository = (*ActorDefinitionRepository)(nil)
