package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

// ActorDefinitionRepository reads connector definitions, actors and versions through gorm.
type ActorDefinitionRepository struct {
	db *gorm.DB
}

// NewActorDefinitionRepository creates an ActorDefinitionRepository over db.
func NewActorDefinitionRepository(db *gorm.DB) *ActorDefinitionRepository {
	return &ActorDefinitionRepository{db: db}
}

func (r *ActorDefinitionRepository) GetActorDefinition(ctx context.Context, id uuid.UUID) (*model.ActorDefinition, error) {
	const op = "SQLActorDefinitionRepository.GetActorDefinition"
	var e ActorDefinitionEntity
	if err := r.take(ctx, &e, id, repository.ErrDefinitionNotFound); err != nil {
		return nil, err
	}
	def, err := e.toDomain()
	if err != nil {
		return nil, exception.New(exception.InternalError, op, fmt.Sprintf("corrupt definition row %s", id), err)
	}
	return def, nil
}

func (r *ActorDefinitionRepository) GetActor(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	const op = "SQLActorDefinitionRepository.GetActor"
	var e ActorEntity
	if err := r.take(ctx, &e, id, repository.ErrActorNotFound); err != nil {
		return nil, err
	}
	actor, err := e.toDomain()
	if err != nil {
		return nil, exception.New(exception.InternalError, op, fmt.Sprintf("corrupt actor row %s", id), err)
	}
	return actor, nil
}

func (r *ActorDefinitionRepository) GetActorDefinitionVersion(ctx context.Context, id uuid.UUID) (*model.ActorDefinitionVersion, error) {
	const op = "SQLActorDefinitionRepository.GetActorDefinitionVersion"
	var e ActorDefinitionVersionEntity
	if err := r.take(ctx, &e, id, repository.ErrVersionNotFound); err != nil {
		return nil, err
	}
	v, err := e.toDomain()
	if err != nil {
		return nil, exception.New(exception.InternalError, op, fmt.Sprintf("corrupt version row %s", id), err)
	}
	return v, nil
}

func (r *ActorDefinitionRepository) take(ctx context.Context, dest interface{}, id uuid.UUID, notFound error) error {
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", id, notFound)
	}
	return err
}

// SaveActorDefinition upserts a definition.
func (r *ActorDefinitionRepository) SaveActorDefinition(ctx context.Context, def model.ActorDefinition) error {
	e := fromDomainActorDefinition(def)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error
}

// SaveActor upserts an actor.
func (r *ActorDefinitionRepository) SaveActor(ctx context.Context, actor model.Actor) error {
	e := fromDomainActor(actor)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error
}

// SaveActorDefinitionVersion upserts a version.
func (r *ActorDefinitionRepository) SaveActorDefinitionVersion(ctx context.Context, v model.ActorDefinitionVersion) error {
	e := fromDomainVersion(v)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error
}

var _ repository.ActorDefinitionRepository = (*ActorDefinitionRepository)(nil)
