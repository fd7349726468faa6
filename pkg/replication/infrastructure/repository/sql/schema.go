package sql

import (
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
)

// JobStatusEntity is the persisted status of one job run. Version guards concurrent updates.
type JobStatusEntity struct {
	JobID     string    `gorm:"column:job_id;primaryKey;size:255"`
	AttemptID int       `gorm:"column:attempt_id;primaryKey;autoIncrement:false"`
	Status    string    `gorm:"column:status;size:32;not null"`
	Version   int       `gorm:"column:version;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (JobStatusEntity) TableName() string {
	return "replication_job_status"
}

// ActorDefinitionEntity is a persisted connector definition.
type ActorDefinitionEntity struct {
	ID               string  `gorm:"column:id;primaryKey;size:36"`
	ActorType        string  `gorm:"column:actor_type;size:16;not null"`
	Name             string  `gorm:"column:name;size:255"`
	DefaultVersionID *string `gorm:"column:default_version_id;size:36"`
}

func (ActorDefinitionEntity) TableName() string {
	return "actor_definition"
}

// ActorEntity is a persisted source or destination.
type ActorEntity struct {
	ID               string  `gorm:"column:id;primaryKey;size:36"`
	ActorType        string  `gorm:"column:actor_type;size:16;not null"`
	WorkspaceID      string  `gorm:"column:workspace_id;size:36;not null"`
	DefinitionID     string  `gorm:"column:actor_definition_id;size:36;not null"`
	Name             string  `gorm:"column:name;size:255"`
	DefaultVersionID *string `gorm:"column:default_version_id;size:36"`
}

func (ActorEntity) TableName() string {
	return "actor"
}

// ActorDefinitionVersionEntity is a persisted connector version.
type ActorDefinitionVersionEntity struct {
	ID                string `gorm:"column:id;primaryKey;size:36"`
	ActorDefinitionID string `gorm:"column:actor_definition_id;size:36;not null"`
	DockerRepository  string `gorm:"column:docker_repository;size:255;not null"`
	DockerImageTag    string `gorm:"column:docker_image_tag;size:255;not null"`
	ReleaseStage      string `gorm:"column:release_stage;size:32"`
	ProtocolVersion   string `gorm:"column:protocol_version;size:32"`
}

func (ActorDefinitionVersionEntity) TableName() string {
	return "actor_definition_version"
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func formatOptionalUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func (e ActorDefinitionEntity) toDomain() (*model.ActorDefinition, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, err
	}
	dv, err := parseOptionalUUID(e.DefaultVersionID)
	if err != nil {
		return nil, err
	}
	return &model.ActorDefinition{DefinitionID: id, ActorType: model.ActorType(e.ActorType), Name: e.Name, DefaultVersionID: dv}, nil
}

func fromDomainActorDefinition(d model.ActorDefinition) ActorDefinitionEntity {
	return ActorDefinitionEntity{
		ID:               d.DefinitionID.String(),
		ActorType:        string(d.ActorType),
		Name:             d.Name,
		DefaultVersionID: formatOptionalUUID(d.DefaultVersionID),
	}
}

func (e ActorEntity) toDomain() (*model.Actor, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, err
	}
	ws, err := uuid.Parse(e.WorkspaceID)
	if err != nil {
		return nil, err
	}
	def, err := uuid.Parse(e.DefinitionID)
	if err != nil {
		return nil, err
	}
	dv, err := parseOptionalUUID(e.DefaultVersionID)
	if err != nil {
		return nil, err
	}
	return &model.Actor{ActorID: id, ActorType: model.ActorType(e.ActorType), WorkspaceID: ws, DefinitionID: def, Name: e.Name, DefaultVersionID: dv}, nil
}

func fromDomainActor(a model.Actor) ActorEntity {
	return ActorEntity{
		ID:               a.ActorID.String(),
		ActorType:        string(a.ActorType),
		WorkspaceID:      a.WorkspaceID.String(),
		DefinitionID:     a.DefinitionID.String(),
		Name:             a.Name,
		DefaultVersionID: formatOptionalUUID(a.DefaultVersionID),
	}
}

func (e ActorDefinitionVersionEntity) toDomain() (*model.ActorDefinitionVersion, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, err
	}
	def, err := uuid.Parse(e.ActorDefinitionID)
	if err != nil {
		return nil, err
	}
	return &model.ActorDefinitionVersion{
		VersionID:         id,
		ActorDefinitionID: def,
		DockerRepository:  e.DockerRepository,
		DockerImageTag:    e.DockerImageTag,
		ReleaseStage:      model.ReleaseStage(e.ReleaseStage),
		ProtocolVersion:   e.ProtocolVersion,
	}, nil
}

func fromDomainVersion(v model.ActorDefinitionVersion) ActorDefinitionVersionEntity {
	return ActorDefinitionVersionEntity{
		ID:                v.VersionID.String(),
		ActorDefinitionID: v.ActorDefinitionID.String(),
		DockerRepository:  v.DockerRepository,
		DockerImageTag:    v.DockerImageTag,
		ReleaseStage:      string(v.ReleaseStage),
		ProtocolVersion:   v.ProtocolVersion,
	}
}

// AllEntities lists every entity managed by this package, for schema creation in tests and tools.
func AllEntities() []interface{} {
	return []interface{}{&JobStatusEntity{}, &ActorDefinitionEntity{}, &ActorEntity{}, &ActorDefinitionVersionEntity{}}
}
