package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ActorType distinguishes sources from destinations.
type ActorType string

const (
	ActorTypeSource      ActorType = "source"
	ActorTypeDestination ActorType = "destination"
)

// ReleaseStage is the maturity of a connector version.
type ReleaseStage string

const (
	ReleaseStageAlpha              ReleaseStage = "alpha"
	ReleaseStageBeta               ReleaseStage = "beta"
	ReleaseStageGenerallyAvailable ReleaseStage = "generally_available"
	ReleaseStageCustom             ReleaseStage = "custom"
)

// ActorDefinitionVersion is one published version of a connector.
type ActorDefinitionVersion struct {
	VersionID         uuid.UUID    `json:"versionId"`
	ActorDefinitionID uuid.UUID    `json:"actorDefinitionId"`
	DockerRepository  string       `json:"dockerRepository"`
	DockerImageTag    string       `json:"dockerImageTag"`
	ReleaseStage      ReleaseStage `json:"releaseStage"`
	ProtocolVersion   string       `json:"protocolVersion,omitempty"`
}

// DockerImageName returns "repository:tag".
func (v ActorDefinitionVersion) DockerImageName() string {
	return fmt.Sprintf("%s:%s", v.DockerRepository, v.DockerImageTag)
}

// ActorDefinition is a connector definition (e.g. "Postgres source").
type ActorDefinition struct {
	DefinitionID     uuid.UUID  `json:"definitionId"`
	ActorType        ActorType  `json:"actorType"`
	Name             string     `json:"name"`
	DefaultVersionID *uuid.UUID `json:"defaultVersionId,omitempty"`
}

// Actor is a configured instance of a definition inside a workspace.
type Actor struct {
	ActorID          uuid.UUID  `json:"actorId"`
	ActorType        ActorType  `json:"actorType"`
	WorkspaceID      uuid.UUID  `json:"workspaceId"`
	DefinitionID     uuid.UUID  `json:"definitionId"`
	Name             string     `json:"name"`
	DefaultVersionID *uuid.UUID `json:"defaultVersionId,omitempty"`
}
