// Package version resolves the connector version a source or destination runs with.
//
// Resolution order: a version override from the override provider, else the actor's
// own default (when actor-scoped defaults are enabled for the workspace and an
// actor is given), else the definition's default.
package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "VersionResolver"

// Resolution is the outcome of a version resolution.
type Resolution struct {
	Version         model.ActorDefinitionVersion
	OverrideApplied bool
}

// Resolver resolves effective actor definition versions.
type Resolver struct {
	repo      repository.ActorDefinitionRepository
	overrides port.DefinitionVersionOverrideProvider
	flags     featureflag.Client
}

// NewResolver creates a Resolver.
func NewResolver(
	repo repository.ActorDefinitionRepository,
	overrides port.DefinitionVersionOverrideProvider,
	flags featureflag.Client,
) *Resolver {
	return &Resolver{repo: repo, overrides: overrides, flags: flags}
}

// ResolveVersion returns the version def runs with in workspaceID, optionally for a specific actor.
func (r *Resolver) ResolveVersion(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, actorID *uuid.UUID) (Resolution, error) {
	versionID, err := r.defaultVersionID(ctx, def, workspaceID, actorID)
	if err != nil {
		return Resolution{}, err
	}

	defaultVersion, err := r.repo.GetActorDefinitionVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, repository.ErrVersionNotFound) {
			return Resolution{}, exception.NewNotFoundError(moduleName,
				fmt.Sprintf("version %s of %s definition %s not found", versionID, def.ActorType, def.DefinitionID), err)
		}
		return Resolution{}, exception.New(exception.InternalError, moduleName, fmt.Sprintf("failed to load version %s", versionID), err)
	}

	override, err := r.overrides.GetOverride(ctx, def.ActorType, def.DefinitionID, workspaceID, actorID, *defaultVersion)
	if err != nil {
		return Resolution{}, exception.New(exception.InternalError, moduleName,
			fmt.Sprintf("override lookup failed for %s definition %s", def.ActorType, def.DefinitionID), err)
	}
	if override != nil {
		logger.Infof("%s: override %s applied for %s definition %s (workspace %s)",
			moduleName, override.DockerImageName(), def.ActorType, def.DefinitionID, workspaceID)
		return Resolution{Version: *override, OverrideApplied: true}, nil
	}
	return Resolution{Version: *defaultVersion}, nil
}

// defaultVersionID picks the actor-scoped or definition-level default version id.
// An unset id is a ConfigError; it is never defaulted.
func (r *Resolver) defaultVersionID(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, actorID *uuid.UUID) (uuid.UUID, error) {
	var versionID *uuid.UUID
	if actorID != nil && r.flags.BoolVariation(featureflag.UseActorScopedDefaultVersions, featureflag.Workspace(workspaceID)) {
		actor, err := r.repo.GetActor(ctx, *actorID)
		if err != nil {
			if errors.Is(err, repository.ErrActorNotFound) {
				return uuid.Nil, exception.NewNotFoundError(moduleName, fmt.Sprintf("%s %s not found", def.ActorType, *actorID), err)
			}
			return uuid.Nil, exception.New(exception.InternalError, moduleName, fmt.Sprintf("failed to load %s %s", def.ActorType, *actorID), err)
		}
		versionID = actor.DefaultVersionID
	} else {
		versionID = def.DefaultVersionID
	}

	if versionID == nil || *versionID == uuid.Nil {
		return uuid.Nil, exception.NewConfigError(moduleName,
			fmt.Sprintf("Default version for %s is not set (Definition ID: %s, Actor ID: %s)", def.ActorType, def.DefinitionID, actorIDString(actorID)), nil)
	}
	return *versionID, nil
}

// ResolveSourceVersion resolves the version of a source definition.
func (r *Resolver) ResolveSourceVersion(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, sourceID *uuid.UUID) (Resolution, error) {
	if def.ActorType != model.ActorTypeSource {
		return Resolution{}, exception.NewConfigError(moduleName, fmt.Sprintf("definition %s is not a source definition", def.DefinitionID), nil)
	}
	return r.ResolveVersion(ctx, def, workspaceID, sourceID)
}

// ResolveDestinationVersion resolves the version of a destination definition.
func (r *Resolver) ResolveDestinationVersion(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, destinationID *uuid.UUID) (Resolution, error) {
	if def.ActorType != model.ActorTypeDestination {
		return Resolution{}, exception.NewConfigError(moduleName, fmt.Sprintf("definition %s is not a destination definition", def.DefinitionID), nil)
	}
	return r.ResolveVersion(ctx, def, workspaceID, destinationID)
}

// SourceVersion is ResolveSourceVersion without the override flag.
func (r *Resolver) SourceVersion(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, sourceID *uuid.UUID) (model.ActorDefinitionVersion, error) {
	res, err := r.ResolveSourceVersion(ctx, def, workspaceID, sourceID)
	return res.Version, err
}

// DestinationVersion is ResolveDestinationVersion without the override flag.
func (r *Resolver) DestinationVersion(ctx context.Context, def model.ActorDefinition, workspaceID uuid.UUID, destinationID *uuid.UUID) (model.ActorDefinitionVersion, error) {
	res, err := r.ResolveDestinationVersion(ctx, def, workspaceID, destinationID)
	return res.Version, err
}

// SourceOrDestinationIsAlphaOrBeta reports whether either side of a connection
// runs a pre-GA version.
func (r *Resolver) SourceOrDestinationIsAlphaOrBeta(
	ctx context.Context,
	sourceDef, destinationDef model.ActorDefinition,
	workspaceID uuid.UUID,
	sourceID, destinationID uuid.UUID,
) (bool, error) {
	src, err := r.SourceVersion(ctx, sourceDef, workspaceID, &sourceID)
	if err != nil {
		return false, err
	}
	dst, err := r.DestinationVersion(ctx, destinationDef, workspaceID, &destinationID)
	if err != nil {
		return false, err
	}
	return HasAlphaOrBetaVersion([]model.ActorDefinitionVersion{src, dst}), nil
}

// HasAlphaOrBetaVersion reports whether any of versions is in the alpha or beta release stage.
func HasAlphaOrBetaVersion(versions []model.ActorDefinitionVersion) bool {
	for _, v := range versions {
		if v.ReleaseStage == model.ReleaseStageAlpha || v.ReleaseStage == model.ReleaseStageBeta {
			return true
		}
	}
	return false
}

// DockerImageName returns the "repository:tag" image of a version.
func DockerImageName(v model.ActorDefinitionVersion) string {
	return v.DockerImageName()
}

func actorIDString(id *uuid.UUID) string {
	if id == nil {
		return "none"
	}
	return id.String()
}
