// Package versionoverride supplies connector version overrides declared in configuration.
package versionoverride

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "VersionOverrideProvider"

type override struct {
	actorType    model.ActorType
	definitionID uuid.UUID
	workspaces   map[uuid.UUID]struct{}
	actors       map[uuid.UUID]struct{}
	versionID    uuid.UUID
	constraint   *semver.Constraints
}

// applies reports whether o targets the definition and the default version's tag satisfies its constraint.
func (o override) applies(actorType model.ActorType, definitionID uuid.UUID, defaultVersion model.ActorDefinitionVersion) bool {
	if o.actorType != actorType || o.definitionID != definitionID {
		return false
	}
	if o.constraint == nil {
		return true
	}
	tag, err := semver.NewVersion(defaultVersion.DockerImageTag)
	if err != nil {
		logger.Debugf("%s: default tag %q is not a semantic version; constrained override %s skipped.",
			moduleName, defaultVersion.DockerImageTag, o.versionID)
		return false
	}
	return o.constraint.Check(tag)
}

// Provider is a port.DefinitionVersionOverrideProvider over the `version_overrides`
// configuration. An entry listing the actor wins over an entry listing only its workspace;
// among entries of the same scope the first declared wins.
type Provider struct {
	overrides []override
	repo      repository.ActorDefinitionRepository
}

var _ port.DefinitionVersionOverrideProvider = (*Provider)(nil)

// NewProvider parses the configured overrides.
func NewProvider(cfg *config.Config, repo repository.ActorDefinitionRepository) (*Provider, error) {
	p := &Provider{repo: repo}
	for i, oc := range cfg.Syncwave.VersionOverrides {
		o, err := parseOverride(oc)
		if err != nil {
			return nil, exception.NewConfigError(moduleName, fmt.Sprintf("invalid version_overrides[%d]", i), err)
		}
		p.overrides = append(p.overrides, o)
	}
	logger.Debugf("%s: loaded %d version overrides.", moduleName, len(p.overrides))
	return p, nil
}

func parseOverride(oc config.VersionOverrideConfig) (override, error) {
	o := override{
		actorType:  model.ActorType(oc.ActorType),
		workspaces: make(map[uuid.UUID]struct{}),
		actors:     make(map[uuid.UUID]struct{}),
	}
	if o.actorType != model.ActorTypeSource && o.actorType != model.ActorTypeDestination {
		return o, fmt.Errorf("actor_type must be source or destination, got %q", oc.ActorType)
	}
	var err error
	if o.definitionID, err = uuid.Parse(oc.DefinitionID); err != nil {
		return o, fmt.Errorf("definition_id: %w", err)
	}
	if o.versionID, err = uuid.Parse(oc.VersionID); err != nil {
		return o, fmt.Errorf("version_id: %w", err)
	}
	for _, s := range oc.WorkspaceIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return o, fmt.Errorf("workspace_ids: %w", err)
		}
		o.workspaces[id] = struct{}{}
	}
	for _, s := range oc.ActorIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return o, fmt.Errorf("actor_ids: %w", err)
		}
		o.actors[id] = struct{}{}
	}
	if len(o.workspaces) == 0 && len(o.actors) == 0 {
		return o, errors.New("at least one of workspace_ids or actor_ids is required")
	}
	if oc.DefaultVersionConstraint != "" {
		if o.constraint, err = semver.NewConstraint(oc.DefaultVersionConstraint); err != nil {
			return o, fmt.Errorf("default_version_constraint: %w", err)
		}
	}
	return o, nil
}

// GetOverride returns the overriding version, or nil when no entry applies.
func (p *Provider) GetOverride(
	ctx context.Context,
	actorType model.ActorType,
	definitionID uuid.UUID,
	workspaceID uuid.UUID,
	actorID *uuid.UUID,
	defaultVersion model.ActorDefinitionVersion,
) (*model.ActorDefinitionVersion, error) {
	match := p.match(actorType, definitionID, workspaceID, actorID, defaultVersion)
	if match == nil {
		return nil, nil
	}
	if match.versionID == defaultVersion.VersionID {
		return nil, nil
	}

	v, err := p.repo.GetActorDefinitionVersion(ctx, match.versionID)
	if err != nil {
		if errors.Is(err, repository.ErrVersionNotFound) {
			return nil, exception.NewNotFoundError(moduleName, fmt.Sprintf("override version %s not found", match.versionID), err)
		}
		return nil, exception.New(exception.InternalError, moduleName, fmt.Sprintf("failed to load override version %s", match.versionID), err)
	}
	logger.Infof("%s: %s definition %s in workspace %s pinned to %s.", moduleName, actorType, definitionID, workspaceID, v.DockerImageName())
	return v, nil
}

func (p *Provider) match(
	actorType model.ActorType,
	definitionID uuid.UUID,
	workspaceID uuid.UUID,
	actorID *uuid.UUID,
	defaultVersion model.ActorDefinitionVersion,
) *override {
	var workspaceMatch *override
	for i := range p.overrides {
		o := &p.overrides[i]
		if !o.applies(actorType, definitionID, defaultVersion) {
			continue
		}
		if actorID != nil {
			if _, ok := o.actors[*actorID]; ok {
				return o
			}
		}
		if _, ok := o.workspaces[workspaceID]; ok && workspaceMatch == nil {
			workspaceMatch = o
		}
	}
	return workspaceMatch
}
