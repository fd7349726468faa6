package version_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/repository"
	"github.com/tigerroll/syncwave/pkg/replication/core/featureflag"
	"github.com/tigerroll/syncwave/pkg/replication/core/version"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) GetActorDefinition(ctx context.Context, id uuid.UUID) (*model.ActorDefinition, error) {
	args := m.Called(ctx, id)
	def, _ := args.Get(0).(*model.ActorDefinition)
	return def, args.Error(1)
}

func (m *mockRepo) GetActor(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Actor)
	return a, args.Error(1)
}

func (m *mockRepo) GetActorDefinitionVersion(ctx context.Context, id uuid.UUID) (*model.ActorDefinitionVersion, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.ActorDefinitionVersion)
	return v, args.Error(1)
}

type mockOverrides struct{ mock.Mock }

func (m *mockOverrides) GetOverride(ctx context.Context, actorType model.ActorType, defID, wsID uuid.UUID, actorID *uuid.UUID, def model.ActorDefinitionVersion) (*model.ActorDefinitionVersion, error) {
	args := m.Called(ctx, actorType, defID, wsID, actorID, def)
	v, _ := args.Get(0).(*model.ActorDefinitionVersion)
	return v, args.Error(1)
}

type fixture struct {
	workspaceID uuid.UUID
	actorID     uuid.UUID
	def         model.ActorDefinition
	defVersion  model.ActorDefinitionVersion
	actVersion  model.ActorDefinitionVersion
	override    model.ActorDefinitionVersion
	repo        *mockRepo
	overrides   *mockOverrides
	flags       *featureflag.StaticClient
}

func newFixture() *fixture {
	f := &fixture{
		workspaceID: uuid.New(),
		actorID:     uuid.New(),
		repo:        new(mockRepo),
		overrides:   new(mockOverrides),
		flags:       featureflag.NewStaticClient(nil),
	}
	defID := uuid.New()
	f.defVersion = model.ActorDefinitionVersion{VersionID: uuid.New(), ActorDefinitionID: defID, DockerRepository: "syncwave/source-pg", DockerImageTag: "1.0.0", ReleaseStage: model.ReleaseStageGenerallyAvailable}
	f.actVersion = model.ActorDefinitionVersion{VersionID: uuid.New(), ActorDefinitionID: defID, DockerRepository: "syncwave/source-pg", DockerImageTag: "0.9.0", ReleaseStage: model.ReleaseStageBeta}
	f.override = model.ActorDefinitionVersion{VersionID: uuid.New(), ActorDefinitionID: defID, DockerRepository: "syncwave/source-pg", DockerImageTag: "1.1.0-rc", ReleaseStage: model.ReleaseStageAlpha}
	f.def = model.ActorDefinition{DefinitionID: defID, ActorType: model.ActorTypeSource, Name: "Postgres", DefaultVersionID: &f.defVersion.VersionID}

	f.repo.On("GetActorDefinitionVersion", mock.Anything, f.defVersion.VersionID).Return(&f.defVersion, nil).Maybe()
	f.repo.On("GetActorDefinitionVersion", mock.Anything, f.actVersion.VersionID).Return(&f.actVersion, nil).Maybe()
	f.repo.On("GetActor", mock.Anything, f.actorID).Return(&model.Actor{
		ActorID: f.actorID, ActorType: model.ActorTypeSource, WorkspaceID: f.workspaceID,
		DefinitionID: defID, DefaultVersionID: &f.actVersion.VersionID,
	}, nil).Maybe()
	return f
}

func (f *fixture) resolver() *version.Resolver {
	return version.NewResolver(f.repo, f.overrides, f.flags)
}

// Precedence: override when present, else actor default when the flag is on and an actor is given, else definition default.
func TestResolvePrecedence(t *testing.T) {
	for _, withOverride := range []bool{false, true} {
		for _, flagOn := range []bool{false, true} {
			for _, withActor := range []bool{false, true} {
				name := fmt.Sprintf("override=%t/flag=%t/actor=%t", withOverride, flagOn, withActor)
				t.Run(name, func(t *testing.T) {
					f := newFixture()
					f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, flagOn)

					var actorID *uuid.UUID
					if withActor {
						actorID = &f.actorID
					}
					var override *model.ActorDefinitionVersion
					if withOverride {
						override = &f.override
					}
					f.overrides.On("GetOverride", mock.Anything, model.ActorTypeSource, f.def.DefinitionID, f.workspaceID, actorID, mock.Anything).
						Return(override, nil)

					res, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, actorID)
					require.NoError(t, err)

					switch {
					case withOverride:
						assert.Equal(t, f.override, res.Version)
					case flagOn && withActor:
						assert.Equal(t, f.actVersion, res.Version)
					default:
						assert.Equal(t, f.defVersion, res.Version)
					}
					assert.Equal(t, withOverride, res.OverrideApplied)
				})
			}
		}
	}
}

func TestOverrideProviderReceivesResolvedDefault(t *testing.T) {
	f := newFixture()
	f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, true)
	f.overrides.On("GetOverride", mock.Anything, model.ActorTypeSource, f.def.DefinitionID, f.workspaceID, &f.actorID, f.actVersion).
		Return(nil, nil).Once()

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, &f.actorID)

	require.NoError(t, err)
	f.overrides.AssertExpectations(t)
}

func TestUnsetDefaultVersionIsConfigError(t *testing.T) {
	f := newFixture()
	f.def.DefaultVersionID = nil

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, nil)

	assert.ErrorIs(t, err, exception.ErrConfig)
	assert.Contains(t, err.Error(), "Default version for source is not set")
	f.overrides.AssertNotCalled(t, "GetOverride")
}

func TestActorWithoutDefaultIsConfigError(t *testing.T) {
	f := newFixture()
	f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, true)
	orphan := uuid.New()
	f.repo.On("GetActor", mock.Anything, orphan).Return(&model.Actor{ActorID: orphan}, nil)

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, &orphan)

	assert.ErrorIs(t, err, exception.ErrConfig)
}

func TestMissingVersionIsNotFound(t *testing.T) {
	f := newFixture()
	missing := uuid.New()
	f.def.DefaultVersionID = &missing
	f.repo.On("GetActorDefinitionVersion", mock.Anything, missing).Return(nil, repository.ErrVersionNotFound)

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, nil)

	assert.ErrorIs(t, err, exception.ErrNotFound)
	assert.ErrorIs(t, err, repository.ErrVersionNotFound)
}

func TestUnknownActorIsNotFound(t *testing.T) {
	f := newFixture()
	f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, true)
	ghost := uuid.New()
	f.repo.On("GetActor", mock.Anything, ghost).Return(nil, fmt.Errorf("lookup: %w", repository.ErrActorNotFound))

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, &ghost)

	assert.ErrorIs(t, err, exception.ErrNotFound)
}

func TestOverrideFailureIsSurfaced(t *testing.T) {
	f := newFixture()
	f.overrides.On("GetOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("override store down"))

	_, err := f.resolver().ResolveSourceVersion(context.Background(), f.def, f.workspaceID, nil)

	assert.Error(t, err)
	assert.True(t, exception.IsFatal(err))
}

func TestWrongActorTypeIsRejected(t *testing.T) {
	f := newFixture()

	_, err := f.resolver().ResolveDestinationVersion(context.Background(), f.def, f.workspaceID, nil)

	assert.ErrorIs(t, err, exception.ErrConfig)
}

func TestSourceOrDestinationIsAlphaOrBeta(t *testing.T) {
	f := newFixture()
	f.overrides.On("GetOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	dstVersion := model.ActorDefinitionVersion{VersionID: uuid.New(), ReleaseStage: model.ReleaseStageGenerallyAvailable}
	dstDef := model.ActorDefinition{DefinitionID: uuid.New(), ActorType: model.ActorTypeDestination, DefaultVersionID: &dstVersion.VersionID}
	f.repo.On("GetActorDefinitionVersion", mock.Anything, dstVersion.VersionID).Return(&dstVersion, nil)

	f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, false)
	pre, err := f.resolver().SourceOrDestinationIsAlphaOrBeta(context.Background(), f.def, dstDef, f.workspaceID, f.actorID, uuid.New())
	require.NoError(t, err)
	assert.False(t, pre)

	f.flags.Set(featureflag.UseActorScopedDefaultVersions.Key, true)
	f.repo.On("GetActor", mock.Anything, mock.Anything).Return(&model.Actor{DefaultVersionID: &dstVersion.VersionID}, nil)
	pre, err = f.resolver().SourceOrDestinationIsAlphaOrBeta(context.Background(), f.def, dstDef, f.workspaceID, f.actorID, uuid.New())
	require.NoError(t, err)
	assert.True(t, pre)
}

func TestHasAlphaOrBetaVersion(t *testing.T) {
	ga := model.ActorDefinitionVersion{ReleaseStage: model.ReleaseStageGenerallyAvailable}
	custom := model.ActorDefinitionVersion{ReleaseStage: model.ReleaseStageCustom}
	beta := model.ActorDefinitionVersion{ReleaseStage: model.ReleaseStageBeta}
	alpha := model.ActorDefinitionVersion{ReleaseStage: model.ReleaseStageAlpha}

	assert.False(t, version.HasAlphaOrBetaVersion(nil))
	assert.False(t, version.HasAlphaOrBetaVersion([]model.ActorDefinitionVersion{ga, custom}))
	assert.True(t, version.HasAlphaOrBetaVersion([]model.ActorDefinitionVersion{ga, beta}))
	assert.True(t, version.HasAlphaOrBetaVersion([]model.ActorDefinitionVersion{alpha}))
	assert.Equal(t, "syncwave/source-pg:1.0.0", version.DockerImageName(newFixture().defVersion))
}
