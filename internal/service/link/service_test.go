package link

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/MC-Whitelist-bot/internal/domain"
	"github.com/park285/MC-Whitelist-bot/internal/mojang"
	"github.com/park285/MC-Whitelist-bot/internal/rcon"
	"github.com/park285/MC-Whitelist-bot/internal/whitelist"
	"github.com/park285/MC-Whitelist-bot/pkg/linkdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fleetCall struct {
	action rcon.Action
	name   string
}

// fakeFleet returns scripted results in order; once the script runs out
// every call succeeds.
type fakeFleet struct {
	results []whitelist.Result
	calls   []fleetCall
}

func (f *fakeFleet) Apply(ctx context.Context, action rcon.Action, name string) whitelist.Result {
	f.calls = append(f.calls, fleetCall{action: action, name: name})
	if len(f.results) == 0 {
		return whitelist.Result{Status: whitelist.FleetAllSucceeded}
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res
}

type fakeResolver struct {
	profiles map[string]mojang.Profile
	history  map[string][]mojang.NameChange

	profileErr error
	historyErr error

	profileCalls int
	historyCalls int
}

func (f *fakeResolver) ProfileByName(ctx context.Context, name string) (*mojang.Profile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p, ok := f.profiles[name]
	if !ok {
		return nil, mojang.ErrNotFound
	}
	return &p, nil
}

func (f *fakeResolver) NameHistory(ctx context.Context, uuid string) ([]mojang.NameChange, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	h, ok := f.history[uuid]
	if !ok {
		return nil, mojang.ErrNotFound
	}
	return h, nil
}

func newTestService(t *testing.T, fleet *fakeFleet, resolver *fakeResolver) (*Service, Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	svc, err := NewService(repo, fleet, resolver, nil)
	require.NoError(t, err)
	return svc, repo
}

func steveResolver() *fakeResolver {
	return &fakeResolver{
		profiles: map[string]mojang.Profile{
			"Steve": {ID: "abc", Name: "Steve"},
		},
	}
}

func mustInsert(t *testing.T, repo Repository, account *domain.Account) {
	t.Helper()
	require.NoError(t, repo.Insert(context.Background(), account))
}

func TestLinkSuccessPersistsAndWhitelists(t *testing.T) {
	fleet := &fakeFleet{}
	svc, repo := newTestService(t, fleet, steveResolver())

	res := svc.Link(context.Background(), 42, "Steve")
	require.Equal(t, linkdto.CodeLinked, res.Code)
	assert.Equal(t, "Steve", res.MinecraftName)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint64(42), stored.ChatID)
	assert.Equal(t, "abc", stored.MinecraftUUID)
	assert.Equal(t, "Steve", stored.MinecraftName)
	assert.False(t, stored.LinkedAt.IsZero())

	require.Len(t, fleet.calls, 1)
	assert.Equal(t, rcon.ActionAdd, fleet.calls[0].action)
	assert.Equal(t, "Steve", fleet.calls[0].name)
}

func TestLinkUnknownName(t *testing.T) {
	fleet := &fakeFleet{}
	svc, repo := newTestService(t, fleet, steveResolver())

	res := svc.Link(context.Background(), 42, "Nobody123")
	assert.Equal(t, linkdto.CodeNameNotFound, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored, "no row may be created for an unresolvable name")
	assert.Empty(t, fleet.calls, "fleet must not be touched")
}

func TestLinkInvalidNameSkipsResolver(t *testing.T) {
	resolver := steveResolver()
	svc, _ := newTestService(t, &fakeFleet{}, resolver)

	for _, bad := range []string{"", "ab", "this_name_is_way_too_long", "bad name", "bad-name"} {
		res := svc.Link(context.Background(), 42, bad)
		assert.Equal(t, linkdto.CodeNameNotFound, res.Code, "name %q", bad)
	}
	assert.Zero(t, resolver.profileCalls)
}

func TestLinkChatAlreadyLinkedLeavesRowUntouched(t *testing.T) {
	resolver := steveResolver()
	resolver.profiles["Alex"] = mojang.Profile{ID: "def", Name: "Alex"}
	fleet := &fakeFleet{}
	svc, repo := newTestService(t, fleet, resolver)

	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Steve"})

	res := svc.Link(context.Background(), 42, "Alex")
	assert.Equal(t, linkdto.CodeChatAlreadyLinked, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Steve", stored.MinecraftName, "existing link must survive")
	assert.Empty(t, fleet.calls)
}

func TestLinkIdentityClaimedByAnotherUser(t *testing.T) {
	fleet := &fakeFleet{}
	svc, repo := newTestService(t, fleet, steveResolver())

	mustInsert(t, repo, &domain.Account{ChatID: 7, MinecraftUUID: "abc", MinecraftName: "Steve"})

	res := svc.Link(context.Background(), 42, "Steve")
	assert.Equal(t, linkdto.CodeIdentityClaimed, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, fleet.calls)
}

func TestLinkFleetFailureRollsBackRow(t *testing.T) {
	for _, status := range []whitelist.Status{whitelist.FleetPartialFailure, whitelist.FleetPlayerUnknown} {
		fleet := &fakeFleet{results: []whitelist.Result{{Status: status, ServerIndex: 1, Err: errors.New("down")}}}
		svc, repo := newTestService(t, fleet, steveResolver())

		res := svc.Link(context.Background(), 42, "Steve")
		assert.Equal(t, linkdto.CodeFleetUnavailable, res.Code, "status %s", status)

		stored, err := repo.GetByChatID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, stored, "compensation must remove the row after %s", status)
	}
}

func TestLinkResolverOutage(t *testing.T) {
	resolver := &fakeResolver{profileErr: errors.New("upstream timeout")}
	svc, repo := newTestService(t, &fakeFleet{}, resolver)

	res := svc.Link(context.Background(), 42, "Steve")
	assert.Equal(t, linkdto.CodeSystemError, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUnlinkNeverLinkedMakesNoNetworkCalls(t *testing.T) {
	fleet := &fakeFleet{}
	resolver := steveResolver()
	svc, _ := newTestService(t, fleet, resolver)

	res := svc.Unlink(context.Background(), 42)
	assert.Equal(t, linkdto.CodeNeverLinked, res.Code)
	assert.Empty(t, fleet.calls)
	assert.Zero(t, resolver.profileCalls)
	assert.Zero(t, resolver.historyCalls)
}

func TestUnlinkSuccessDeletesRow(t *testing.T) {
	fleet := &fakeFleet{}
	svc, repo := newTestService(t, fleet, steveResolver())
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Steve"})

	res := svc.Unlink(context.Background(), 42)
	require.Equal(t, linkdto.CodeUnlinked, res.Code)
	assert.Equal(t, "Steve", res.MinecraftName)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.Len(t, fleet.calls, 1)
	assert.Equal(t, rcon.ActionRemove, fleet.calls[0].action)
}

func TestUnlinkPartialFailureKeepsRow(t *testing.T) {
	fleet := &fakeFleet{results: []whitelist.Result{
		{Status: whitelist.FleetPartialFailure, ServerIndex: 2, Err: errors.New("down")},
	}}
	svc, repo := newTestService(t, fleet, steveResolver())
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Steve"})

	res := svc.Unlink(context.Background(), 42)
	assert.Equal(t, linkdto.CodeUnlinkIncomplete, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored, "row must survive an unconfirmed removal")
}

func TestUnlinkStaleNameRecovery(t *testing.T) {
	fleet := &fakeFleet{results: []whitelist.Result{
		{Status: whitelist.FleetPlayerUnknown, ServerIndex: 0},
		{Status: whitelist.FleetAllSucceeded},
	}}
	resolver := &fakeResolver{
		profiles: map[string]mojang.Profile{
			"Newname": {ID: "abc", Name: "Newname"},
		},
		history: map[string][]mojang.NameChange{
			"abc": {
				{Name: "Oldname"},
				{Name: "Midname", ChangedToAt: 1_500_000_000_000},
				{Name: "Newname", ChangedToAt: 1_600_000_000_000},
			},
		},
	}
	svc, repo := newTestService(t, fleet, resolver)
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Oldname"})

	res := svc.Unlink(context.Background(), 42)
	require.Equal(t, linkdto.CodeUnlinked, res.Code)
	assert.Equal(t, "Newname", res.MinecraftName)

	require.Len(t, fleet.calls, 2)
	assert.Equal(t, "Oldname", fleet.calls[0].name)
	assert.Equal(t, "Newname", fleet.calls[1].name, "retry must use the recovered name")

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUnlinkRecoverySecondMissIsTerminal(t *testing.T) {
	fleet := &fakeFleet{results: []whitelist.Result{
		{Status: whitelist.FleetPlayerUnknown, ServerIndex: 0},
		{Status: whitelist.FleetPlayerUnknown, ServerIndex: 1},
	}}
	resolver := &fakeResolver{
		profiles: map[string]mojang.Profile{
			"Newname": {ID: "abc", Name: "Newname"},
		},
		history: map[string][]mojang.NameChange{
			"abc": {{Name: "Oldname"}, {Name: "Newname", ChangedToAt: 1}},
		},
	}
	svc, repo := newTestService(t, fleet, resolver)
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Oldname"})

	res := svc.Unlink(context.Background(), 42)
	assert.Equal(t, linkdto.CodeUnlinkIncomplete, res.Code)
	assert.Len(t, fleet.calls, 2, "recovery retries the fleet exactly once")

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestUnlinkRecoveryWithoutHistory(t *testing.T) {
	fleet := &fakeFleet{results: []whitelist.Result{
		{Status: whitelist.FleetPlayerUnknown, ServerIndex: 0},
	}}
	resolver := &fakeResolver{historyErr: mojang.ErrNotFound}
	svc, repo := newTestService(t, fleet, resolver)
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Oldname"})

	res := svc.Unlink(context.Background(), 42)
	assert.Equal(t, linkdto.CodeNameUnresolvable, res.Code)
	assert.Len(t, fleet.calls, 1)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored, "row must survive an unresolvable identity")
}

func TestUnlinkRecoveryNameNoLongerResolves(t *testing.T) {
	fleet := &fakeFleet{results: []whitelist.Result{
		{Status: whitelist.FleetPlayerUnknown, ServerIndex: 0},
	}}
	resolver := &fakeResolver{
		profiles: map[string]mojang.Profile{},
		history: map[string][]mojang.NameChange{
			"abc": {{Name: "Oldname"}, {Name: "Newname", ChangedToAt: 1}},
		},
	}
	svc, repo := newTestService(t, fleet, resolver)
	mustInsert(t, repo, &domain.Account{ChatID: 42, MinecraftUUID: "abc", MinecraftName: "Oldname"})

	res := svc.Unlink(context.Background(), 42)
	assert.Equal(t, linkdto.CodeNameUnresolvable, res.Code)

	stored, err := repo.GetByChatID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestNewServiceValidation(t *testing.T) {
	repo := NewMemoryRepository()
	fleet := &fakeFleet{}
	resolver := steveResolver()

	_, err := NewService(nil, fleet, resolver, nil)
	assert.Error(t, err)
	_, err = NewService(repo, nil, resolver, nil)
	assert.Error(t, err)
	_, err = NewService(repo, fleet, nil, nil)
	assert.Error(t, err)
	svc, err := NewService(repo, fleet, resolver, nil)
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}
