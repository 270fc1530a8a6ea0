package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"planningpoker/internal/cache"
	cachemocks "planningpoker/internal/cache/mocks"
	"planningpoker/internal/logger"
	"planningpoker/internal/model"
	"planningpoker/internal/repository"
	"planningpoker/internal/repository/memory"
	"planningpoker/internal/repository/mocks"
	"planningpoker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = &model.Player{ID: "oid-alice", PlayerID: "alice", SessionID: "s-alice", Name: "Alice"}
	bob   = &model.Player{ID: "oid-bob", PlayerID: "bob", SessionID: "s-bob", Name: "Bob"}
	carol = &model.Player{ID: "oid-carol", PlayerID: "carol", SessionID: "s-carol", Name: "Carol"}
)

type roomFixture struct {
	svc     *service.RoomService
	rooms   *memory.RoomRepo
	players *memory.PlayerRepo
	bc      *recordingBroadcaster
}

func newRoomFixture() *roomFixture {
	f := &roomFixture{
		rooms:   memory.NewRoomRepo(),
		players: memory.NewPlayerRepo(alice, bob, carol),
		bc:      &recordingBroadcaster{},
	}
	f.svc = service.NewRoomService(f.rooms, f.players, cache.NewNopRoomCache(), logger.Nop())
	f.svc.SetBroadcaster(f.bc)
	return f
}

func (f *roomFixture) create(t *testing.T, name string, req model.CreateRoomRequest) string {
	t.Helper()
	req.RoomID = name
	id, err := f.svc.CreateRoom(context.Background(), alice, req)
	require.NoError(t, err)
	return id
}

func TestCreateRoom_ThenGet(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	id := f.create(t, "Sprint 12", model.CreateRoomRequest{VoteSystem: "fibonacci"})
	assert.Equal(t, "sprint-12", id)

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 12", room.PrettyName)
	assert.Equal(t, "sprint-12", room.RoomID)
	assert.Equal(t, "fibonacci", room.VoteSystem)
	assert.False(t, room.IsLocked)
	assert.False(t, room.IsRevealed)
	assert.Empty(t, room.CurrentStoryURL)

	require.Len(t, room.Participants, 1)
	admin := room.Participant(alice.ID)
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsAllowedVote)
	assert.Empty(t, admin.Vote)
	assert.Equal(t, []string{alice.ID}, room.ParticipantOrder)
}

func TestCreateRoom_CollisionGetsSuffix(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	first := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	second := f.create(t, "Sprint 12", model.CreateRoomRequest{})

	assert.Equal(t, "sprint-12", first)
	assert.Regexp(t, regexp.MustCompile(`^sprint-12-\d{4}$`), second)
	assert.NotEqual(t, first, second)

	for _, id := range []string{first, second} {
		room, err := f.svc.GetRoom(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Sprint 12", room.PrettyName)
	}
}

func TestCreateRoom_StoresSettingsAndDefaultVoteSystem(t *testing.T) {
	f := newRoomFixture()

	id := f.create(t, "Retro", model.CreateRoomRequest{PlayerReveal: true, PlayerAddTicket: true})
	room, err := f.svc.GetRoom(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, service.DefaultVoteSystem, room.VoteSystem)
	assert.Equal(t, model.RoomSettings{PlayerReveal: true, PlayerAddTicket: true}, room.Settings)
}

func TestCreateRoom_NoCreator(t *testing.T) {
	f := newRoomFixture()

	_, err := f.svc.CreateRoom(context.Background(), nil, model.CreateRoomRequest{RoomID: "Sprint 12"})

	assert.ErrorIs(t, err, service.ErrCreatorNotFound)
	assert.Zero(t, f.rooms.Len())
}

func TestCreateRoom_InvalidName(t *testing.T) {
	f := newRoomFixture()

	_, err := f.svc.CreateRoom(context.Background(), alice, model.CreateRoomRequest{RoomID: "  ?!  "})

	assert.ErrorIs(t, err, service.ErrInvalidRoomName)
}

func TestCreateRoom_ConflictAfterRetries(t *testing.T) {
	roomRepo := new(mocks.RoomRepo)
	roomCache := new(cachemocks.RoomCache)
	svc := service.NewRoomService(roomRepo, memory.NewPlayerRepo(alice), roomCache, logger.Nop())

	roomRepo.On("Insert", mock.Anything, mock.AnythingOfType("*model.Room")).
		Return(repository.ErrDuplicateRoomID)

	_, err := svc.CreateRoom(context.Background(), alice, model.CreateRoomRequest{RoomID: "Busy"})

	assert.ErrorIs(t, err, service.ErrRoomIDConflict)
	roomRepo.AssertNumberOfCalls(t, "Insert", 5)
	roomCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestCreateRoom_StorageError(t *testing.T) {
	roomRepo := new(mocks.RoomRepo)
	svc := service.NewRoomService(roomRepo, memory.NewPlayerRepo(alice), cache.NewNopRoomCache(), logger.Nop())
	boom := errors.New("connection reset")

	roomRepo.On("Insert", mock.Anything, mock.Anything).Return(boom).Once()

	_, err := svc.CreateRoom(context.Background(), alice, model.CreateRoomRequest{RoomID: "Sprint"})

	assert.ErrorIs(t, err, boom)
	roomRepo.AssertExpectations(t)
}

func TestGetRoom_NotFound(t *testing.T) {
	f := newRoomFixture()

	_, err := f.svc.GetRoom(context.Background(), "nope")

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestGetRoom_ServedFromCache(t *testing.T) {
	roomRepo := new(mocks.RoomRepo)
	roomCache := new(cachemocks.RoomCache)
	svc := service.NewRoomService(roomRepo, memory.NewPlayerRepo(), roomCache, logger.Nop())
	cached := model.NewRoom("cached", "Cached", "fibonacci", model.RoomSettings{}, alice.ID, fixedNow)

	roomCache.On("Get", mock.Anything, "cached").Return(cached, nil).Once()

	room, err := svc.GetRoom(context.Background(), "cached")

	require.NoError(t, err)
	assert.Same(t, cached, room)
	roomRepo.AssertNotCalled(t, "GetByRoomID", mock.Anything, mock.Anything)
}

func TestGetRoom_CacheMissFillsCache(t *testing.T) {
	roomRepo := new(mocks.RoomRepo)
	roomCache := new(cachemocks.RoomCache)
	svc := service.NewRoomService(roomRepo, memory.NewPlayerRepo(), roomCache, logger.Nop())
	stored := model.NewRoom("stored", "Stored", "fibonacci", model.RoomSettings{}, alice.ID, fixedNow)

	roomCache.On("Get", mock.Anything, "stored").Return(nil, nil).Once()
	roomRepo.On("GetByRoomID", mock.Anything, "stored").Return(stored, nil).Once()
	roomCache.On("Set", mock.Anything, stored).Return(nil).Once()

	room, err := svc.GetRoom(context.Background(), "stored")

	require.NoError(t, err)
	assert.Equal(t, "Stored", room.PrettyName)
	roomRepo.AssertExpectations(t)
	roomCache.AssertExpectations(t)
}

func TestAddParticipant_Idempotent(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})

	out, err := f.svc.AddParticipant(ctx, nil, id, bob.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	out, err = f.svc.AddParticipant(ctx, nil, id, bob.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeUnchanged, out)

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.Len(t, room.Participants, 2)
	assert.Equal(t, []string{alice.ID, bob.ID}, room.ParticipantOrder)

	p := room.Participant(bob.ID)
	require.NotNil(t, p)
	assert.Empty(t, p.Vote)
	assert.False(t, p.IsAdmin)
	assert.True(t, p.IsAllowedVote)
}

func TestAddParticipant_MissingRoomOrPlayer(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	before, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)

	out, err := f.svc.AddParticipant(ctx, nil, "missing-room", bob.PlayerID)
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)

	out, err = f.svc.AddParticipant(ctx, nil, id, "missing-player")
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)

	after, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Participants, after.Participants)
	assert.Equal(t, 1, f.rooms.Len())
}

func TestAddParticipant_LockedRoom(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.AddParticipant(ctx, nil, id, bob.PlayerID)
	require.NoError(t, err)

	_, err = f.svc.UpdateLock(ctx, alice, id, true)
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(ctx, carol, id, carol.PlayerID)
	assert.ErrorIs(t, err, service.ErrRoomLocked)

	// existing members stay idempotent
	out, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeUnchanged, out)
}

func TestAddParticipant_OthersNeedAdmin(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(ctx, bob, id, carol.PlayerID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	out, err := f.svc.AddParticipant(ctx, alice, id, carol.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)
}

func TestUpdateFlags_ObservableViaGet(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})

	out, err := f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	out, err = f.svc.UpdateLock(ctx, alice, id, true)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	out, err = f.svc.UpdateCurrentStoryURL(ctx, alice, id, "https://tracker.example/PROJ-42")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.True(t, room.IsRevealed)
	assert.True(t, room.IsLocked)
	assert.Equal(t, "https://tracker.example/PROJ-42", room.CurrentStoryURL)

	// revealing an already revealed room is allowed
	out, err = f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	assert.Len(t, f.bc.updated, 4)
}

func TestUpdateFlags_MissingRoom(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	out, err := f.svc.UpdateLock(ctx, nil, "ghost", true)
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)

	out, err = f.svc.UpdateReveal(ctx, alice, "ghost", true)
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)

	out, err = f.svc.UpdateCurrentStoryURL(ctx, nil, "ghost", "x")
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)

	assert.Empty(t, f.bc.updated)
}

func TestUpdateFlags_Permissions(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	strict := f.create(t, "Strict", model.CreateRoomRequest{})
	open := f.create(t, "Open", model.CreateRoomRequest{PlayerReveal: true, PlayerAddTicket: true})
	for _, id := range []string{strict, open} {
		_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
		require.NoError(t, err)
	}

	_, err := f.svc.UpdateLock(ctx, bob, open, true)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.UpdateReveal(ctx, bob, strict, true)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.svc.UpdateCurrentStoryURL(ctx, bob, strict, "PROJ-1")
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.UpdateReveal(ctx, bob, open, true)
	assert.NoError(t, err)
	_, err = f.svc.UpdateCurrentStoryURL(ctx, bob, open, "PROJ-1")
	assert.NoError(t, err)

	// outsiders can do nothing
	_, err = f.svc.UpdateReveal(ctx, carol, open, false)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestRemoveRoom(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})

	out, err := f.svc.RemoveRoom(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	_, err = f.svc.GetRoom(ctx, id)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.Equal(t, []string{id}, f.bc.removed)

	out, err = f.svc.RemoveRoom(ctx, alice, id)
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)
}

func TestRemoveRoom_NonAdmin(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)

	_, err = f.svc.RemoveRoom(ctx, bob, id)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.GetRoom(ctx, id)
	assert.NoError(t, err)
}

func TestCreateRoom_PrettyNameStoredVerbatim(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()

	id := f.create(t, "  Sprint 12 ", model.CreateRoomRequest{})
	assert.Equal(t, "sprint-12", id)

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "  Sprint 12 ", room.PrettyName)
}

func TestUpdateReveal_VisibleWhenCacheWriteFails(t *testing.T) {
	f := newRoomFixture()
	rc := newMapRoomCache()
	f.svc = service.NewRoomService(f.rooms, f.players, rc, logger.Nop())
	f.svc.SetBroadcaster(f.bc)
	ctx := context.Background()

	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	require.True(t, rc.has(id))

	rc.setFailing(true)
	out, err := f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)
	assert.False(t, rc.has(id), "mutation should evict the cached room")

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.True(t, room.IsRevealed)
	assert.False(t, rc.has(id))

	rc.setFailing(false)
	_, err = f.svc.UpdateReveal(ctx, alice, id, false)
	require.NoError(t, err)
	room, err = f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.False(t, room.IsRevealed)
	assert.True(t, rc.has(id))
}

func TestCastVote_BlankRejected(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.CastVote(ctx, alice, id, "5")
	require.NoError(t, err)

	for _, vote := range []string{"", "   "} {
		out, err := f.svc.CastVote(ctx, alice, id, vote)
		assert.ErrorIs(t, err, service.ErrInvalidVote, "%q", vote)
		assert.Equal(t, service.OutcomeUnchanged, out)
	}

	room, err := f.svc.GetRoom(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "5", room.Participants[alice.ID].Vote)
}

func TestCastVote_HiddenUntilReveal(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)

	out, err := f.svc.CastVote(ctx, bob, id, "5")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)

	view, err := f.svc.GetRoomView(ctx, id, alice)
	require.NoError(t, err)
	bobView := findView(t, view, bob.ID)
	assert.True(t, bobView.HasVoted)
	assert.Empty(t, bobView.Vote)
	assert.Equal(t, "Bob", bobView.Name)

	own, err := f.svc.GetRoomView(ctx, id, bob)
	require.NoError(t, err)
	assert.Equal(t, "5", findView(t, own, bob.ID).Vote)

	_, err = f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)

	view, err = f.svc.GetRoomView(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "5", findView(t, view, bob.ID).Vote)
}

func TestCastVote_FrozenWhileRevealed(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{PlayerChangeVote: false})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)
	_, err = f.svc.CastVote(ctx, bob, id, "3")
	require.NoError(t, err)
	_, err = f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, bob, id, "8")
	assert.ErrorIs(t, err, service.ErrVoteLocked)

	// same card is a no-op rather than an error
	out, err := f.svc.CastVote(ctx, bob, id, "3")
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeUnchanged, out)

	// admins are not bound by the player setting
	out, err = f.svc.CastVote(ctx, alice, id, "13")
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)
}

func TestCastVote_ChangeAllowed(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{PlayerChangeVote: true})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)
	_, err = f.svc.UpdateReveal(ctx, alice, id, true)
	require.NoError(t, err)

	out, err := f.svc.CastVote(ctx, bob, id, "8")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, out)
}

func TestCastVote_Errors(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})

	_, err := f.svc.CastVote(ctx, nil, id, "5")
	assert.ErrorIs(t, err, service.ErrPlayerNotFound)

	_, err = f.svc.CastVote(ctx, carol, id, "5")
	assert.ErrorIs(t, err, service.ErrNotMember)

	_, err = f.svc.CastVote(ctx, alice, id, "this card is far too long")
	assert.ErrorIs(t, err, service.ErrInvalidVote)

	out, err := f.svc.CastVote(ctx, alice, "ghost", "5")
	assert.NoError(t, err)
	assert.Equal(t, service.OutcomeNotFound, out)
}

func TestCastVote_Observer(t *testing.T) {
	f := newRoomFixture()
	ctx := context.Background()
	id := f.create(t, "Sprint 12", model.CreateRoomRequest{})
	_, err := f.svc.AddParticipant(ctx, bob, id, bob.PlayerID)
	require.NoError(t, err)
	require.NoError(t, f.rooms.Mutate(id, func(r *model.Room) {
		r.Participants[bob.ID].IsAllowedVote = false
	}))

	_, err = f.svc.CastVote(ctx, bob, id, "5")
	assert.ErrorIs(t, err, service.ErrVoteNotAllowed)
}

func findView(t *testing.T, view *model.RoomView, playerID string) model.ParticipantView {
	t.Helper()
	for _, p := range view.Participants {
		if p.PlayerID == playerID {
			return p
		}
	}
	t.Fatalf("participant %s not in view", playerID)
	return model.ParticipantView{}
}
