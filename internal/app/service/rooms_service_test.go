package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

type roomsFixture struct {
	p     *fakePlatform
	rooms *fakeRooms
	cfg   *fakeConfig
	svc   *RoomService
}

func newRoomsFixture(t *testing.T) *roomsFixture {
	t.Helper()
	p := newFakePlatform()
	rooms := newFakeRooms()
	cfg := newFakeConfig()

	p.addChannel(Channel{ID: "cat-1", GuildID: "g1", Kind: ChannelCategory})
	p.addChannel(Channel{ID: "src-1", GuildID: "g1", Kind: ChannelVoice, Bitrate: 64000})
	require.NoError(t, cfg.SetSourceConfig(context.Background(), storage.SourceConfig{
		GuildID:         "g1",
		SourceChannelID: "src-1",
		DestCategoryID:  "cat-1",
		RoomType:        "public",
		NameTemplate:    domain.DefaultNameTemplate,
	}))

	return &roomsFixture{
		p:     p,
		rooms: rooms,
		cfg:   cfg,
		svc:   NewRoomService(p, rooms, cfg, NewLimiter(claimRate, claimPer)),
	}
}

// roomFor localiza el record provisionado más reciente del guild.
func (fx *roomsFixture) roomFor(t *testing.T, userID string) storage.RoomRecord {
	t.Helper()
	all, err := fx.rooms.AllByGuild(context.Background(), "g1")
	require.NoError(t, err)
	for _, r := range all {
		if r.OwnerID != nil && *r.OwnerID == userID {
			return r
		}
	}
	t.Fatalf("no hay room de %s", userID)
	return storage.RoomRecord{}
}

func TestProvisionCreatesRoomAndMovesMember(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	rec := fx.roomFor(t, "u1")
	assert.Equal(t, "src-1", rec.SourceChannelID)
	assert.True(t, fx.p.called("move u1 -> "+rec.ChannelID))
	assert.True(t, fx.p.called("panel "+rec.ChannelID))

	ch, err := fx.p.Channel(ctx, rec.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, "u1's Room", ch.Name)
	assert.Equal(t, 64000, ch.Bitrate)
}

func TestProvisionRollsBackWhenMoveFails(t *testing.T) {
	fx := newRoomsFixture(t)
	fx.p.failMove = true
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "el record no sobrevive al rollback")
	assert.True(t, fx.p.called("delete voice-"), "el canal creado se borra")
}

func TestProvisionCreateFailureLeavesNothing(t *testing.T) {
	fx := newRoomsFixture(t)
	fx.p.failCreate = true
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.False(t, fx.p.called("move"))
}

func TestProvisionIgnoresUnknownChannel(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "random-voice", "u1")

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProvisionSkipsWithoutCategoryPerms(t *testing.T) {
	fx := newRoomsFixture(t)
	fx.p.perms["cat-1"] = 0
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.False(t, fx.p.called("create-voice"))
}

func TestProvisionRateLimitWarnsOnce(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	}

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, createRate, "sólo el cupo de la ventana se provisiona")

	var dms int
	for _, c := range fx.p.calls {
		if c == "dm u1" {
			dms++
		}
	}
	assert.Equal(t, 1, dms, "el aviso por DM tiene su propio cupo")
}

func TestServerRoomHasNoOwner(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	src, _, _ := fx.cfg.SourceConfig(ctx, "g1", "src-1")
	src.RoomType = "server"
	require.NoError(t, fx.cfg.SetSourceConfig(ctx, src))

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	all, err := fx.rooms.AllByGuild(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].OwnerID)
}

func TestTextChannelCreatedWhenEnabled(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	src, _, _ := fx.cfg.SourceConfig(ctx, "g1", "src-1")
	src.TextChannel = true
	src.TextHint = "Bienvenido {{username}}!"
	require.NoError(t, fx.cfg.SetSourceConfig(ctx, src))

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")

	rec := fx.roomFor(t, "u1")
	require.NotNil(t, rec.TextChannelID)
	assert.True(t, fx.p.called("msg "+*rec.TextChannelID+": Bienvenido u1!"))
}

func TestTeardownWhenEmpty(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")

	// u1 se va: el room queda vacío y se destruye
	fx.p.occupants[rec.ChannelID] = nil
	fx.svc.HandleVoiceLeave(ctx, "g1", rec.ChannelID, "u1")

	_, err := fx.rooms.Get(ctx, rec.ChannelID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = fx.p.Channel(ctx, rec.ChannelID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveKeepsRoomWithOccupants(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")
	fx.p.occupants[rec.ChannelID] = []string{"u2"}

	fx.svc.HandleVoiceLeave(ctx, "g1", rec.ChannelID, "u1")

	_, err := fx.rooms.Get(ctx, rec.ChannelID)
	assert.NoError(t, err)
}

func TestSourceDeleteClearsConfigOnly(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	fx.svc.HandleChannelDelete(ctx, "g1", "src-1")

	_, ok, err := fx.cfg.SourceConfig(ctx, "g1", "src-1")
	require.NoError(t, err)
	assert.False(t, ok, "la config del source se purga")

	all, err := fx.rooms.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "los rooms ya provisionados siguen vivos")
}

func TestRoomDeleteClearsRecord(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")

	fx.svc.HandleChannelDelete(ctx, "g1", rec.ChannelID)

	_, err := fx.rooms.Get(ctx, rec.ChannelID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemberRejoinReappliesDeny(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")
	require.NoError(t, fx.rooms.SetDenied(ctx, rec.ChannelID, []string{"troll"}))

	fx.svc.HandleMemberJoin(ctx, "g1", "troll")

	deny := storage.SourceConfig{RoomType: "public"}.Perms().Deny
	assert.True(t, fx.p.called(
		fmt.Sprintf("perm %s target=troll allow=0 deny=%d", rec.ChannelID, deny.Deny)))
}

func TestReconcilePurgesOrphans(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")

	// el canal remoto desapareció mientras el bot estaba caído
	delete(fx.p.channels, rec.ChannelID)

	require.NoError(t, fx.svc.Reconcile(ctx))

	_, err := fx.rooms.Get(ctx, rec.ChannelID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReconcileTearsDownEmptyRooms(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()

	fx.svc.HandleVoiceJoin(ctx, "g1", "src-1", "u1")
	rec := fx.roomFor(t, "u1")
	fx.p.occupants[rec.ChannelID] = nil

	require.NoError(t, fx.svc.Reconcile(ctx))

	_, err := fx.p.Channel(ctx, rec.ChannelID)
	assert.ErrorIs(t, err, ErrNotFound)
}
