package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provisionRoom(t *testing.T, fx *roomsFixture) string {
	t.Helper()
	fx.svc.HandleVoiceJoin(context.Background(), "g1", "src-1", "u1")
	return fx.roomFor(t, "u1").ChannelID
}

func TestRenameByOwner(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	msg, err := fx.svc.Rename(ctx, roomID, "u1", "Cueva", false)
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")

	ch, err := fx.p.Channel(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, "Cueva", ch.Name)
}

func TestRenameCountsRunesNotBytes(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	// 100 runas multibyte superan los 100 bytes pero siguen siendo válidas
	name := strings.Repeat("ñ", 100)
	msg, err := fx.svc.Rename(ctx, roomID, "u1", name, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")

	msg, err = fx.svc.Rename(ctx, roomID, "u1", strings.Repeat("ñ", 101), false)
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
}

func TestRenameRejectsNonOwner(t *testing.T) {
	fx := newRoomsFixture(t)
	roomID := provisionRoom(t, fx)

	msg, err := fx.svc.Rename(context.Background(), roomID, "u2", "Cueva", false)
	require.NoError(t, err)
	assert.Contains(t, msg, "🔒")
}

func TestRenameAdminOverride(t *testing.T) {
	fx := newRoomsFixture(t)
	roomID := provisionRoom(t, fx)

	msg, err := fx.svc.Rename(context.Background(), roomID, "u2", "Cueva", true)
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")
}

func TestRenameRateLimited(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	now := time.Now()
	fx.svc.renameBucket.now = func() time.Time { return now }

	for _, name := range []string{"Uno", "Dos"} {
		msg, err := fx.svc.Rename(ctx, roomID, "u1", name, false)
		require.NoError(t, err)
		require.Contains(t, msg, "✅")
	}
	msg, err := fx.svc.Rename(ctx, roomID, "u1", "Tres", false)
	require.NoError(t, err)
	assert.Contains(t, msg, "⏳")

	ch, _ := fx.p.Channel(ctx, roomID)
	assert.Equal(t, "Dos", ch.Name)
}

func TestRenameOutsideChannelNotRoom(t *testing.T) {
	fx := newRoomsFixture(t)

	msg, err := fx.svc.Rename(context.Background(), "src-1", "u1", "Cueva", false)
	require.NoError(t, err)
	assert.Contains(t, msg, "no es un AutoRoom")
}

func TestSetBitrateBounds(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	msg, err := fx.svc.SetBitrate(ctx, roomID, "u1", 500, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")

	msg, err = fx.svc.SetBitrate(ctx, roomID, "u1", 64, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "64 kbps")

	ch, _ := fx.p.Channel(ctx, roomID)
	assert.Equal(t, 64000, ch.Bitrate)
}

func TestSetUserLimit(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	msg, err := fx.svc.SetUserLimit(ctx, roomID, "u1", 5, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "5")

	msg, err = fx.svc.SetUserLimit(ctx, roomID, "u1", 0, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "quitado")

	msg, err = fx.svc.SetUserLimit(ctx, roomID, "u1", 120, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
}

func TestSetVisibility(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	for _, v := range []Visibility{VisibilityPublic, VisibilityLocked, VisibilityPrivate} {
		msg, err := fx.svc.SetVisibility(ctx, roomID, "u1", v, false)
		require.NoError(t, err)
		assert.Contains(t, msg, "✅")
	}
	assert.True(t, fx.p.called("perm "+roomID+" target=everyone-1"))

	msg, err := fx.svc.SetVisibility(ctx, roomID, "u1", "invisible", false)
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
}

func TestRoomInfo(t *testing.T) {
	fx := newRoomsFixture(t)
	ctx := context.Background()
	roomID := provisionRoom(t, fx)

	out, err := fx.svc.RoomInfo(ctx, roomID)
	require.NoError(t, err)
	assert.Contains(t, out, "u1's Room")
	assert.Contains(t, out, "<@u1>")
	assert.Contains(t, out, "Conectados: 1")
}
