package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/autoroom-bot/internal/domain"
)

func newSourcesFixture(t *testing.T) (*fakePlatform, *fakeConfig, *SourcesService) {
	t.Helper()
	p := newFakePlatform()
	cfg := newFakeConfig()
	p.addChannel(Channel{ID: "src-1", GuildID: "g1", Name: "Crear sala", Kind: ChannelVoice})
	p.addChannel(Channel{ID: "cat-1", GuildID: "g1", Name: "Salas", Kind: ChannelCategory})
	p.addChannel(Channel{ID: "text-9", GuildID: "g1", Kind: ChannelText})
	return p, cfg, NewSourcesService(p, cfg, newFakeRooms())
}

func TestRegisterSource(t *testing.T) {
	_, cfg, svc := newSourcesFixture(t)
	ctx := context.Background()

	msg, err := svc.Register(ctx, "g1", "src-1", "cat-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")

	src, ok, err := cfg.SourceConfig(ctx, "g1", "src-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cat-1", src.DestCategoryID)
	assert.Equal(t, domain.RoomTypePublic, src.Type())
	assert.Equal(t, domain.DefaultNameTemplate, src.NameTemplate)
}

func TestRegisterRejectsNonVoiceSource(t *testing.T) {
	_, _, svc := newSourcesFixture(t)

	msg, err := svc.Register(context.Background(), "g1", "text-9", "cat-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "canal de voz")
}

func TestRegisterRejectsNonCategoryDest(t *testing.T) {
	_, _, svc := newSourcesFixture(t)

	msg, err := svc.Register(context.Background(), "g1", "src-1", "text-9")
	require.NoError(t, err)
	assert.Contains(t, msg, "categoría")
}

func TestRegisterNeedsCategoryPerms(t *testing.T) {
	p, _, svc := newSourcesFixture(t)
	p.perms["cat-1"] = 0

	msg, err := svc.Register(context.Background(), "g1", "src-1", "cat-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "permisos")
}

func TestSetNameTemplateValidates(t *testing.T) {
	_, cfg, svc := newSourcesFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "g1", "src-1", "cat-1")
	require.NoError(t, err)

	msg, err := svc.SetNameTemplate(ctx, "g1", "src-1", "{{nope}}")
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
	src, _, _ := cfg.SourceConfig(ctx, "g1", "src-1")
	assert.Equal(t, domain.DefaultNameTemplate, src.NameTemplate, "un template inválido no se guarda")

	msg, err = svc.SetNameTemplate(ctx, "g1", "src-1", "Sala de {{username}}")
	require.NoError(t, err)
	assert.Contains(t, msg, "Sala de Pepe")
	src, _, _ = cfg.SourceConfig(ctx, "g1", "src-1")
	assert.Equal(t, "Sala de {{username}}", src.NameTemplate)
}

func TestSetRoomType(t *testing.T) {
	_, cfg, svc := newSourcesFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "g1", "src-1", "cat-1")
	require.NoError(t, err)

	msg, err := svc.SetRoomType(ctx, "g1", "src-1", "private")
	require.NoError(t, err)
	assert.Contains(t, msg, "private")
	src, _, _ := cfg.SourceConfig(ctx, "g1", "src-1")
	assert.Equal(t, domain.RoomTypePrivate, src.Type())

	msg, err = svc.SetRoomType(ctx, "g1", "src-1", "vip")
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
}

func TestSettersRequireRegisteredSource(t *testing.T) {
	_, _, svc := newSourcesFixture(t)

	msg, err := svc.SetRoomType(context.Background(), "g1", "src-1", "private")
	require.NoError(t, err)
	assert.Contains(t, msg, "no está registrado")
}

func TestUnregisterSource(t *testing.T) {
	_, cfg, svc := newSourcesFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "g1", "src-1", "cat-1")
	require.NoError(t, err)

	msg, err := svc.Unregister(ctx, "g1", "src-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "✅")

	_, ok, _ := cfg.SourceConfig(ctx, "g1", "src-1")
	assert.False(t, ok)

	msg, err = svc.Unregister(ctx, "g1", "src-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "⚠️")
}

func TestGuildPolicyToggles(t *testing.T) {
	_, cfg, svc := newSourcesFixture(t)
	ctx := context.Background()

	_, err := svc.SetAdminAccess(ctx, "g1", false)
	require.NoError(t, err)
	_, err = svc.SetModAccess(ctx, "g1", true)
	require.NoError(t, err)
	_, err = svc.SetBotRoles(ctx, "g1", []string{"role-bots"})
	require.NoError(t, err)

	pol, err := cfg.GuildPolicy(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, pol.AdminAccess)
	assert.True(t, pol.ModAccess)
	assert.Equal(t, []string{"role-bots"}, pol.BotRoleIDs)
}

func TestSettingsSummary(t *testing.T) {
	_, _, svc := newSourcesFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "g1", "src-1", "cat-1")
	require.NoError(t, err)

	out, err := svc.Settings(ctx, "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "<#src-1>")
	assert.Contains(t, out, "<#cat-1>")
	assert.Contains(t, out, "Acceso admin: ON")
}
