package service

import (
	"context"
	"errors"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// Clasificación de fallos remotos. El adapter de discord mapea los errores
// REST a estos sentinels; los services deciden qué es fatal y qué no.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type ChannelKind int

const (
	ChannelVoice ChannelKind = iota
	ChannelText
	ChannelCategory
	ChannelOther
)

// Channel: vista mínima de un canal remoto.
type Channel struct {
	ID         string
	GuildID    string
	Name       string
	ParentID   string
	Kind       ChannelKind
	Bitrate    int
	UserLimit  int
	Overwrites []domain.SourceOverwrite
}

type VoiceChannelCreate struct {
	Name       string
	CategoryID string
	Bitrate    int
	UserLimit  int
	Overwrites *domain.Overwrites
}

type TextChannelCreate struct {
	Name       string
	CategoryID string
	Topic      string
	Overwrites *domain.Overwrites
}

// ChannelEdit: campos nil quedan como están.
type ChannelEdit struct {
	Name      *string
	Bitrate   *int
	UserLimit *int
	Region    *string // cadena vacía = automático
}

type MemberProfile struct {
	DisplayName string
	Game        string // vacío si no está jugando nada detectable
}

// Lo implementa internal/adapters/discord.Platform
type Platform interface {
	BotUserID() string
	EveryoneRoleID(guildID string) string

	Channel(ctx context.Context, channelID string) (Channel, error)
	CreateVoiceChannel(ctx context.Context, guildID string, c VoiceChannelCreate) (Channel, error)
	CreateTextChannel(ctx context.Context, guildID string, c TextChannelCreate) (Channel, error)
	EditChannel(ctx context.Context, channelID string, e ChannelEdit) error
	DeleteChannel(ctx context.Context, channelID string) error
	MoveMember(ctx context.Context, guildID, userID, channelID string) error
	SetPermission(ctx context.Context, channelID string, target domain.Principal, delta domain.PermDelta) error

	BotPermissionsIn(channelID string) (int64, error)
	Occupants(guildID, channelID string) []string
	VoiceChannelNames(guildID, categoryID string) []string
	MemberProfile(guildID, userID string) MemberProfile
	GuildBitrateLimit(guildID string) int
	ModeratorRoleIDs(guildID string) []string
	AdminRoleIDs(guildID string) []string

	SendMessage(ctx context.Context, channelID, content string) error
	SendDM(ctx context.Context, userID, content string) error
	DeployControlPanel(ctx context.Context, channelID, roomName string) error
}

// Lo implementa internal/infra/storage.RoomsRepo
type RoomStore interface {
	Get(ctx context.Context, channelID string) (storage.RoomRecord, error)
	Upsert(ctx context.Context, m storage.RoomRecord) error
	SetOwner(ctx context.Context, channelID string, ownerID *string) error
	SetTextChannel(ctx context.Context, channelID string, textChannelID *string) error
	SetDenied(ctx context.Context, channelID string, denied []string) error
	Delete(ctx context.Context, channelID string) error
	AllByGuild(ctx context.Context, guildID string) ([]storage.RoomRecord, error)
	All(ctx context.Context) ([]storage.RoomRecord, error)
}

// Lo implementa internal/infra/storage.ConfigRepo (accessors tipados)
type ConfigStore interface {
	GuildPolicy(ctx context.Context, guildID string) (storage.GuildPolicy, error)
	SetGuildPolicy(ctx context.Context, p storage.GuildPolicy) error
	SourceConfig(ctx context.Context, guildID, channelID string) (storage.SourceConfig, bool, error)
	SetSourceConfig(ctx context.Context, c storage.SourceConfig) error
	ClearSourceConfig(ctx context.Context, guildID, channelID string) error
	SourceConfigs(ctx context.Context, guildID string) ([]storage.SourceConfig, error)
}

// RawConfig: acceso crudo por documento, sólo para el migrador de esquema.
// También lo implementa storage.ConfigRepo.
type RawConfig interface {
	SchemaVersion(ctx context.Context) (int, error)
	SetSchemaVersion(ctx context.Context, v int) error
	Get(ctx context.Context, scope, guildID, entryID string) (map[string]any, error)
	Set(ctx context.Context, scope, guildID, entryID string, doc map[string]any) error
	ClearKey(ctx context.Context, scope, guildID, entryID, key string) error
	Clear(ctx context.Context, scope, guildID, entryID string) error
	All(ctx context.Context, scope string) ([]storage.RawEntry, error)
}
