package storage

import (
	"time"

	"github.com/jose-valero/autoroom-bot/internal/domain"
)

// GuildPolicy: ajustes por guild. Se crea con defaults en el primer write.
type GuildPolicy struct {
	GuildID     string   `json:"-"`
	AdminAccess bool     `json:"admin_access"` // roles admin entran siempre
	ModAccess   bool     `json:"mod_access"`   // roles mod entran siempre
	BotRoleIDs  []string `json:"bot_access"`   // roles de bots con acceso permanente
}

func DefaultGuildPolicy(guildID string) GuildPolicy {
	return GuildPolicy{GuildID: guildID, AdminAccess: true}
}

// SourceConfig: un canal de voz registrado como AutoRoom Source.
type SourceConfig struct {
	GuildID         string `json:"-"`
	SourceChannelID string `json:"-"`

	DestCategoryID string   `json:"dest_category_id"`
	RoomType       string   `json:"room_type"`
	NameTemplate   string   `json:"channel_name_format"`
	MemberRoleIDs  []string `json:"access_member_roles"`
	TextChannel    bool     `json:"legacy_text_channel"`
	TextHint       string   `json:"text_channel_hint"`
	TextTopic      string   `json:"text_channel_topic"`
}

// Type normaliza el room type persistido.
func (c SourceConfig) Type() domain.RoomType {
	if t, ok := domain.ParseRoomType(c.RoomType); ok {
		return t
	}
	return domain.RoomTypePublic
}

// Perms se deriva siempre del room type; jamás se persiste por separado.
func (c SourceConfig) Perms() domain.PermBundles { return c.Type().Perms() }

// RoomRecord: un AutoRoom provisionado. Existe si y sólo si el canal remoto
// existe y lo creamos nosotros (lo garantizan la reconciliación de arranque
// y el handler de channel-delete).
type RoomRecord struct {
	ChannelID       string
	GuildID         string
	SourceChannelID string
	OwnerID         *string // nil para rooms tipo server o dueño ausente
	TextChannelID   *string
	DeniedMemberIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RawEntry: documento crudo del config store, para el migrador de esquema.
type RawEntry struct {
	Scope   string
	GuildID string
	EntryID string
	Doc     map[string]any
}

// Scopes del config store.
const (
	ScopeGlobal = "global"
	ScopeGuild  = "guild"
	ScopeSource = "source"
)
