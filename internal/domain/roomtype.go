package domain

import "github.com/bwmarrin/discordgo"

// RoomType: clase de visibilidad de un AutoRoom.
type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeServer  RoomType = "server" // sin dueño personal
)

func ParseRoomType(s string) (RoomType, bool) {
	switch RoomType(s) {
	case RoomTypePublic, RoomTypePrivate, RoomTypeServer:
		return RoomType(s), true
	}
	return "", false
}

// PermBundles: deltas con nombre que el builder aplica según el room type.
// Se derivan siempre del room type, nunca se persisten por separado.
type PermBundles struct {
	Owner  PermDelta // control local total para el dueño
	Access PermDelta // lo que recibe everyone (o los member roles)
	Deny   PermDelta // corte de acceso (everyone con member roles, o /deny)
	Allow  PermDelta // acceso para roles privilegiados
}

// RoomGate: los dos bits que deciden si alguien "está adentro" de un room.
const RoomGate = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect

const roomGate = RoomGate

// RoomViewOnly deja ver el canal pero corta la conexión (estado "locked").
var RoomViewOnly = PermDelta{
	Allow: discordgo.PermissionViewChannel,
	Deny:  discordgo.PermissionVoiceConnect,
}

func (t RoomType) Perms() PermBundles {
	b := PermBundles{
		Owner: PermDelta{Allow: roomGate |
			discordgo.PermissionManageChannels |
			discordgo.PermissionManageMessages |
			discordgo.PermissionVoiceMoveMembers |
			discordgo.PermissionSendMessages},
		Access: PermDelta{Allow: roomGate},
		Deny:   PermDelta{Deny: roomGate},
		Allow:  PermDelta{Allow: roomGate},
	}
	if t == RoomTypePrivate {
		b.Access = PermDelta{Deny: roomGate}
	}
	return b
}

// Bundles del text channel acompañante (espejo de los del room).
const textGate = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory

var (
	TextAccess = PermDelta{Allow: textGate}
	TextDeny   = PermDelta{Deny: textGate}
	TextOwner  = PermDelta{Allow: textGate |
		discordgo.PermissionManageChannels |
		discordgo.PermissionManageMessages}
	// El bot necesita lo mismo que el dueño para administrar el canal.
	BotTextPerms = TextOwner
)
