package discord

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/autoroom-bot/internal/domain"
)

var reMention = regexp.MustCompile(`<@[!&]?(\d+)>`)

// parseRoleIDs acepta menciones de rol o IDs pelados separados por espacio.
func parseRoleIDs(raw string) []string {
	ids := []string{}
	for _, tok := range strings.Fields(raw) {
		if m := reMention.FindStringSubmatch(tok); len(m) == 2 {
			ids = append(ids, m[1])
			continue
		}
		if allDigits(tok) {
			ids = append(ids, tok)
		}
	}
	return ids
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// mentionablePrincipal resuelve la opción Mentionable de /autoroom allow|deny:
// si el ID corresponde a un rol del guild es rol, si no, miembro.
func mentionablePrincipal(s *discordgo.Session, guildID, id string) domain.Principal {
	if g, err := s.State.Guild(guildID); err == nil && g != nil {
		for _, role := range g.Roles {
			if role.ID == id {
				return domain.RolePrincipal(id)
			}
		}
	}
	return domain.MemberPrincipal(id)
}

// subOpts indexa las opciones del subcomando activo por nombre.
func subOpts(data discordgo.ApplicationCommandInteractionData) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", nil
	}
	sub := data.Options[0]
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, o := range sub.Options {
		out[o.Name] = o
	}
	return sub.Name, out
}

// voiceChannelOf devuelve el canal de voz donde está conectado el usuario.
func (r *Router) voiceChannelOf(guildID, userID string) (string, bool) {
	vs, err := r.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}
