package discord

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/autoroom-bot/internal/app/service"
)

func (r *Router) handleSlash(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	log.Printf("slash: /%s by=%s guild=%s", data.Name, ic.Member.User.ID, ic.GuildID)
	defer step("slash." + data.Name)()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	switch data.Name {
	case "autoroom":
		r.dispatchAutoroom(ctx, s, ic, data)
	case "autoroomset":
		r.dispatchAutoroomset(ctx, s, ic, data)
	}
}

func (r *Router) dispatchAutoroom(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub, opts := subOpts(data)
	if sub == "" {
		ReplyEphemeral(s, ic, "Usá `/autoroom info`, `claim`, `name`, `allow`, `deny`…")
		return
	}

	userID := ic.Member.User.ID
	channelID, inVoice := r.voiceChannelOf(ic.GuildID, userID)
	if !inVoice {
		ReplyEphemeral(s, ic, "🎧 Tenés que estar conectado a tu AutoRoom para usar esto.")
		return
	}
	admin := r.isAdmin(s, ic)

	var msg string
	var err error
	switch sub {
	case "info":
		msg, err = r.rooms.RoomInfo(ctx, channelID)
	case "claim":
		msg, err = r.ownership.Claim(ctx, channelID, userID, admin)
	case "name":
		msg, err = r.rooms.Rename(ctx, channelID, userID, opts["nombre"].StringValue(), admin)
	case "visibility":
		msg, err = r.rooms.SetVisibility(ctx, channelID, userID, service.Visibility(opts["modo"].StringValue()), admin)
	case "bitrate":
		msg, err = r.rooms.SetBitrate(ctx, channelID, userID, int(opts["kbps"].IntValue()), admin)
	case "limit":
		msg, err = r.rooms.SetUserLimit(ctx, channelID, userID, int(opts["cantidad"].IntValue()), admin)
	case "allow":
		target := mentionablePrincipal(s, ic.GuildID, opts["quien"].Value.(string))
		msg, err = r.ownership.SetAccess(ctx, channelID, userID, target, true, admin)
	case "deny":
		target := mentionablePrincipal(s, ic.GuildID, opts["quien"].Value.(string))
		msg, err = r.ownership.SetAccess(ctx, channelID, userID, target, false, admin)
	case "transfer":
		to := opts["quien"].UserValue(nil)
		msg, err = r.ownership.RequestTransfer(ctx, channelID, userID, to.ID)
	case "accept":
		msg, err = r.ownership.ResolveTransfer(ctx, channelID, userID, true)
	case "decline":
		msg, err = r.ownership.ResolveTransfer(ctx, channelID, userID, false)
	default:
		return
	}
	if err != nil {
		log.Printf("/autoroom %s: %v", sub, err)
		msg = "⚠️ No se pudo completar: " + err.Error()
	}
	ReplyEphemeral(s, ic, msg)
}

func (r *Router) dispatchAutoroomset(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !r.requireAdmin(s, ic) {
		return
	}
	sub, opts := subOpts(data)
	if sub == "" {
		ReplyEphemeral(s, ic, "Usá `/autoroomset view` para ver la configuración.")
		return
	}

	origin := func() string {
		if o, ok := opts["origen"]; ok {
			return o.ChannelValue(nil).ID
		}
		return ""
	}
	optStr := func(name string) string {
		if o, ok := opts[name]; ok {
			return o.StringValue()
		}
		return ""
	}

	var msg string
	var err error
	switch sub {
	case "create":
		msg, err = r.sources.Register(ctx, ic.GuildID, origin(), opts["categoria"].ChannelValue(nil).ID)
	case "remove":
		msg, err = r.sources.Unregister(ctx, ic.GuildID, origin())
	case "type":
		msg, err = r.sources.SetRoomType(ctx, ic.GuildID, origin(), optStr("tipo"))
	case "template":
		msg, err = r.sources.SetNameTemplate(ctx, ic.GuildID, origin(), optStr("plantilla"))
	case "text":
		msg, err = r.sources.SetText(ctx, ic.GuildID, origin(), opts["activo"].BoolValue())
	case "texthint":
		msg, err = r.sources.SetTextHint(ctx, ic.GuildID, origin(), optStr("mensaje"))
	case "texttopic":
		msg, err = r.sources.SetTextTopic(ctx, ic.GuildID, origin(), optStr("topic"))
	case "memberroles":
		msg, err = r.sources.SetMemberRoles(ctx, ic.GuildID, origin(), parseRoleIDs(optStr("roles")))
	case "access":
		msg, err = r.dispatchAccess(ctx, ic.GuildID, opts)
	case "view":
		msg, err = r.sources.Settings(ctx, ic.GuildID)
	default:
		return
	}
	if err != nil {
		log.Printf("/autoroomset %s: %v", sub, err)
		msg = "⚠️ No se pudo completar: " + err.Error()
	}
	ReplyEphemeral(s, ic, msg)
}

// dispatchAccess aplica sólo los toggles presentes en el subcomando.
func (r *Router) dispatchAccess(ctx context.Context, guildID string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	var out string
	if o, ok := opts["admins"]; ok {
		msg, err := r.sources.SetAdminAccess(ctx, guildID, o.BoolValue())
		if err != nil {
			return "", err
		}
		out += msg + "\n"
	}
	if o, ok := opts["mods"]; ok {
		msg, err := r.sources.SetModAccess(ctx, guildID, o.BoolValue())
		if err != nil {
			return "", err
		}
		out += msg + "\n"
	}
	if o, ok := opts["botroles"]; ok {
		msg, err := r.sources.SetBotRoles(ctx, guildID, parseRoleIDs(o.StringValue()))
		if err != nil {
			return "", err
		}
		out += msg + "\n"
	}
	if out == "" {
		return "⚠️ No pasaste ningún ajuste.", nil
	}
	return out, nil
}
