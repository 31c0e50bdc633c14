package discord

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/autoroom-bot/internal/app/service"
)

type Router struct {
	s       *discordgo.Session
	guildID string // vacío = comandos globales

	adminRoleIDs []string
	clickLimiter *userLimiter

	rooms     *service.RoomService
	ownership *service.OwnershipService
	sources   *service.SourcesService
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	adminRoleIDs []string,
	rooms *service.RoomService,
	ownership *service.OwnershipService,
	sources *service.SourcesService,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		adminRoleIDs: adminRoleIDs,
		clickLimiter: newUserLimiter(2 * time.Second),
		rooms:        rooms,
		ownership:    ownership,
		sources:      sources,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	// Interacciones: slash, componentes del panel y modals
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID == "" || ic.Member == nil || ic.Member.User == nil {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic en interacción: %v", rec)
				ReplyEphemeral(s, ic, "⚠️ Ocurrió un error inesperado.")
			}
		}()

		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlash(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleComponent(s, ic)
		case discordgo.InteractionModalSubmit:
			r.handleModal(s, ic)
		}
	})

	// VoiceStateUpdate: el corazón del ciclo de vida. BeforeUpdate trae el
	// estado anterior, así distinguimos join/leave/move.
	r.s.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		if vs.UserID == s.State.User.ID {
			return
		}
		var oldChannel string
		if vs.BeforeUpdate != nil {
			oldChannel = vs.BeforeUpdate.ChannelID
		}
		if oldChannel == vs.ChannelID {
			return // mute/deaf y demás cambios sin movimiento
		}

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if oldChannel != "" {
			r.rooms.HandleVoiceLeave(ctx, vs.GuildID, oldChannel, vs.UserID)
		}
		if vs.ChannelID != "" {
			r.rooms.HandleVoiceJoin(ctx, vs.GuildID, vs.ChannelID, vs.UserID)
		}
	})

	// Canales borrados a mano desde Discord
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.ChannelDelete) {
		if ev.Channel == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		r.rooms.HandleChannelDelete(ctx, ev.Channel.GuildID, ev.Channel.ID)
	})

	// Miembros que vuelven al guild: se reaplica el deny persistido
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
		if ev.Member == nil || ev.Member.User == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		r.rooms.HandleMemberJoin(ctx, ev.GuildID, ev.Member.User.ID)
	})
}
