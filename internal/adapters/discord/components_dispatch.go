package discord

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/autoroom-bot/internal/app/service"
	"github.com/jose-valero/autoroom-bot/internal/domain"
)

// IDs de los selects que abren los botones del panel.
const (
	selectAllow    = "autoroom:allow_select"
	selectDeny     = "autoroom:deny_select"
	selectTransfer = "autoroom:transfer_select"
	selectRegion   = "autoroom:region_select"
)

func (r *Router) handleComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	userID := ic.Member.User.ID

	// los modals tienen que ser la PRIMERA respuesta, sin defer previo
	switch data.CustomID {
	case actionRename:
		if err := s.InteractionRespond(ic.Interaction, renameModal()); err != nil {
			log.Printf("modal rename: %v", err)
		}
		return
	case actionLimit:
		if err := s.InteractionRespond(ic.Interaction, limitModal()); err != nil {
			log.Printf("modal limit: %v", err)
		}
		return
	}

	_ = DeferEphemeral(s, ic)

	if !r.clickLimiter.Allow(userID) {
		ReplyEphemeral(s, ic, "⏳ Esperá un segundo…")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	channelID := ic.ChannelID
	admin := r.isAdmin(s, ic)

	var msg string
	var err error
	switch data.CustomID {
	case actionInfo:
		msg, err = r.rooms.RoomInfo(ctx, channelID)

	case actionClaim:
		msg, err = r.ownership.Claim(ctx, channelID, userID, admin)

	case actionPublic:
		msg, err = r.rooms.SetVisibility(ctx, channelID, userID, service.VisibilityPublic, admin)
	case actionLocked:
		msg, err = r.rooms.SetVisibility(ctx, channelID, userID, service.VisibilityLocked, admin)
	case actionPrivate:
		msg, err = r.rooms.SetVisibility(ctx, channelID, userID, service.VisibilityPrivate, admin)

	case actionAllow:
		ReplyEphemeral(s, ic, "Elegí a quién **permitir**:", userSelectRow(selectAllow, "Miembro"))
		return
	case actionDeny:
		ReplyEphemeral(s, ic, "Elegí a quién **denegar**:", userSelectRow(selectDeny, "Miembro"))
		return
	case actionTransfer:
		ReplyEphemeral(s, ic, "Elegí al nuevo dueño:", userSelectRow(selectTransfer, "Miembro conectado al canal"))
		return
	case actionRegion:
		regions, rerr := s.VoiceRegions()
		if rerr != nil {
			ReplyEphemeral(s, ic, "⚠️ No pude listar las regiones: "+rerr.Error())
			return
		}
		ReplyEphemeral(s, ic, "Elegí la región de voz:", regionSelectRow(regions))
		return

	case actionAccept:
		msg, err = r.ownership.ResolveTransfer(ctx, channelID, userID, true)
	case actionDecline:
		msg, err = r.ownership.ResolveTransfer(ctx, channelID, userID, false)

	case selectAllow, selectDeny:
		if len(data.Values) == 0 {
			ReplyEphemeral(s, ic, "⚠️ Selección inválida.")
			return
		}
		target := domain.MemberPrincipal(data.Values[0])
		msg, err = r.ownership.SetAccess(ctx, channelID, userID, target, data.CustomID == selectAllow, admin)

	case selectTransfer:
		if len(data.Values) == 0 {
			ReplyEphemeral(s, ic, "⚠️ Selección inválida.")
			return
		}
		msg, err = r.ownership.RequestTransfer(ctx, channelID, userID, data.Values[0])
		if err == nil && strings.Contains(msg, "⏳") {
			// el destinatario recibe los botones para resolverla
			r.notifyTransferOffer(ctx, channelID, userID, data.Values[0])
		}

	case selectRegion:
		if len(data.Values) == 0 {
			ReplyEphemeral(s, ic, "⚠️ Selección inválida.")
			return
		}
		region := data.Values[0]
		if region == "auto" {
			region = ""
		}
		msg, err = r.rooms.SetRegion(ctx, channelID, userID, region, admin)

	default:
		return
	}
	if err != nil {
		log.Printf("component %s: %v", data.CustomID, err)
		msg = "⚠️ No se pudo completar: " + err.Error()
	}
	ReplyEphemeral(s, ic, msg)
}

// notifyTransferOffer publica en el canal los botones de aceptar/rechazar
// para el destinatario.
func (r *Router) notifyTransferOffer(_ context.Context, channelID, fromID, toID string) {
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Aceptar", Style: discordgo.SuccessButton, CustomID: actionAccept},
		discordgo.Button{Label: "Rechazar", Style: discordgo.DangerButton, CustomID: actionDecline},
	}}
	_, err := r.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    "<@" + toID + ">: <@" + fromID + "> te ofrece la propiedad de este AutoRoom.",
		Components: []discordgo.MessageComponent{row},
	})
	if err != nil {
		log.Printf("notify transfer %s: %v", channelID, err)
	}
}

func (r *Router) handleModal(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ModalSubmitData()
	userID := ic.Member.User.ID

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	admin := r.isAdmin(s, ic)
	channelID := ic.ChannelID

	var msg string
	var err error
	switch data.CustomID {
	case modalRename:
		msg, err = r.rooms.Rename(ctx, channelID, userID, modalInput(data, "name"), admin)
	case modalLimit:
		n, perr := strconv.Atoi(strings.TrimSpace(modalInput(data, "limit")))
		if perr != nil {
			ReplyEphemeral(s, ic, "⚠️ El límite tiene que ser un número.")
			return
		}
		msg, err = r.rooms.SetUserLimit(ctx, channelID, userID, n, admin)
	default:
		return
	}
	if err != nil {
		log.Printf("modal %s: %v", data.CustomID, err)
		msg = "⚠️ No se pudo completar: " + err.Error()
	}
	ReplyEphemeral(s, ic, msg)
}

// modalInput saca el valor de un TextInput por custom id.
func modalInput(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if in, ok := inner.(*discordgo.TextInput); ok && in.CustomID == id {
				return in.Value
			}
		}
	}
	return ""
}
