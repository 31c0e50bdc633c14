package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// IDs de los componentes del panel. Cada acción tiene su constante propia;
// el canal objetivo sale de la interacción, no del custom id.
const (
	actionInfo     = "autoroom:info"
	actionClaim    = "autoroom:claim"
	actionPublic   = "autoroom:public"
	actionLocked   = "autoroom:locked"
	actionPrivate  = "autoroom:private"
	actionRename   = "autoroom:rename"
	actionLimit    = "autoroom:limit"
	actionRegion   = "autoroom:region"
	actionAllow    = "autoroom:allow"
	actionDeny     = "autoroom:deny"
	actionTransfer = "autoroom:transfer"
	actionAccept   = "autoroom:accept"
	actionDecline  = "autoroom:decline"

	modalRename = "autoroom:modal:rename"
	modalLimit  = "autoroom:modal:limit"
)

// sendPanel publica el panel de control dentro del canal de voz recién
// creado (text-in-voice).
func (p *Platform) sendPanel(_ context.Context, channelID, roomName string) error {
	embed := &discordgo.MessageEmbed{
		Title: "🎛️ " + roomName,
		Description: "Este canal es tuyo. Manejalo desde acá o con `/autoroom`.\n" +
			"Cuando quede vacío se borra solo.",
		Color: 0x5865F2,
	}
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Público", Style: discordgo.SecondaryButton, CustomID: actionPublic, Emoji: &discordgo.ComponentEmoji{Name: "🌐"}},
			discordgo.Button{Label: "Cerrado", Style: discordgo.SecondaryButton, CustomID: actionLocked, Emoji: &discordgo.ComponentEmoji{Name: "🔒"}},
			discordgo.Button{Label: "Privado", Style: discordgo.SecondaryButton, CustomID: actionPrivate, Emoji: &discordgo.ComponentEmoji{Name: "🙈"}},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Renombrar", Style: discordgo.PrimaryButton, CustomID: actionRename, Emoji: &discordgo.ComponentEmoji{Name: "✏️"}},
			discordgo.Button{Label: "Límite", Style: discordgo.PrimaryButton, CustomID: actionLimit, Emoji: &discordgo.ComponentEmoji{Name: "👥"}},
			discordgo.Button{Label: "Región", Style: discordgo.PrimaryButton, CustomID: actionRegion, Emoji: &discordgo.ComponentEmoji{Name: "🌍"}},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Permitir", Style: discordgo.SuccessButton, CustomID: actionAllow},
			discordgo.Button{Label: "Denegar", Style: discordgo.DangerButton, CustomID: actionDeny},
			discordgo.Button{Label: "Transferir", Style: discordgo.SecondaryButton, CustomID: actionTransfer},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Info", Style: discordgo.SecondaryButton, CustomID: actionInfo, Emoji: &discordgo.ComponentEmoji{Name: "ℹ️"}},
			discordgo.Button{Label: "Reclamar", Style: discordgo.SecondaryButton, CustomID: actionClaim, Emoji: &discordgo.ComponentEmoji{Name: "🙋"}},
		}},
	}
	_, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: rows,
	})
	return mapErr(err)
}

func renameModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalRename,
			Title:    "Renombrar AutoRoom",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "name",
						Label:     "Nombre nuevo",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 100,
					},
				}},
			},
		},
	}
}

func limitModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalLimit,
			Title:    "Límite de usuarios",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "limit",
						Label:       "Cantidad (0 = sin límite)",
						Style:       discordgo.TextInputShort,
						Required:    true,
						MaxLength:   2,
						Placeholder: "0",
					},
				}},
			},
		},
	}
}

// userSelectRow arma el select de miembros para allow/deny/transfer.
func userSelectRow(customID, placeholder string) discordgo.ActionsRow {
	menuType := discordgo.UserSelectMenu
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    menuType,
			CustomID:    customID,
			Placeholder: placeholder,
		},
	}}
}

// regionSelectRow lista las regiones de voz disponibles, con la opción de
// volver al modo automático.
func regionSelectRow(regions []*discordgo.VoiceRegion) discordgo.ActionsRow {
	opts := []discordgo.SelectMenuOption{{
		Label: "Automática", Value: "auto", Description: "Dejar que Discord elija",
	}}
	for _, reg := range regions {
		if len(opts) >= 25 {
			break
		}
		opts = append(opts, discordgo.SelectMenuOption{Label: reg.Name, Value: reg.ID})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			CustomID:    selectRegion,
			Placeholder: "Elegí la región de voz",
			Options:     opts,
		},
	}}
}
