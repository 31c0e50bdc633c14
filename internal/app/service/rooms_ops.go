package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// Operaciones sobre un room existente, disparadas desde el panel o desde
// /autoroom. Todas devuelven el mensaje efímero para el usuario.

// authorize carga el record y verifica que quien opera sea el dueño (o un
// admin si allowAdmin). Un record inexistente significa que el canal no es
// un AutoRoom.
func (s *RoomService) authorize(ctx context.Context, channelID, userID string, isAdmin bool) (storage.RoomRecord, string, bool) {
	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return rec, "⚠️ Este canal no es un AutoRoom.", false
	}
	if isAdmin {
		return rec, "", true
	}
	if rec.OwnerID == nil || *rec.OwnerID != userID {
		return rec, "🔒 Sólo el dueño del AutoRoom puede hacer eso.", false
	}
	return rec, "", true
}

func (s *RoomService) Rename(ctx context.Context, channelID, userID, name string, isAdmin bool) (string, error) {
	rec, msg, ok := s.authorize(ctx, channelID, userID, isAdmin)
	if !ok {
		return msg, nil
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxChannelNameLength {
		return fmt.Sprintf("⚠️ El nombre tiene que tener entre 1 y %d caracteres.", domain.MaxChannelNameLength), nil
	}
	if retry, ok := s.renameBucket.CheckAndIncrement(channelID); !ok {
		return fmt.Sprintf("⏳ Este canal ya se renombró %d veces hace poco. Probá de nuevo en **%s**.",
			renameRate, retry.Round(time.Second)), nil
	}
	if err := s.p.EditChannel(ctx, channelID, ChannelEdit{Name: &name}); err != nil {
		return "", fmt.Errorf("rename %s: %w", channelID, err)
	}
	if rec.TextChannelID != nil {
		textName := strings.ToLower(strings.ReplaceAll(name, "'s ", " "))
		if err := s.p.EditChannel(ctx, *rec.TextChannelID, ChannelEdit{Name: &textName}); err != nil {
			log.Printf("[rooms] rename text %s: %v", *rec.TextChannelID, err)
		}
	}
	return fmt.Sprintf("✅ Canal renombrado a **%s**.", name), nil
}

func (s *RoomService) SetBitrate(ctx context.Context, channelID, userID string, kbps int, isAdmin bool) (string, error) {
	rec, msg, ok := s.authorize(ctx, channelID, userID, isAdmin)
	if !ok {
		return msg, nil
	}
	limit := s.p.GuildBitrateLimit(rec.GuildID) / 1000
	if kbps < 8 || kbps > limit {
		return fmt.Sprintf("⚠️ El bitrate tiene que estar entre 8 y %d kbps en este server.", limit), nil
	}
	bps := kbps * 1000
	if err := s.p.EditChannel(ctx, channelID, ChannelEdit{Bitrate: &bps}); err != nil {
		return "", fmt.Errorf("bitrate %s: %w", channelID, err)
	}
	return fmt.Sprintf("✅ Bitrate cambiado a **%d kbps**.", kbps), nil
}

func (s *RoomService) SetUserLimit(ctx context.Context, channelID, userID string, limit int, isAdmin bool) (string, error) {
	_, msg, ok := s.authorize(ctx, channelID, userID, isAdmin)
	if !ok {
		return msg, nil
	}
	if limit < 0 || limit > 99 {
		return "⚠️ El límite tiene que estar entre 0 (sin límite) y 99.", nil
	}
	if err := s.p.EditChannel(ctx, channelID, ChannelEdit{UserLimit: &limit}); err != nil {
		return "", fmt.Errorf("user limit %s: %w", channelID, err)
	}
	if limit == 0 {
		return "✅ Límite de usuarios quitado.", nil
	}
	return fmt.Sprintf("✅ Límite de usuarios: **%d**.", limit), nil
}

// SetRegion: región vacía vuelve al modo automático.
func (s *RoomService) SetRegion(ctx context.Context, channelID, userID, region string, isAdmin bool) (string, error) {
	_, msg, ok := s.authorize(ctx, channelID, userID, isAdmin)
	if !ok {
		return msg, nil
	}
	if err := s.p.EditChannel(ctx, channelID, ChannelEdit{Region: &region}); err != nil {
		return "", fmt.Errorf("region %s: %w", channelID, err)
	}
	if region == "" {
		return "✅ Región de voz en automático.", nil
	}
	return fmt.Sprintf("✅ Región de voz: **%s**.", region), nil
}

// Visibilidad del room en caliente. "locked" deja ver pero no conectar.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityLocked  Visibility = "locked"
	VisibilityPrivate Visibility = "private"
)

func (s *RoomService) SetVisibility(ctx context.Context, channelID, userID string, v Visibility, isAdmin bool) (string, error) {
	rec, msg, ok := s.authorize(ctx, channelID, userID, isAdmin)
	if !ok {
		return msg, nil
	}
	var delta domain.PermDelta
	var reply string
	switch v {
	case VisibilityPublic:
		delta = domain.PermDelta{Allow: domain.RoomGate}
		reply = "✅ El AutoRoom ahora es **público**."
	case VisibilityLocked:
		delta = domain.PermDelta{Allow: domain.RoomViewOnly.Allow, Deny: domain.RoomViewOnly.Deny}
		reply = "✅ El AutoRoom quedó **cerrado**: se ve pero no se puede entrar."
	case VisibilityPrivate:
		delta = domain.PermDelta{Deny: domain.RoomGate}
		reply = "✅ El AutoRoom ahora es **privado**."
	default:
		return "⚠️ Visibilidad desconocida. Opciones: public, locked, private.", nil
	}
	everyone := domain.RolePrincipal(s.p.EveryoneRoleID(rec.GuildID))
	if err := s.p.SetPermission(ctx, channelID, everyone, delta); err != nil {
		return "", fmt.Errorf("visibility %s: %w", channelID, err)
	}
	if rec.TextChannelID != nil && v == VisibilityPrivate {
		// un room privado tampoco muestra su text channel a extraños
		if err := s.p.SetPermission(ctx, *rec.TextChannelID, everyone, domain.TextDeny); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[rooms] text visibility %s: %v", *rec.TextChannelID, err)
		}
	}
	return reply, nil
}

// RoomInfo arma el resumen que muestra el panel.
func (s *RoomService) RoomInfo(ctx context.Context, channelID string) (string, error) {
	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal no es un AutoRoom.", nil
	}
	ch, err := s.p.Channel(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("room info %s: %w", channelID, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", ch.Name)
	if rec.OwnerID != nil {
		fmt.Fprintf(&b, "Dueño: <@%s>\n", *rec.OwnerID)
	} else {
		b.WriteString("Dueño: nadie (reclamable con `/autoroom claim`)\n")
	}
	fmt.Fprintf(&b, "Bitrate: %d kbps\n", ch.Bitrate/1000)
	if ch.UserLimit > 0 {
		fmt.Fprintf(&b, "Límite: %d usuarios\n", ch.UserLimit)
	} else {
		b.WriteString("Límite: sin límite\n")
	}
	fmt.Fprintf(&b, "Conectados: %d", len(s.p.Occupants(rec.GuildID, channelID)))
	if n := len(rec.DeniedMemberIDs); n > 0 {
		fmt.Fprintf(&b, "\nDenegados: %d", n)
	}
	return b.String(), nil
}
