package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// Cupos de abuso (sin persistencia: un restart perdona todo, asumido).
const (
	createRate = 2
	createPer  = 60 * time.Second
	warnRate   = 1
	warnPer    = time.Hour
	renameRate = 2
	// los 4s extra absorben el retraso con el que Discord aplica renombres
	renamePer = 604 * time.Second
	claimRate = 1
	claimPer  = 120 * time.Second
)

// RoomService orquesta el ciclo de vida de los AutoRooms: provisión al
// entrar alguien a un source, rollback si el move falla, y teardown cuando
// el room queda vacío.
type RoomService struct {
	p     Platform
	rooms RoomStore
	cfg   ConfigStore

	createBucket *Limiter
	warnBucket   *Limiter
	renameBucket *Limiter
	claimBucket  *Limiter // compartido con OwnershipService
}

func NewRoomService(p Platform, rooms RoomStore, cfg ConfigStore, claimBucket *Limiter) *RoomService {
	return &RoomService{
		p:            p,
		rooms:        rooms,
		cfg:          cfg,
		createBucket: NewLimiter(createRate, createPer),
		warnBucket:   NewLimiter(warnRate, warnPer),
		renameBucket: NewLimiter(renameRate, renamePer),
		claimBucket:  claimBucket,
	}
}

// ---------- eventos ----------

// HandleVoiceJoin: alguien entró a un canal de voz. Si es un source
// registrado se provisiona un room; si es un AutoRoom se le abre el text
// channel acompañante.
func (s *RoomService) HandleVoiceJoin(ctx context.Context, guildID, channelID, userID string) {
	src, ok, err := s.cfg.SourceConfig(ctx, guildID, channelID)
	if err != nil {
		log.Printf("[rooms] source config %s: %v", channelID, err)
		return
	}
	if ok {
		s.provision(ctx, src, guildID, userID)
		return
	}
	if rec, err := s.rooms.Get(ctx, channelID); err == nil {
		s.syncTextAccess(ctx, rec, userID, true)
	}
}

// HandleVoiceLeave: alguien salió de un canal de voz. Un AutoRoom vacío se
// destruye; si quedó gente y el que salió era el dueño, se abre la ventana
// de reclamo.
func (s *RoomService) HandleVoiceLeave(ctx context.Context, guildID, channelID, userID string) {
	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return
	}
	if s.deleteIfEmpty(ctx, rec) {
		return
	}
	s.syncTextAccess(ctx, rec, userID, false)
	if rec.OwnerID != nil && *rec.OwnerID == userID {
		s.claimBucket.Reset(channelID)
	}
}

// HandleChannelDelete: un canal desapareció río arriba. Hay que distinguir
// si era un source (se purga su config) o un room (se purga su record).
func (s *RoomService) HandleChannelDelete(ctx context.Context, guildID, channelID string) {
	if _, ok, err := s.cfg.SourceConfig(ctx, guildID, channelID); err == nil && ok {
		if err := s.cfg.ClearSourceConfig(ctx, guildID, channelID); err != nil {
			log.Printf("[rooms] purge source %s: %v", channelID, err)
		}
		return
	}
	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return
	}
	if rec.TextChannelID != nil {
		if err := s.p.DeleteChannel(ctx, *rec.TextChannelID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[rooms] delete text %s: %v", *rec.TextChannelID, err)
		}
	}
	if err := s.rooms.Delete(ctx, channelID); err != nil {
		log.Printf("[rooms] purge room %s: %v", channelID, err)
	}
}

// HandleMemberJoin: un miembro (re)entró al guild. Se le reaplica el deny en
// cada room donde figure como denegado, para que salir y volver no sirva de
// evasión si el overwrite se perdió en el medio.
func (s *RoomService) HandleMemberJoin(ctx context.Context, guildID, userID string) {
	all, err := s.rooms.AllByGuild(ctx, guildID)
	if err != nil {
		log.Printf("[rooms] rejoin scan guild=%s: %v", guildID, err)
		return
	}
	for _, rec := range all {
		if !contains(rec.DeniedMemberIDs, userID) {
			continue
		}
		src, ok, err := s.cfg.SourceConfig(ctx, guildID, rec.SourceChannelID)
		if err != nil || !ok {
			continue
		}
		err = s.p.SetPermission(ctx, rec.ChannelID, domain.MemberPrincipal(userID), src.Perms().Deny)
		if err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[rooms] reapply deny %s en %s: %v", userID, rec.ChannelID, err)
		}
	}
}

// Reconcile: barrido de arranque. Rooms vacíos se destruyen; records cuyo
// canal remoto ya no existe se purgan (junto al text channel colgado).
func (s *RoomService) Reconcile(ctx context.Context) error {
	all, err := s.rooms.All(ctx)
	if err != nil {
		return err
	}
	for _, rec := range all {
		_, err := s.p.Channel(ctx, rec.ChannelID)
		switch {
		case errors.Is(err, ErrNotFound):
			if rec.TextChannelID != nil {
				if derr := s.p.DeleteChannel(ctx, *rec.TextChannelID); derr != nil && !errors.Is(derr, ErrNotFound) {
					log.Printf("[rooms] reconcile text %s: %v", *rec.TextChannelID, derr)
				}
			}
			if derr := s.rooms.Delete(ctx, rec.ChannelID); derr != nil {
				log.Printf("[rooms] reconcile purge %s: %v", rec.ChannelID, derr)
			}
		case err != nil:
			log.Printf("[rooms] reconcile %s: %v", rec.ChannelID, err)
		default:
			s.deleteIfEmpty(ctx, rec)
		}
	}
	return nil
}

// ---------- provisión ----------

func (s *RoomService) provision(ctx context.Context, src storage.SourceConfig, guildID, userID string) {
	cat, err := s.p.Channel(ctx, src.DestCategoryID)
	if err != nil || cat.Kind != ChannelCategory {
		return
	}

	// preflight: sin permisos suficientes no hay room y no hay error visible
	srcPerms, err := s.p.BotPermissionsIn(src.SourceChannelID)
	if err != nil || srcPerms&domain.BotSourcePerms != domain.BotSourcePerms {
		return
	}
	catPerms, err := s.p.BotPermissionsIn(src.DestCategoryID)
	if err != nil || catPerms&domain.BotRoomPerms != domain.BotRoomPerms {
		return
	}

	if retry, ok := s.createBucket.CheckAndIncrement(userID); !ok {
		s.warnCreateSpam(ctx, userID, retry)
		return
	}

	profile := s.p.MemberProfile(guildID, userID)
	data := domain.TemplateData{Username: profile.DisplayName, Game: profile.Game}
	taken := s.p.VoiceChannelNames(guildID, src.DestCategoryID)
	name := domain.GenerateRoomName(src.NameTemplate, data, taken)

	srcCh, err := s.p.Channel(ctx, src.SourceChannelID)
	if err != nil {
		log.Printf("[rooms] leer source %s: %v", src.SourceChannelID, err)
		return
	}

	pol, err := s.cfg.GuildPolicy(ctx, guildID)
	if err != nil {
		log.Printf("[rooms] guild policy %s: %v", guildID, err)
		pol = storage.DefaultGuildPolicy(guildID)
	}
	extra := append([]string{}, pol.BotRoleIDs...)
	if pol.ModAccess {
		extra = append(extra, s.p.ModeratorRoleIDs(guildID)...)
	}
	if pol.AdminAccess {
		extra = append(extra, s.p.AdminRoleIDs(guildID)...)
	}

	in := domain.RoomOverwriteInput{
		Source:           srcCh.Overwrites,
		BotCategoryPerms: catPerms,
		RoomType:         src.Type(),
		MemberRoleIDs:    src.MemberRoleIDs,
		EveryoneRoleID:   s.p.EveryoneRoleID(guildID),
		BotID:            s.p.BotUserID(),
		MemberID:         userID,
		ExtraRoleIDs:     extra,
	}

	room, err := s.p.CreateVoiceChannel(ctx, guildID, VoiceChannelCreate{
		Name:       name,
		CategoryID: src.DestCategoryID,
		Bitrate:    min(srcCh.Bitrate, s.p.GuildBitrateLimit(guildID)),
		UserLimit:  srcCh.UserLimit,
		Overwrites: domain.BuildRoomOverwrites(in),
	})
	if err != nil {
		log.Printf("[rooms] crear room (source=%s): %v", src.SourceChannelID, err)
		return
	}

	rec := storage.RoomRecord{
		ChannelID:       room.ID,
		GuildID:         guildID,
		SourceChannelID: src.SourceChannelID,
	}
	if src.Type() != domain.RoomTypeServer {
		rec.OwnerID = &userID
	}
	if err := s.rooms.Upsert(ctx, rec); err != nil {
		log.Printf("[rooms] guardar record %s: %v", room.ID, err)
		s.discard(ctx, room.ID)
		return
	}

	if err := s.p.MoveMember(ctx, guildID, userID, room.ID); err != nil {
		// rollback: un room vacío sin dueño adentro no se queda huérfano
		log.Printf("[rooms] move %s -> %s: %v (rollback)", userID, room.ID, err)
		s.discard(ctx, room.ID)
		return
	}

	// de acá en adelante todo es best-effort
	if err := s.p.DeployControlPanel(ctx, room.ID, name); err != nil {
		log.Printf("[rooms] panel en %s: %v", room.ID, err)
	}

	var textID *string
	if src.TextChannel {
		textID = s.createTextChannel(ctx, guildID, src, in, catPerms, name, room.ID, data)
	}

	if src.TextHint != "" {
		hint, err := domain.RenderTemplate(src.TextHint, data)
		if err == nil && hint != "" {
			target := room.ID
			if textID != nil {
				target = *textID
			}
			if err := s.p.SendMessage(ctx, target, hint); err != nil && !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrNotFound) {
				log.Printf("[rooms] hint en %s: %v", target, err)
			}
		}
	}
}

func (s *RoomService) warnCreateSpam(ctx context.Context, userID string, retry time.Duration) {
	if _, ok := s.warnBucket.CheckAndIncrement(userID); !ok {
		return
	}
	msg := fmt.Sprintf(
		"Ey! Parece que estás tratando de crear AutoRooms muy seguido.\n"+
			"Se pueden crear **%d** por minuto; probá de nuevo en **%s**.",
		createRate, retry.Round(time.Second))
	if err := s.p.SendDM(ctx, userID, msg); err != nil && !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrNotFound) {
		log.Printf("[rooms] warn DM %s: %v", userID, err)
	}
}

func (s *RoomService) createTextChannel(ctx context.Context, guildID string, src storage.SourceConfig, in domain.RoomOverwriteInput, catPerms int64, roomName, roomID string, data domain.TemplateData) *string {
	// sin los permisos de texto en la categoría el canal se omite sin ruido
	need := domain.BotTextPerms.Allow
	if catPerms&need != need {
		return nil
	}
	topic := ""
	if src.TextTopic != "" {
		if t, err := domain.RenderTemplate(src.TextTopic, data); err == nil {
			topic = t
		}
	}
	// "Pepe's Room" -> "pepe-room"; Discord normaliza igual, esto sólo evita
	// que el apóstrofe quede como guion suelto
	textName := strings.ToLower(strings.ReplaceAll(roomName, "'s ", " "))
	tch, err := s.p.CreateTextChannel(ctx, guildID, TextChannelCreate{
		Name:       textName,
		CategoryID: src.DestCategoryID,
		Topic:      topic,
		Overwrites: domain.BuildTextOverwrites(in),
	})
	if err != nil {
		log.Printf("[rooms] crear text para %s: %v", roomID, err)
		return nil
	}
	if err := s.rooms.SetTextChannel(ctx, roomID, &tch.ID); err != nil {
		log.Printf("[rooms] guardar text %s: %v", tch.ID, err)
	}
	return &tch.ID
}

// ---------- teardown ----------

func (s *RoomService) deleteIfEmpty(ctx context.Context, rec storage.RoomRecord) bool {
	if len(s.p.Occupants(rec.GuildID, rec.ChannelID)) > 0 {
		return false
	}
	s.teardown(ctx, rec)
	return true
}

func (s *RoomService) teardown(ctx context.Context, rec storage.RoomRecord) {
	if rec.TextChannelID != nil {
		if err := s.p.DeleteChannel(ctx, *rec.TextChannelID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[rooms] delete text %s: %v", *rec.TextChannelID, err)
		}
	}
	if err := s.p.DeleteChannel(ctx, rec.ChannelID); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("[rooms] delete room %s: %v", rec.ChannelID, err)
	}
	if err := s.rooms.Delete(ctx, rec.ChannelID); err != nil {
		log.Printf("[rooms] purge record %s: %v", rec.ChannelID, err)
	}
}

// discard: rollback de una provisión a medias (room recién creado).
func (s *RoomService) discard(ctx context.Context, channelID string) {
	if err := s.p.DeleteChannel(ctx, channelID); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("[rooms] rollback delete %s: %v", channelID, err)
	}
	if err := s.rooms.Delete(ctx, channelID); err != nil {
		log.Printf("[rooms] rollback purge %s: %v", channelID, err)
	}
}

// syncTextAccess abre o cierra el text channel acompañante para el miembro
// que entra o sale del room.
func (s *RoomService) syncTextAccess(ctx context.Context, rec storage.RoomRecord, userID string, joined bool) {
	if rec.TextChannelID == nil {
		return
	}
	delta := domain.TextDeny
	if joined {
		delta = domain.TextAccess
	}
	err := s.p.SetPermission(ctx, *rec.TextChannelID, domain.MemberPrincipal(userID), delta)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
		log.Printf("[rooms] text perms %s en %s: %v", userID, *rec.TextChannelID, err)
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
