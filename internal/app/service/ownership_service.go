package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// OwnershipService maneja quién es dueño de cada room y quién puede entrar:
// claim, transfer (directo o por oferta) y allow/deny de miembros y roles.
type OwnershipService struct {
	p     Platform
	rooms RoomStore
	cfg   ConfigStore

	claimBucket *Limiter // compartido con RoomService

	mu     sync.Mutex
	locks  map[string]*sync.Mutex // sección crítica por room
	offers map[string]transferOffer
}

type transferOffer struct {
	FromID string
	ToID   string
}

func NewOwnershipService(p Platform, rooms RoomStore, cfg ConfigStore, claimBucket *Limiter) *OwnershipService {
	return &OwnershipService{
		p:           p,
		rooms:       rooms,
		cfg:         cfg,
		claimBucket: claimBucket,
		locks:       make(map[string]*sync.Mutex),
		offers:      make(map[string]transferOffer),
	}
}

func (s *OwnershipService) roomLock(channelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[channelID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[channelID] = l
	}
	return l
}

// ---------- claim ----------

// Claim: tomar la propiedad de un room sin dueño presente. Dos claims
// simultáneos compiten por el mismo lock y el bucket de 1/120s decide un
// único ganador.
func (s *OwnershipService) Claim(ctx context.Context, channelID, userID string, isAdmin bool) (string, error) {
	l := s.roomLock(channelID)
	l.Lock()
	defer l.Unlock()

	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal no es un AutoRoom.", nil
	}
	if !s.claimable(rec, isAdmin) {
		return fmt.Sprintf("🔒 Este AutoRoom ya tiene dueño: <@%s>.", *rec.OwnerID), nil
	}
	if retry, ok := s.claimBucket.CheckAndIncrement(channelID); !ok {
		return fmt.Sprintf("⏳ Este AutoRoom se reclamó hace poco. Probá de nuevo en **%s**.",
			retry.Round(time.Second)), nil
	}
	if err := s.becomeOwner(ctx, rec, userID); err != nil {
		return "", err
	}
	return "✅ Ahora sos el dueño de este AutoRoom.", nil
}

// claimable: sin dueño, o el dueño registrado ya no está conectado al room.
// Un admin puede reclamar siempre.
func (s *OwnershipService) claimable(rec storage.RoomRecord, isAdmin bool) bool {
	if isAdmin || rec.OwnerID == nil {
		return true
	}
	return !contains(s.p.Occupants(rec.GuildID, rec.ChannelID), *rec.OwnerID)
}

// becomeOwner persiste el dueño nuevo y le aplica el bundle de dueño.
// El overwrite es best-effort: la propiedad ya quedó registrada.
func (s *OwnershipService) becomeOwner(ctx context.Context, rec storage.RoomRecord, userID string) error {
	if err := s.rooms.SetOwner(ctx, rec.ChannelID, &userID); err != nil {
		return fmt.Errorf("set owner %s: %w", rec.ChannelID, err)
	}
	src, ok, err := s.cfg.SourceConfig(ctx, rec.GuildID, rec.SourceChannelID)
	if err != nil || !ok {
		return nil
	}
	if err := s.p.SetPermission(ctx, rec.ChannelID, domain.MemberPrincipal(userID), src.Perms().Owner); err != nil {
		log.Printf("[owner] owner perms %s en %s: %v", userID, rec.ChannelID, err)
	}
	if rec.TextChannelID != nil {
		if err := s.p.SetPermission(ctx, *rec.TextChannelID, domain.MemberPrincipal(userID), domain.TextOwner); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[owner] owner text perms %s: %v", *rec.TextChannelID, err)
		}
	}
	return nil
}

// ---------- transfer ----------

// Transfer: el dueño cede el room directamente, sin oferta de por medio.
func (s *OwnershipService) Transfer(ctx context.Context, channelID, fromID, toID string, isAdmin bool) (string, error) {
	l := s.roomLock(channelID)
	l.Lock()
	defer l.Unlock()

	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal no es un AutoRoom.", nil
	}
	if !isAdmin && (rec.OwnerID == nil || *rec.OwnerID != fromID) {
		return "🔒 Sólo el dueño del AutoRoom puede transferirlo.", nil
	}
	if !contains(s.p.Occupants(rec.GuildID, rec.ChannelID), toID) {
		return "⚠️ El nuevo dueño tiene que estar conectado al canal.", nil
	}
	if err := s.becomeOwner(ctx, rec, toID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ AutoRoom transferido a <@%s>.", toID), nil
}

// RequestTransfer registra una oferta pendiente que el destinatario tiene
// que aceptar. Una oferta nueva pisa la anterior del mismo room.
func (s *OwnershipService) RequestTransfer(ctx context.Context, channelID, fromID, toID string) (string, error) {
	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal no es un AutoRoom.", nil
	}
	if rec.OwnerID == nil || *rec.OwnerID != fromID {
		return "🔒 Sólo el dueño del AutoRoom puede ofrecer la transferencia.", nil
	}
	if fromID == toID {
		return "⚠️ Ya sos el dueño de este AutoRoom.", nil
	}
	if !contains(s.p.Occupants(rec.GuildID, rec.ChannelID), toID) {
		return "⚠️ El nuevo dueño tiene que estar conectado al canal.", nil
	}
	s.mu.Lock()
	s.offers[channelID] = transferOffer{FromID: fromID, ToID: toID}
	s.mu.Unlock()
	return fmt.Sprintf("⏳ Oferta enviada. <@%s> tiene que aceptarla con el panel o `/autoroom accept`.", toID), nil
}

// ResolveTransfer: el destinatario acepta o rechaza la oferta pendiente.
func (s *OwnershipService) ResolveTransfer(ctx context.Context, channelID, userID string, accept bool) (string, error) {
	s.mu.Lock()
	offer, ok := s.offers[channelID]
	if ok && offer.ToID == userID {
		delete(s.offers, channelID)
	}
	s.mu.Unlock()
	if !ok || offer.ToID != userID {
		return "⚠️ No hay ninguna oferta de transferencia pendiente para vos acá.", nil
	}
	if !accept {
		return "✅ Oferta rechazada.", nil
	}

	l := s.roomLock(channelID)
	l.Lock()
	defer l.Unlock()

	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal ya no es un AutoRoom.", nil
	}
	if rec.OwnerID == nil || *rec.OwnerID != offer.FromID {
		return "⚠️ El dueño cambió desde que se hizo la oferta.", nil
	}
	if err := s.becomeOwner(ctx, rec, userID); err != nil {
		return "", err
	}
	return "✅ Ahora sos el dueño de este AutoRoom.", nil
}

// ---------- allow / deny ----------

// SetAccess: el dueño permite o corta el acceso de un miembro o rol. Los
// miembros denegados quedan persistidos para reaplicar el corte si vuelven
// al guild.
func (s *OwnershipService) SetAccess(ctx context.Context, channelID, userID string, target domain.Principal, allow, isAdmin bool) (string, error) {
	// serializa el read-modify-write de denied_member_ids por room
	l := s.roomLock(channelID)
	l.Lock()
	defer l.Unlock()

	rec, err := s.rooms.Get(ctx, channelID)
	if err != nil {
		return "⚠️ Este canal no es un AutoRoom.", nil
	}
	if !isAdmin && (rec.OwnerID == nil || *rec.OwnerID != userID) {
		return "🔒 Sólo el dueño del AutoRoom puede manejar los accesos.", nil
	}
	if !allow && target.Kind == domain.PrincipalMember && rec.OwnerID != nil && target.ID == *rec.OwnerID {
		return "⚠️ No podés denegar al dueño del AutoRoom.", nil
	}

	src, ok, err := s.cfg.SourceConfig(ctx, rec.GuildID, rec.SourceChannelID)
	if err != nil {
		return "", fmt.Errorf("source config %s: %w", rec.SourceChannelID, err)
	}
	bundles := domain.RoomTypePublic.Perms()
	if ok {
		bundles = src.Perms()
	}

	delta := bundles.Deny
	verb := "denegado"
	if allow {
		delta = bundles.Allow
		verb = "permitido"
	}
	err = s.p.SetPermission(ctx, channelID, target, delta)
	if errors.Is(err, ErrNotFound) {
		// el canal se fue mientras tanto, no hay nada que persistir
		return "⚠️ El canal ya no existe.", nil
	}
	if err != nil {
		return "", fmt.Errorf("set access %s: %w", channelID, err)
	}

	if target.Kind == domain.PrincipalMember {
		denied := updateDenied(rec.DeniedMemberIDs, target.ID, !allow)
		if err := s.rooms.SetDenied(ctx, channelID, denied); err != nil {
			log.Printf("[owner] persist denied %s: %v", channelID, err)
		}
	}

	if rec.TextChannelID != nil {
		textDelta := domain.TextDeny
		if allow {
			textDelta = domain.TextAccess
		}
		if err := s.p.SetPermission(ctx, *rec.TextChannelID, target, textDelta); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[owner] text access %s: %v", *rec.TextChannelID, err)
		}
	}

	return fmt.Sprintf("✅ Acceso %s para %s.", verb, target.Mention()), nil
}

func updateDenied(denied []string, id string, add bool) []string {
	out := make([]string, 0, len(denied)+1)
	for _, d := range denied {
		if d != id {
			out = append(out, d)
		}
	}
	if add {
		out = append(out, id)
	}
	return out
}
