package domain

import "github.com/bwmarrin/discordgo"

// Principal: destino de un overwrite de canal (miembro o rol).
type PrincipalKind int

const (
	PrincipalRole PrincipalKind = iota
	PrincipalMember
)

type Principal struct {
	Kind PrincipalKind
	ID   string
}

func RolePrincipal(id string) Principal   { return Principal{Kind: PrincipalRole, ID: id} }
func MemberPrincipal(id string) Principal { return Principal{Kind: PrincipalMember, ID: id} }

// Mention devuelve la mención de Discord para mensajes al usuario.
func (p Principal) Mention() string {
	if p.Kind == PrincipalRole {
		return "<@&" + p.ID + ">"
	}
	return "<@" + p.ID + ">"
}

// PermDelta: bits permitidos/denegados de un overwrite. Un bit que no está
// en ninguno de los dos queda heredado del rol.
type PermDelta struct {
	Allow int64
	Deny  int64
}

func (d PermDelta) IsZero() bool { return d.Allow == 0 && d.Deny == 0 }

// Merge aplica other sobre d: cada bit que other toca gana sobre d.
func (d PermDelta) Merge(other PermDelta) PermDelta {
	touched := other.Allow | other.Deny
	return PermDelta{
		Allow: (d.Allow &^ touched) | other.Allow,
		Deny:  (d.Deny &^ touched) | other.Deny,
	}
}

// Restrict descarta los bits que no estén en mask. ManageRoles se descarta
// siempre: Discord no lo acepta dentro de un overwrite de canal.
func (d PermDelta) Restrict(mask int64) PermDelta {
	mask &^= discordgo.PermissionManageRoles
	return PermDelta{Allow: d.Allow & mask, Deny: d.Deny & mask}
}

// Permisos operativos del bot dentro de cada room. Se aplican al final del
// builder para que ningún overwrite heredado los pueda pisar.
const BotRoomPerms = discordgo.PermissionViewChannel |
	discordgo.PermissionVoiceConnect |
	discordgo.PermissionSendMessages |
	discordgo.PermissionManageChannels |
	discordgo.PermissionManageMessages |
	discordgo.PermissionVoiceMoveMembers

// Permisos que el bot necesita sobre el canal origen para operar.
const BotSourcePerms = discordgo.PermissionViewChannel |
	discordgo.PermissionVoiceConnect |
	discordgo.PermissionVoiceMoveMembers

// Overwrites: tabla principal -> delta con orden de inserción estable, para
// que la creación del canal y los tests sean deterministas.
type Overwrites struct {
	order []Principal
	table map[Principal]PermDelta
}

func NewOverwrites() *Overwrites {
	return &Overwrites{table: map[Principal]PermDelta{}}
}

// Set reemplaza el delta completo del principal.
func (o *Overwrites) Set(p Principal, d PermDelta) {
	if _, ok := o.table[p]; !ok {
		o.order = append(o.order, p)
	}
	o.table[p] = d
}

// Apply mergea d sobre el delta existente (los bits nuevos ganan).
func (o *Overwrites) Apply(p Principal, d PermDelta) {
	cur, ok := o.table[p]
	if !ok {
		o.Set(p, d)
		return
	}
	o.table[p] = cur.Merge(d)
}

func (o *Overwrites) Get(p Principal) (PermDelta, bool) {
	d, ok := o.table[p]
	return d, ok
}

func (o *Overwrites) Len() int { return len(o.order) }

func (o *Overwrites) Each(fn func(Principal, PermDelta)) {
	for _, p := range o.order {
		fn(p, o.table[p])
	}
}
