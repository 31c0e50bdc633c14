package domain

// SourceOverwrite: un overwrite ya presente en el canal origen.
type SourceOverwrite struct {
	Target Principal
	Delta  PermDelta
}

// RoomOverwriteInput: todo lo que hace falta para calcular la tabla de
// overwrites de un room nuevo.
type RoomOverwriteInput struct {
	Source           []SourceOverwrite // tabla del canal origen, en orden
	BotCategoryPerms int64             // permisos efectivos del bot en la categoría destino
	RoomType         RoomType
	MemberRoleIDs    []string // roles "member" configurados en el source (puede estar vacío)
	EveryoneRoleID   string   // el rol @everyone del guild
	BotID            string
	MemberID         string   // quien se une; recibe el bundle owner salvo room type server
	ExtraRoleIDs     []string // mod/admin/bot roles con acceso garantizado
}

// BuildRoomOverwrites computa la tabla final de overwrites para un room.
// Nunca falla: los permisos que el bot no puede otorgar se descartan en
// silencio (Discord rechaza overwrites por encima del techo del actor).
// Los pasos posteriores pisan a los anteriores bit a bit, así que lo que
// venga heredado del source nunca puede debilitar al bot ni al dueño.
func BuildRoomOverwrites(in RoomOverwriteInput) *Overwrites {
	bundles := in.RoomType.Perms()
	memberRoles := map[string]bool{}
	for _, id := range in.MemberRoleIDs {
		memberRoles[id] = true
	}

	out := NewOverwrites()

	// 1-2. copia del source, recortada al techo del bot en la categoría
	for _, src := range in.Source {
		out.Set(src.Target, src.Delta.Restrict(in.BotCategoryPerms))
		if src.Target.Kind == PrincipalRole && memberRoles[src.Target.ID] {
			out.Apply(src.Target, bundles.Access)
		}
	}

	// si un member role no estaba en el source igual recibe acceso
	for _, id := range in.MemberRoleIDs {
		if _, ok := out.Get(RolePrincipal(id)); !ok {
			out.Apply(RolePrincipal(id), bundles.Access)
		}
	}

	// 3. everyone: deny si hay member roles, access si no
	if len(in.MemberRoleIDs) > 0 {
		out.Apply(RolePrincipal(in.EveryoneRoleID), bundles.Deny)
	} else {
		out.Apply(RolePrincipal(in.EveryoneRoleID), bundles.Access)
	}

	// 4. el bot siempre, al final, innegociable
	out.Apply(MemberPrincipal(in.BotID), PermDelta{Allow: BotRoomPerms})

	// 5. dueño (salvo rooms de servidor)
	if in.RoomType != RoomTypeServer && in.MemberID != "" {
		out.Apply(MemberPrincipal(in.MemberID), bundles.Owner)
	}

	// 6. roles privilegiados
	for _, id := range in.ExtraRoleIDs {
		out.Apply(RolePrincipal(id), bundles.Allow)
	}

	return out
}

// BuildTextOverwrites computa la tabla del text channel acompañante,
// espejando la política del room.
func BuildTextOverwrites(in RoomOverwriteInput) *Overwrites {
	out := NewOverwrites()
	out.Apply(MemberPrincipal(in.BotID), BotTextPerms)
	out.Apply(RolePrincipal(in.EveryoneRoleID), TextDeny)
	if in.MemberID != "" {
		if in.RoomType != RoomTypeServer {
			out.Apply(MemberPrincipal(in.MemberID), TextOwner)
		} else {
			out.Apply(MemberPrincipal(in.MemberID), TextAccess)
		}
	}
	for _, id := range in.ExtraRoleIDs {
		out.Apply(RolePrincipal(id), TextAccess)
	}
	return out
}
