package discord

import "github.com/bwmarrin/discordgo"

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "autoroom",
		Description: "Maneja tu AutoRoom (el canal donde estás conectado)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "info", Description: "Ver el estado del AutoRoom"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "claim", Description: "Reclamar un AutoRoom sin dueño presente"},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "name", Description: "Renombrar el AutoRoom",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionString, Name: "nombre", Description: "Nombre nuevo", Required: true,
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "visibility", Description: "Cambiar la visibilidad",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionString, Name: "modo", Description: "public, locked o private", Required: true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "public", Value: "public"},
						{Name: "locked", Value: "locked"},
						{Name: "private", Value: "private"},
					},
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "bitrate", Description: "Cambiar el bitrate",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionInteger, Name: "kbps", Description: "Bitrate en kbps", Required: true,
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "limit", Description: "Cambiar el límite de usuarios",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionInteger, Name: "cantidad", Description: "0 = sin límite", Required: true,
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "allow", Description: "Permitir el acceso a un miembro o rol",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionMentionable, Name: "quien", Description: "Miembro o rol", Required: true,
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "deny", Description: "Cortar el acceso a un miembro o rol",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionMentionable, Name: "quien", Description: "Miembro o rol", Required: true,
				}},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "transfer", Description: "Ofrecer la propiedad a otro miembro",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionUser, Name: "quien", Description: "Nuevo dueño", Required: true,
				}},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "accept", Description: "Aceptar una oferta de transferencia"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "decline", Description: "Rechazar una oferta de transferencia"},
		},
	},
	{
		Name:        "autoroomset",
		Description: "Configura los AutoRooms del server (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "create", Description: "Registrar un canal origen",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal de voz disparador", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "categoria", Description: "Categoría destino", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "remove", Description: "Dar de baja un canal origen",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen registrado", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "type", Description: "Tipo de room que genera un origen",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionString, Name: "tipo", Description: "public, private o server", Required: true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "public", Value: "public"},
							{Name: "private", Value: "private"},
							{Name: "server", Value: "server"},
						}},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "template", Description: "Plantilla de nombre de los rooms",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionString, Name: "plantilla", Description: "Vacía = volver al default"},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "text", Description: "Text channel acompañante on/off",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "activo", Description: "Crear text channel por room", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "texthint", Description: "Mensaje de bienvenida de cada room",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionString, Name: "mensaje", Description: "Vacío = sin mensaje"},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "texttopic", Description: "Topic del text channel acompañante",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionString, Name: "topic", Description: "Vacío = sin topic"},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "memberroles", Description: "Restringir el acceso base a ciertos roles",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "origen", Description: "Canal origen", Required: true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}},
					{Type: discordgo.ApplicationCommandOptionString, Name: "roles", Description: "Menciones o IDs separados por espacio; vacío = abierto"},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "access", Description: "Acceso automático de admins, mods y bots",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "admins", Description: "Roles admin entran siempre"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "mods", Description: "Roles mod entran siempre"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "botroles", Description: "Roles de bots (menciones o IDs)"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "view", Description: "Ver la configuración actual"},
		},
	},
}
