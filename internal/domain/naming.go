package domain

import (
	"strconv"
	"strings"
)

// Límite de Discord para nombres de canal.
const MaxChannelNameLength = 100

// Tope de reintentos de desduplicación. Si se agota, gana el último
// candidato aunque colisione.
const maxDupeAttempts = 100

// DefaultNameTemplate es la plantilla que usa un source recién registrado.
const DefaultNameTemplate = "{{username}}'s Room{% if dupenum > 1 %} ({{dupenum}}){% endif %}"

// GameNameTemplate nombra el room según lo que está jugando el dueño.
const GameNameTemplate = "{{game}}{% if not game %}{{username}}'s Room{% endif %}{% if dupenum > 1 %} ({{dupenum}}){% endif %}"

func defaultRoomName(data TemplateData) string {
	name := data.Username + "'s Room"
	if data.Dupenum > 1 {
		segs := []segment{{text: name}, {text: " (" + strconv.Itoa(data.Dupenum) + ")", dupe: true}}
		return truncateSegments(segs)
	}
	return truncate(name)
}

// GenerateRoomName renderiza tmpl e incrementa dupenum hasta que el nombre
// no exista en taken. Una plantilla malformada no aborta nada: cae al
// nombre por defecto.
func GenerateRoomName(tmpl string, data TemplateData, taken []string) string {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultNameTemplate
	}
	used := map[string]bool{}
	for _, n := range taken {
		used[n] = true
	}

	candidate := ""
	for n := 1; n <= maxDupeAttempts; n++ {
		data.Dupenum = n
		segs, err := renderSegments(tmpl, data)
		if err != nil {
			return defaultRoomName(data)
		}
		candidate = truncateSegments(segs)
		if candidate == "" {
			candidate = defaultRoomName(data)
		}
		if !used[candidate] {
			return candidate
		}
	}
	return candidate
}

// truncateSegments recorta a MaxChannelNameLength sacrificando primero el
// contenido normal del final, para no perder el sufijo de desduplicación.
func truncateSegments(segs []segment) string {
	total := 0
	for _, s := range segs {
		total += len([]rune(s.text))
	}
	over := total - MaxChannelNameLength
	if over > 0 {
		// primero el texto normal, de atrás hacia adelante
		for i := len(segs) - 1; i >= 0 && over > 0; i-- {
			if segs[i].dupe {
				continue
			}
			r := []rune(segs[i].text)
			cut := min(over, len(r))
			segs[i].text = string(r[:len(r)-cut])
			over -= cut
		}
		// si los sufijos solos ya superan el límite, no queda otra
		for i := len(segs) - 1; i >= 0 && over > 0; i-- {
			r := []rune(segs[i].text)
			cut := min(over, len(r))
			segs[i].text = string(r[:len(r)-cut])
			over -= cut
		}
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxChannelNameLength {
		return s
	}
	return strings.TrimSpace(string(r[:MaxChannelNameLength]))
}
