package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Motor mínimo de plantillas de nombre. Soporta lo que usan las plantillas
// heredadas: sustitución `{{username}}`, `{{game}}`, `{{dupenum}}` y bloques
// condicionales `{% if dupenum > 1 %}...{% endif %}` (sin anidar).

type TemplateData struct {
	Username string
	Game     string // vacío si el miembro no está jugando nada
	Dupenum  int
}

// segment: trozo ya renderizado. dupe marca lo que salió del mecanismo de
// desduplicación, que se conserva al truncar.
type segment struct {
	text string
	dupe bool
}

// RenderTemplate evalúa la plantilla. Una plantilla malformada devuelve
// error; el caller decide el nombre de respaldo.
func RenderTemplate(tmpl string, data TemplateData) (string, error) {
	segs, err := renderSegments(tmpl, data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return strings.TrimSpace(b.String()), nil
}

func renderSegments(tmpl string, data TemplateData) ([]segment, error) {
	var out []segment
	rest := tmpl
	for rest != "" {
		iv := strings.Index(rest, "{{")
		it := strings.Index(rest, "{%")
		if iv < 0 && it < 0 {
			out = append(out, segment{text: rest})
			break
		}
		next := iv
		isTag := false
		if iv < 0 || (it >= 0 && it < iv) {
			next = it
			isTag = true
		}
		if next > 0 {
			out = append(out, segment{text: rest[:next]})
		}
		rest = rest[next:]

		if !isTag {
			end := strings.Index(rest, "}}")
			if end < 0 {
				return nil, fmt.Errorf("plantilla: %q sin cerrar", "{{")
			}
			name := strings.TrimSpace(rest[2:end])
			val, dupe, err := lookupVar(name, data)
			if err != nil {
				return nil, err
			}
			out = append(out, segment{text: val, dupe: dupe})
			rest = rest[end+2:]
			continue
		}

		end := strings.Index(rest, "%}")
		if end < 0 {
			return nil, fmt.Errorf("plantilla: %q sin cerrar", "{%")
		}
		tag := strings.TrimSpace(rest[2:end])
		rest = rest[end+2:]
		if tag == "endif" {
			return nil, fmt.Errorf("plantilla: endif sin if")
		}
		cond, ok := strings.CutPrefix(tag, "if ")
		if !ok {
			return nil, fmt.Errorf("plantilla: tag desconocido %q", tag)
		}

		// cuerpo hasta el endif (sin bloques anidados)
		bodyEnd, tailStart, err := findEndif(rest)
		if err != nil {
			return nil, err
		}
		body := rest[:bodyEnd]
		rest = rest[tailStart:]

		truth, usesDupe, err := evalCond(cond, data)
		if err != nil {
			return nil, err
		}
		if !truth {
			continue
		}
		inner, err := renderSegments(body, data)
		if err != nil {
			return nil, err
		}
		for _, s := range inner {
			out = append(out, segment{text: s.text, dupe: s.dupe || usesDupe})
		}
	}
	return out, nil
}

func findEndif(s string) (bodyEnd, tailStart int, err error) {
	off := 0
	for {
		it := strings.Index(s[off:], "{%")
		if it < 0 {
			return 0, 0, fmt.Errorf("plantilla: if sin endif")
		}
		it += off
		end := strings.Index(s[it:], "%}")
		if end < 0 {
			return 0, 0, fmt.Errorf("plantilla: %q sin cerrar", "{%")
		}
		tag := strings.TrimSpace(s[it+2 : it+end])
		if strings.HasPrefix(tag, "if ") {
			return 0, 0, fmt.Errorf("plantilla: if anidado no soportado")
		}
		if tag == "endif" {
			return it, it + end + 2, nil
		}
		off = it + end + 2
	}
}

func lookupVar(name string, data TemplateData) (val string, dupe bool, err error) {
	switch name {
	case "username":
		return data.Username, false, nil
	case "game":
		return data.Game, false, nil
	case "dupenum":
		return strconv.Itoa(data.Dupenum), true, nil
	}
	return "", false, fmt.Errorf("plantilla: variable desconocida %q", name)
}

// evalCond soporta `[not] var` y `var <op> numero` con op en >, >=, ==, <.
func evalCond(cond string, data TemplateData) (truth, usesDupe bool, err error) {
	fields := strings.Fields(cond)
	negate := false
	if len(fields) > 0 && fields[0] == "not" {
		negate = true
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return false, false, fmt.Errorf("plantilla: condición vacía")
	}

	name := fields[0]
	usesDupe = name == "dupenum"

	if len(fields) == 1 {
		var v bool
		switch name {
		case "username":
			v = data.Username != ""
		case "game":
			v = data.Game != ""
		case "dupenum":
			v = data.Dupenum != 0
		default:
			return false, false, fmt.Errorf("plantilla: variable desconocida %q", name)
		}
		return v != negate, usesDupe, nil
	}

	if len(fields) != 3 || name != "dupenum" {
		return false, false, fmt.Errorf("plantilla: condición no soportada %q", cond)
	}
	n, convErr := strconv.Atoi(fields[2])
	if convErr != nil {
		return false, false, fmt.Errorf("plantilla: número inválido en %q", cond)
	}
	var v bool
	switch fields[1] {
	case ">":
		v = data.Dupenum > n
	case ">=":
		v = data.Dupenum >= n
	case "==":
		v = data.Dupenum == n
	case "<":
		v = data.Dupenum < n
	default:
		return false, false, fmt.Errorf("plantilla: operador desconocido %q", fields[1])
	}
	return v != negate, usesDupe, nil
}
