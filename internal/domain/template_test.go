package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplateBasics(t *testing.T) {
	data := TemplateData{Username: "Pepe", Game: "Factorio", Dupenum: 1}

	got, err := RenderTemplate("{{username}}'s Room", data)
	require.NoError(t, err)
	assert.Equal(t, "Pepe's Room", got)

	got, err = RenderTemplate("{{game}} | {{username}}", data)
	require.NoError(t, err)
	assert.Equal(t, "Factorio | Pepe", got)
}

func TestRenderTemplateDupeBlock(t *testing.T) {
	tmpl := "{{username}}'s Room{% if dupenum > 1 %} ({{dupenum}}){% endif %}"

	got, err := RenderTemplate(tmpl, TemplateData{Username: "Pepe", Dupenum: 1})
	require.NoError(t, err)
	assert.Equal(t, "Pepe's Room", got, "con dupenum 1 el bloque no aparece")

	got, err = RenderTemplate(tmpl, TemplateData{Username: "Pepe", Dupenum: 3})
	require.NoError(t, err)
	assert.Equal(t, "Pepe's Room (3)", got)
}

func TestRenderTemplateNotGame(t *testing.T) {
	tmpl := "{{game}}{% if not game %}{{username}}'s Room{% endif %}"

	got, err := RenderTemplate(tmpl, TemplateData{Username: "Pepe", Game: "Hades"})
	require.NoError(t, err)
	assert.Equal(t, "Hades", got)

	got, err = RenderTemplate(tmpl, TemplateData{Username: "Pepe"})
	require.NoError(t, err)
	assert.Equal(t, "Pepe's Room", got)
}

func TestRenderTemplateMalformed(t *testing.T) {
	data := TemplateData{Username: "Pepe", Dupenum: 1}
	for _, tmpl := range []string{
		"{{username",
		"{{nope}}",
		"{% if dupenum > 1 %}abierto",
		"{% endif %}",
		"{% frobar %}x{% endif %}",
		"{% if dupenum >> 1 %}x{% endif %}",
	} {
		_, err := RenderTemplate(tmpl, data)
		assert.Error(t, err, "tmpl=%q", tmpl)
	}
}
