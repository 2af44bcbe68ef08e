package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("apply.json", "answer-field")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Question}}")
	assert.Contains(t, prompt, "Return ONLY valid JSON")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("apply.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() { MustGet("apply.json", "missing") })
	assert.NotPanics(t, func() { MustGet("apply.json", "operator-request") })
}

func TestFormat(t *testing.T) {
	got := Format("{{.Field}} for {{.Title}} at {{.Company}} {{.Other}}", map[string]string{
		"Field":   "Notice period",
		"Title":   "Data Analyst",
		"Company": "Acme",
	})
	assert.Equal(t, "Notice period for Data Analyst at Acme {{.Other}}", got)
}

func TestRender(t *testing.T) {
	got, err := Render("apply.json", "operator-request", map[string]string{
		"Field": "Notice period", "Title": "Data Analyst", "Company": "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, `Required field "Notice period" for Data Analyst at Acme`, got)
}

func TestList(t *testing.T) {
	keys, err := List("apply.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"answer-field", "operator-request"}, keys)
}
