package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	out := Render("Hello {{name}}, {{count}} students need review.", map[string]string{
		"name":  "Ms. Chen",
		"count": "3",
	})
	assert.Equal(t, "Hello Ms. Chen, 3 students need review.", out)
}

func TestRenderMissingKeyRendersEmpty(t *testing.T) {
	out := Render("Dear {{name}}, see {{missing}} attached.", map[string]string{"name": "admin"})
	assert.Equal(t, "Dear admin, see  attached.", out)
}

func TestRenderIsLiteralSubstitution(t *testing.T) {
	// Injected placeholder syntax must come out verbatim, never re-expanded.
	out := Render("value: {{v}}", map[string]string{
		"v":      "{{other}}",
		"other":  "should never appear",
	})
	assert.Equal(t, "value: {{other}}", out)
}

func TestRenderUnterminatedPlaceholderLeftAlone(t *testing.T) {
	out := Render("broken {{name", map[string]string{"name": "x"})
	assert.Equal(t, "broken {{name", out)
}

func TestRenderEmptyTemplate(t *testing.T) {
	assert.Equal(t, "", Render("", map[string]string{"name": "x"}))
}
