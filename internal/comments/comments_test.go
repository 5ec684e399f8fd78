package comments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "Button.docs.json", `{
  "componentDescription": "A button.",
  "props": {"label": "/** The label. */"}
}`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "A button.", c.Description())

	doc, ok := c.Prop("label")
	assert.True(t, ok)
	assert.Equal(t, "/** The label. */", doc)

	_, ok = c.Prop("missing")
	assert.False(t, ok)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "Button.docs.yml", "componentDescription: |\n  Line one.\n  Line two.\nprops:\n  disabled: /** Off. */\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Line one.\nLine two.\n", c.ComponentDescription)
	assert.Equal(t, map[string]string{"disabled": "/** Off. */"}, c.Props)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(writeFile(t, "bad.json", "{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing comments file")

	_, err = Load(writeFile(t, "docs.toml", "a = 1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestNilComments(t *testing.T) {
	var c *Comments
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Description())
	_, ok := c.Prop("x")
	assert.False(t, ok)

	assert.True(t, (&Comments{Props: map[string]string{}}).IsEmpty())
	assert.False(t, (&Comments{ComponentDescription: "x"}).IsEmpty())
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(&Comments{
		ComponentDescription: "A button.",
		Props:                map[string]string{"b": "/** B. */", "a": "/** A. */"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{
  "componentDescription": "A button.",
  "props": {
    "a": "/** A. */",
    "b": "/** B. */"
  }
}`, string(out))

	empty, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}
