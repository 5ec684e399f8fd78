package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsgonest/svdts/internal/config"
)

func TestSvelteSourceAndSidecarPath(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	b := New(cfg, nil, nil)
	decl := filepath.Join(root, "lib", "Button.svelte.d.ts")

	assert.Equal(t, filepath.Join(root, "lib", "Button.svelte"), b.SvelteSource(decl))
	assert.Equal(t, filepath.Join(root, "lib", "Button.docs.json"), b.SidecarPath(decl))
	assert.Empty(t, b.SvelteSource(filepath.Join(root, "index.d.ts")))
	assert.Equal(t, filepath.Join(root, "index.docs.json"), b.SidecarPath(filepath.Join(root, "index.d.ts")))

	srcRoot := t.TempDir()
	cfg.Docs.SourceRoot = srcRoot
	assert.Equal(t, filepath.Join(srcRoot, "lib", "Button.svelte"), b.SvelteSource(decl))
}

func TestAffected(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Docs.Source = config.DocsSourceSidecar
	b := New(cfg, nil, nil)

	decl := filepath.Join(root, "lib", "Button.svelte.d.ts")
	write(t, decl, buttonDeclaration())
	other := filepath.Join(root, "lib", "Card.svelte.d.ts")
	write(t, other, declaration("Card", "CardProps, CardEvents, CardSlots"))
	write(t, filepath.Join(root, "lib", "index.d.ts"), "export {};\n")

	got := b.Affected([]string{
		filepath.Join(root, "lib", "Button.svelte"),
		filepath.Join(root, "lib", "Button.docs.json"),
		other,
		filepath.Join(root, "lib", "index.d.ts"),       // not matched by include
		filepath.Join(root, "lib", "Gone.svelte.d.ts"), // removed
		filepath.Join(root, "README.md"),
	})
	assert.Equal(t, []string{decl, other}, got)
}

func TestAffected_SourceRoot(t *testing.T) {
	root := t.TempDir()
	srcRoot := t.TempDir()
	cfg := testConfig(root)
	cfg.Docs.SourceRoot = srcRoot
	b := New(cfg, nil, nil)

	decl := filepath.Join(root, "ui", "Button.svelte.d.ts")
	write(t, decl, buttonDeclaration())

	assert.Equal(t, []string{decl}, b.Affected([]string{filepath.Join(srcRoot, "ui", "Button.svelte")}))
}

func TestLoadComments(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Button.svelte")
	write(t, src, buttonSource)

	c, err := LoadComments(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "A clickable button.", c.ComponentDescription)
	assert.Equal(t, "/** Text shown on the button. */", c.Props["label"])

	sidecar := filepath.Join(dir, "Button.docs.json")
	write(t, sidecar, `{"props": {"label": "/** From JSON. */"}}`)
	c, err = LoadComments(context.Background(), sidecar)
	require.NoError(t, err)
	assert.Equal(t, "/** From JSON. */", c.Props["label"])

	_, err = LoadComments(context.Background(), filepath.Join(dir, "Missing.svelte"))
	require.Error(t, err)
}
