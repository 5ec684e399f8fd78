package build

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"src/lib/Button.svelte.d.ts",
		"src/lib/deep/Card.svelte.d.ts",
		"src/lib/index.d.ts",
		"src/lib/internal/Hidden.svelte.d.ts",
		"node_modules/pkg/Dep.svelte.d.ts",
		"App.svelte.d.ts",
	} {
		write(t, filepath.Join(root, rel), "export {};\n")
	}

	files, err := Discover(root, []string{"**/*.svelte.d.ts"}, []string{"**/internal/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "App.svelte.d.ts"),
		filepath.Join(root, "src/lib/Button.svelte.d.ts"),
		filepath.Join(root, "src/lib/deep/Card.svelte.d.ts"),
	}, files)

	files, err = Discover(root, []string{"src/lib/*.d.ts"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src/lib/Button.svelte.d.ts"),
		filepath.Join(root, "src/lib/index.d.ts"),
	}, files)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), []string{"**/*.d.ts"}, nil)
	require.Error(t, err)
}

func TestComponentName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/Button.svelte.d.ts", "Button"},
		{"my-button.svelte.d.ts", "MyButton"},
		{"date_picker.svelte", "DatePicker"},
		{"routes/+page.svelte.d.ts", "Page"},
		{"404.svelte.d.ts", "_404"},
		{"iconButton.svelte.d.ts", "IconButton"},
		{"+.svelte.d.ts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ComponentName(tt.path))
		})
	}
}
