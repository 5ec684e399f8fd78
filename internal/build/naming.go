package build

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComponentName derives the class name the emitter gives a component from
// its file name: my-button.svelte.d.ts -> MyButton, +page.svelte -> Page.
// Leading digits get an underscore. It returns "" when no name can be formed.
func ComponentName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{svelteDeclSuffix, svelteSuffix, declSuffix} {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}

	words := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	// A Caser is stateful; build one per call.
	title := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(title.String(w))
	}
	name := sb.String()
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	return name
}
