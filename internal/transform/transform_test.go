package transform

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/tools/txtar"

	"github.com/tsgonest/svdts/internal/comments"
	"github.com/tsgonest/svdts/internal/dts"
)

const buttonDecl = `import { SvelteComponentTyped } from "svelte";
declare const __propDef: {
    props: {
        label: string;
        disabled?: boolean;
    };
    events: {
        click: MouseEvent;
    };
    slots: {
        default: {};
    };
};
export type ButtonProps = typeof __propDef.props;
export type ButtonEvents = typeof __propDef.events;
export type ButtonSlots = typeof __propDef.slots;
export default class Button extends SvelteComponentTyped<ButtonProps, ButtonEvents, ButtonSlots> {
}
export {};
`

func parse(t *testing.T, src string) *dts.SourceFile {
	t.Helper()
	sf, err := dts.Parse(context.Background(), "Button.svelte.d.ts", []byte(src))
	require.NoError(t, err)
	return sf
}

// TestGolden runs every testdata/*.txtar case. The archive comment holds
// options, one per line: "strict" or "helper: <name>". Sections are
// input.d.ts, an optional docs.json, and either output.d.ts or error (the
// expected failure kind).
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			sections := make(map[string]string, len(ar.Files))
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}
			input, ok := sections["input.d.ts"]
			require.True(t, ok, "missing input.d.ts section")

			var opts []Option
			for _, line := range strings.Split(string(ar.Comment), "\n") {
				line = strings.TrimSpace(line)
				switch {
				case line == "strict":
					opts = append(opts, WithTypeArgumentPolicy(TypeArgumentsStrict))
				case strings.HasPrefix(line, "helper:"):
					opts = append(opts, WithHelperName(strings.TrimSpace(strings.TrimPrefix(line, "helper:"))))
				}
			}

			var c *comments.Comments
			if docs, ok := sections["docs.json"]; ok {
				c = &comments.Comments{}
				require.NoError(t, json.Unmarshal([]byte(docs), c))
			}

			sf := parse(t, input)
			_, err = Process(c, nil, sf, opts...)

			if want, ok := sections["error"]; ok {
				require.Error(t, err)
				assert.Equal(t, strings.TrimSpace(want), KindOf(err).String())
				assert.Equal(t, input, sf.Print(), "failed pass must leave the file untouched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sections["output.d.ts"], sf.Print())
		})
	}
}

func TestProcess_Result(t *testing.T) {
	sf := parse(t, buttonDecl)
	c := &comments.Comments{
		ComponentDescription: "A button.",
		Props: map[string]string{
			"label":    "/** Label. */",
			"disabled": "/** Disabled. */",
			"unknown":  "/** Ignored. */",
		},
	}

	res, err := Process(c, zap.NewNop(), sf)
	require.NoError(t, err)

	assert.Equal(t, "Button", res.ClassName)
	assert.True(t, res.TypeArgumentsRewritten)
	assert.Equal(t, 3, res.TypeArgumentCount)
	assert.Equal(t, 2, res.DocsAttached)
	assert.Equal(t, []string{"ButtonProps", "ButtonEvents", "ButtonSlots"}, res.RemovedAliases)
}

func TestProcess_Shape(t *testing.T) {
	sf := parse(t, buttonDecl)
	_, err := Process(nil, nil, sf)
	require.NoError(t, err)

	cls := sf.Class("Button")
	require.NotNil(t, cls)
	assert.False(t, cls.IsExported(), "class is no longer exported directly")
	assert.False(t, cls.IsDefaultExport())
	assert.True(t, cls.HasDeclareKeyword())
	assert.Empty(t, cls.JSDocs(), "no description without comments")

	args := cls.HeritageClause().TypeArguments()
	require.Len(t, args, 3)
	assert.Equal(t, "Button.Props", args[0].Text())
	assert.Equal(t, "Button.Events", args[1].Text())
	assert.Equal(t, "Button.Slots", args[2].Text())

	// The namespace directly follows the class.
	ns := sf.Namespace("Button")
	require.NotNil(t, ns)
	assert.Equal(t, sf.IndexOf(cls)+1, sf.IndexOf(ns))
	assert.True(t, ns.HasDeclareKeyword())
	assert.Equal(t, []string{"/**\n * Event / Prop / Slot type aliases for {@link Button}.\n */"}, ns.JSDocs())

	aliases := ns.TypeAliases()
	require.Len(t, aliases, 3)
	for i, want := range []string{"Props", "Events", "Slots"} {
		assert.Equal(t, want, aliases[i].Name())
		assert.True(t, aliases[i].IsExported())
		assert.Equal(t, []string{dts.FormatJSDoc(AliasDoc(want, "Button"))}, aliases[i].JSDocs())
	}
	assert.Equal(t, "{\n        click: MouseEvent;\n    }", aliases[1].Type().Text())

	// Helper and loose aliases are gone.
	vs, decl := sf.VariableDeclaration(DefaultHelperName)
	assert.Nil(t, vs)
	assert.Nil(t, decl)
	assert.Empty(t, sf.TypeAliases())

	// The module default is re-exported last.
	stmts := sf.Statements()
	last, ok := stmts[len(stmts)-1].(*dts.ExportAssignment)
	require.True(t, ok)
	assert.Equal(t, "Button", last.Expression())
	assert.Same(t, cls, sf.DefaultExport())

	// `export {}` is kept.
	assert.Contains(t, sf.Print(), "\nexport {};\n")
}

func TestProcess_KeepsOtherHelperDeclarators(t *testing.T) {
	src := strings.Replace(buttonDecl,
		"declare const __propDef: {",
		"declare const other: string, __propDef: {", 1)
	sf := parse(t, src)

	_, err := Process(nil, nil, sf)
	require.NoError(t, err)

	vs, decl := sf.VariableDeclaration("other")
	require.NotNil(t, vs)
	require.NotNil(t, decl)
	assert.Len(t, vs.Declarations(), 1)
	assert.Contains(t, sf.Print(), "declare const other: string;\n")
}

func TestProcess_ExistingClassDocsKept(t *testing.T) {
	src := strings.Replace(buttonDecl,
		"export default class Button",
		"/** Emitted doc. */\nexport default class Button", 1)
	sf := parse(t, src)

	_, err := Process(&comments.Comments{ComponentDescription: "Added."}, nil, sf)
	require.NoError(t, err)

	assert.Equal(t, []string{"/** Emitted doc. */", "/**\n * Added.\n */"}, sf.Class("Button").JSDocs())
}

func TestProcess_PropsNotLiteral(t *testing.T) {
	src := strings.Replace(buttonDecl,
		"    props: {\n        label: string;\n        disabled?: boolean;\n    };\n",
		"    props: Record<string, any>;\n", 1)
	sf := parse(t, src)

	res, err := Process(&comments.Comments{Props: map[string]string{"label": "/** L. */"}}, nil, sf)
	require.NoError(t, err)
	assert.Zero(t, res.DocsAttached)
	assert.Contains(t, sf.Print(), "export type Props = Record<string, any>;")
	assert.NotContains(t, sf.Print(), "/** L. */")
}

func TestProcess_TypeArgumentWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := strings.Replace(buttonDecl,
		"SvelteComponentTyped<ButtonProps, ButtonEvents, ButtonSlots>",
		"SvelteComponentTyped<ButtonProps>", 1)
	sf := parse(t, src)

	res, err := Process(nil, zap.New(core), sf)
	require.NoError(t, err)
	assert.False(t, res.TypeArgumentsRewritten)
	assert.Equal(t, 1, res.TypeArgumentCount)
	assert.Contains(t, sf.Print(), "extends SvelteComponentTyped<ButtonProps> {")

	entries := logs.FilterMessageSnippet("type argument count").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Button.svelte.d.ts", entries[0].ContextMap()["file"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["count"])
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		opts     []Option
		sentinel error
		kind     Kind
	}{
		{
			name:     "no default export",
			src:      "export {};\n",
			sentinel: ErrMissingDefaultExport,
			kind:     KindMissingDefaultExport,
		},
		{
			name:     "anonymous class",
			src:      "export default class extends SvelteComponentTyped<A, B, C> {\n}\n",
			sentinel: ErrDefaultExportNotClass,
			kind:     KindDefaultExportNotClass,
		},
		{
			name:     "no extends",
			src:      "export default class Button {\n}\n",
			sentinel: ErrMissingHeritage,
			kind:     KindMissingHeritage,
		},
		{
			name:     "strict type arguments",
			src:      strings.Replace(buttonDecl, ", ButtonSlots>", ">", 1),
			opts:     []Option{WithTypeArgumentPolicy(TypeArgumentsStrict)},
			sentinel: ErrTypeArgumentCount,
			kind:     KindTypeArgumentCount,
		},
		{
			name:     "wrong helper name",
			src:      buttonDecl,
			opts:     []Option{WithHelperName("__defs")},
			sentinel: ErrMissingHelper,
			kind:     KindMissingHelper,
		},
		{
			name:     "helper typed by a named reference",
			src:      "declare const __propDef: Defs;\nexport default class Button extends Base<A, B, C> {\n}\n",
			sentinel: ErrMissingHelperMember,
			kind:     KindMissingHelperMember,
		},
		{
			name:     "helper missing slots",
			src:      strings.Replace(buttonDecl, "    slots: {\n        default: {};\n    };\n", "", 1),
			sentinel: ErrMissingHelperMember,
			kind:     KindMissingHelperMember,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := parse(t, tt.src)
			before := sf.Print()

			res, err := Process(&comments.Comments{ComponentDescription: "x"}, nil, sf, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, before, sf.Print(), "file must be unmodified")
		})
	}
}

func TestTransformed(t *testing.T) {
	sf := parse(t, buttonDecl)
	_, ok := Transformed(sf, "")
	assert.False(t, ok, "emitted declaration")

	_, err := Process(nil, nil, sf)
	require.NoError(t, err)
	class, ok := Transformed(parse(t, sf.Print()), "")
	assert.True(t, ok)
	assert.Equal(t, "Button", class)

	tests := []struct {
		name, src string
	}{
		{"namespace missing Slots", "declare class Button {}\ndeclare namespace Button {\n    type Props = {};\n    type Events = {};\n}\nexport default Button;\n"},
		{"helper still present", "declare const __propDef: {};\ndeclare class Button {}\ndeclare namespace Button {\n    type Props = {};\n    type Events = {};\n    type Slots = {};\n}\nexport default Button;\n"},
		{"no namespace", "export default class Button {}\n"},
		{"no default export", "declare class Button {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Transformed(parse(t, tt.src), "")
			assert.False(t, ok)
		})
	}
}

func TestError_Hints(t *testing.T) {
	sf := parse(t, "export default class Button {\n}\n")
	_, err := Process(nil, nil, sf)
	require.Error(t, err)

	assert.Equal(t, `component class has no extends clause: class "Button"`, err.Error())
	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "SvelteComponentTyped<Props, Events, Slots>")
}

func TestError_HelperNamedReferenceHint(t *testing.T) {
	sf := parse(t, "declare const __propDef: PropDef;\nexport default class Button extends Base<A, B, C> {\n}\n")
	before := sf.Print()
	_, err := Process(nil, nil, sf)
	require.ErrorIs(t, err, ErrMissingHelperMember)

	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "inline")
	assert.Equal(t, before, sf.Print())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
	assert.Equal(t, Kind(0), KindOf(nil))
	wrapped := errors.Wrap(fail(KindMissingHelper, "__propDef", ""), "processing")
	assert.Equal(t, KindMissingHelper, KindOf(wrapped))
	assert.Equal(t, "unknown", Kind(99).String())
}
