// Package transform reshapes a generated Svelte component declaration module.
//
// The emitter produces a default-exported class plus loose `XProps`,
// `XEvents` and `XSlots` aliases that point into a synthetic helper variable:
//
//	declare const __propDef: { props: {...}; events: {...}; slots: {...} };
//	export type ButtonProps = typeof __propDef.props;
//	export default class Button extends SvelteComponentTyped<ButtonProps, ButtonEvents, ButtonSlots> {}
//
// Process turns that into an ambient class merged with a namespace of the
// same name holding `Props`, `Events` and `Slots`, restores the doc comments
// the emitter dropped, and re-exports the class as the module default.
//
// The pass runs as five stages. Each stage consumes the value produced by the
// one before it, so the order is fixed by data dependencies:
//
//	locate → normalize → extract → buildNamespace → reattach → cleanup
//
// locate only reads. Every terminal condition is detected there, so a failed
// Process leaves the source file untouched.
package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tsgonest/svdts/internal/comments"
	"github.com/tsgonest/svdts/internal/dts"
)

// DefaultHelperName is the helper variable emitted by svelte2tsx.
const DefaultHelperName = "__propDef"

// TypeArgumentPolicy decides what happens when the component's base type
// does not carry exactly three type arguments.
type TypeArgumentPolicy int

const (
	// TypeArgumentsIgnore leaves the base type untouched and logs a warning.
	TypeArgumentsIgnore TypeArgumentPolicy = iota
	// TypeArgumentsStrict fails with KindTypeArgumentCount.
	TypeArgumentsStrict
)

// Options configures Process.
type Options struct {
	HelperName    string
	TypeArguments TypeArgumentPolicy
}

// Option mutates Options.
type Option func(*Options)

// WithHelperName overrides the helper variable name.
func WithHelperName(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.HelperName = name
		}
	}
}

// WithTypeArgumentPolicy sets the base type argument policy.
func WithTypeArgumentPolicy(p TypeArgumentPolicy) Option {
	return func(o *Options) {
		o.TypeArguments = p
	}
}

// Result summarises a successful pass.
type Result struct {
	ClassName string
	// TypeArgumentsRewritten is false when the base type did not carry
	// exactly three arguments and was left alone.
	TypeArgumentsRewritten bool
	TypeArgumentCount      int
	// DocsAttached counts Props members that received a doc comment.
	DocsAttached int
	// RemovedAliases lists the top-level aliases removed during cleanup.
	RemovedAliases []string
}

// structuralType pairs a helper member with the namespace alias built from
// it. The index is also the base type argument position.
type structuralType struct {
	member string
	alias  string
}

var structuralTypes = [3]structuralType{
	{member: "props", alias: "Props"},
	{member: "events", alias: "Events"},
	{member: "slots", alias: "Slots"},
}

// Process rewrites sf in place. c and log may be nil.
func Process(c *comments.Comments, log *zap.Logger, sf *dts.SourceFile, opts ...Option) (*Result, error) {
	o := Options{HelperName: DefaultHelperName}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("file", sf.FileName))

	loc, err := locate(sf, o)
	if err != nil {
		return nil, err
	}
	n := normalize(sf, loc, c, log)
	e := extract(sf, n)
	b := buildNamespace(sf, e)
	attached := reattach(b, c, log)
	removed := cleanup(sf, b)

	log.Debug("component declaration transformed",
		zap.String("class", b.className),
		zap.Bool("typeArgumentsRewritten", b.argsRewritten),
		zap.Int("docsAttached", attached),
		zap.Strings("removedAliases", removed))

	return &Result{
		ClassName:              b.className,
		TypeArgumentsRewritten: b.argsRewritten,
		TypeArgumentCount:      b.argCount,
		DocsAttached:           attached,
		RemovedAliases:         removed,
	}, nil
}

// Transformed reports whether sf already has the shape Process produces: no
// helper variable, and a default-exported class merged with a namespace
// holding Props, Events and Slots. It returns the class name when it does.
func Transformed(sf *dts.SourceFile, helperName string) (string, bool) {
	if helperName == "" {
		helperName = DefaultHelperName
	}
	if _, decl := sf.VariableDeclaration(helperName); decl != nil {
		return "", false
	}
	cls, ok := sf.DefaultExport().(*dts.ClassDeclaration)
	if !ok || cls.Name() == "" {
		return "", false
	}
	ns := sf.Namespace(cls.Name())
	if ns == nil {
		return "", false
	}
	have := make(map[string]bool)
	for _, a := range ns.TypeAliases() {
		have[a.Name()] = true
	}
	for _, st := range structuralTypes {
		if !have[st.alias] {
			return "", false
		}
	}
	return cls.Name(), true
}

type located struct {
	class *dts.ClassDeclaration
	// assignment is a separate `export default Foo;` naming the class.
	assignment *dts.ExportAssignment
	heritage   *dts.HeritageClause
	helperStmt *dts.VariableStatement
	helperDecl *dts.VariableDeclaration
	members    [3]*dts.PropertySignature
}

func locate(sf *dts.SourceFile, o Options) (located, error) {
	var loc located

	def := sf.DefaultExport()
	if def == nil {
		return loc, fail(KindMissingDefaultExport, sf.FileName,
			"the module must `export default` the component class")
	}
	cls, ok := def.(*dts.ClassDeclaration)
	if !ok {
		return loc, fail(KindDefaultExportNotClass, def.Describe(), "")
	}
	if cls.Name() == "" {
		return loc, fail(KindDefaultExportNotClass, cls.Describe(),
			"the default-exported component class must be named")
	}
	loc.class = cls

	for _, ea := range sf.ExportAssignments() {
		if !ea.IsExportEquals() && ea.Expression() == cls.Name() {
			loc.assignment = ea
			break
		}
	}

	loc.heritage = cls.HeritageClause()
	if loc.heritage == nil {
		return loc, fail(KindMissingHeritage, cls.Describe(),
			"component classes extend SvelteComponentTyped<Props, Events, Slots>")
	}
	if count := len(loc.heritage.TypeArguments()); count != len(structuralTypes) && o.TypeArguments == TypeArgumentsStrict {
		return loc, fail(KindTypeArgumentCount,
			fmt.Sprintf("%s extends %s with %d type argument(s)", cls.Describe(), loc.heritage.Expression(), count),
			"expected exactly three: Props, Events, Slots")
	}

	loc.helperStmt, loc.helperDecl = sf.VariableDeclaration(o.HelperName)
	if loc.helperDecl == nil {
		return loc, fail(KindMissingHelper, o.HelperName, "")
	}
	typ := loc.helperDecl.Type()
	if typ == nil || typ.Kind() != dts.TypeLiteral {
		return loc, fail(KindMissingHelperMember, o.HelperName+" has no object type annotation",
			"named type references are not resolved; type the helper with an inline { props; events; slots } literal")
	}
	for i, st := range structuralTypes {
		p := typ.Property(st.member)
		if p == nil || p.Type() == nil {
			return loc, fail(KindMissingHelperMember, o.HelperName+"."+st.member, "")
		}
		loc.members[i] = p
	}
	return loc, nil
}

type normalized struct {
	located
	className     string
	argCount      int
	argsRewritten bool
}

// normalize turns the default-exported class into an unexported ambient class
// and points its base type arguments at the namespace aliases.
func normalize(sf *dts.SourceFile, loc located, c *comments.Comments, log *zap.Logger) normalized {
	cls := loc.class
	cls.SetExported(false)
	cls.SetDefaultExport(false)
	cls.SetHasDeclareKeyword(true)
	if loc.assignment != nil {
		sf.RemoveStatement(loc.assignment)
	}
	if desc := c.Description(); desc != "" {
		cls.AddJSDoc(desc)
	}

	n := normalized{located: loc, className: cls.Name()}
	args := loc.heritage.TypeArguments()
	n.argCount = len(args)
	if len(args) != len(structuralTypes) {
		log.Warn("base type argument count is not 3; leaving extends clause unchanged",
			zap.String("class", n.className),
			zap.String("base", loc.heritage.Expression()),
			zap.Int("count", len(args)))
		return n
	}
	// Position is meaningful: 0 = Props, 1 = Events, 2 = Slots.
	for i, st := range structuralTypes {
		args[i].SetText(n.className + "." + st.alias)
	}
	n.argsRewritten = true
	return n
}

type extracted struct {
	normalized
	typeText [3]string
}

// extract captures the helper's member types as text, then deletes the helper.
func extract(sf *dts.SourceFile, n normalized) extracted {
	e := extracted{normalized: n}
	for i, m := range n.members {
		e.typeText[i] = m.Type().Text()
	}
	if n.helperStmt.RemoveDeclaration(n.helperDecl) {
		sf.RemoveStatement(n.helperStmt)
	}
	return e
}

type built struct {
	extracted
	namespace *dts.ModuleDeclaration
	aliases   [3]*dts.TypeAliasDeclaration
}

// buildNamespace adds `declare namespace Class { Props; Events; Slots }`
// directly after the class.
func buildNamespace(sf *dts.SourceFile, e extracted) built {
	b := built{extracted: e}
	b.namespace = sf.InsertNamespace(sf.IndexOf(e.class)+1, e.className)
	b.namespace.AddJSDoc(NamespaceDoc(e.className))
	for i, st := range structuralTypes {
		a := b.namespace.AddTypeAlias(st.alias, e.typeText[i])
		a.AddJSDoc(AliasDoc(st.alias, e.className))
		b.aliases[i] = a
	}
	return b
}

// reattach splices prop docs above the matching members of the Props type.
// Only object type literals can host per-member comments; any other Props
// shape is left alone.
func reattach(b built, c *comments.Comments, log *zap.Logger) int {
	if c == nil || len(c.Props) == 0 {
		return 0
	}
	props := b.aliases[0].Type()
	if props.Kind() != dts.TypeLiteral {
		log.Debug("props type is not an object literal; skipping doc reattachment",
			zap.String("kind", props.Kind().String()))
		return 0
	}
	attached := 0
	for _, p := range props.Properties() {
		doc, ok := c.Prop(p.Name())
		if !ok {
			continue
		}
		p.ReplaceWithText(spliceDoc(doc, p.FullText()))
		attached++
	}
	return attached
}

// cleanup removes the stale top-level aliases and re-exports the class.
func cleanup(sf *dts.SourceFile, b built) []string {
	var removed []string
	for _, a := range sf.TypeAliases() {
		sf.RemoveStatement(a)
		removed = append(removed, a.Name())
	}
	sf.AddExportAssignment(b.className)
	return removed
}
