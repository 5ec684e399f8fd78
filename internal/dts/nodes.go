package dts

import (
	"fmt"
	"strings"
)

// docHolder stores the JSDoc blocks printed directly above a declaration.
type docHolder struct {
	docs []string
}

// JSDocs returns the attached doc blocks in print order.
func (d *docHolder) JSDocs() []string {
	return d.docs
}

// AddJSDoc attaches a doc block. Plain descriptions are wrapped with FormatJSDoc.
func (d *docHolder) AddJSDoc(description string) {
	d.docs = append(d.docs, FormatJSDoc(description))
}

// RemoveJSDocs drops all attached doc blocks.
func (d *docHolder) RemoveJSDocs() {
	d.docs = nil
}

// modifiers holds the export/ambient flags shared by declarations.
type modifiers struct {
	exported   bool
	hasDeclare bool
}

func (m *modifiers) IsExported() bool            { return m.exported }
func (m *modifiers) SetExported(v bool)          { m.exported = v }
func (m *modifiers) HasDeclareKeyword() bool     { return m.hasDeclare }
func (m *modifiers) SetHasDeclareKeyword(v bool) { m.hasDeclare = v }

// ClassDeclaration is a class with an optional `extends` clause. Members are
// kept as raw body text.
type ClassDeclaration struct {
	docHolder
	modifiers
	defaultExport bool
	abstract      bool
	name          string
	typeParams    string
	heritage      *HeritageClause
	implements    string
	body          string
	line          int
}

func (c *ClassDeclaration) Kind() Kind { return KindClass }

func (c *ClassDeclaration) Describe() string {
	if c.name == "" {
		return fmt.Sprintf("anonymous class (line %d)", c.line)
	}
	return fmt.Sprintf("class %q", c.name)
}

func (c *ClassDeclaration) Name() string { return c.name }

// IsDefaultExport reports whether the class carries `export default`.
func (c *ClassDeclaration) IsDefaultExport() bool { return c.exported && c.defaultExport }

// SetDefaultExport toggles the `default` modifier. Setting it also marks the
// class exported; clearing it leaves the export flag alone.
func (c *ClassDeclaration) SetDefaultExport(v bool) {
	c.defaultExport = v
	if v {
		c.exported = true
	}
}

// HeritageClause returns the `extends` clause, or nil.
func (c *ClassDeclaration) HeritageClause() *HeritageClause { return c.heritage }

// Body returns the raw class body text including braces.
func (c *ClassDeclaration) Body() string { return c.body }

// HeritageClause is the `extends Base<...>` part of a class.
type HeritageClause struct {
	expression    string
	typeArguments []*TypeNode
}

// Expression returns the base type expression without type arguments.
func (h *HeritageClause) Expression() string { return h.expression }

// TypeArguments returns the generic arguments of the base type in order.
func (h *HeritageClause) TypeArguments() []*TypeNode { return h.typeArguments }

func (h *HeritageClause) text() string {
	if len(h.typeArguments) == 0 {
		return "extends " + h.expression
	}
	args := make([]string, len(h.typeArguments))
	for i, a := range h.typeArguments {
		args[i] = a.Text()
	}
	return "extends " + h.expression + "<" + strings.Join(args, ", ") + ">"
}

// TypeAliasDeclaration is `type Name<T> = Type;`.
type TypeAliasDeclaration struct {
	docHolder
	modifiers
	name       string
	typeParams string
	typ        *TypeNode
}

// NewTypeAlias creates a detached alias whose type is the given text, taken
// verbatim.
func NewTypeAlias(name, typeText string) *TypeAliasDeclaration {
	return &TypeAliasDeclaration{name: name, typ: NewTypeNode(typeText)}
}

func (a *TypeAliasDeclaration) Kind() Kind       { return KindTypeAlias }
func (a *TypeAliasDeclaration) Describe() string { return fmt.Sprintf("type alias %q", a.name) }
func (a *TypeAliasDeclaration) Name() string     { return a.name }

// Type returns the aliased type node.
func (a *TypeAliasDeclaration) Type() *TypeNode { return a.typ }

// VariableStatement is `const a: T, b: U;`, optionally ambient or exported.
type VariableStatement struct {
	docHolder
	modifiers
	keyword      string
	declarations []*VariableDeclaration
	line         int
}

// VariableDeclaration is one declarator of a VariableStatement.
type VariableDeclaration struct {
	name        string
	typ         *TypeNode
	initializer string
}

func (v *VariableStatement) Kind() Kind { return KindVariable }

func (v *VariableStatement) Describe() string {
	names := make([]string, len(v.declarations))
	for i, d := range v.declarations {
		names[i] = d.name
	}
	return fmt.Sprintf("%s %s (line %d)", v.keyword, strings.Join(names, ", "), v.line)
}

// Declarations returns the declarators in order.
func (v *VariableStatement) Declarations() []*VariableDeclaration { return v.declarations }

// RemoveDeclaration drops d from the statement and reports whether the
// statement is now empty.
func (v *VariableStatement) RemoveDeclaration(d *VariableDeclaration) bool {
	for i, cur := range v.declarations {
		if cur == d {
			v.declarations = append(v.declarations[:i], v.declarations[i+1:]...)
			break
		}
	}
	return len(v.declarations) == 0
}

func (d *VariableDeclaration) Name() string { return d.name }

// Type returns the declared type annotation, or nil when there is none.
func (d *VariableDeclaration) Type() *TypeNode { return d.typ }

// ModuleDeclaration is `namespace Name { ... }` (or `module`).
type ModuleDeclaration struct {
	docHolder
	modifiers
	keyword    string
	name       string
	statements []Statement
}

// NewNamespace creates a detached, non-ambient namespace.
func NewNamespace(name string) *ModuleDeclaration {
	return &ModuleDeclaration{keyword: "namespace", name: name}
}

func (m *ModuleDeclaration) Kind() Kind { return KindNamespace }

func (m *ModuleDeclaration) Describe() string {
	return fmt.Sprintf("%s %q", m.keyword, m.name)
}

func (m *ModuleDeclaration) Name() string { return m.name }

// Statements returns a copy of the namespace body statements.
func (m *ModuleDeclaration) Statements() []Statement {
	return append([]Statement(nil), m.statements...)
}

// TypeAliases returns the type aliases declared directly in the namespace.
func (m *ModuleDeclaration) TypeAliases() []*TypeAliasDeclaration {
	var out []*TypeAliasDeclaration
	for _, st := range m.statements {
		if a, ok := st.(*TypeAliasDeclaration); ok {
			out = append(out, a)
		}
	}
	return out
}

// AddTypeAlias appends `export type name = typeText;` to the namespace. The
// type text is stored verbatim and only parsed when its structure is queried.
func (m *ModuleDeclaration) AddTypeAlias(name, typeText string) *TypeAliasDeclaration {
	a := NewTypeAlias(name, typeText)
	a.exported = true
	m.statements = append(m.statements, a)
	return a
}

// ExportAssignment is `export default expr;` or `export = expr;`. A single
// `export { expr as default };` clause is also read as one.
type ExportAssignment struct {
	expression   string
	exportEquals bool
	// text is the parsed source when it was not written as `export default`.
	text string
}

func (e *ExportAssignment) Kind() Kind { return KindExportAssignment }

func (e *ExportAssignment) Describe() string {
	if e.exportEquals {
		return fmt.Sprintf("export = %s", e.expression)
	}
	if e.text != "" {
		return fmt.Sprintf("export { %s as default }", e.expression)
	}
	return fmt.Sprintf("export default %s", e.expression)
}

func (e *ExportAssignment) Expression() string { return e.expression }
func (e *ExportAssignment) IsExportEquals() bool { return e.exportEquals }

// RawStatement is any statement kept as verbatim source text.
type RawStatement struct {
	text          string
	nodeType      string
	defaultExport bool
	line          int
}

// NewRawStatement wraps verbatim text.
func NewRawStatement(text string) *RawStatement {
	return &RawStatement{text: text, nodeType: "statement"}
}

func (r *RawStatement) Kind() Kind { return KindRaw }

func (r *RawStatement) Describe() string {
	if r.line > 0 {
		return fmt.Sprintf("%s (line %d)", r.nodeType, r.line)
	}
	return r.nodeType
}

func (r *RawStatement) Text() string { return r.text }

// NodeType returns the tree-sitter node type the statement was parsed from.
func (r *RawStatement) NodeType() string { return r.nodeType }

// IsDefaultExport reports whether the raw statement is an `export default` form.
func (r *RawStatement) IsDefaultExport() bool { return r.defaultExport }
