// Package dts is a small mutable model of a TypeScript declaration module.
//
// A SourceFile is parsed once with tree-sitter, mutated in place through the
// capability methods below, and rendered back to declaration text with Print.
// Only the statement shapes produced by component declaration emitters are
// modelled structurally (classes, type aliases, variables, namespaces and
// export assignments); everything else is carried as raw text.
package dts

import (
	"slices"
	"strings"
)

// Kind identifies the statement shape.
type Kind int

const (
	KindRaw Kind = iota
	KindClass
	KindTypeAlias
	KindVariable
	KindNamespace
	KindExportAssignment
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindTypeAlias:
		return "type alias"
	case KindVariable:
		return "variable statement"
	case KindNamespace:
		return "namespace"
	case KindExportAssignment:
		return "export assignment"
	default:
		return "statement"
	}
}

// Statement is a top-level (or namespace-level) statement of a declaration module.
type Statement interface {
	Kind() Kind
	// Describe returns a short human-readable description for diagnostics,
	// e.g. `class "Button"` or `function_declaration (line 4)`.
	Describe() string
	print(p *printer)
}

// SourceFile is one parsed declaration module.
// It is not safe for concurrent use; callers own it exclusively while mutating.
type SourceFile struct {
	FileName   string
	statements []Statement
}

// NewSourceFile creates an empty source file.
func NewSourceFile(fileName string) *SourceFile {
	return &SourceFile{FileName: fileName}
}

// Statements returns the top-level statements in order.
// The returned slice is a copy; mutate the file through its methods.
func (sf *SourceFile) Statements() []Statement {
	return slices.Clone(sf.statements)
}

// Classes returns all top-level class declarations.
func (sf *SourceFile) Classes() []*ClassDeclaration {
	var out []*ClassDeclaration
	for _, st := range sf.statements {
		if c, ok := st.(*ClassDeclaration); ok {
			out = append(out, c)
		}
	}
	return out
}

// Class returns the top-level class with the given name, or nil.
func (sf *SourceFile) Class(name string) *ClassDeclaration {
	for _, c := range sf.Classes() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// TypeAliases returns all top-level type aliases. Aliases nested inside
// namespaces are not included.
func (sf *SourceFile) TypeAliases() []*TypeAliasDeclaration {
	var out []*TypeAliasDeclaration
	for _, st := range sf.statements {
		if a, ok := st.(*TypeAliasDeclaration); ok {
			out = append(out, a)
		}
	}
	return out
}

// TypeAlias returns the top-level type alias with the given name, or nil.
func (sf *SourceFile) TypeAlias(name string) *TypeAliasDeclaration {
	for _, a := range sf.TypeAliases() {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Namespaces returns all top-level namespace declarations.
func (sf *SourceFile) Namespaces() []*ModuleDeclaration {
	var out []*ModuleDeclaration
	for _, st := range sf.statements {
		if m, ok := st.(*ModuleDeclaration); ok {
			out = append(out, m)
		}
	}
	return out
}

// Namespace returns the top-level namespace with the given name, or nil.
func (sf *SourceFile) Namespace(name string) *ModuleDeclaration {
	for _, m := range sf.Namespaces() {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// ExportAssignments returns all `export default x;` and `export = x;` statements.
func (sf *SourceFile) ExportAssignments() []*ExportAssignment {
	var out []*ExportAssignment
	for _, st := range sf.statements {
		if e, ok := st.(*ExportAssignment); ok {
			out = append(out, e)
		}
	}
	return out
}

// VariableDeclaration finds a top-level variable by name and returns it along
// with the statement that declares it. Both are nil when absent.
func (sf *SourceFile) VariableDeclaration(name string) (*VariableStatement, *VariableDeclaration) {
	for _, st := range sf.statements {
		vs, ok := st.(*VariableStatement)
		if !ok {
			continue
		}
		for _, d := range vs.declarations {
			if d.name == name {
				return vs, d
			}
		}
	}
	return nil, nil
}

// DefaultExport returns the declaration exported as the module default.
//
// A class or other declaration carrying `export default` is returned directly.
// For `export default Foo;` the named class is returned when the file declares
// one, otherwise the export assignment itself. Nil means the module has no
// default export.
func (sf *SourceFile) DefaultExport() Statement {
	for _, st := range sf.statements {
		switch s := st.(type) {
		case *ClassDeclaration:
			if s.IsDefaultExport() {
				return s
			}
		case *RawStatement:
			if s.defaultExport {
				return s
			}
		case *ExportAssignment:
			if s.IsExportEquals() {
				continue
			}
			if c := sf.Class(s.Expression()); c != nil {
				return c
			}
			return s
		}
	}
	return nil
}

// IndexOf returns the position of st among the top-level statements, or -1.
func (sf *SourceFile) IndexOf(st Statement) int {
	return slices.Index(sf.statements, st)
}

// InsertStatement inserts st at index. Out-of-range indexes append.
func (sf *SourceFile) InsertStatement(index int, st Statement) {
	if index < 0 || index > len(sf.statements) {
		index = len(sf.statements)
	}
	sf.statements = slices.Insert(sf.statements, index, st)
}

// AddStatement appends st.
func (sf *SourceFile) AddStatement(st Statement) {
	sf.statements = append(sf.statements, st)
}

// RemoveStatement removes st and reports whether it was present.
func (sf *SourceFile) RemoveStatement(st Statement) bool {
	i := sf.IndexOf(st)
	if i < 0 {
		return false
	}
	sf.statements = slices.Delete(sf.statements, i, i+1)
	return true
}

// InsertNamespace creates an ambient `declare namespace name {}` at index.
func (sf *SourceFile) InsertNamespace(index int, name string) *ModuleDeclaration {
	ns := NewNamespace(name)
	ns.hasDeclare = true
	sf.InsertStatement(index, ns)
	return ns
}

// AddNamespace appends an ambient namespace.
func (sf *SourceFile) AddNamespace(name string) *ModuleDeclaration {
	return sf.InsertNamespace(len(sf.statements), name)
}

// AddExportAssignment appends `export default expression;`.
func (sf *SourceFile) AddExportAssignment(expression string) *ExportAssignment {
	ea := &ExportAssignment{expression: expression}
	sf.statements = append(sf.statements, ea)
	return ea
}

// Print renders the file as declaration text. Each statement ends with a newline.
func (sf *SourceFile) Print() string {
	p := &printer{}
	p.statements(sf.statements)
	return p.sb.String()
}

// FormatJSDoc renders a description as a JSDoc block. Text that already is a
// block comment is returned trimmed and otherwise unchanged.
func FormatJSDoc(description string) string {
	trimmed := strings.TrimSpace(description)
	if strings.HasPrefix(trimmed, "/*") {
		return trimmed
	}
	var sb strings.Builder
	sb.WriteString("/**\n")
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			sb.WriteString(" *\n")
			continue
		}
		sb.WriteString(" * ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(" */")
	return sb.String()
}
