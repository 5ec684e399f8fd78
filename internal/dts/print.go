package dts

import (
	"strings"
)

// indentUnit is the indentation used for namespace bodies.
const indentUnit = "    "

type printer struct {
	sb     strings.Builder
	indent string
}

func (p *printer) statements(stmts []Statement) {
	for _, st := range stmts {
		st.print(p)
		p.sb.WriteString("\n")
	}
}

// docs writes doc blocks one per line, re-indenting continuation lines of
// block comments to the current level.
func (p *printer) docs(docs []string) {
	for _, doc := range docs {
		for i, line := range strings.Split(doc, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case i == 0:
				p.sb.WriteString(p.indent + trimmed)
			case strings.HasPrefix(trimmed, "*"):
				p.sb.WriteString(p.indent + " " + trimmed)
			default:
				p.sb.WriteString(p.indent + trimmed)
			}
			p.sb.WriteString("\n")
		}
	}
}

func (p *printer) modifiers(m *modifiers) {
	if m.exported {
		p.sb.WriteString("export ")
	}
}

func (c *ClassDeclaration) print(p *printer) {
	p.docs(c.docs)
	p.sb.WriteString(p.indent)
	if c.exported {
		p.sb.WriteString("export ")
		if c.defaultExport {
			p.sb.WriteString("default ")
		}
	}
	if c.hasDeclare {
		p.sb.WriteString("declare ")
	}
	if c.abstract {
		p.sb.WriteString("abstract ")
	}
	p.sb.WriteString("class")
	if c.name != "" {
		p.sb.WriteString(" " + c.name)
	}
	p.sb.WriteString(c.typeParams)
	if c.heritage != nil {
		p.sb.WriteString(" " + c.heritage.text())
	}
	if c.implements != "" {
		p.sb.WriteString(" " + c.implements)
	}
	p.sb.WriteString(" " + c.body)
}

func (a *TypeAliasDeclaration) print(p *printer) {
	p.docs(a.docs)
	p.sb.WriteString(p.indent)
	p.modifiers(&a.modifiers)
	if a.hasDeclare {
		p.sb.WriteString("declare ")
	}
	p.sb.WriteString("type " + a.name + a.typeParams + " = " + a.typ.Text() + ";")
}

func (v *VariableStatement) print(p *printer) {
	p.docs(v.docs)
	p.sb.WriteString(p.indent)
	p.modifiers(&v.modifiers)
	if v.hasDeclare {
		p.sb.WriteString("declare ")
	}
	p.sb.WriteString(v.keyword + " ")
	for i, d := range v.declarations {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(d.name)
		if d.typ != nil {
			p.sb.WriteString(": " + d.typ.Text())
		}
		if d.initializer != "" {
			p.sb.WriteString(" = " + d.initializer)
		}
	}
	p.sb.WriteString(";")
}

func (m *ModuleDeclaration) print(p *printer) {
	p.docs(m.docs)
	p.sb.WriteString(p.indent)
	p.modifiers(&m.modifiers)
	if m.hasDeclare {
		p.sb.WriteString("declare ")
	}
	p.sb.WriteString(m.keyword + " " + m.name + " {\n")
	outer := p.indent
	p.indent += indentUnit
	p.statements(m.statements)
	p.indent = outer
	p.sb.WriteString(p.indent + "}")
}

func (e *ExportAssignment) print(p *printer) {
	if e.text != "" {
		p.sb.WriteString(p.indent + e.text)
		return
	}
	if e.exportEquals {
		p.sb.WriteString(p.indent + "export = " + e.expression + ";")
		return
	}
	p.sb.WriteString(p.indent + "export default " + e.expression + ";")
}

func (r *RawStatement) print(p *printer) {
	p.sb.WriteString(p.indent + r.text)
}
