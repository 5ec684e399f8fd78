package dts

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrSyntax is returned when the input is not valid TypeScript.
var ErrSyntax = errors.New("declaration syntax error")

// typeWrapperPrefix turns a bare type expression into a parseable statement.
const typeWrapperPrefix = "type __svdts_type__ = "

// Parse builds a SourceFile from declaration text. Inputs that tree-sitter
// reports errors for are rejected with ErrSyntax and the first error position.
func Parse(ctx context.Context, fileName string, content []byte) (*SourceFile, error) {
	tree, err := parseTree(ctx, content)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", fileName)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, errors.Wrapf(ErrSyntax, "%s:%d:%d", fileName, line, col)
	}

	sf := NewSourceFile(fileName)
	sf.statements = parseStatements(root, content)
	return sf, nil
}

// ParseType parses a standalone type expression such as `{ a: string }`.
// The returned node prints exactly text.
func ParseType(ctx context.Context, text string) (*TypeNode, error) {
	src := []byte(typeWrapperPrefix + text + ";")
	tree, err := parseTree(ctx, src)
	if err != nil {
		return nil, errors.Wrap(err, "parsing type")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() || root.NamedChildCount() != 1 {
		return nil, errors.Wrapf(ErrSyntax, "type %q", text)
	}
	alias := root.NamedChild(0)
	if alias.Type() != "type_alias_declaration" {
		return nil, errors.Wrapf(ErrSyntax, "type %q", text)
	}
	value := alias.ChildByFieldName("value")
	if value == nil {
		return nil, errors.Wrapf(ErrSyntax, "type %q", text)
	}

	t := buildType(value, src)
	t.text = text
	if t.pieces != nil {
		// Keep surrounding whitespace so Text() round-trips the input.
		start, end := uint32(len(typeWrapperPrefix)), uint32(len(typeWrapperPrefix)+len(text))
		if lead := string(src[start:value.StartByte()]); lead != "" {
			t.pieces = append([]typePiece{{raw: lead}}, t.pieces...)
		}
		if trail := string(src[value.EndByte():end]); trail != "" {
			t.pieces = append(t.pieces, typePiece{raw: trail})
		}
	}
	return t, nil
}

func parseTree(ctx context.Context, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())
	return parser.ParseCtx(ctx, nil, content)
}

// firstErrorPosition returns the 1-based line and column of the first ERROR
// or missing node.
func firstErrorPosition(n *sitter.Node) (int, int) {
	if n.Type() == "ERROR" || n.IsMissing() {
		p := n.StartPoint()
		return int(p.Row) + 1, int(p.Column) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.HasError() || ch.IsMissing() {
			return firstErrorPosition(ch)
		}
	}
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

func nodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func isJSDoc(text string) bool {
	return strings.HasPrefix(text, "/**") && text != "/**/"
}

// parseStatements converts the named children of a program or statement
// block. JSDoc comments directly preceding a modelled declaration are
// attached to it; all other comments become raw statements.
func parseStatements(container *sitter.Node, content []byte) []Statement {
	var out []Statement
	var pending []*sitter.Node

	flush := func() {
		for _, c := range pending {
			out = append(out, newRaw(c, content, false))
		}
		pending = nil
	}

	for i := 0; i < int(container.NamedChildCount()); i++ {
		n := container.NamedChild(i)
		if n.Type() == "comment" {
			if isJSDoc(nodeText(n, content)) {
				pending = append(pending, n)
				continue
			}
			flush()
			out = append(out, newRaw(n, content, false))
			continue
		}

		st := parseStatement(n, content)
		if d, ok := st.(interface{ AddJSDoc(string) }); ok {
			for _, c := range pending {
				d.AddJSDoc(nodeText(c, content))
			}
			pending = nil
		} else {
			flush()
		}
		out = append(out, st)
	}
	flush()
	return out
}

func parseStatement(n *sitter.Node, content []byte) Statement {
	if n.Type() == "export_statement" {
		return parseExport(n, content)
	}
	if st := parseDeclaration(n, content); st != nil {
		return st
	}
	return newRaw(n, content, false)
}

func parseExport(n *sitter.Node, content []byte) Statement {
	isDefault, isEquals := false, false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "default":
			isDefault = true
		case "=":
			isEquals = true
		}
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		st := parseDeclaration(decl, content)
		if st == nil {
			return newRaw(n, content, isDefault)
		}
		if cls, ok := st.(*ClassDeclaration); ok {
			cls.exported = true
			cls.defaultExport = isDefault
			return cls
		}
		if isDefault {
			return newRaw(n, content, true)
		}
		st.(interface{ SetExported(bool) }).SetExported(true)
		return st
	}

	if value := n.ChildByFieldName("value"); value != nil && isDefault {
		switch value.Type() {
		case "class":
			cls := parseClass(value, content)
			cls.exported = true
			cls.defaultExport = true
			return cls
		case "identifier", "member_expression":
			return &ExportAssignment{expression: nodeText(value, content)}
		}
		return newRaw(n, content, true)
	}

	if name, ok := defaultSpecifier(n, content); ok {
		return &ExportAssignment{expression: name, text: nodeText(n, content)}
	}

	if isEquals {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			expr := n.NamedChild(i)
			if expr.Type() != "comment" {
				return &ExportAssignment{expression: nodeText(expr, content), exportEquals: true}
			}
		}
	}
	return newRaw(n, content, false)
}

// defaultSpecifier matches `export { name as default };`. Clauses with more
// than one specifier or a `from` source stay raw.
func defaultSpecifier(n *sitter.Node, content []byte) (string, bool) {
	if n.ChildByFieldName("source") != nil {
		return "", false
	}
	var clause *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "export_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		return "", false
	}
	var specs []*sitter.Node
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		if c := clause.NamedChild(i); c.Type() == "export_specifier" {
			specs = append(specs, c)
		}
	}
	if len(specs) != 1 {
		return "", false
	}
	name, alias := specs[0].ChildByFieldName("name"), specs[0].ChildByFieldName("alias")
	if name == nil || alias == nil || nodeText(alias, content) != "default" {
		return "", false
	}
	return nodeText(name, content), true
}

// parseDeclaration returns nil for shapes that are kept as raw text.
func parseDeclaration(n *sitter.Node, content []byte) Statement {
	switch n.Type() {
	case "ambient_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if st := parseDeclaration(n.NamedChild(i), content); st != nil {
				st.(interface{ SetHasDeclareKeyword(bool) }).SetHasDeclareKeyword(true)
				return st
			}
		}
		return nil
	case "class_declaration", "class", "abstract_class_declaration":
		return parseClass(n, content)
	case "type_alias_declaration":
		return parseTypeAlias(n, content)
	case "lexical_declaration", "variable_declaration":
		return parseVariable(n, content)
	case "internal_module", "module":
		return parseModule(n, content)
	}
	return nil
}

func newRaw(n *sitter.Node, content []byte, defaultExport bool) *RawStatement {
	return &RawStatement{
		text:          nodeText(n, content),
		nodeType:      n.Type(),
		defaultExport: defaultExport,
		line:          nodeLine(n),
	}
}

func parseClass(n *sitter.Node, content []byte) *ClassDeclaration {
	c := &ClassDeclaration{
		abstract: n.Type() == "abstract_class_declaration",
		line:     nodeLine(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		c.name = nodeText(name, content)
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		c.typeParams = nodeText(tp, content)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		c.body = nodeText(body, content)
	} else {
		c.body = "{}"
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(ch.NamedChildCount()); j++ {
			clause := ch.NamedChild(j)
			switch clause.Type() {
			case "extends_clause":
				c.heritage = parseExtends(clause, content)
			case "implements_clause":
				c.implements = nodeText(clause, content)
			}
		}
	}
	return c
}

func parseExtends(n *sitter.Node, content []byte) *HeritageClause {
	value := n.ChildByFieldName("value")
	args := n.ChildByFieldName("type_arguments")
	if value == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			ch := n.NamedChild(i)
			switch {
			case ch.Type() == "comment":
			case ch.Type() == "type_arguments":
				if args == nil {
					args = ch
				}
			case value == nil:
				value = ch
			}
		}
	}
	if value == nil {
		return &HeritageClause{expression: strings.TrimSpace(strings.TrimPrefix(nodeText(n, content), "extends"))}
	}

	// Some grammar versions fold `Base<A, B>` into a single generic_type.
	if value.Type() == "generic_type" && args == nil {
		var base *sitter.Node
		for i := 0; i < int(value.NamedChildCount()); i++ {
			ch := value.NamedChild(i)
			if ch.Type() == "type_arguments" {
				args = ch
			} else if base == nil {
				base = ch
			}
		}
		if base != nil {
			value = base
		}
	}

	h := &HeritageClause{expression: nodeText(value, content)}
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			ch := args.NamedChild(i)
			if ch.Type() == "comment" {
				continue
			}
			h.typeArguments = append(h.typeArguments, buildType(ch, content))
		}
	}
	return h
}

func parseTypeAlias(n *sitter.Node, content []byte) *TypeAliasDeclaration {
	a := &TypeAliasDeclaration{}
	if name := n.ChildByFieldName("name"); name != nil {
		a.name = nodeText(name, content)
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		a.typeParams = nodeText(tp, content)
	}
	if value := n.ChildByFieldName("value"); value != nil {
		a.typ = buildType(value, content)
	} else {
		a.typ = NewTypeNode("unknown")
	}
	return a
}

func parseVariable(n *sitter.Node, content []byte) *VariableStatement {
	v := &VariableStatement{keyword: "const", line: nodeLine(n)}
	if n.ChildCount() > 0 {
		switch kw := n.Child(0).Type(); kw {
		case "const", "let", "var":
			v.keyword = kw
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() != "variable_declarator" {
			continue
		}
		d := &VariableDeclaration{}
		if name := ch.ChildByFieldName("name"); name != nil {
			d.name = nodeText(name, content)
		}
		if ann := ch.ChildByFieldName("type"); ann != nil {
			d.typ = annotationType(ann, content)
		}
		if value := ch.ChildByFieldName("value"); value != nil {
			d.initializer = nodeText(value, content)
		}
		v.declarations = append(v.declarations, d)
	}
	return v
}

func parseModule(n *sitter.Node, content []byte) *ModuleDeclaration {
	m := &ModuleDeclaration{keyword: "namespace"}
	if n.Type() == "module" {
		m.keyword = "module"
	}
	if name := n.ChildByFieldName("name"); name != nil {
		m.name = nodeText(name, content)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.statements = parseStatements(body, content)
	}
	return m
}

// annotationType unwraps a `: Type` annotation node.
func annotationType(ann *sitter.Node, content []byte) *TypeNode {
	for i := 0; i < int(ann.NamedChildCount()); i++ {
		ch := ann.NamedChild(i)
		if ch.Type() != "comment" {
			return buildType(ch, content)
		}
	}
	return nil
}

func buildType(n *sitter.Node, content []byte) *TypeNode {
	t := &TypeNode{text: nodeText(n, content), resolved: true}
	switch n.Type() {
	case "object_type":
		t.kind = TypeLiteral
		t.pieces = literalPieces(n, content)
	case "type_identifier", "generic_type", "nested_type_identifier":
		t.kind = TypeReference
	case "type_query":
		t.kind = TypeQuery
	default:
		t.kind = TypeOther
	}
	return t
}

// literalPieces slices an object type into contiguous pieces. Every byte of
// the node belongs to exactly one piece, so concatenating them reproduces the
// source. A property piece spans from the end of the previous token to the
// end of the member, which puts leading comments in the member's full text.
func literalPieces(n *sitter.Node, content []byte) []typePiece {
	pieces := []typePiece{}
	cursor := n.StartByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.Type() == "comment" {
			continue
		}
		end := ch.EndByte()
		if end < cursor {
			continue
		}
		seg := string(content[cursor:end])
		if ch.Type() == "property_signature" {
			pieces = append(pieces, typePiece{prop: buildProperty(ch, content, seg)})
		} else {
			pieces = append(pieces, typePiece{raw: seg})
		}
		cursor = end
	}
	if cursor < n.EndByte() {
		pieces = append(pieces, typePiece{raw: string(content[cursor:n.EndByte()])})
	}
	return pieces
}

func buildProperty(n *sitter.Node, content []byte, fullText string) *PropertySignature {
	p := &PropertySignature{fullText: fullText}
	if name := n.ChildByFieldName("name"); name != nil {
		p.name = propertyName(nodeText(name, content))
	}
	if ann := n.ChildByFieldName("type"); ann != nil {
		p.typ = annotationType(ann, content)
	}
	return p
}

func propertyName(raw string) string {
	if len(raw) >= 2 {
		switch raw[0] {
		case '"':
			if s, err := strconv.Unquote(raw); err == nil {
				return s
			}
		case '\'':
			if raw[len(raw)-1] == '\'' {
				return raw[1 : len(raw)-1]
			}
		}
	}
	return raw
}
