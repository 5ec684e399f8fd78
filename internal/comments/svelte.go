package comments

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const componentTag = "@component"

// FromSvelte extracts documentation from a .svelte component source.
//
// The component description is the first markup comment starting with
// `@component`. Prop docs are JSDoc blocks placed directly above
// `export let|const|var|function name` in the instance script; module
// scripts (`context="module"` or a bare `module` attribute) are ignored.
// Markup that tree-sitter cannot fully parse is tolerated.
func FromSvelte(ctx context.Context, content []byte) (*Comments, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(html.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Wrap(err, "parsing svelte markup")
	}
	defer tree.Close()

	c := &Comments{Props: map[string]string{}}
	if err := walkMarkup(ctx, tree.RootNode(), content, c); err != nil {
		return nil, err
	}
	return c, nil
}

func walkMarkup(ctx context.Context, n *sitter.Node, content []byte, c *Comments) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch n.Type() {
	case "comment":
		if c.ComponentDescription == "" {
			if desc, ok := componentDescription(text(n, content)); ok {
				c.ComponentDescription = desc
			}
		}
		return nil
	case "script_element":
		return scanScript(ctx, n, content, c)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := walkMarkup(ctx, n.NamedChild(i), content, c); err != nil {
			return err
		}
	}
	return nil
}

func text(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// componentDescription returns the dedented text after `@component` in an
// HTML comment.
func componentDescription(comment string) (string, bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(comment, "<!--"), "-->")
	trimmed := strings.TrimLeft(body, " \t\r\n")
	if !strings.HasPrefix(trimmed, componentTag) {
		return "", false
	}
	return dedent(strings.TrimPrefix(trimmed, componentTag)), true
}

// dedent drops blank edge lines and the indentation common to the rest.
// The first line is ignored when computing the common indentation since it
// follows the tag on the same line.
func dedent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	lines[0] = strings.TrimSpace(lines[0])
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}

	common := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" || (i == 0 && !startsIndented(line)) {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	for i, line := range lines {
		if len(line) >= common && common > 0 && strings.TrimSpace(line[:common]) == "" {
			lines[i] = line[common:]
		}
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func scanScript(ctx context.Context, n *sitter.Node, content []byte, c *Comments) error {
	var raw *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "start_tag":
			if isModuleScript(ch, content) {
				return nil
			}
		case "raw_text":
			raw = ch
		}
	}
	if raw == nil {
		return nil
	}

	script := content[raw.StartByte():raw.EndByte()]
	props, err := PropDocs(ctx, script)
	if err != nil {
		return err
	}
	for name, doc := range props {
		c.Props[name] = doc
	}
	return nil
}

func isModuleScript(startTag *sitter.Node, content []byte) bool {
	for i := 0; i < int(startTag.NamedChildCount()); i++ {
		attr := startTag.NamedChild(i)
		if attr.Type() != "attribute" {
			continue
		}
		var name, value string
		for j := 0; j < int(attr.NamedChildCount()); j++ {
			part := attr.NamedChild(j)
			switch part.Type() {
			case "attribute_name":
				name = text(part, content)
			case "attribute_value":
				value = text(part, content)
			case "quoted_attribute_value":
				value = strings.Trim(text(part, content), `"'`)
			}
		}
		if name == "module" || (name == "context" && value == "module") {
			return true
		}
	}
	return false
}

// PropDocs returns the JSDoc comment directly preceding each exported
// variable or function of a component script, keyed by name.
func PropDocs(ctx context.Context, script []byte) (map[string]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, script)
	if err != nil {
		return nil, errors.Wrap(err, "parsing component script")
	}
	defer tree.Close()

	docs := map[string]string{}
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}
		doc := precedingJSDoc(stmt, script)
		if doc == "" {
			continue
		}
		for _, name := range exportedNames(stmt, script) {
			docs[name] = doc
		}
	}
	return docs, nil
}

// precedingJSDoc returns the `/** */` comment that ends right before n,
// separated only by whitespace.
func precedingJSDoc(n *sitter.Node, content []byte) string {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	doc := text(prev, content)
	if !strings.HasPrefix(doc, "/**") {
		return ""
	}
	if strings.TrimSpace(string(content[prev.EndByte():n.StartByte()])) != "" {
		return ""
	}
	return doc
}

func exportedNames(stmt *sitter.Node, content []byte) []string {
	decl := stmt.ChildByFieldName("declaration")
	if decl == nil {
		return nil
	}
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, text(name, content))
			}
		}
		return names
	case "function_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{text(name, content)}
		}
	}
	return nil
}
