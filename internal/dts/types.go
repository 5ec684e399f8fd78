package dts

import (
	"context"
	"strings"
)

// TypeKind classifies a type node by shape.
type TypeKind int

const (
	// TypeOther covers unions, intersections, functions, keywords and
	// anything that failed to parse.
	TypeOther TypeKind = iota
	// TypeLiteral is an object type literal `{ a: string; b(): void }`.
	TypeLiteral
	// TypeReference is a named reference such as `Foo` or `Foo<Bar>`.
	TypeReference
	// TypeQuery is `typeof x.y`.
	TypeQuery
)

func (k TypeKind) String() string {
	switch k {
	case TypeLiteral:
		return "type literal"
	case TypeReference:
		return "type reference"
	case TypeQuery:
		return "type query"
	default:
		return "type"
	}
}

// TypeNode is a type expression. Its text is authoritative: pieces that are
// not rewritten print exactly as they were read.
type TypeNode struct {
	text     string
	kind     TypeKind
	resolved bool
	pieces   []typePiece
}

// typePiece is either raw text or a property member of a type literal.
type typePiece struct {
	raw  string
	prop *PropertySignature
}

// NewTypeNode creates a type node from text without parsing it. Structure is
// resolved lazily the first time Kind or Properties is called.
func NewTypeNode(text string) *TypeNode {
	return &TypeNode{text: text}
}

// Text returns the full type text.
func (t *TypeNode) Text() string {
	if t.pieces == nil {
		return t.text
	}
	var sb strings.Builder
	for _, p := range t.pieces {
		if p.prop != nil {
			sb.WriteString(p.prop.fullText)
		} else {
			sb.WriteString(p.raw)
		}
	}
	return sb.String()
}

// SetText replaces the whole type with text, discarding any structure.
func (t *TypeNode) SetText(text string) {
	t.text = text
	t.kind = TypeOther
	t.pieces = nil
	t.resolved = false
}

// Kind returns the shape of the type.
func (t *TypeNode) Kind() TypeKind {
	t.resolve()
	return t.kind
}

// Properties returns the property signatures of a type literal in source
// order. Other kinds have none.
func (t *TypeNode) Properties() []*PropertySignature {
	t.resolve()
	var out []*PropertySignature
	for _, p := range t.pieces {
		if p.prop != nil {
			out = append(out, p.prop)
		}
	}
	return out
}

// Property returns the property signature with the given name, or nil.
func (t *TypeNode) Property(name string) *PropertySignature {
	for _, p := range t.Properties() {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (t *TypeNode) resolve() {
	if t.resolved {
		return
	}
	t.resolved = true
	parsed, err := ParseType(context.Background(), t.text)
	if err != nil {
		t.kind = TypeOther
		return
	}
	t.kind = parsed.kind
	t.pieces = parsed.pieces
}

// PropertySignature is one `name?: Type` member of a type literal.
type PropertySignature struct {
	name     string
	fullText string
	typ      *TypeNode
}

// Name returns the property name with any quotes removed.
func (p *PropertySignature) Name() string { return p.name }

// FullText returns the member text including its leading trivia (whitespace
// and comments since the previous separator). Separators are not included.
func (p *PropertySignature) FullText() string { return p.fullText }

// Type returns the annotated type as it was parsed. It is not updated by
// ReplaceWithText.
func (p *PropertySignature) Type() *TypeNode { return p.typ }

// ReplaceWithText replaces the member's full text, trivia included.
func (p *PropertySignature) ReplaceWithText(text string) {
	p.fullText = text
}
