// Package comments holds the documentation that component declaration
// emitters drop: the component-level description and per-prop doc comments.
//
// A Comments value is either loaded from a sidecar file (JSON or YAML) or
// extracted from the component's .svelte source.
package comments

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned by Load for sidecar extensions it cannot read.
var ErrUnsupportedFormat = errors.New("unsupported comments file format")

// Comments is the read-only documentation lookup consulted by the transform.
type Comments struct {
	// ComponentDescription is attached to the component class. Empty means absent.
	ComponentDescription string `json:"componentDescription,omitempty" yaml:"componentDescription,omitempty"`

	// Props maps a prop name to its literal doc comment, e.g. "/** The label. */".
	Props map[string]string `json:"props,omitempty" yaml:"props,omitempty"`
}

// Prop returns the doc text for a prop. A nil receiver has no entries.
func (c *Comments) Prop(name string) (string, bool) {
	if c == nil || c.Props == nil {
		return "", false
	}
	doc, ok := c.Props[name]
	return doc, ok
}

// Description returns the component description, or "" for a nil receiver.
func (c *Comments) Description() string {
	if c == nil {
		return ""
	}
	return c.ComponentDescription
}

// IsEmpty reports whether there is nothing to attach.
func (c *Comments) IsEmpty() bool {
	return c == nil || (c.ComponentDescription == "" && len(c.Props) == 0)
}

// Load reads a sidecar file. The format is chosen by extension:
// .json uses JSON, .yaml/.yml use YAML.
func Load(path string) (*Comments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading comments file %q", path)
	}

	var c Comments
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrapf(err, "parsing comments file %q", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrapf(err, "parsing comments file %q", path)
		}
	default:
		return nil, errors.WithHint(
			errors.Wrapf(ErrUnsupportedFormat, "%q", path),
			"use a .json, .yaml or .yml sidecar")
	}
	return &c, nil
}

// Marshal renders c as indented JSON with props in key order.
func Marshal(c *Comments) ([]byte, error) {
	if c == nil {
		c = &Comments{}
	}
	return json.Marshal(c, json.Deterministic(true), jsontext.WithIndent("  "))
}
