package assetgraph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/domsplit/pkg/errors"
)

// Format identifies the serialization of an asset-graph document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the on-disk and over-the-wire representation of an asset
// graph.
type Document struct {
	Assets       []Asset      `json:"assets" yaml:"assets" bson:"assets"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies" bson:"dependencies"`
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported asset graph extension: %q", filepath.Ext(path))
	}
}

// Decode reads a document in the given format. Unknown JSON fields are
// rejected so that typos surface early.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json asset graph")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml asset graph")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return &doc, nil
}

// Encode writes a document in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
}

// FromDocument builds a graph. Assets are added before dependencies so
// dependencies may reference assets declared later in the document.
func FromDocument(doc *Document) (*Graph, error) {
	g := New()
	for _, a := range doc.Assets {
		if _, err := g.AddAsset(a); err != nil {
			return nil, err
		}
	}
	for _, d := range doc.Dependencies {
		if _, err := g.AddDependency(d); err != nil {
			return nil, err
		}
	}
	if len(g.entries) == 0 && len(g.assets) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "asset graph has no entry dependency")
	}
	return g, nil
}

// ToDocument converts a graph back into its document form.
func ToDocument(g *Graph) *Document {
	doc := &Document{
		Assets:       make([]Asset, 0, len(g.assets)),
		Dependencies: make([]Dependency, 0, len(g.deps)),
	}
	for _, a := range g.assets {
		doc.Assets = append(doc.Assets, *a)
	}
	for _, d := range g.deps {
		doc.Dependencies = append(doc.Dependencies, *d)
	}
	return doc
}

// Parse decodes raw bytes and builds the graph in one step.
func Parse(data []byte, format Format) (*Graph, error) {
	doc, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// ReadFile loads a graph from a .json, .yaml or .yml file. It also returns
// the raw bytes so callers can derive content hashes without re-reading.
func ReadFile(path string) (*Graph, []byte, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "asset graph %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read asset graph %s", path)
	}
	g, err := Parse(data, format)
	if err != nil {
		return nil, nil, err
	}
	return g, data, nil
}
