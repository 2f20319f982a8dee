// Package layout loads, inspects and rewrites layout documents.
//
// A layout is a JSON tree of layers, each holding an ordered list of
// instances. The whole tree is kept as generic JSON so keys the engine does
// not understand survive a load/write round trip; Layer and Instance are thin
// typed views over that tree and mutate it in place.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	keyLayers    = "layers"
	keySubLayers = "subLayers"
	keyInstances = "instances"
	keyName      = "name"
	keyUID       = "uid"
	keyType      = "type"
	keyWorld     = "world"
	keyX         = "x"
	keyY         = "y"
)

// Document is one parsed layout.
type Document struct {
	root map[string]any
}

// Layer is a view over one layer object.
type Layer struct {
	raw map[string]any
}

// Instance is a view over one instance object.
type Instance struct {
	raw   map[string]any
	layer *Layer
}

// Position is an instance's world position.
type Position struct {
	X float64
	Y float64
}

// Decode parses a layout document. The root must be a JSON object.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document root is not an object", ErrParse)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}

	return &Document{root: root}, nil
}

// Encode serialises the document as two-space indented JSON with sorted keys
// and a trailing newline.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}
	return buf.Bytes(), nil
}

// Layers returns every layer depth first: a layer precedes its sub-layers,
// siblings keep document order.
func (d *Document) Layers() []*Layer {
	var out []*Layer
	var walk func(list any)
	walk = func(list any) {
		items, _ := list.([]any)
		for _, item := range items {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			l := &Layer{raw: raw}
			out = append(out, l)
			walk(raw[keySubLayers])
		}
	}
	walk(d.root[keyLayers])
	return out
}

// Instances returns every instance of every layer in document order.
func (d *Document) Instances() []*Instance {
	var out []*Instance
	for _, l := range d.Layers() {
		out = append(out, l.Instances()...)
	}
	return out
}

// Name returns the layer name, or "" when absent.
func (l *Layer) Name() string {
	name, _ := l.raw[keyName].(string)
	return name
}

// Instances returns the layer's own instances, excluding sub-layers.
func (l *Layer) Instances() []*Instance {
	items, _ := l.raw[keyInstances].([]any)
	out := make([]*Instance, 0, len(items))
	for _, item := range items {
		if raw, ok := item.(map[string]any); ok {
			out = append(out, &Instance{raw: raw, layer: l})
		}
	}
	return out
}

// Layer returns the layer holding the instance.
func (i *Instance) Layer() *Layer {
	return i.layer
}

// UID returns the instance uid. ok is false when the field is missing or is
// not an integer in the uint32 range.
func (i *Instance) UID() (uint32, bool) {
	n, ok := number(i.raw[keyUID])
	if !ok || n < 0 || n > math.MaxUint32 || n != math.Trunc(n) {
		return 0, false
	}
	return uint32(n), true
}

// Type returns the object type name, or "".
func (i *Instance) Type() string {
	t, _ := i.raw[keyType].(string)
	return t
}

// Position returns the world position. Missing coordinates read as zero.
func (i *Instance) Position() Position {
	world, _ := i.raw[keyWorld].(map[string]any)
	x, _ := number(world[keyX])
	y, _ := number(world[keyY])
	return Position{X: x, Y: y}
}

// Binding decodes the instance's template role.
func (i *Instance) Binding() Binding {
	return DecodeBinding(i.raw[keyTemplate])
}

// Mode returns the raw mode discriminator of the template sub-object, or ""
// when there is none. Unlike Binding it does not require the rest of the
// variant's fields.
func (i *Instance) Mode() string {
	raw, _ := i.raw[keyTemplate].(map[string]any)
	mode, _ := raw[keyMode].(string)
	return mode
}

// ConvertToReplica rebinds the instance as a replica of source. Only the
// template sub-object is touched; it is created when missing or malformed.
func (i *Instance) ConvertToReplica(source string) {
	raw, ok := i.raw[keyTemplate].(map[string]any)
	if !ok {
		raw = make(map[string]any)
		i.raw[keyTemplate] = raw
	}
	mergeReplica(raw, source)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

var (
	// ErrNotFound indicates the layout file does not exist.
	ErrNotFound = errors.New("layout not found")

	// ErrParse indicates the layout is not a valid JSON object.
	ErrParse = errors.New("malformed layout")

	// ErrIO indicates a read or write failure.
	ErrIO = errors.New("layout i/o failure")
)
