// Package manifest reads the project manifest, the markup document that
// enumerates every layout of a project by name and file.
//
// Only the layout list is extracted. The reader is a streaming token loop
// with a small state machine, so unrelated or misplaced markup is skipped
// rather than rejected:
//
//	<layout>
//	  <name>Level1</name>
//	  <file>layouts/level1.json</file>
//	</layout>
package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// LayoutExt is the extension identifying structured-data layout files.
const LayoutExt = ".json"

var (
	// ErrNotFound indicates the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")

	// ErrParse indicates the manifest markup is malformed.
	ErrParse = errors.New("malformed manifest")
)

// Entry is one declared layout. Names are not guaranteed to be unique.
type Entry struct {
	// Name is the layout name as declared in the manifest.
	Name string `json:"name"`

	// Path is the layout file relative to the project root, slash separated.
	Path string `json:"path"`
}

// Read parses the manifest at path.
func Read(manifestPath string) ([]Entry, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, manifestPath)
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	return entries, nil
}

type field int

const (
	fieldNone field = iota
	fieldName
	fieldFile
)

// scanner holds the state of one pass over the token stream.
type scanner struct {
	inLayout bool
	depth    int // element depth inside the current layout, 0 = layout itself
	field    field
	text     strings.Builder
	name     string
	hasName  bool
	entries  []Entry
}

// Parse reads layout entries from a manifest stream in document order.
func Parse(r io.Reader) ([]Entry, error) {
	dec := xml.NewDecoder(r)
	s := &scanner{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.start(t.Name.Local)
		case xml.EndElement:
			s.end(t.Name.Local)
		case xml.CharData:
			if s.field != fieldNone {
				s.text.Write(t)
			}
		}
	}

	return s.entries, nil
}

func (s *scanner) start(tag string) {
	if !s.inLayout {
		if strings.EqualFold(tag, "layout") {
			s.inLayout = true
			s.depth = 0
			s.hasName = false
			s.name = ""
		}
		return
	}

	s.depth++
	if s.depth != 1 {
		// Markup nested in a field keeps collecting its text.
		return
	}
	s.field = fieldNone
	switch {
	case strings.EqualFold(tag, "name"):
		s.field = fieldName
	case strings.EqualFold(tag, "file"):
		s.field = fieldFile
	}
	s.text.Reset()
}

func (s *scanner) end(tag string) {
	if !s.inLayout {
		return
	}

	if s.depth == 0 {
		// Closing the layout block itself.
		if strings.EqualFold(tag, "layout") {
			s.inLayout = false
			s.hasName = false
			s.name = ""
		}
		return
	}

	if s.depth == 1 {
		value := strings.TrimSpace(s.text.String())
		switch s.field {
		case fieldName:
			s.name = value
			s.hasName = value != ""
		case fieldFile:
			s.acceptFile(value)
		}
		s.text.Reset()
		s.field = fieldNone
	}
	s.depth--
}

func (s *scanner) acceptFile(value string) {
	if !s.hasName || value == "" {
		return
	}
	normalized := path.Clean(strings.ReplaceAll(value, `\`, "/"))
	if !strings.EqualFold(path.Ext(normalized), LayoutExt) {
		return
	}
	s.entries = append(s.entries, Entry{Name: s.name, Path: normalized})
}
