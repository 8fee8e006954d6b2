package content

import (
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/lc/confkit/pkg/resource"
)

// ContentType materializes values of a requested type from a resource.
type ContentType interface {
	// Materialize reads res and returns a value whose dynamic type is target
	// (or, for interface targets, a value implementing it).
	Materialize(target reflect.Type, res resource.Resource) (any, error)
}

// DocumentType is a ContentType whose content parses into a Node tree.
type DocumentType interface {
	ContentType
	// Document reads and parses res.
	Document(res resource.Resource) (*Node, error)
}

var (
	_ DocumentType = (*JSON)(nil)
	_ DocumentType = (*YAML)(nil)
	_ DocumentType = (*Properties)(nil)
	_ ContentType  = (*Text)(nil)
)

// As materializes a T from res.
func As[T any](ct ContentType, res resource.Resource) (T, error) {
	var zero T
	v, err := ct.Materialize(reflect.TypeOf((*T)(nil)).Elem(), res)
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// Format names accepted by ByName.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatProperties = "properties"
	FormatText       = "text"
)

// ByName returns the content type for a format name.
func ByName(format string, opts ...Option) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "json5":
		return NewJSON(opts...), nil
	case FormatYAML, "yml":
		return NewYAML(opts...), nil
	case FormatProperties, "props":
		return NewProperties(opts...), nil
	case FormatText, "txt":
		return NewText(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FormatOf returns the format name implied by the extension of name.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".json5":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".properties":
		return FormatProperties, nil
	case ".txt", ".text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: cannot infer format of %q", ErrUnknownFormat, name)
}

// ByExtension returns the content type implied by the extension of name.
func ByExtension(name string, opts ...Option) (ContentType, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	return ByName(format, opts...)
}

// parsed parses the text of res with parse and converts it into a tree.
func parsed(res resource.Resource, parse func([]byte) (any, error)) (*Node, []byte, error) {
	text, err := resource.ReadText(res)
	if err != nil {
		return nil, nil, err
	}
	data := []byte(text)
	raw, err := parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root, err := NewNode(raw)
	if err != nil {
		return nil, nil, err
	}
	return root, data, nil
}

// materializeTree handles the targets shared by tree documents. It reports
// false when target needs a format specific decoding.
func materializeTree(b *binder, target reflect.Type, root *Node) (any, bool, error) {
	switch {
	case target == nodeType:
		return root, true, nil
	case IsView(target):
		v, err := b.bindRoot(target, root)
		return v, true, err
	}
	return nil, false, nil
}
