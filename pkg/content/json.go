package content

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/lc/confkit/pkg/resource"
)

// JSON reads JSON5 documents, a superset of JSON that also accepts comments,
// unquoted keys, single-quoted strings and trailing commas.
//
// View targets are bound over the root object. *Node targets receive the
// parsed tree. Any other target is decoded into directly.
type JSON struct {
	binder *binder
}

// NewJSON returns the JSON content type.
func NewJSON(opts ...Option) *JSON {
	return &JSON{binder: newBinder(opts)}
}

// Document parses res into a tree.
func (j *JSON) Document(res resource.Resource) (*Node, error) {
	root, _, err := parsed(res, parseJSON)
	return root, err
}

// Materialize returns a value of target read from res.
func (j *JSON) Materialize(target reflect.Type, res resource.Resource) (any, error) {
	root, data, err := parsed(res, parseJSON)
	if err != nil {
		return nil, err
	}
	if v, ok, err := materializeTree(j.binder, target, root); ok {
		return v, err
	}

	out := reflect.New(target)
	if err := json5.Unmarshal(data, out.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShapeMismatch, target, err)
	}
	return out.Elem().Interface(), nil
}

// parseJSON keeps numbers as json5.Number so integers beyond 2^53 stay exact.
// The decoder stops after the first value, so the whole input is checked
// with Unmarshal first.
func parseJSON(data []byte) (any, error) {
	var raw json5.RawMessage
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
