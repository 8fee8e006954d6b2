package content

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/lc/confkit/pkg/resource"
)

// YAML reads YAML documents. Targets are handled as by JSON; direct
// decoding honours yaml struct tags.
type YAML struct {
	binder *binder
}

// NewYAML returns the YAML content type.
func NewYAML(opts ...Option) *YAML {
	return &YAML{binder: newBinder(opts)}
}

// Document parses res into a tree.
func (y *YAML) Document(res resource.Resource) (*Node, error) {
	root, _, err := parsed(res, parseYAML)
	return root, err
}

// Materialize returns a value of target read from res.
func (y *YAML) Materialize(target reflect.Type, res resource.Resource) (any, error) {
	root, data, err := parsed(res, parseYAML)
	if err != nil {
		return nil, err
	}
	if v, ok, err := materializeTree(y.binder, target, root); ok {
		return v, err
	}

	out := reflect.New(target)
	if err := yaml.Unmarshal(data, out.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShapeMismatch, target, err)
	}
	return out.Elem().Interface(), nil
}

func parseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
