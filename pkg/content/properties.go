package content

import (
	"fmt"
	"reflect"

	"github.com/magiconair/properties"
	"github.com/mitchellh/mapstructure"

	"github.com/lc/confkit/pkg/resource"
)

var (
	stringMapType  = reflect.TypeOf(map[string]string(nil))
	propertiesType = reflect.TypeOf((*properties.Properties)(nil))
)

// Properties reads key=value property files. Values are taken verbatim;
// ${key} references are not expanded.
//
// Supported targets are map[string]string (the raw map),
// *properties.Properties, views, other string-keyed maps, *Node and plain
// structs. Plain structs are decoded with weak typing: "1" fills an int and
// "30s" a time.Duration. Struct fields match keys case-insensitively or by
// conf tag.
type Properties struct {
	binder *binder
}

// NewProperties returns the properties content type.
func NewProperties(opts ...Option) *Properties {
	return &Properties{binder: newBinder(opts)}
}

func (p *Properties) load(res resource.Resource) (*properties.Properties, error) {
	text, err := resource.ReadText(res)
	if err != nil {
		return nil, err
	}
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := l.LoadBytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return props, nil
}

// Document parses res into an object of string nodes.
func (p *Properties) Document(res resource.Resource) (*Node, error) {
	props, err := p.load(res)
	if err != nil {
		return nil, err
	}
	return NewNode(props.Map())
}

// Materialize returns a value of target read from res.
func (p *Properties) Materialize(target reflect.Type, res resource.Resource) (any, error) {
	props, err := p.load(res)
	if err != nil {
		return nil, err
	}
	switch target {
	case stringMapType:
		return props.Map(), nil
	case propertiesType:
		return props, nil
	}

	root, err := NewNode(props.Map())
	if err != nil {
		return nil, err
	}
	if v, ok, err := materializeTree(p.binder, target, root); ok {
		return v, err
	}

	switch {
	case target.Kind() == reflect.Map:
		v, err := p.binder.resolve("", root, target)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	case target.Kind() == reflect.Struct,
		target.Kind() == reflect.Pointer && target.Elem().Kind() == reflect.Struct:
		return decodeStruct(props.Map(), target)
	}
	return nil, fmt.Errorf("%w: properties cannot populate %s", ErrShapeMismatch, target)
}

func decodeStruct(m map[string]string, target reflect.Type) (any, error) {
	st := target
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	out := reflect.New(st)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		TagName:          tagName,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShapeMismatch, target, err)
	}
	if target.Kind() == reflect.Pointer {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}
