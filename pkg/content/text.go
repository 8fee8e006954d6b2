package content

import (
	"fmt"
	"reflect"

	"github.com/lc/confkit/pkg/resource"
)

// Text exposes the whole content of a resource: string targets receive the
// decoded text and []byte targets the raw bytes.
type Text struct{}

// NewText returns the text content type.
func NewText() *Text { return &Text{} }

// Materialize returns the content of res as target.
func (*Text) Materialize(target reflect.Type, res resource.Resource) (any, error) {
	switch {
	case target.Kind() == reflect.String:
		text, err := resource.ReadText(res)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(text).Convert(target).Interface(), nil
	case target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8:
		b, err := resource.ReadBytes(res)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(b).Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("%w: text cannot populate %s", ErrShapeMismatch, target)
}
