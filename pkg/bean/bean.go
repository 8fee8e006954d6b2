// Package bean maps accessor names to property keys and coerces raw scalar
// values into Go types.
//
// A Coercer owns its conversion table. Build one with New and hand it to the
// components that need it; there is no package-level table.
package bean

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrUnsupportedConversion is returned when no rule converts a value to
	// the requested type.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrInvalidValue is returned when a value cannot be parsed as the
	// requested type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnsupportedCollection is returned for types that cannot hold the
	// elements of an array.
	ErrUnsupportedCollection = errors.New("unsupported collection type")
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

type converter func(string) (reflect.Value, error)

// Coercer converts strings and numbers taken from a document into values of
// a requested type.
type Coercer struct {
	converters map[reflect.Type]converter
}

// Option configures a Coercer.
type Option func(*Coercer)

// WithConverter registers fn as the string conversion for T. It takes
// precedence over every built-in rule.
func WithConverter[T any](fn func(string) (T, error)) Option {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return func(c *Coercer) {
		c.converters[t] = func(s string) (reflect.Value, error) {
			v, err := fn(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		}
	}
}

// New returns a Coercer with the built-in rules plus opts. time.Duration
// values are parsed with time.ParseDuration.
func New(opts ...Option) *Coercer {
	c := &Coercer{converters: make(map[reflect.Type]converter)}
	WithConverter(time.ParseDuration)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PropertyName derives the property key for an accessor. A leading get or is
// prefix (either case) is dropped when more characters follow and the next
// one is not lower case, and the first remaining rune is lower-cased:
// GetFooBar -> fooBar, IsCool -> cool. Other names are returned unchanged.
func (c *Coercer) PropertyName(accessor string) string {
	for _, prefix := range []string{"get", "Get", "is", "Is"} {
		rest, ok := strings.CutPrefix(accessor, prefix)
		if !ok || rest == "" {
			continue
		}
		r, n := utf8.DecodeRuneInString(rest)
		if unicode.IsLower(r) {
			continue
		}
		return string(unicode.ToLower(r)) + rest[n:]
	}
	return accessor
}

// Parses reports whether t is read from text by a registered converter or
// its encoding.TextUnmarshaler implementation.
func (c *Coercer) Parses(t reflect.Type) bool {
	if _, ok := c.converters[t]; ok {
		return true
	}
	return reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// CoerceString converts s to t. Rules are tried in order: a registered
// converter, an interface target with no methods (s as is), an
// encoding.TextUnmarshaler implementation, then the kind of t.
func (c *Coercer) CoerceString(s string, t reflect.Type) (reflect.Value, error) {
	if conv, ok := c.converters[t]; ok {
		v, err := conv(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, s, t, err)
		}
		return v, nil
	}
	if isAny(t) {
		return reflect.ValueOf(s), nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		v := reflect.New(t)
		if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, s, t, err)
		}
		return v.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		switch {
		case strings.EqualFold(s, "true"):
			v.SetBool(true)
		case strings.EqualFold(s, "false"):
			v.SetBool(false)
		default:
			return reflect.Value{}, fmt.Errorf("%w: %q as %s", ErrInvalidValue, s, t)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, s, t, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, s, t, err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q as %s: %v", ErrInvalidValue, s, t, err)
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("%w: string to %s", ErrUnsupportedConversion, t)
	}
	return v, nil
}

// CoerceNumber converts the numeric value n to t. Floats are truncated when
// t is an integer type. Interface targets with no methods receive n as is.
// Negative values for unsigned targets and values outside the range of t
// fail with ErrInvalidValue.
func (c *Coercer) CoerceNumber(n any, t reflect.Type) (reflect.Value, error) {
	nv := reflect.ValueOf(n)
	if !isNumeric(nv.Kind()) {
		return reflect.Value{}, fmt.Errorf("%w: %T is not a number", ErrUnsupportedConversion, n)
	}
	if isAny(t) {
		return nv, nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := toInt(nv)
		if !ok || out.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrInvalidValue, n, t)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if negative(nv) {
			return reflect.Value{}, fmt.Errorf("%w: negative %v as %s", ErrInvalidValue, n, t)
		}
		u, ok := toUint(nv)
		if !ok || out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrInvalidValue, n, t)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f := toFloat(nv)
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrInvalidValue, n, t)
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("%w: number to %s", ErrUnsupportedConversion, t)
	}
	return out, nil
}

func negative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}
	return false
}

// toInt reports false when v does not fit an int64 after truncation.
func toInt(v reflect.Value) (int64, bool) {
	switch {
	case v.CanInt():
		return v.Int(), true
	case v.CanUint():
		u := v.Uint()
		return int64(u), u <= math.MaxInt64
	}
	f := math.Trunc(v.Float())
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// toUint expects a non-negative v.
func toUint(v reflect.Value) (uint64, bool) {
	switch {
	case v.CanInt():
		return uint64(v.Int()), true
	case v.CanUint():
		return v.Uint(), true
	}
	f := math.Trunc(v.Float())
	if math.IsNaN(f) || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	}
	return v.Float()
}

// Convert is CoerceString for a statically known type.
func Convert[T any](c *Coercer, s string) (T, error) {
	var zero T
	v, err := c.CoerceString(s, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

func isAny(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
