package content

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/lc/confkit/internal/log"
	"github.com/lc/confkit/pkg/bean"
)

const tagName = "conf"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// IsView reports whether t, or the type t points to, is a struct whose
// exported fields are all funcs, with at least one such field. Fields tagged
// conf:"-" are ignored.
func IsView(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	funcs := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get(tagName) == "-" {
			continue
		}
		if f.Type.Kind() != reflect.Func {
			return false
		}
		funcs++
	}
	return funcs > 0
}

// Bind exposes the object node root as a view of type T.
func Bind[T any](root *Node, opts ...Option) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	if !IsView(t) {
		return zero, fmt.Errorf("%w: %s is not a view type", ErrInvalidView, t)
	}
	v, err := newBinder(opts).bindRoot(t, root)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Option configures a content type.
type Option func(*options)

type options struct {
	coercer *bean.Coercer
}

// WithCoercer sets the coercer used to convert scalars. The default is
// bean.New().
func WithCoercer(c *bean.Coercer) Option {
	return func(o *options) { o.coercer = c }
}

// binder resolves document nodes against Go types.
type binder struct {
	coercer *bean.Coercer
	specs   sync.Map // reflect.Type -> *viewSpec
}

func newBinder(opts []Option) *binder {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.coercer == nil {
		o.coercer = bean.New()
	}
	return &binder{coercer: o.coercer}
}

type accessor struct {
	index   int          // field index in the view struct
	key     string       // property key
	fn      reflect.Type // func type of the field
	result  reflect.Type
	withErr bool
}

type viewSpec struct {
	accessors []accessor
}

func (b *binder) spec(t reflect.Type) (*viewSpec, error) {
	if s, ok := b.specs.Load(t); ok {
		return s.(*viewSpec), nil
	}

	s := &viewSpec{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get(tagName), ",")
		if !f.IsExported() || tag == "-" {
			continue
		}
		ft := f.Type
		if ft.NumIn() != 0 || ft.IsVariadic() {
			return nil, fmt.Errorf("%w: %s.%s takes parameters", ErrInvalidView, t, f.Name)
		}

		acc := accessor{index: i, key: tag, fn: ft}
		switch {
		case ft.NumOut() == 1 && ft.Out(0) != errorType:
		case ft.NumOut() == 2 && ft.Out(1) == errorType:
			acc.withErr = true
		default:
			return nil, fmt.Errorf("%w: %s.%s must return T or (T, error)", ErrInvalidView, t, f.Name)
		}
		acc.result = ft.Out(0)
		if acc.key == "" {
			acc.key = b.coercer.PropertyName(f.Name)
		}
		s.accessors = append(s.accessors, acc)
	}

	actual, _ := b.specs.LoadOrStore(t, s)
	return actual.(*viewSpec), nil
}

func (b *binder) bindRoot(t reflect.Type, root *Node) (any, error) {
	if root.Kind() != Object {
		return nil, fmt.Errorf("%w: %s document for view %s", ErrShapeMismatch, root.Kind(), t)
	}
	v, err := b.resolve("", root, t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// view backs the accessors of one bound view struct.
type view struct {
	b    *binder
	path string
	obj  *Node

	mu   sync.Mutex // protects memo
	memo map[memoKey]*memoCell
}

type memoKey struct {
	key string
	typ reflect.Type
}

type memoCell struct {
	once sync.Once
	val  reflect.Value
	err  error
}

func (b *binder) bindView(path string, t reflect.Type, obj *Node) (reflect.Value, error) {
	s, err := b.spec(t)
	if err != nil {
		return reflect.Value{}, err
	}
	vw := &view{b: b, path: path, obj: obj, memo: make(map[memoKey]*memoCell)}

	out := reflect.New(t).Elem()
	for _, acc := range s.accessors {
		out.Field(acc.index).Set(reflect.MakeFunc(acc.fn, vw.accessor(acc)))
	}
	log.Debug("content: view bound", "type", t.String(), "path", display(path), "accessors", len(s.accessors))
	return out, nil
}

func (v *view) accessor(acc accessor) func([]reflect.Value) []reflect.Value {
	return func([]reflect.Value) []reflect.Value {
		val, err := v.get(acc.key, acc.result)
		if acc.withErr {
			if err != nil {
				return []reflect.Value{reflect.Zero(acc.result), reflect.ValueOf(&err).Elem()}
			}
			return []reflect.Value{val, reflect.Zero(errorType)}
		}
		if err != nil {
			panic(err)
		}
		return []reflect.Value{val}
	}
}

// get resolves key against t once; later calls return the memoized outcome.
func (v *view) get(key string, t reflect.Type) (reflect.Value, error) {
	v.mu.Lock()
	k := memoKey{key: key, typ: t}
	cell, ok := v.memo[k]
	if !ok {
		cell = &memoCell{}
		v.memo[k] = cell
	}
	v.mu.Unlock()

	cell.once.Do(func() {
		node, _ := v.obj.Get(key)
		cell.val, cell.err = v.b.resolve(join(v.path, key), node, t)
	})
	return cell.val, cell.err
}

func (b *binder) resolve(path string, n *Node, t reflect.Type) (reflect.Value, error) {
	if n.Kind() == Null {
		if nillable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownProperty, display(path))
	}
	if t == nodeType {
		return reflect.ValueOf(n), nil
	}
	if t.Kind() == reflect.Pointer && !bean.IsCollection(t) {
		elem, err := b.resolve(path, n, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	switch n.Kind() {
	case Bool:
		switch {
		case t.Kind() == reflect.Bool:
			return reflect.ValueOf(n.b).Convert(t), nil
		case isAny(t):
			return fit(reflect.ValueOf(n.b), t), nil
		}
	case Number:
		if composite(t) {
			return mismatch(path, n, t)
		}
		v, err := b.coercer.CoerceNumber(n.Number(), t)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", display(path), err)
		}
		return fit(v, t), nil
	case String:
		if composite(t) && !b.coercer.Parses(t) {
			return mismatch(path, n, t)
		}
		v, err := b.coercer.CoerceString(n.s, t)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", display(path), err)
		}
		return fit(v, t), nil
	case Array:
		return b.resolveArray(path, n, t)
	case Object:
		return b.resolveObject(path, n, t)
	}
	return mismatch(path, n, t)
}

func (b *binder) resolveArray(path string, n *Node, t reflect.Type) (reflect.Value, error) {
	switch {
	case t.Kind() == reflect.Array:
		if t.Len() != len(n.items) {
			return reflect.Value{}, fmt.Errorf("%w: %s: %d items for %s", ErrShapeMismatch, display(path), len(n.items), t)
		}
		out := reflect.New(t).Elem()
		for i, item := range n.items {
			v, err := b.resolve(index(path, i), item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(v)
		}
		return out, nil

	case bean.IsCollection(t):
		c, err := bean.NewCollection(t, len(n.items))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", display(path), err)
		}
		for i, item := range n.items {
			v, err := b.resolve(index(path, i), item, c.ElemType())
			if err != nil {
				return reflect.Value{}, err
			}
			c.Add(v)
		}
		return c.Value(), nil

	case isAny(t):
		return fit(reflect.ValueOf(n.Value()), t), nil
	}
	return mismatch(path, n, t)
}

func (b *binder) resolveObject(path string, n *Node, t reflect.Type) (reflect.Value, error) {
	switch {
	case t.Kind() == reflect.Struct && IsView(t):
		return b.bindView(path, t, n)

	case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
		out := reflect.MakeMapWithSize(t, len(n.members))
		for _, k := range n.Keys() {
			v, err := b.resolve(join(path, k), n.members[k], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), v)
		}
		return out, nil

	case isAny(t):
		return fit(reflect.ValueOf(n.Value()), t), nil
	}
	return mismatch(path, n, t)
}

func mismatch(path string, n *Node, t reflect.Type) (reflect.Value, error) {
	return reflect.Value{}, fmt.Errorf("%w: %s: %s cannot populate %s", ErrShapeMismatch, display(path), n.Kind(), t)
}

// composite reports whether t can only be populated from an array or object.
func composite(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map:
		return true
	case reflect.Struct:
		return IsView(t)
	case reflect.Interface:
		return t.NumMethod() > 0
	}
	return bean.IsCollection(t)
}

// fit returns v as a value of exactly type t.
func fit(v reflect.Value, t reflect.Type) reflect.Value {
	if v.Type() == t {
		return v
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

func isAny(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func display(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
