package bean

import (
	"fmt"
	"reflect"

	"github.com/emirpasic/gods/lists"
	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/lists/singlylinkedlist"
	"github.com/emirpasic/gods/queues"
	"github.com/emirpasic/gods/queues/arrayqueue"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/sets"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/linkedhashset"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Collection accumulates elements into a value of a collection type.
type Collection struct {
	elem reflect.Type
	val  reflect.Value
	add  func(reflect.Value)
}

// ElemType is the type each element must be resolved against before Add.
func (c *Collection) ElemType() reflect.Type { return c.elem }

// Add appends v. v must be assignable to ElemType.
func (c *Collection) Add(v reflect.Value) { c.add(v) }

// Value returns the collection built so far.
func (c *Collection) Value() reflect.Value { return c.val }

type adder interface{ Add(...any) }

type enqueuer interface{ Enqueue(any) }

// godsFactories maps gods container types, interfaces included, to a
// constructor of a matching empty container.
var godsFactories = map[reflect.Type]func() any{
	reflect.TypeOf((*lists.List)(nil)).Elem():   func() any { return arraylist.New() },
	reflect.TypeOf((*sets.Set)(nil)).Elem():     func() any { return hashset.New() },
	reflect.TypeOf((*queues.Queue)(nil)).Elem(): func() any { return arrayqueue.New() },
	reflect.TypeOf(&arraylist.List{}):           func() any { return arraylist.New() },
	reflect.TypeOf(&doublylinkedlist.List{}):    func() any { return doublylinkedlist.New() },
	reflect.TypeOf(&singlylinkedlist.List{}):    func() any { return singlylinkedlist.New() },
	reflect.TypeOf(&hashset.Set{}):              func() any { return hashset.New() },
	reflect.TypeOf(&linkedhashset.Set{}):        func() any { return linkedhashset.New() },
	reflect.TypeOf(&arrayqueue.Queue{}):         func() any { return arrayqueue.New() },
	reflect.TypeOf(&linkedlistqueue.Queue{}):    func() any { return linkedlistqueue.New() },
}

// IsCollection reports whether NewCollection accepts t.
func IsCollection(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return true
	case reflect.Map:
		return isSetElem(t.Elem())
	}
	_, ok := godsFactories[t]
	return ok
}

// NewCollection returns an empty collection of type t sized for n elements.
// Slices and sets modelled as map[E]struct{} or map[E]bool are typed; gods
// containers hold elements of type any.
func NewCollection(t reflect.Type, n int) (*Collection, error) {
	switch {
	case t.Kind() == reflect.Slice:
		c := &Collection{elem: t.Elem(), val: reflect.MakeSlice(t, 0, n)}
		c.add = func(v reflect.Value) { c.val = reflect.Append(c.val, v) }
		return c, nil

	case t.Kind() == reflect.Map && isSetElem(t.Elem()):
		c := &Collection{elem: t.Key(), val: reflect.MakeMapWithSize(t, n)}
		member := reflect.New(t.Elem()).Elem()
		if t.Elem().Kind() == reflect.Bool {
			member.SetBool(true)
		}
		c.add = func(v reflect.Value) { c.val.SetMapIndex(v, member) }
		return c, nil
	}

	factory, ok := godsFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCollection, t)
	}
	container := factory()
	val := reflect.New(t).Elem()
	val.Set(reflect.ValueOf(container))

	c := &Collection{elem: anyType, val: val}
	switch impl := container.(type) {
	case adder:
		c.add = func(v reflect.Value) { impl.Add(v.Interface()) }
	case enqueuer:
		c.add = func(v reflect.Value) { impl.Enqueue(v.Interface()) }
	}
	return c, nil
}

func isSetElem(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || (t.Kind() == reflect.Struct && t.NumField() == 0)
}
