package content

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is an immutable element of a parsed document.
type Node struct {
	kind Kind

	b        bool
	f        float64
	i        int64
	integral bool
	s        string
	items    []*Node
	members  map[string]*Node
}

// NewNode converts a decoded document value into a tree. It accepts what the
// JSON, YAML and properties decoders produce: nil, bools, numbers including
// json5.Number, strings, time.Time, []any, map[string]any and map[any]any.
func NewNode(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return &Node{kind: Null}, nil
	case *Node:
		return x, nil
	case bool:
		return &Node{kind: Bool, b: x}, nil
	case string:
		return &Node{kind: String, s: x}, nil
	case json5.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return intNode(i), nil
		}
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %s: %v", ErrMalformed, x, err)
		}
		return floatNode(f), nil
	case float64:
		return floatNode(x), nil
	case float32:
		return floatNode(float64(x)), nil
	case int:
		return intNode(int64(x)), nil
	case int64:
		return intNode(x), nil
	case int32:
		return intNode(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return floatNode(float64(x)), nil
		}
		return intNode(int64(x)), nil
	case uint:
		return NewNode(uint64(x))
	case time.Time:
		return &Node{kind: String, s: x.Format(time.RFC3339Nano)}, nil
	case []any:
		n := &Node{kind: Array, items: make([]*Node, len(x))}
		for i, item := range x {
			child, err := NewNode(item)
			if err != nil {
				return nil, err
			}
			n.items[i] = child
		}
		return n, nil
	case map[string]any:
		n := &Node{kind: Object, members: make(map[string]*Node, len(x))}
		for k, item := range x {
			child, err := NewNode(item)
			if err != nil {
				return nil, err
			}
			n.members[k] = child
		}
		return n, nil
	case map[any]any:
		n := &Node{kind: Object, members: make(map[string]*Node, len(x))}
		for k, item := range x {
			child, err := NewNode(item)
			if err != nil {
				return nil, err
			}
			n.members[fmt.Sprint(k)] = child
		}
		return n, nil
	case map[string]string:
		n := &Node{kind: Object, members: make(map[string]*Node, len(x))}
		for k, s := range x {
			n.members[k] = &Node{kind: String, s: s}
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: unexpected value of type %T", ErrMalformed, v)
	}
}

func floatNode(f float64) *Node {
	n := &Node{kind: Number, f: f}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		n.i, n.integral = int64(f), true
	}
	return n
}

func intNode(i int64) *Node {
	return &Node{kind: Number, f: float64(i), i: i, integral: true}
}

// Kind returns the variant of n. A nil node is Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// Get returns the member key of an Object node.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != Object {
		return nil, false
	}
	child, ok := n.members[key]
	return child, ok
}

// Index returns the i-th item of an Array node, or nil.
func (n *Node) Index(i int) *Node {
	if n.Kind() != Array || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Len returns the number of items or members.
func (n *Node) Len() int {
	switch n.Kind() {
	case Array:
		return len(n.items)
	case Object:
		return len(n.members)
	}
	return 0
}

// Keys returns the member names of an Object node in sorted order.
func (n *Node) Keys() []string {
	if n.Kind() != Object {
		return nil
	}
	keys := make([]string, 0, len(n.members))
	for k := range n.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bool returns the value of a Bool node.
func (n *Node) Bool() bool { return n.Kind() == Bool && n.b }

// Str returns the value of a String node.
func (n *Node) Str() string {
	if n.Kind() != String {
		return ""
	}
	return n.s
}

// Number returns the value of a Number node: an int64 for integral values
// and a float64 otherwise.
func (n *Node) Number() any {
	if n.Kind() != Number {
		return nil
	}
	if n.integral {
		return n.i
	}
	return n.f
}

// Value returns n as plain Go values: nil, bool, int64 or float64, string,
// []any and map[string]any.
func (n *Node) Value() any {
	switch n.Kind() {
	case Bool:
		return n.b
	case Number:
		return n.Number()
	case String:
		return n.s
	case Array:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Value()
		}
		return out
	case Object:
		out := make(map[string]any, len(n.members))
		for k, member := range n.members {
			out[k] = member.Value()
		}
		return out
	}
	return nil
}

// Flatten renders every leaf of n under a dotted path, with array items as
// path[i]: {"a":{"b":[1,2]}} becomes a.b[0]=1 and a.b[1]=2. Empty arrays and
// objects produce no entries; null renders as the empty string.
func (n *Node) Flatten() map[string]string {
	out := make(map[string]string)
	n.flatten("", out)
	return out
}

func (n *Node) flatten(prefix string, out map[string]string) {
	switch n.Kind() {
	case Array:
		for i, item := range n.items {
			item.flatten(prefix+"["+strconv.Itoa(i)+"]", out)
		}
	case Object:
		for k, member := range n.members {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			member.flatten(path, out)
		}
	default:
		out[prefix] = n.text()
	}
}

func (n *Node) text() string {
	switch n.Kind() {
	case Bool:
		return strconv.FormatBool(n.b)
	case Number:
		if n.integral {
			return strconv.FormatInt(n.i, 10)
		}
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	case String:
		return n.s
	}
	return ""
}

func (n *Node) String() string {
	switch n.Kind() {
	case Array, Object:
		return fmt.Sprintf("%s(%d)", n.Kind(), n.Len())
	case Null:
		return "null"
	}
	return n.text()
}

var nodeType = reflect.TypeOf((*Node)(nil))
