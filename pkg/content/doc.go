// Package content materializes typed values from resources.
//
// A ContentType reads a resource and produces a value of a requested Go
// type. JSON, YAML and properties documents are parsed into a tree of Nodes
// and can be exposed through views: structs whose exported fields are all
// accessor funcs. Binding a view fills each field with a function that looks
// up its property in the document on first call, coerces it to the field's
// result type and memoizes the outcome.
//
//	type Server struct {
//		GetHost func() string
//		GetPort func() (int, error)
//		TLS     func() *TLS `conf:"tls"`
//	}
//
//	srv, err := content.As[Server](content.NewJSON(), res)
//
// Accessor names map to property keys by dropping a get or is prefix and
// lower-casing the next letter (GetHost reads "host"). Other names are used
// as is; a conf tag overrides the key and conf:"-" leaves the field unset.
//
// Accessors returning (T, error) report resolution failures. Accessors
// returning only T panic with the error instead.
//
// Resolution follows the shape of the document node:
//   - missing keys and nulls yield nil for pointers, slices, maps and
//     interfaces, and fail with ErrUnknownProperty for everything else
//   - strings and numbers are coerced with a bean.Coercer
//   - arrays fill slices, fixed-size arrays, sets and gods containers
//   - objects bind nested views or fill map[string]E
//
// Any other pairing fails with ErrShapeMismatch. Documents are immutable, so
// failures are memoized like values.
package content
