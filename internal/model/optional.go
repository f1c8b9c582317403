package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a field of a partial-update body that tells apart the three
// states a JSON client can send:
//
//	{}                  → Set == false            leave the stored value alone
//	{"budget": null}    → Set == true, Null       clear it
//	{"budget": 1200}    → Set == true, Value=1200 overwrite it
//
// A plain pointer cannot do this: absent and null both decode to nil.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that was explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the body, which is what
// makes Set meaningful.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns nil when o is null and a pointer to the value otherwise.
// Only meaningful when Set is true.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
