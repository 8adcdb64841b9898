package pattern

import (
	"iter"
	"reflect"
	"strings"

	"github.com/bft-labs/batchby/pkg/batch"
)

// Getter is implemented by entries that expose named values.
type Getter interface {
	Get(key string) (any, bool)
}

// Property returns the value named key on entry.
//
// Getters, maps keyed by strings and structs are supported. Struct fields
// match by their json tag first and by field name otherwise. A missing key
// yields nil.
func Property(entry any, key string) any {
	switch e := entry.(type) {
	case nil:
		return nil
	case Getter:
		v, _ := e.Get(key)
		return v
	case map[string]any:
		return e[key]
	}

	v := reflect.ValueOf(entry)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		return structField(v, key)
	}
	return nil
}

func structField(v reflect.Value, key string) any {
	t := v.Type()
	byName := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			if name, _, _ := strings.Cut(tag, ","); name == key {
				return v.Field(i).Interface()
			}
		}
		if f.Name == key && byName < 0 {
			byName = i
		}
	}
	if byName >= 0 {
		return v.Field(byName).Interface()
	}
	return nil
}

// Equal is the equality used by SameProperty. Comparable scalars use ==;
// composite values such as decoded JSON objects and arrays are compared
// deeply so the relation stays reflexive.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Struct, reflect.Array, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// SameProperty returns a policy that batches consecutive entries sharing the
// value named key.
func SameProperty[E any](key string, opts ...Option) *Policy[E, any] {
	return SamePattern(Config[E, any]{
		Extract: func(entry E, _ *any) (any, error) {
			return Property(entry, key), nil
		},
		Same: Equal,
	}, opts...)
}

// ByProp returns the batch-by transform grouping consecutive entries on the
// value named key.
func ByProp[E any](key string, opts ...Option) func(iter.Seq2[E, error]) iter.Seq2[Batch[any, E], error] {
	return batch.By[State[any, E], E, Batch[any, E]](SameProperty[E](key, opts...))
}

// SameKey returns a policy that batches consecutive entries with equal keys.
func SameKey[E any, K comparable](key func(E) K, opts ...Option) *Policy[E, K] {
	return SamePattern(Config[E, K]{
		Extract: func(entry E, _ *K) (K, error) {
			return key(entry), nil
		},
		Same: func(a, b K) bool { return a == b },
	}, opts...)
}

// ByKey returns the batch-by transform grouping consecutive entries on key.
func ByKey[E any, K comparable](key func(E) K, opts ...Option) func(iter.Seq2[E, error]) iter.Seq2[Batch[K, E], error] {
	return batch.By[State[K, E], E, Batch[K, E]](SameKey(key, opts...))
}
