package utils

import (
	"reflect"
)

func Pointer[T any](t T) *T {
	return &t
}

func OptionalDefaulted[T any](def T, args ...T) T {
	var _nil T
	for _, e := range args {
		if !reflect.DeepEqual(e, _nil) {
			return e
		}
	}
	return def
}

func TransformSlice[E any, A ~[]E, T any](in A, m func(E) T) []T {
	r := make([]T, len(in))
	for i, v := range in {
		r[i] = m(v)
	}
	return r
}

func JoinFunc[S any](list []S, separator string, f func(S) string) string {
	sep := ""
	r := ""
	for _, e := range list {
		r += sep + f(e)
		sep = separator
	}
	return r
}
