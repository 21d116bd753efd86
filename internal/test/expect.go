// Package test contains helper functions that remove common boilerplate from the
// package tests.
package test

import (
	"fmt"
	"testing"
)

func id(tags ...any) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprint(tags...) + ": "
}

// ExpectEquality fails the test, without stopping it, if v does not equal expected.
func ExpectEquality[T comparable](t *testing.T, v T, expected T, tags ...any) bool {
	t.Helper()
	if v != expected {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
		return false
	}
	return true
}

// DemandEquality is like ExpectEquality but stops the test. Use it when later checks
// depend on the value being right.
func DemandEquality[T comparable](t *testing.T, v T, expected T, tags ...any) {
	t.Helper()
	if v != expected {
		t.Fatalf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expected)
	}
}

// ExpectSuccess accepts a nil error or a true bool.
func ExpectSuccess(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	if !success(v) {
		t.Errorf("%sa success value is expected for type %T (%v)", id(tags...), v, v)
		return false
	}
	return true
}

// ExpectFailure accepts a non-nil error or a false bool.
func ExpectFailure(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	if success(v) {
		t.Errorf("%sa failure value is expected for type %T", id(tags...), v)
		return false
	}
	return true
}

// DemandSuccess is like ExpectSuccess but stops the test.
func DemandSuccess(t *testing.T, v any, tags ...any) {
	t.Helper()
	if !success(v) {
		t.Fatalf("%sa success value is demanded for type %T (%v)", id(tags...), v, v)
	}
}

func success(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return v
	case error:
		return v == nil
	}
	panic(fmt.Sprintf("unsupported type %T for success test", v))
}
