package conversion

import (
	"reflect"
	"testing"
	"time"
)

func TestConvertStringScalars(t *testing.T) {
	c := NewDefaultConverter()

	cases := []struct {
		value    string
		target   reflect.Type
		expected any
	}{
		{"42", reflect.TypeOf(int(0)), 42},
		{"42", reflect.TypeOf(int64(0)), int64(42)},
		{"7", reflect.TypeOf(uint(0)), uint(7)},
		{"3.5", reflect.TypeOf(float64(0)), 3.5},
		{"true", reflect.TypeOf(false), true},
		{"5s", reflect.TypeOf(time.Duration(0)), 5 * time.Second},
		{"keep", reflect.TypeOf(""), "keep"},
	}
	for _, tc := range cases {
		result, err := c.ConvertIfNecessary(tc.value, tc.target)
		if err != nil {
			t.Errorf("%q -> %v: unexpected error %v", tc.value, tc.target, err)
			continue
		}
		if result != tc.expected {
			t.Errorf("%q -> %v: expected %v, got %v", tc.value, tc.target, tc.expected, result)
		}
	}
}

func TestConvertNoopCases(t *testing.T) {
	c := NewDefaultConverter()

	if result, err := c.ConvertIfNecessary("text", nil); err != nil || result != "text" {
		t.Errorf("nil target type must pass through, got %v, %v", result, err)
	}
	if result, err := c.ConvertIfNecessary(nil, reflect.TypeOf("")); err != nil || result != nil {
		t.Errorf("nil value must pass through, got %v, %v", result, err)
	}

	instance := &struct{ X int }{X: 1}
	result, err := c.ConvertIfNecessary(instance, reflect.TypeOf(instance))
	if err != nil || result != instance {
		t.Errorf("assignable value must pass through untouched, got %v, %v", result, err)
	}
}

func TestConvertNumericWidening(t *testing.T) {
	c := NewDefaultConverter()
	result, err := c.ConvertIfNecessary(42, reflect.TypeOf(int64(0)))
	if err != nil {
		t.Fatal(err)
	}
	if result != int64(42) {
		t.Errorf("expected int64(42), got %v (%T)", result, result)
	}
}

func TestConvertToStringFallback(t *testing.T) {
	c := NewDefaultConverter()
	result, err := c.ConvertIfNecessary(true, reflect.TypeOf(""))
	if err != nil {
		t.Fatal(err)
	}
	if result != "true" {
		t.Errorf("expected string rendering, got %v", result)
	}
}

func TestConvertFailures(t *testing.T) {
	c := NewDefaultConverter()

	if _, err := c.ConvertIfNecessary("not a number", reflect.TypeOf(int(0))); err == nil {
		t.Error("invalid integer literal must fail")
	}
	if _, err := c.ConvertIfNecessary("not a duration", reflect.TypeOf(time.Duration(0))); err == nil {
		t.Error("invalid duration literal must fail")
	}
	if _, err := c.ConvertIfNecessary("x", reflect.TypeOf(struct{}{})); err == nil {
		t.Error("string to struct conversion must fail")
	}
}
