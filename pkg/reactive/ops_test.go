package reactive

import (
	"math"
	"testing"
)

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{Undefined, "undefined"},
		{nil, "null"},
		{true, "true"},
		{3, "3"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
		{"x", "x"},
		{NewArray(1, nil, "a"), "1,,a"},
		{NewObject(), "[object Object]"},
	}
	for _, tt := range tests {
		if got := ToString(tt.in); got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{true, 1},
		{"", 0},
		{" 42 ", 42},
		{"0x10", 16},
		{"1e3", 1000},
		{NewArray(7), 7},
	}
	for _, tt := range tests {
		if got := ToNumber(tt.in); got != tt.want {
			t.Errorf("ToNumber(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, in := range []any{Undefined, "abc", "inf", "NaN", NewObject()} {
		if got := ToNumber(in); !math.IsNaN(got) {
			t.Errorf("ToNumber(%#v) = %v, want NaN", in, got)
		}
	}
}

func TestEquality(t *testing.T) {
	obj := NewObject()
	fn := Func(func(any, ...any) (any, error) { return nil, nil })
	tests := []struct {
		a, b   any
		loose  bool
		strict bool
	}{
		{nil, Undefined, true, false},
		{nil, nil, true, true},
		{1, "1", true, false},
		{1, 1.0, true, true},
		{0, false, true, false},
		{"", false, true, false},
		{"a", "a", true, true},
		{math.NaN(), math.NaN(), false, false},
		{obj, obj, true, true},
		{obj, NewObject(), false, false},
		{fn, fn, true, true},
		{NewArray(1), "1", true, false},
		{nil, 0, false, false},
	}
	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.loose {
			t.Errorf("LooseEquals(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.loose)
		}
		if got := StrictEquals(tt.a, tt.b); got != tt.strict {
			t.Errorf("StrictEquals(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.strict)
		}
	}
}

func TestAddAndCompare(t *testing.T) {
	if got := Add(1, 2); got != 3.0 {
		t.Errorf("Add(1, 2) = %v", got)
	}
	if got := Add("a", 1); got != "a1" {
		t.Errorf("Add(a, 1) = %v", got)
	}
	if got := Add(1, Undefined); !math.IsNaN(got.(float64)) {
		t.Errorf("Add(1, undefined) = %v, want NaN", got)
	}
	if got := Add(NewArray(1, 2), 3); got != "1,23" {
		t.Errorf("Add([1,2], 3) = %v", got)
	}
	if !Compare("<", 2, 10) {
		t.Error("2 < 10 should hold numerically")
	}
	if Compare("<", "2", "10") {
		t.Error(`"2" < "10" should not hold for strings`)
	}
	if Compare(">=", Undefined, 0) {
		t.Error("undefined >= 0 should be false")
	}
}

func TestTypeOfAndTruthy(t *testing.T) {
	tests := []struct {
		in     any
		typeOf string
		truthy bool
	}{
		{Undefined, "undefined", false},
		{nil, "object", false},
		{0, "number", false},
		{math.NaN(), "number", false},
		{"", "string", false},
		{"0", "string", true},
		{NewArray(), "object", true},
		{ArrayConstructor, "function", true},
		{Func(nil), "function", true},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.in); got != tt.typeOf {
			t.Errorf("TypeOf(%#v) = %q, want %q", tt.in, got, tt.typeOf)
		}
		if got := Truthy(tt.in); got != tt.truthy {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.in, got, tt.truthy)
		}
	}
}

func TestGetProperty(t *testing.T) {
	arr := NewArray("a", "b")
	if got := GetProperty(arr, "length"); got != 2.0 {
		t.Errorf("length = %v", got)
	}
	if got := GetProperty(arr, 1); got != "b" {
		t.Errorf("arr[1] = %v", got)
	}
	if got := GetProperty(arr, "1"); got != "b" {
		t.Errorf(`arr["1"] = %v`, got)
	}
	push, ok := GetProperty(arr, "push").(Func)
	if !ok {
		t.Fatal("push is not a Func")
	}
	if n, _ := push(arr, "c"); n != 3.0 {
		t.Errorf("push() = %v, want 3", n)
	}
	if got := GetProperty("abc", "length"); got != 3.0 {
		t.Errorf(`"abc".length = %v`, got)
	}
	if got := GetProperty(NewObject(), "missing"); !IsUndefined(got) {
		t.Errorf("missing = %v, want undefined", got)
	}

	m := NewMap()
	m.Set("k", 1)
	get := GetProperty(m, "get").(Func)
	if v, _ := get(m, "k"); v != 1.0 {
		t.Errorf("map.get(k) = %v", v)
	}
}

func TestObject_SetNotifiesOnlyOnChange(t *testing.T) {
	obj := NewObject()
	sub := &testPropertySubscriber{id: NextID()}
	obj.PropertyObserver("a").Subscribe(sub)

	obj.Set("a", 1)
	obj.Set("a", 1.0)
	obj.Set("a", 2)
	obj.Delete("a")

	if len(sub.changes) != 3 {
		t.Fatalf("changes = %v, want 3", sub.changes)
	}
	if sub.changes[0][0] != 1.0 || !IsUndefined(sub.changes[0][1]) {
		t.Errorf("first change = %v, want [1 undefined]", sub.changes[0])
	}
	if !IsUndefined(sub.changes[2][0]) {
		t.Errorf("delete change = %v, want undefined new value", sub.changes[2])
	}
}

type testPropertySubscriber struct {
	id      uint64
	changes [][2]any
}

func (s *testPropertySubscriber) HandleChange(newValue, oldValue any, _ Flags) {
	s.changes = append(s.changes, [2]any{newValue, oldValue})
}

func (s *testPropertySubscriber) ID() uint64 { return s.id }

func TestPropertyObserver_SubscribeDedup(t *testing.T) {
	obj := NewObject()
	p := obj.PropertyObserver("x")
	sub := &testPropertySubscriber{id: NextID()}
	p.Subscribe(sub)
	p.Subscribe(sub)
	if p.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", p.SubscriberCount())
	}
	if !p.Unsubscribe(sub) || p.HasSubscribers() {
		t.Error("Unsubscribe() did not remove the subscriber")
	}
	if obj.PropertyObserver("x") != p {
		t.Error("PropertyObserver() returned a new observer")
	}
}
