package reactive

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Normalize converts Go numeric kinds to float64 so that every number in the
// runtime has one representation. Other values are returned unchanged.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case func(this any, args ...any) (any, error):
		return Func(n)
	}
	return v
}

// IsObject reports whether v is a non-null object (Object, Array, Map or Set).
func IsObject(v any) bool {
	switch v.(type) {
	case *Object, *Array, *Map, *Set:
		return true
	}
	return false
}

// IsFunction reports whether v is callable.
func IsFunction(v any) bool {
	switch v.(type) {
	case Func, Constructor:
		return true
	}
	return false
}

// TypeOf implements the typeof operator.
func TypeOf(v any) string {
	switch Normalize(v).(type) {
	case UndefinedType:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Func, Constructor:
		return "function"
	}
	return "object"
}

// Truthy implements boolean conversion.
func Truthy(v any) bool {
	switch x := Normalize(v).(type) {
	case UndefinedType, nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

// ToNumber implements numeric conversion.
func ToNumber(v any) float64 {
	switch x := Normalize(v).(type) {
	case UndefinedType:
		return math.NaN()
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		return stringToNumber(x)
	case *Array:
		return stringToNumber(ToString(x))
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	if strings.ContainsAny(lower, "xn_") {
		// ParseFloat accepts "inf", "nan" and underscores, JS does not.
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToString implements string conversion.
func ToString(v any) string {
	switch x := Normalize(v).(type) {
	case UndefinedType:
		return "undefined"
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	case string:
		return x
	case *Array:
		return x.Join(",")
	case *Object:
		return "[object Object]"
	case *Map:
		return "[object Map]"
	case *Set:
		return "[object Set]"
	case Func:
		return "function () { [native code] }"
	case Constructor:
		return "function " + x.Name() + "() { [native code] }"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes e+06, JS writes e+6.
		s = strings.Replace(s, "e+0", "e+", 1)
		return strings.Replace(s, "e-0", "e-", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToPropertyKey converts v to the string used for member lookup.
func ToPropertyKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ToString(v)
}

// toPrimitive converts objects to their string form and leaves primitives.
func toPrimitive(v any) any {
	v = Normalize(v)
	if IsObject(v) || IsFunction(v) {
		return ToString(v)
	}
	return v
}

// StrictEquals implements ===.
func StrictEquals(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case UndefinedType:
		return IsUndefined(b)
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Func:
		y, ok := b.(Func)
		return ok && reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// SameValueZero is strict equality except that NaN equals NaN.
func SameValueZero(a, b any) bool {
	x, xok := Normalize(a).(float64)
	y, yok := Normalize(b).(float64)
	if xok && yok && math.IsNaN(x) && math.IsNaN(y) {
		return true
	}
	return StrictEquals(a, b)
}

// LooseEquals implements ==.
func LooseEquals(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	if reflect.TypeOf(a) == reflect.TypeOf(b) {
		return StrictEquals(a, b)
	}
	switch x := a.(type) {
	case bool:
		return LooseEquals(ToNumber(x), b)
	case float64:
		switch y := b.(type) {
		case string:
			return x == ToNumber(y)
		case bool:
			return x == ToNumber(y)
		}
	case string:
		switch y := b.(type) {
		case float64:
			return ToNumber(x) == y
		case bool:
			return LooseEquals(x, ToNumber(y))
		}
	}
	if _, ok := b.(bool); ok {
		return LooseEquals(a, ToNumber(b))
	}
	aObj, bObj := IsObject(a) || IsFunction(a), IsObject(b) || IsFunction(b)
	if aObj != bObj {
		return LooseEquals(toPrimitive(a), toPrimitive(b))
	}
	return false
}

// Add implements binary +.
func Add(a, b any) any {
	pa, pb := toPrimitive(a), toPrimitive(b)
	sa, aStr := pa.(string)
	sb, bStr := pb.(string)
	if aStr || bStr {
		if !aStr {
			sa = ToString(pa)
		}
		if !bStr {
			sb = ToString(pb)
		}
		return sa + sb
	}
	return ToNumber(pa) + ToNumber(pb)
}

// Compare implements the relational operators. op is one of <, >, <=, >=.
func Compare(op string, a, b any) bool {
	pa, pb := toPrimitive(a), toPrimitive(b)
	sa, aStr := pa.(string)
	sb, bStr := pb.(string)
	if aStr && bStr {
		switch op {
		case "<":
			return sa < sb
		case ">":
			return sa > sb
		case "<=":
			return sa <= sb
		case ">=":
			return sa >= sb
		}
		return false
	}
	x, y := ToNumber(pa), ToNumber(pb)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	case ">=":
		return x >= y
	}
	return false
}

// Modulo implements %, truncating like JS.
func Modulo(a, b any) float64 {
	return math.Mod(ToNumber(a), ToNumber(b))
}

// HasProperty implements the in operator for an object right-hand side.
func HasProperty(obj any, key any) bool {
	switch o := obj.(type) {
	case *Object:
		return o.Has(ToPropertyKey(key))
	case *Array:
		name := ToPropertyKey(key)
		if name == "length" {
			return true
		}
		if i, ok := arrayIndex(key); ok {
			return i < o.Len()
		}
		_, ok := arrayMethods[name]
		return ok
	case *Map:
		name := ToPropertyKey(key)
		_, ok := mapMethods[name]
		return ok || name == "size"
	case *Set:
		name := ToPropertyKey(key)
		_, ok := setMethods[name]
		return ok || name == "size"
	}
	return false
}
