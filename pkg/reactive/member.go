package reactive

import (
	"math"
	"strconv"
)

type method func(recv any, args []any) (any, error)

// GetProperty reads key from obj the way a member or keyed access does.
// Array, Map and Set methods come back bound to obj. Missing members and
// non-object receivers yield Undefined.
func GetProperty(obj any, key any) any {
	switch o := Normalize(obj).(type) {
	case *Object:
		return o.Get(ToPropertyKey(key))
	case *Array:
		if i, ok := arrayIndex(key); ok {
			return o.At(i)
		}
		name := ToPropertyKey(key)
		if name == "length" {
			return float64(o.Len())
		}
		return bindMethod(arrayMethods, name, o)
	case string:
		if i, ok := arrayIndex(key); ok {
			if i < len(o) {
				return string(o[i])
			}
			return Undefined
		}
		if ToPropertyKey(key) == "length" {
			return float64(len(o))
		}
	case *Map:
		name := ToPropertyKey(key)
		if name == "size" {
			return float64(o.Len())
		}
		return bindMethod(mapMethods, name, o)
	case *Set:
		name := ToPropertyKey(key)
		if name == "size" {
			return float64(o.Len())
		}
		return bindMethod(setMethods, name, o)
	}
	return Undefined
}

// SetProperty writes key on obj. It reports false when obj cannot hold
// properties.
func SetProperty(obj any, key any, value any) bool {
	switch o := obj.(type) {
	case *Object:
		o.Set(ToPropertyKey(key), value)
		return true
	case *Array:
		if i, ok := arrayIndex(key); ok {
			o.SetAt(i, value)
			return true
		}
	}
	return false
}

// IsNumericKey reports whether key addresses an array index: a number, or a
// string made only of digits.
func IsNumericKey(key any) bool {
	switch k := Normalize(key).(type) {
	case float64:
		return true
	case string:
		if k == "" {
			return false
		}
		for _, r := range k {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func arrayIndex(key any) (int, bool) {
	switch k := Normalize(key).(type) {
	case float64:
		if k < 0 || k != math.Trunc(k) || k > math.MaxInt32 {
			return 0, false
		}
		return int(k), true
	case string:
		if !IsNumericKey(k) {
			return 0, false
		}
		n, err := strconv.Atoi(k)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func bindMethod(table map[string]method, name string, recv any) any {
	m, ok := table[name]
	if !ok {
		return Undefined
	}
	return Func(func(_ any, args ...any) (any, error) {
		return m(recv, args)
	})
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func intArg(args []any, i int, def int) int {
	v := argAt(args, i)
	if IsUndefined(v) {
		return def
	}
	n := ToNumber(v)
	switch {
	case math.IsNaN(n):
		return 0
	case n >= math.MaxInt:
		return math.MaxInt
	case n <= math.MinInt:
		return math.MinInt
	}
	return int(n)
}

var arrayMethods map[string]method

func init() {
	arrayMethods = map[string]method{
		"push": func(recv any, args []any) (any, error) {
			return float64(recv.(*Array).Push(args...)), nil
		},
		"pop": func(recv any, _ []any) (any, error) {
			return recv.(*Array).Pop(), nil
		},
		"shift": func(recv any, _ []any) (any, error) {
			return recv.(*Array).Shift(), nil
		},
		"unshift": func(recv any, args []any) (any, error) {
			return float64(recv.(*Array).Unshift(args...)), nil
		},
		"splice": func(recv any, args []any) (any, error) {
			a := recv.(*Array)
			start := intArg(args, 0, 0)
			count := a.Len()
			if len(args) > 1 {
				count = intArg(args, 1, 0)
			}
			var items []any
			if len(args) > 2 {
				items = args[2:]
			}
			return NewArray(a.Splice(start, count, items...)...), nil
		},
		"reverse": func(recv any, _ []any) (any, error) {
			return recv.(*Array).Reverse(), nil
		},
		"sort": func(recv any, args []any) (any, error) {
			a := recv.(*Array)
			fn, ok := argAt(args, 0).(Func)
			if !ok {
				return a.Sort(nil), nil
			}
			var callErr error
			a.Sort(func(x, y any) float64 {
				if callErr != nil {
					return 0
				}
				r, err := fn(nil, x, y)
				if err != nil {
					callErr = err
					return 0
				}
				return ToNumber(r)
			})
			return a, callErr
		},
		"indexOf": func(recv any, args []any) (any, error) {
			return float64(recv.(*Array).IndexOf(argAt(args, 0))), nil
		},
		"includes": func(recv any, args []any) (any, error) {
			target := argAt(args, 0)
			for _, v := range recv.(*Array).Items() {
				if SameValueZero(v, target) {
					return true, nil
				}
			}
			return false, nil
		},
		"join": func(recv any, args []any) (any, error) {
			sep := ","
			if s := argAt(args, 0); !IsUndefined(s) {
				sep = ToString(s)
			}
			return recv.(*Array).Join(sep), nil
		},
		"slice": func(recv any, args []any) (any, error) {
			a := recv.(*Array)
			n := a.Len()
			start := clampIndex(intArg(args, 0, 0), n)
			end := clampIndex(intArg(args, 1, n), n)
			if end < start {
				end = start
			}
			return NewArray(a.Items()[start:end]...), nil
		},
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

var mapMethods = map[string]method{
	"get": func(recv any, args []any) (any, error) {
		v, _ := recv.(*Map).Get(argAt(args, 0))
		return v, nil
	},
	"set": func(recv any, args []any) (any, error) {
		recv.(*Map).Set(argAt(args, 0), argAt(args, 1))
		return recv, nil
	},
	"has": func(recv any, args []any) (any, error) {
		return recv.(*Map).Has(argAt(args, 0)), nil
	},
	"delete": func(recv any, args []any) (any, error) {
		return recv.(*Map).Delete(argAt(args, 0)), nil
	},
}

var setMethods = map[string]method{
	"add": func(recv any, args []any) (any, error) {
		recv.(*Set).Add(argAt(args, 0))
		return recv, nil
	},
	"has": func(recv any, args []any) (any, error) {
		return recv.(*Set).Has(argAt(args, 0)), nil
	},
	"delete": func(recv any, args []any) (any, error) {
		return recv.(*Set).Delete(argAt(args, 0)), nil
	},
}
