/*
 * raw.go, part of gotraj.
 *
 * Copyright 2026 The gotraj Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package configurators

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Raw values come from TOML (int64, float64, []interface{}), YAML (int, float64, []interface{},
// map[string]interface{}) or from Go callers, so the conversions below are lenient about the
// concrete types.

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case uint:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case float32:
		return toInt(float64(x))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	}
	i, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%v (%T) is not a number", v, v)
	}
	return float64(i), nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", x)
		}
		return b, nil
	}
	i, err := toInt(v)
	if err != nil || (i != 0 && i != 1) {
		return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
	}
	return i == 1, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", fmt.Errorf("%v (%T) is not a string", v, v)
}

// toList accepts any slice or array, and returns its elements.
func toList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	ret := make([]any, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret, true
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		ret := make(map[string]any, len(m))
		for k, val := range m {
			ret[fmt.Sprint(k)] = val
		}
		return ret, true
	}
	return nil, false
}

func toStrings(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	l, ok := toList(v)
	if !ok {
		return nil, fmt.Errorf("%v (%T) is not a list of strings", v, v)
	}
	ret := make([]string, len(l))
	for i, e := range l {
		s, err := toString(e)
		if err != nil {
			return nil, err
		}
		ret[i] = s
	}
	return ret, nil
}

func toFloats(v any) ([]float64, error) {
	l, ok := toList(v)
	if !ok {
		return nil, fmt.Errorf("%v (%T) is not a list of numbers", v, v)
	}
	var ret []float64
	for _, e := range l {
		if inner, ok := toList(e); ok {
			f, err := toFloats(inner)
			if err != nil {
				return nil, err
			}
			ret = append(ret, f...)
			continue
		}
		f, err := toFloat(e)
		if err != nil {
			return nil, err
		}
		ret = append(ret, f)
	}
	return ret, nil
}

// fields reads a positional list or a map into the given keys. Missing entries are nil.
func fields(v any, keys ...string) (map[string]any, error) {
	ret := make(map[string]any, len(keys))
	if m, ok := toMap(v); ok {
		for k := range m {
			found := false
			for _, key := range keys {
				if k == key {
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("unexpected key %q", k)
			}
		}
		for _, k := range keys {
			ret[k] = m[k]
		}
		return ret, nil
	}
	l, ok := toList(v)
	if !ok {
		l = []any{v}
	}
	if len(l) > len(keys) {
		return nil, fmt.Errorf("expected at most %d values, got %d", len(keys), len(l))
	}
	for i, k := range keys {
		if i < len(l) {
			ret[k] = l[i]
		}
	}
	return ret, nil
}
