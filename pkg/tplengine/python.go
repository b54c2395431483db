package tplengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"text/template"
	"unicode"

	"github.com/iancoleman/strcase"
)

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true, "def": true,
	"del": true, "elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// PythonFuncs returns the helpers used to emit Python source
func PythonFuncs() template.FuncMap {
	return template.FuncMap{
		"pyvar": PyVar,
		"pystr": PyStr,
		"pyval": PyVal,
	}
}

// PyVar turns an identifier such as a task id into a valid snake_case Python variable name
func PyVar(name string) string {
	var b strings.Builder
	for _, r := range strcase.ToSnake(name) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "task_" + out
	}
	if pythonKeywords[out] {
		out += "_"
	}
	return out
}

// PyStr renders s as a double quoted Python string literal
func PyStr(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// PyVal renders strings, booleans, numbers, slices and maps as Python literals.
// Map keys are sorted.
func PyVal(v any) string {
	if v == nil {
		return "None"
	}
	switch val := v.(type) {
	case string:
		return PyStr(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case fmt.Stringer:
		return PyStr(val.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "None"
		}
		return PyVal(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		items := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			items = append(items, PyVal(rv.Index(i).Interface()))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		entries := make(map[string]string, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries[fmt.Sprint(iter.Key().Interface())] = PyVal(iter.Value().Interface())
		}
		items := make([]string, 0, len(entries))
		for _, k := range slices.Sorted(maps.Keys(entries)) {
			items = append(items, PyStr(k)+": "+entries[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v)
	}
	return PyStr(fmt.Sprint(v))
}
