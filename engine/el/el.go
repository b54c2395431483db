// Package el resolves the subset of Oozie expression language used in workflow definitions.
package el

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	expressionPattern = regexp.MustCompile(`\$\{([^{}]*)\}`)
	variablePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)
	schemePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://[^/]*`)
)

// Substitute replaces every ${name} with its value from params.
// Expressions that are not plain variables or are not in params are left untouched.
func Substitute(text string, params map[string]string) string {
	return expressionPattern.ReplaceAllStringFunc(text, func(expr string) string {
		name := strings.TrimSpace(expr[2 : len(expr)-1])
		if value, ok := params[name]; ok {
			return value
		}
		return expr
	})
}

// SubstituteAll resolves references between params until no value changes
func SubstituteAll(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	for range len(out) {
		changed := false
		for k, v := range out {
			resolved := Substitute(v, out)
			if resolved != v {
				out[k] = resolved
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return out
}

// ToJinja rewrites the remaining ${name} variables as runtime lookups into the DAG params
func ToJinja(text string) string {
	return expressionPattern.ReplaceAllStringFunc(text, func(expr string) string {
		name := strings.TrimSpace(expr[2 : len(expr)-1])
		if !variablePattern.MatchString(name) {
			return expr
		}
		return fmt.Sprintf("{{ params['%s'] }}", name)
	})
}

// Resolve substitutes known params and defers the rest to run time
func Resolve(text string, params map[string]string) string {
	return ToJinja(Substitute(text, params))
}

// HasExpression reports whether text still contains an expression
func HasExpression(text string) bool {
	return expressionPattern.MatchString(text)
}

// NormalizePath resolves params in url and strips its scheme and authority
func NormalizePath(url string, params map[string]string) string {
	resolved := Resolve(strings.TrimSpace(url), params)
	path := schemePattern.ReplaceAllString(resolved, "")
	if path == "" {
		return "/"
	}
	return path
}
