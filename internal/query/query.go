// Package query evaluates JMESPath expressions over decoded JSON trees. The
// development server and both clients use it, so local and server-side
// evaluation of the same expression agree.
package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/jmespath/go-jmespath"
)

var compiled sync.Map // expression -> *jmespath.JMESPath

// Evaluate applies expression to value. An empty expression returns value
// unchanged. Syntax and evaluation errors are returned as *content.QueryError.
func Evaluate(value any, expression string) (any, error) {
	if strings.TrimSpace(expression) == "" {
		return value, nil
	}

	program, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	result, err := program.Search(value)
	if err != nil {
		return nil, &content.QueryError{Expression: expression, Err: err}
	}

	return result, nil
}

// Compile parses expression once and memoizes the program.
func Compile(expression string) (*jmespath.JMESPath, error) {
	if program, ok := compiled.Load(expression); ok {
		return program.(*jmespath.JMESPath), nil //nolint:forcetypeassert // only *JMESPath is stored
	}

	program, err := jmespath.Compile(expression)
	if err != nil {
		return nil, &content.QueryError{Expression: expression, Err: err}
	}

	compiled.Store(expression, program)

	return program, nil
}

// Validate reports a *content.QueryError for a malformed expression.
func Validate(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}

	_, err := Compile(expression)

	return err
}

// Normalize converts typed values (structs, typed maps and slices) into the
// generic map[string]any / []any tree the evaluator walks.
func Normalize(value any) (any, error) {
	switch value.(type) {
	case nil, map[string]any, []any, string, float64, bool:
		return value, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding query input: %w", err)
	}

	var tree any

	err = json.Unmarshal(data, &tree)
	if err != nil {
		return nil, fmt.Errorf("decoding query input: %w", err)
	}

	return tree, nil
}

// Clone deep-copies a decoded JSON tree so callers cannot reach the original.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(typed))
		for key, item := range typed {
			cloned[key] = Clone(item)
		}

		return cloned
	case []any:
		cloned := make([]any, len(typed))
		for i, item := range typed {
			cloned[i] = Clone(item)
		}

		return cloned
	default:
		return value
	}
}
