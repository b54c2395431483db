package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Structural error codes
const (
	ErrCodeMissingStart      = "MISSING_START"
	ErrCodeMalformedNode     = "MALFORMED_NODE"
	ErrCodeDuplicateNode     = "DUPLICATE_NODE"
	ErrCodeDuplicateTask     = "DUPLICATE_TASK"
	ErrCodeMissingDefault    = "MISSING_DEFAULT"
	ErrCodeUnknownTransition = "UNKNOWN_TRANSITION"
	ErrCodeUnbalancedFork    = "UNBALANCED_FORK"
	ErrCodeCycle             = "CYCLE"
	ErrCodeMarkerFanOut      = "MARKER_FAN_OUT"
	ErrCodeSelfLoop          = "SELF_LOOP"
	ErrCodeDanglingRelation  = "DANGLING_RELATION"
)

// StructuralError reports malformed or unbalanced control flow. It is always fatal.
type StructuralError struct {
	Code    string
	Message string
	Nodes   []string
}

func (e *StructuralError) Error() string {
	if len(e.Nodes) == 0 {
		return fmt.Sprintf("structural error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("structural error [%s]: %s (nodes: %s)", e.Code, e.Message, strings.Join(e.Nodes, ", "))
}

// NewStructuralError creates a StructuralError with a formatted message
func NewStructuralError(code string, nodes []string, format string, args ...any) *StructuralError {
	return &StructuralError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Nodes:   nodes,
	}
}

// MappingError wraps a mapper failure with the node that caused it
type MappingError struct {
	Node  string
	Tag   string
	Cause error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("failed to map node %q (%s): %v", e.Node, e.Tag, e.Cause)
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}

func NewMappingError(node, tag string, cause error) *MappingError {
	return &MappingError{Node: node, Tag: tag, Cause: cause}
}

// IsStructural reports whether err carries a StructuralError with the given code.
// An empty code matches any structural error.
func IsStructural(err error, code string) bool {
	var se *StructuralError
	if !errors.As(err, &se) {
		return false
	}
	return code == "" || se.Code == code
}
