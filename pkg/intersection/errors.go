package intersection

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNode    = errors.New("node not in graph")
	ErrAlreadyDeleted = errors.New("node already deleted")
)

// NodeError reports a failed operation on a single node.
type NodeError struct {
	Op    string
	ID    int
	Cause error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %d: %v", e.Op, e.ID, e.Cause)
}

func (e *NodeError) Unwrap() error { return e.Cause }
