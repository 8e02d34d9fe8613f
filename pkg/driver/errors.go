package driver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndivisible marks a run that left at least one instance neither
	// solved nor decomposed.
	ErrIndivisible = errors.New("instance cannot be decomposed")

	// ErrIterationLimit is returned when the queue did not drain within the
	// configured number of dequeues.
	ErrIterationLimit = errors.New("iteration limit reached")
)

// IndivisibleError lists the instances that the optimizer rejected and that
// no deletion set within the escalated budget could disconnect.
type IndivisibleError struct {
	InstanceIDs  []string
	MaxDeletions int
}

func (e *IndivisibleError) Error() string {
	return fmt.Sprintf("%d instance(s) cannot be decomposed with up to %d deletions: %s",
		len(e.InstanceIDs), e.MaxDeletions, strings.Join(e.InstanceIDs, ", "))
}

// Is reports whether target is ErrIndivisible.
func (e *IndivisibleError) Is(target error) bool {
	return target == ErrIndivisible
}
