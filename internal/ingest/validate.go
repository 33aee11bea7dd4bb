package ingest

import (
	"fmt"
	"strings"
)

// maxProblems bounds the number of problems kept for one input.
const maxProblems = 50

// ValidationError collects every problem found in an input table.
type ValidationError struct {
	Problems []string
	dropped  int
}

func (v *ValidationError) add(format string, args ...any) {
	if len(v.Problems) >= maxProblems {
		v.dropped++
		return
	}
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

// HasProblems reports whether any problem was recorded.
func (v *ValidationError) HasProblems() bool { return len(v.Problems) > 0 }

func (v *ValidationError) Error() string {
	msg := "ingest: invalid input: " + strings.Join(v.Problems, "; ")
	if v.dropped > 0 {
		msg += fmt.Sprintf("; and %d more", v.dropped)
	}
	return msg
}
