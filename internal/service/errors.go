package service

import "fmt"

// ReferentialError is an explicit pre-check failure: an operation referenced
// a category that is not in the registered vocabulary. It fails that single
// operation, nothing else.
type ReferentialError struct {
	Op       string
	Category string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s: %q is not a registered category", e.Op, e.Category)
}
