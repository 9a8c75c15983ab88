package pid

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrParseCut represents a malformed polygon cut definition.
type ErrParseCut struct {
	Source string
	Line   int
	Err    error
}

func (e *ErrParseCut) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing cut %q line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing cut %q: %v", e.Source, e.Err)
}

func (e *ErrParseCut) Unwrap() error {
	return e.Err
}

// ErrMatrix represents an unusable transfer matrix file.
type ErrMatrix struct {
	Filename string
	Err      error
}

func (e *ErrMatrix) Error() string {
	return fmt.Sprintf("error reading transfer matrix %q: %v", e.Filename, e.Err)
}

func (e *ErrMatrix) Unwrap() error {
	return e.Err
}
