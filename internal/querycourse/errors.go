package querycourse

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("course not found")
	ErrMalformed    = errors.New("malformed course data")
	ErrInvalidLimit = errors.New("unparseable student limit")
)

// CourseError is returned by GetCourse, Code is the course code that was queried.
type CourseError struct {
	Code string
	Err  error
}

func (e *CourseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CourseError) Unwrap() error {
	return e.Err
}
