package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// HTTPStatusError is returned when the remote service answers with a status
// code that the caller didn't expect.
type HTTPStatusError struct {
	Status string
	Body   string
}

func (err HTTPStatusError) Error() string {
	if err.Body == "" {
		return fmt.Sprintf("server responded with %s", err.Status)
	}
	return fmt.Sprintf("server responded with %s (%s)", err.Status, err.Body)
}
