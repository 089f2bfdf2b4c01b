package services

import (
	"errors"
	"fmt"
)

// ValidationError beschreibt einen fehlerhaften Request; es wurde nichts geschrieben.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation meldet, ob err (oder ein umschlossener Fehler) ein ValidationError ist.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
