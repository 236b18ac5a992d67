package core

import "fmt"

// ValidationError is one schema violation found in a candidate style.
// Path locates the offending member in JSONPath form ($.layers[3].id).
type ValidationError struct {
	Message string
	Path    string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator checks a candidate style against a spec version.
// A nil or empty result means the candidate is acceptable.
//
// The engine treats the validator as an external capability: any
// implementation can be injected, the default one lives in pkg/validate.
type Validator interface {
	Validate(s *Style, specVersion int) []ValidationError
}
