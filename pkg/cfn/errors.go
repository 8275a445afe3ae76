package cfn

import (
	"errors"
	"fmt"
	"regexp"
)

const maxLogicalIDChars = 255

var logicalIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

var (
	ErrDuplicate        = errors.New("already declared")
	ErrInvalidLogicalID = errors.New("logical id must be non-empty alphanumeric")
)

// ReferenceError reports a reference from one part of the template to a name that is not declared.
type ReferenceError struct {
	// From is the section path of the referrer, eg. "Resources.Queue" or "Outputs.QueueUrl".
	From string
	// Kind is the kind of reference: Ref, Fn::GetAtt, Fn::Sub, DependsOn, Condition or Fn::FindInMap.
	Kind string
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s to undeclared %q", e.From, e.Kind, e.Name)
}
