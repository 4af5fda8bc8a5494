package resolver

import (
	"fmt"

	"github.com/cocoatly/cocoatly/pkg/errors"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// ConflictError is returned when a later requirement is incompatible with an
// already-chosen version for the same package name. Resolution is
// first-match-wins: the earlier choice stands and the conflict is reported
// rather than re-resolved.
type ConflictError struct {
	Name        string
	Requirement semver.Requirement
	Resolved    semver.Version
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict for %s: need %s, already resolved to %s",
		e.Name, e.Requirement, e.Resolved)
}

// Code returns the error code for this error type.
func (e *ConflictError) Code() errors.Code { return errors.ErrCodeVersionConflict }

// CycleError is returned when a package name is reached while it is still on
// the active resolution stack.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", e.Name)
}

// Code returns the error code for this error type.
func (e *CycleError) Code() errors.Code { return errors.ErrCodeCircularDependency }

// NoVersionsError is returned when the registry reports zero published
// versions for a package.
type NoVersionsError struct {
	Name string
}

func (e *NoVersionsError) Error() string {
	return fmt.Sprintf("no versions found for package %s", e.Name)
}

// Code returns the error code for this error type.
func (e *NoVersionsError) Code() errors.Code { return errors.ErrCodeNoVersionsAvailable }

// NoMatchError is returned when published versions exist but none satisfy
// the requirement.
type NoMatchError struct {
	Name        string
	Requirement semver.Requirement
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no version of %s matches requirement %s", e.Name, e.Requirement)
}

// Code returns the error code for this error type.
func (e *NoMatchError) Code() errors.Code { return errors.ErrCodeNoMatchingVersion }
