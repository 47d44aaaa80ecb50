package pipeline

import (
	"fmt"

	"forum-sentinel/app/forum"
)

// MissingDependencyError indicates the parent question of an answer or
// comment could not be resolved. The activity is retried on later cycles.
type MissingDependencyError struct {
	ActivityID int64
	ParentID   int64
	Err        error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("activity %d: parent question %d could not be resolved: %v", e.ActivityID, e.ParentID, e.Err)
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Err
}

// UnknownTypeError indicates an activity type the pipeline does not handle.
// Such activities are logged and skipped, never retried.
type UnknownTypeError struct {
	ActivityID int64
	Type       forum.ActivityType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("activity %d has unknown type %q", e.ActivityID, e.Type)
}
