package skinpost

import (
	"fmt"
	"strings"
)

// Stage identifies where in a publish cycle a failure occurred.
type Stage string

const (
	StageSelecting    Stage = "selecting"
	StageTransforming Stage = "transforming"
	StageUploading    Stage = "uploading"
	StageComposing    Stage = "composing"
	StageSubmitting   Stage = "submitting"
	StageRecording    Stage = "recording"
)

// StageError tags a publish failure with the stage it aborted in. Later
// stages never run once an earlier one fails.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Platform  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Platform)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Platform, strings.Join(e.Variables, ", "))
}

// ValidationError captures platform-specific validation issues.
type ValidationError struct {
	Platform string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Platform, e.Reason)
}

// AuthError is returned when a platform rejects the login step.
type AuthError struct {
	Platform string
	Err      error
}

func (e AuthError) Error() string {
	return fmt.Sprintf("%s login rejected: %s", e.Platform, e.Err)
}

func (e AuthError) Unwrap() error { return e.Err }

// UploadError is returned when a platform reports a failed blob upload,
// including a success envelope that carries no blob reference.
type UploadError struct {
	Platform string
	Reason   string
}

func (e UploadError) Error() string {
	return fmt.Sprintf("%s upload failed: %s", e.Platform, e.Reason)
}

// SubmitError is returned when a platform rejects the composed post.
type SubmitError struct {
	Platform string
	Err      error
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("%s rejected post: %s", e.Platform, e.Err)
}

func (e SubmitError) Unwrap() error { return e.Err }
