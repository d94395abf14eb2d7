package gpu

import "fmt"

// Status classifies the outcome of acquire, fence wait and present calls.
type Status int

const (
	StatusSuccess Status = iota
	// The swapchain still presents but no longer matches the surface exactly.
	StatusSuboptimal
	// The swapchain is incompatible with the surface and must be rebuilt.
	StatusOutOfDate
	// The surface itself is gone; it must be recreated before a new swapchain.
	StatusSurfaceLost
	StatusTimeout
	// Any status outside the ones above; Result.Code holds the raw value.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusSurfaceLost:
		return "surface lost"
	case StatusTimeout:
		return "timeout"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the closed set of outcomes a presentation call can report.
// Code carries the backend result value for diagnostics.
type Result struct {
	Status Status
	Code   int32
}

func Success() Result     { return Result{Status: StatusSuccess} }
func Suboptimal() Result  { return Result{Status: StatusSuboptimal} }
func OutOfDate() Result   { return Result{Status: StatusOutOfDate} }
func SurfaceLost() Result { return Result{Status: StatusSurfaceLost} }
func Timeout() Result     { return Result{Status: StatusTimeout} }

func Failure(code int32) Result {
	return Result{Status: StatusFailure, Code: code}
}

// Usable reports whether the acquired image may be rendered to and presented.
func (r Result) Usable() bool {
	return r.Status == StatusSuccess || r.Status == StatusSuboptimal
}

func (r Result) String() string {
	if r.Status == StatusFailure {
		return fmt.Sprintf("failure (code %d)", r.Code)
	}
	return r.Status.String()
}
