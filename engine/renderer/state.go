package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

type FrameState uint8

const (
	StateIdle FrameState = iota
	StateAcquiring
	StateRecording
	StateSubmitting
	StatePresenting
	StateRecreating
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateRecreating:
		return "recreating"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// frameAction is what the frame loop does after an acquire or a present.
type frameAction uint8

const (
	actionContinue frameAction = iota
	// give up on this frame without side effects
	actionSkip
	// give up on this frame and log the unexpected result
	actionReport
	actionRecreate
	// recreate the surface, then the swapchain
	actionRecreateSurface
)

func (a frameAction) String() string {
	switch a {
	case actionContinue:
		return "continue"
	case actionSkip:
		return "skip"
	case actionReport:
		return "report"
	case actionRecreate:
		return "recreate"
	case actionRecreateSurface:
		return "recreate surface"
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// acquireAction decides what to do with the result of an image acquisition.
// A suboptimal image is still rendered to.
func acquireAction(r gpu.Result) frameAction {
	switch r.Status {
	case gpu.StatusSuccess, gpu.StatusSuboptimal:
		return actionContinue
	case gpu.StatusSurfaceLost:
		return actionRecreateSurface
	case gpu.StatusOutOfDate:
		return actionRecreate
	case gpu.StatusTimeout:
		return actionSkip
	default:
		return actionReport
	}
}

// presentAction decides what to do after presenting. A lost surface wins over
// everything else; a pending resize is handled like an out of date swapchain.
func presentAction(r gpu.Result, resized, recreateOnSuboptimal bool) frameAction {
	switch r.Status {
	case gpu.StatusSurfaceLost:
		return actionRecreateSurface
	case gpu.StatusOutOfDate:
		return actionRecreate
	}
	if resized {
		return actionRecreate
	}
	switch r.Status {
	case gpu.StatusSuccess:
		return actionContinue
	case gpu.StatusSuboptimal:
		if recreateOnSuboptimal {
			return actionRecreate
		}
		return actionContinue
	default:
		return actionReport
	}
}
