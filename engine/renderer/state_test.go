package renderer

import (
	"testing"

	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

func TestAcquireAction(t *testing.T) {
	tests := []struct {
		result gpu.Result
		want   frameAction
	}{
		{gpu.Success(), actionContinue},
		{gpu.Suboptimal(), actionContinue},
		{gpu.OutOfDate(), actionRecreate},
		{gpu.SurfaceLost(), actionRecreateSurface},
		{gpu.Timeout(), actionSkip},
		{gpu.Failure(-2), actionReport},
	}
	for _, tt := range tests {
		t.Run(tt.result.String(), func(t *testing.T) {
			if got := acquireAction(tt.result); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresentAction(t *testing.T) {
	tests := []struct {
		result               gpu.Result
		resized              bool
		recreateOnSuboptimal bool
		want                 frameAction
	}{
		{gpu.Success(), false, false, actionContinue},
		{gpu.Success(), true, false, actionRecreate},
		{gpu.Suboptimal(), false, false, actionContinue},
		{gpu.Suboptimal(), false, true, actionRecreate},
		{gpu.Suboptimal(), true, false, actionRecreate},
		{gpu.OutOfDate(), false, false, actionRecreate},
		{gpu.OutOfDate(), true, false, actionRecreate},
		{gpu.SurfaceLost(), false, false, actionRecreateSurface},
		{gpu.SurfaceLost(), true, true, actionRecreateSurface},
		{gpu.Failure(-4), false, false, actionReport},
		{gpu.Timeout(), false, false, actionReport},
		{gpu.Failure(-4), true, false, actionRecreate},
	}
	for _, tt := range tests {
		name := tt.result.String()
		if tt.resized {
			name += " resized"
		}
		if tt.recreateOnSuboptimal {
			name += " strict"
		}
		t.Run(name, func(t *testing.T) {
			if got := presentAction(tt.result, tt.resized, tt.recreateOnSuboptimal); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameStateString(t *testing.T) {
	for s, want := range map[FrameState]string{
		StateIdle:       "idle",
		StateAcquiring:  "acquiring",
		StateRecording:  "recording",
		StateSubmitting: "submitting",
		StatePresenting: "presenting",
		StateRecreating: "recreating",
	} {
		if s.String() != want {
			t.Fatalf("%d: got %q, want %q", s, s.String(), want)
		}
	}
}
