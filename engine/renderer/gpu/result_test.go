package gpu

import "testing"

func TestResultUsable(t *testing.T) {
	tests := []struct {
		result Result
		want   bool
	}{
		{Success(), true},
		{Suboptimal(), true},
		{OutOfDate(), false},
		{SurfaceLost(), false},
		{Timeout(), false},
		{Failure(-3), false},
	}
	for _, tt := range tests {
		t.Run(tt.result.String(), func(t *testing.T) {
			if got := tt.result.Usable(); got != tt.want {
				t.Fatalf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailureKeepsCode(t *testing.T) {
	r := Failure(-1000001004)
	if r.Status != StatusFailure || r.Code != -1000001004 {
		t.Fatalf("got %+v", r)
	}
	if r.String() != "failure (code -1000001004)" {
		t.Fatalf("String() = %q", r.String())
	}
}

func TestParsePresentMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PresentMode
		wantErr bool
	}{
		{"mailbox", PresentModeMailbox, false},
		{"FIFO", PresentModeFifo, false},
		{" immediate ", PresentModeImmediate, false},
		{"fifo_relaxed", PresentModeFifoRelaxed, false},
		{"vsync", PresentModeFifo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePresentMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtentIsZero(t *testing.T) {
	for _, e := range []Extent{{0, 0}, {0, 600}, {800, 0}} {
		if !e.IsZero() {
			t.Fatalf("%v should be zero", e)
		}
	}
	if (Extent{1, 1}).IsZero() {
		t.Fatal("1x1 is not zero")
	}
}
