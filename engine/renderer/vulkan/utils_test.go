package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

func TestToResult(t *testing.T) {
	tests := []struct {
		in   vk.Result
		want gpu.Status
	}{
		{vk.Success, gpu.StatusSuccess},
		{vk.Suboptimal, gpu.StatusSuboptimal},
		{vk.ErrorOutOfDate, gpu.StatusOutOfDate},
		{vk.ErrorSurfaceLost, gpu.StatusSurfaceLost},
		{vk.Timeout, gpu.StatusTimeout},
		{vk.NotReady, gpu.StatusTimeout},
		{vk.ErrorDeviceLost, gpu.StatusFailure},
		{vk.ErrorOutOfHostMemory, gpu.StatusFailure},
	}
	for _, tt := range tests {
		t.Run(VulkanResultString(tt.in), func(t *testing.T) {
			got := toResult(tt.in)
			if got.Status != tt.want {
				t.Fatalf("got %s, want %s", got.Status, tt.want)
			}
			if got.Status == gpu.StatusFailure && got.Code != int32(tt.in) {
				t.Fatalf("code %d, want %d", got.Code, int32(tt.in))
			}
		})
	}
}

func TestVulkanError(t *testing.T) {
	if err := vulkanError("vkQueuePresentKHR", vk.ErrorSurfaceLost); !errors.Is(err, core.ErrSurfaceLost) {
		t.Fatalf("got %v", err)
	}
	if err := vulkanError("vkQueueSubmit", vk.ErrorDeviceLost); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("got %v", err)
	}
	err := vulkanError("vkCreateBuffer", vk.ErrorOutOfDeviceMemory)
	if err.Error() != "vkCreateBuffer failed with VK_ERROR_OUT_OF_DEVICE_MEMORY" {
		t.Fatalf("got %q", err)
	}
}

func TestVulkanSafeString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "\x00"},
		{"main", "main\x00"},
		{"main\x00", "main\x00"},
		{"VK_KHR_surface", "VK_KHR_surface\x00"},
	}
	for _, tt := range tests {
		if got := VulkanSafeString(tt.in); got != tt.want {
			t.Fatalf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}

	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	if out[0] != "a\x00" || out[1] != "b\x00" || in[0] != "a" {
		t.Fatalf("got %q from %q", out, in)
	}
}

func TestNameString(t *testing.T) {
	var name [16]byte
	copy(name[:], "VK_LAYER")
	if got := nameString(name[:]); got != "VK_LAYER" {
		t.Fatalf("got %q", got)
	}
	if got := nameString([]byte("full")); got != "full" {
		t.Fatalf("got %q", got)
	}
}
