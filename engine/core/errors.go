package core

import (
	"errors"
)

var (
	ErrSwapchainCreate = errors.New("swapchain creation failed")
	ErrZeroExtent      = errors.New("framebuffer extent is zero")
	ErrSurfaceLost     = errors.New("presentation surface lost")
	ErrDeviceLost      = errors.New("device lost")
	ErrPipelineCreate  = errors.New("pipeline creation failed")
	ErrShaderLoad      = errors.New("shader could not be loaded")
	ErrBufferCreate    = errors.New("buffer creation failed")
	ErrCommandBuffer   = errors.New("command buffer operation failed")
	ErrRecording       = errors.New("command recording failed")
	ErrSurfaceCreate   = errors.New("surface creation failed")
	ErrDeviceCreate    = errors.New("device creation failed")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknown         = errors.New("unknown")
)
