package core

import "fmt"

// Error categories reported by the engine. Each wraps an optional cause so
// callers can use errors.Is/As across the boundary.

// ConfigError reports an invalid AppConfig or unsupported platform setting.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
	}
	return "config: " + e.Msg
}

// ResourceError reports a failure to load or decode an asset.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %q: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// GpuError reports a failure creating or operating on a GPU object.
type GpuError struct {
	Op  string
	Err error
}

func (e *GpuError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu: %s: %v", e.Op, e.Err)
	}
	return "gpu: " + e.Op
}

func (e *GpuError) Unwrap() error { return e.Err }

// MisuseError reports an API call made in the wrong state, such as issuing
// draw calls outside a Begin/End pair or using the engine before Init.
type MisuseError struct {
	Call string
	Msg  string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("misuse: %s: %s", e.Call, e.Msg)
}

// FatalError wraps an unrecoverable failure, such as losing the GL context.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }
