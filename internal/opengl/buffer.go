package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Buffer wraps one GL buffer object.
type Buffer struct {
	ID     uint32
	Target uint32 // gl.ARRAY_BUFFER, gl.ELEMENT_ARRAY_BUFFER, gl.UNIFORM_BUFFER
	Usage  uint32 // gl.STATIC_DRAW, gl.DYNAMIC_DRAW, gl.STREAM_DRAW
	Size   int

	mapped bool
}

// NewBuffer allocates a buffer of size bytes. Data may be nil for an
// uninitialized allocation.
func NewBuffer(target, usage uint32, size int, data unsafe.Pointer) *Buffer {
	b := &Buffer{Target: target, Usage: usage, Size: size}
	gl.GenBuffers(1, &b.ID)
	gl.BindBuffer(target, b.ID)
	gl.BufferData(target, size, data, usage)
	gl.BindBuffer(target, 0)
	return b
}

// Bind binds the buffer to its target.
func (b *Buffer) Bind() { gl.BindBuffer(b.Target, b.ID) }

// Unbind clears the target binding.
func (b *Buffer) Unbind() { gl.BindBuffer(b.Target, 0) }

// Upload replaces size bytes at offset. Grows are not supported; callers
// reallocate through Resize.
func (b *Buffer) Upload(offset, size int, data unsafe.Pointer) error {
	if offset < 0 || offset+size > b.Size {
		return fmt.Errorf("buffer upload out of range: offset=%d size=%d cap=%d", offset, size, b.Size)
	}
	gl.BindBuffer(b.Target, b.ID)
	gl.BufferSubData(b.Target, offset, size, data)
	gl.BindBuffer(b.Target, 0)
	return nil
}

// Resize orphans the storage and reallocates size bytes.
func (b *Buffer) Resize(size int, data unsafe.Pointer) {
	gl.BindBuffer(b.Target, b.ID)
	gl.BufferData(b.Target, size, data, b.Usage)
	gl.BindBuffer(b.Target, 0)
	b.Size = size
}

// MapRange maps [offset, offset+size) for writing. The caller must Unmap
// before the buffer is used by a draw.
func (b *Buffer) MapRange(offset, size int, access uint32) (unsafe.Pointer, error) {
	if b.mapped {
		return nil, fmt.Errorf("buffer already mapped")
	}
	if offset < 0 || offset+size > b.Size {
		return nil, fmt.Errorf("buffer map out of range: offset=%d size=%d cap=%d", offset, size, b.Size)
	}
	gl.BindBuffer(b.Target, b.ID)
	ptr := gl.MapBufferRange(b.Target, offset, size, access)
	if ptr == nil {
		gl.BindBuffer(b.Target, 0)
		return nil, fmt.Errorf("MapBufferRange returned nil")
	}
	b.mapped = true
	return ptr, nil
}

// Unmap releases a prior MapRange.
func (b *Buffer) Unmap() bool {
	if !b.mapped {
		return false
	}
	gl.BindBuffer(b.Target, b.ID)
	ok := gl.UnmapBuffer(b.Target)
	gl.BindBuffer(b.Target, 0)
	b.mapped = false
	return ok
}

// Destroy deletes the GL buffer.
func (b *Buffer) Destroy() {
	if b.ID != 0 {
		gl.DeleteBuffers(1, &b.ID)
		b.ID = 0
		b.Size = 0
	}
}
