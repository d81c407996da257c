// Package capture owns the single reusable NV21 frame buffer of a capture
// stream and cycles it between a frame source and the renderer.
package capture

import "errors"

var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrNotStarted is returned by sources asked to stream before StartStream.
	ErrNotStarted = errors.New("capture stream not started")
)

// FrameSource is a push-based producer of NV21 frames. It fills the buffer
// most recently passed to SubmitBuffer and hands it back through the frame
// handler, on its own goroutine. While no buffer is submitted, frames are dropped.
type FrameSource interface {
	// StartStream opens the device and negotiates a resolution as close to target as it can.
	StartStream(target Resolution) (Resolution, error)
	// SubmitBuffer queues buf as the destination of the next frame.
	SubmitBuffer(buf []byte)
	// SetFrameHandler installs the callback run for each filled buffer; nil removes it.
	SetFrameHandler(fn func(buf []byte))
	// StopStream stops frame delivery. Safe to call when not streaming.
	StopStream() error
	// Release closes the device. Safe to call more than once.
	Release() error
}

// DropCounter is implemented by sources that count frames dropped for lack of a buffer.
type DropCounter interface {
	Dropped() uint64
}

// Placeholder is an output target some devices require to be attached before
// they start delivering frames. Its contents are never read.
type Placeholder interface {
	Attach() error
	Detach()
}
