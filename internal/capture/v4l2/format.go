// Package v4l2 reads NV21 frames from a Video4Linux2 device.
package v4l2

import (
	"fmt"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

// V4L2 fourcc codes for the pixel formats the source can turn into NV21.
const (
	PixFmtNV21 uint32 = 0x3132564E // 'NV21'
	PixFmtNV12 uint32 = 0x3231564E // 'NV12'
	PixFmtYUYV uint32 = 0x56595559 // 'YUYV'
)

// preferred lists accepted formats, cheapest conversion first.
var preferred = []uint32{PixFmtNV21, PixFmtNV12, PixFmtYUYV}

// Config configures a device source.
type Config struct {
	// Device is the device node, e.g. /dev/video0.
	Device string
	// Buffers is the number of driver buffers; defaults to 2.
	Buffers uint32
	// Autofocus requests continuous autofocus when the device supports it.
	Autofocus bool
}

// FrameSize is one discrete or stepwise size range offered by the device.
type FrameSize struct {
	MinWidth, MaxWidth, StepWidth    uint32
	MinHeight, MaxHeight, StepHeight uint32
}

// pickFormat returns the first preferred format the device offers.
func pickFormat(offered map[uint32]string) (uint32, error) {
	for _, f := range preferred {
		if _, ok := offered[f]; ok {
			return f, nil
		}
	}
	return 0, fmt.Errorf("no NV21, NV12 or YUYV format among %d offered: %w", len(offered), capture.ErrDeviceUnavailable)
}

// pickSize chooses the offered size closest to target by pixel count,
// preferring exact matches. Stepwise ranges are snapped to their step.
func pickSize(sizes []FrameSize, target capture.Resolution) (capture.Resolution, bool) {
	var (
		best     capture.Resolution
		bestDiff = -1
	)
	for _, s := range sizes {
		r := capture.Resolution{
			Width:  snap(target.Width, s.MinWidth, s.MaxWidth, s.StepWidth),
			Height: snap(target.Height, s.MinHeight, s.MaxHeight, s.StepHeight),
		}
		diff := abs(r.Pixels() - target.Pixels())
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	return best, bestDiff >= 0
}

func snap(v int, lo, hi, step uint32) int {
	if v < int(lo) {
		return int(lo)
	}
	if v > int(hi) {
		return int(hi)
	}
	if step > 1 {
		v = int(lo) + (v-int(lo))/int(step)*int(step)
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// convert writes a raw device frame into dst as NV21. Drivers may pad
// sizeimage past the payload, so raw is trimmed to the expected length.
func convert(format uint32, dst, raw []byte, w, h int) error {
	want := nv21.FrameSize(w, h)
	if format == PixFmtYUYV {
		want = w * h * 2
	}
	if len(raw) < want {
		return fmt.Errorf("short frame for format %#x: %d bytes, want %d: %w", format, len(raw), want, nv21.ErrSize)
	}
	raw = raw[:want]

	switch format {
	case PixFmtNV21:
		if err := nv21.Validate(dst, w, h); err != nil {
			return err
		}
		copy(dst, raw)
		return nil
	case PixFmtNV12:
		return nv21.CopyNV12(dst, raw, w, h)
	case PixFmtYUYV:
		return nv21.YUYVToNV21(dst, raw, w, h)
	default:
		return fmt.Errorf("unsupported pixel format %#x", format)
	}
}
