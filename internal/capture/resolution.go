package capture

import "fmt"

// DefaultMaxProcessingWidth caps the width the estimator analyzes; larger
// frames are downsampled by the estimator itself.
const DefaultMaxProcessingWidth = 640

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Pixels returns Width*Height.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// ProcessingResolution returns the size the estimator works at: the width is
// clamped to maxWidth and the height follows the aspect ratio.
func ProcessingResolution(full Resolution, maxWidth int) Resolution {
	if maxWidth <= 0 || full.Width <= maxWidth {
		return full
	}
	return Resolution{
		Width:  maxWidth,
		Height: full.Height * maxWidth / full.Width,
	}
}

// ScaleFactors returns the ratios of full to processing resolution on each axis.
func ScaleFactors(full, processing Resolution) (x, y float64) {
	return float64(full.Width) / float64(processing.Width),
		float64(full.Height) / float64(processing.Height)
}
