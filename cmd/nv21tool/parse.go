package main

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

// parseSize parses "WxH" into a valid NV21 frame size.
func parseSize(s string) (capture.Resolution, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return capture.Resolution{}, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return capture.Resolution{}, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return capture.Resolution{}, fmt.Errorf("size %q: %w", s, err)
	}
	if err := nv21.CheckSize(w, h); err != nil {
		return capture.Resolution{}, err
	}
	return capture.Resolution{Width: w, Height: h}, nil
}

// parseTranslation parses three coordinates into a translation transform.
func parseTranslation(args []string) (mgl64.Mat4, error) {
	var v [3]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return mgl64.Mat4{}, fmt.Errorf("coordinate %q: %w", a, err)
		}
		v[i] = f
	}
	return mgl64.Translate3D(v[0], v[1], v[2]), nil
}

// evenCrop trims one column or row so both dimensions are even.
func evenCrop(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx()&^1, b.Dy()&^1
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Min.Y+h))
}
