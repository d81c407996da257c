// Package nv21 describes the NV21 (YUV 4:2:0, interleaved VU) frame layout and
// provides CPU reference conversions for it.
//
// An NV21 frame of W×H pixels is W*H luma bytes followed by W*H/2 bytes of
// chroma pairs, V first then U, one pair per 2×2 pixel block.
package nv21

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrSize is returned when a buffer or resolution does not describe a valid NV21 frame.
var ErrSize = errors.New("nv21: invalid frame size")

// Conversion coefficients shared with the GPU program (analog BT.601).
const (
	CoeffRV = 1.13983
	CoeffGU = 0.39465
	CoeffGV = 0.58060
	CoeffBU = 2.03211

	// ChromaBias is subtracted from normalized chroma samples before use.
	ChromaBias = 0.5
)

// CheckSize reports whether w×h can hold a 4:2:0 frame.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSize, w, h)
	}
	if w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("%w: %dx%d is not even", ErrSize, w, h)
	}
	return nil
}

// FrameSize returns the byte length of a w×h frame (12 bits per pixel).
func FrameSize(w, h int) int {
	return w * h * 3 / 2
}

// Validate checks that buf holds exactly one w×h frame.
func Validate(buf []byte, w, h int) error {
	if err := CheckSize(w, h); err != nil {
		return err
	}
	if want := FrameSize(w, h); len(buf) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d", ErrSize, len(buf), want, w, h)
	}
	return nil
}

// Planes returns the luma and interleaved chroma planes of buf without copying.
// buf must be at least FrameSize(w, h) long.
func Planes(buf []byte, w, h int) (y, vu []byte) {
	n := w * h
	return buf[:n:n], buf[n : n+n/2 : n+n/2]
}

// YUVToRGB converts normalized samples to RGB. u and v are biased by ChromaBias,
// as they come out of the texture. Results are not clamped.
func YUVToRGB(y, u, v float64) (r, g, b float64) {
	u -= ChromaBias
	v -= ChromaBias
	r = y + CoeffRV*v
	g = y - CoeffGU*u - CoeffGV*v
	b = y + CoeffBU*u
	return r, g, b
}

// RGBToYUV is the inverse of YUVToRGB for normalized inputs; u and v are returned biased.
func RGBToYUV(r, g, b float64) (y, u, v float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	u = (b-y)/CoeffBU + ChromaBias
	v = (r-y)/CoeffRV + ChromaBias
	return y, u, v
}

// ToRGBA decodes an NV21 frame into a new RGBA image.
func ToRGBA(buf []byte, w, h int) (*image.RGBA, error) {
	if err := Validate(buf, w, h); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	yp, vu := Planes(buf, w, h)
	for py := 0; py < h; py++ {
		row := (py / 2) * w
		for px := 0; px < w; px++ {
			c := row + (px/2)*2
			r, g, b := YUVToRGB(unit(yp[py*w+px]), unit(vu[c+1]), unit(vu[c]))
			img.SetRGBA(px, py, color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: 255})
		}
	}
	return img, nil
}

// FromImage encodes img as NV21. Chroma is averaged over each 2×2 block.
// The image dimensions must be even.
func FromImage(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if err := CheckSize(w, h); err != nil {
		return nil, err
	}
	buf := make([]byte, FrameSize(w, h))
	yp, vu := Planes(buf, w, h)
	for py := 0; py < h; py += 2 {
		for px := 0; px < w; px += 2 {
			var su, sv float64
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					c := color.NRGBAModel.Convert(img.At(b.Min.X+px+dx, b.Min.Y+py+dy)).(color.NRGBA)
					y, u, v := RGBToYUV(unit(c.R), unit(c.G), unit(c.B))
					yp[(py+dy)*w+px+dx] = toByte(y)
					su += u
					sv += v
				}
			}
			i := (py/2)*w + px
			vu[i] = toByte(sv / 4)
			vu[i+1] = toByte(su / 4)
		}
	}
	return buf, nil
}

// SwapChroma swaps every byte pair of an interleaved chroma plane in place,
// turning NV12 into NV21 and back.
func SwapChroma(plane []byte) {
	for i := 0; i+1 < len(plane); i += 2 {
		plane[i], plane[i+1] = plane[i+1], plane[i]
	}
}

// CopyNV12 copies an NV12 frame into dst as NV21.
func CopyNV12(dst, src []byte, w, h int) error {
	if err := Validate(src, w, h); err != nil {
		return err
	}
	if err := Validate(dst, w, h); err != nil {
		return err
	}
	n := w * h
	copy(dst[:n], src[:n])
	for i := n; i+1 < len(src); i += 2 {
		dst[i], dst[i+1] = src[i+1], src[i]
	}
	return nil
}

// YUYVToNV21 converts a packed 4:2:2 YUYV frame into NV21, averaging chroma of
// each vertical pair of rows.
func YUYVToNV21(dst, src []byte, w, h int) error {
	if err := Validate(dst, w, h); err != nil {
		return err
	}
	if len(src) != w*h*2 {
		return fmt.Errorf("%w: yuyv has %d bytes, want %d", ErrSize, len(src), w*h*2)
	}
	yp, vu := Planes(dst, w, h)
	stride := w * 2
	for py := 0; py < h; py++ {
		line := src[py*stride : (py+1)*stride]
		for px := 0; px < w; px++ {
			yp[py*w+px] = line[px*2]
		}
	}
	for py := 0; py < h; py += 2 {
		top := src[py*stride : (py+1)*stride]
		bot := src[(py+1)*stride : (py+2)*stride]
		out := vu[(py/2)*w : (py/2+1)*w]
		for i := 0; i < stride; i += 4 {
			u := (int(top[i+1]) + int(bot[i+1]) + 1) / 2
			v := (int(top[i+3]) + int(bot[i+3]) + 1) / 2
			out[i/2] = byte(v)
			out[i/2+1] = byte(u)
		}
	}
	return nil
}

func unit(b byte) float64 {
	return float64(b) / 255
}

func clampByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return uint8(f*255 + 0.5)
}

func toByte(f float64) byte {
	return clampByte(f)
}
