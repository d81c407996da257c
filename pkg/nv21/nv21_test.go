package nv21

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestFrameSize(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{640, 480, 460800},
		{1280, 720, 1382400},
		{1920, 1080, 3110400},
		{2, 2, 6},
	}
	for _, tt := range tests {
		if got := FrameSize(tt.w, tt.h); got != tt.want {
			t.Errorf("FrameSize(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
		if got := FrameSize(tt.w, tt.h); got != tt.w*tt.h*12/8 {
			t.Errorf("FrameSize(%d, %d) is not 12 bits per pixel", tt.w, tt.h)
		}
	}
}

func TestCheckSize(t *testing.T) {
	bad := [][2]int{{0, 480}, {640, 0}, {-2, 2}, {641, 480}, {640, 481}}
	for _, s := range bad {
		if err := CheckSize(s[0], s[1]); !errors.Is(err, ErrSize) {
			t.Errorf("CheckSize(%d, %d) = %v, want ErrSize", s[0], s[1], err)
		}
	}
	if err := CheckSize(640, 480); err != nil {
		t.Errorf("CheckSize(640, 480) = %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(make([]byte, FrameSize(4, 2)), 4, 2); err != nil {
		t.Errorf("Validate exact size: %v", err)
	}
	if err := Validate(make([]byte, FrameSize(4, 2)+1), 4, 2); !errors.Is(err, ErrSize) {
		t.Errorf("Validate oversize: got %v, want ErrSize", err)
	}
}

func TestPlanes(t *testing.T) {
	buf := make([]byte, FrameSize(4, 2))
	for i := range buf {
		buf[i] = byte(i)
	}
	y, vu := Planes(buf, 4, 2)
	if len(y) != 8 || len(vu) != 4 {
		t.Fatalf("plane lengths = %d, %d, want 8, 4", len(y), len(vu))
	}
	if vu[0] != 8 {
		t.Errorf("chroma plane starts at %d, want 8", vu[0])
	}
	// Planes alias the frame.
	y[0] = 200
	if buf[0] != 200 {
		t.Error("luma plane does not alias the frame buffer")
	}
}

func TestYUVToRGBGray(t *testing.T) {
	r, g, b := YUVToRGB(0.5, 0.5, 0.5)
	for _, c := range []float64{r, g, b} {
		if math.Abs(c-0.5) > 1e-12 {
			t.Errorf("YUVToRGB(0.5, 0.5, 0.5) = (%f, %f, %f), want gray 0.5", r, g, b)
		}
	}
}

func TestYUVToRGBCoefficients(t *testing.T) {
	// Only V set: R and G respond, B does not.
	r, g, b := YUVToRGB(0.5, 0.5, 0.6)
	if math.Abs(r-(0.5+CoeffRV*0.1)) > 1e-9 {
		t.Errorf("r = %f", r)
	}
	if math.Abs(g-(0.5-CoeffGV*0.1)) > 1e-9 {
		t.Errorf("g = %f", g)
	}
	if math.Abs(b-0.5) > 1e-9 {
		t.Errorf("b = %f", b)
	}
}

func TestRGBRoundTrip(t *testing.T) {
	colors := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.2, 0.4, 0.6}, {0.75, 0.75, 0}}
	for _, c := range colors {
		y, u, v := RGBToYUV(c[0], c[1], c[2])
		r, g, b := YUVToRGB(y, u, v)
		if math.Abs(r-c[0]) > 2e-3 || math.Abs(g-c[1]) > 2e-3 || math.Abs(b-c[2]) > 2e-3 {
			t.Errorf("round trip %v -> (%f, %f, %f)", c, r, g, b)
		}
	}
}

func TestToRGBASolid(t *testing.T) {
	const w, h = 8, 4
	buf := make([]byte, FrameSize(w, h))
	FillSolid(buf, w, h, 0.75, 0, 0)
	img, err := ToRGBA(buf, w, h)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	c := img.RGBAAt(3, 2)
	if absInt(int(c.R)-191) > 3 || c.G > 3 || c.B > 3 {
		t.Errorf("pixel = %v, want ~(191, 0, 0)", c)
	}
}

func TestToRGBARejectsShortBuffer(t *testing.T) {
	if _, err := ToRGBA(make([]byte, 10), 4, 4); !errors.Is(err, ErrSize) {
		t.Errorf("got %v, want ErrSize", err)
	}
}

func TestCopyNV12(t *testing.T) {
	const w, h = 4, 2
	src := make([]byte, FrameSize(w, h))
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, len(src))
	if err := CopyNV12(dst, src, w, h); err != nil {
		t.Fatalf("CopyNV12: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 9, 8, 11, 10}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}

	SwapChroma(dst[w*h:])
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("SwapChroma did not restore NV12: %v", dst)
		}
	}
}

func TestYUYVToNV21(t *testing.T) {
	const w, h = 2, 2
	// Two rows of one YUYV macropixel each: Y0 U Y1 V.
	src := []byte{
		10, 100, 20, 200,
		30, 110, 40, 210,
	}
	dst := make([]byte, FrameSize(w, h))
	if err := YUYVToNV21(dst, src, w, h); err != nil {
		t.Fatalf("YUYVToNV21: %v", err)
	}
	want := []byte{10, 20, 30, 40, 205, 105}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}

func TestYUYVToNV21BadSource(t *testing.T) {
	dst := make([]byte, FrameSize(2, 2))
	if err := YUYVToNV21(dst, make([]byte, 3), 2, 2); !errors.Is(err, ErrSize) {
		t.Errorf("got %v, want ErrSize", err)
	}
}

func TestFillColorBars(t *testing.T) {
	const w, h = 70, 4
	buf := make([]byte, FrameSize(w, h))
	FillColorBars(buf, w, h)
	img, err := ToRGBA(buf, w, h)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}
	// Bar 5 is red.
	c := img.RGBAAt(55, 1)
	if c.R < 170 || c.G > 20 || c.B > 20 {
		t.Errorf("red bar pixel = %v", c)
	}
	// Bar 6 is blue.
	c = img.RGBAAt(65, 1)
	if c.B < 170 || c.R > 20 || c.G > 20 {
		t.Errorf("blue bar pixel = %v", c)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestFromImage(t *testing.T) {
	bars := make([]byte, FrameSize(70, 4))
	FillColorBars(bars, 70, 4)
	img, err := ToRGBA(bars, 70, 4)
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	for i := range bars {
		if absInt(int(bars[i])-int(back[i])) > 2 {
			t.Fatalf("byte %d: %d after round trip, want %d", i, back[i], bars[i])
		}
	}

	odd := image.NewRGBA(image.Rect(0, 0, 3, 2))
	if _, err := FromImage(odd); !errors.Is(err, ErrSize) {
		t.Errorf("odd image: err = %v", err)
	}
}
