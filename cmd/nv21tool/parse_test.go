package main

import (
	"image"
	"testing"

	"github.com/Faultbox/tagoverlay/internal/capture"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    capture.Resolution
		wantErr bool
	}{
		{"640x480", capture.Resolution{Width: 640, Height: 480}, false},
		{"1280X720", capture.Resolution{Width: 1280, Height: 720}, false},
		{"641x480", capture.Resolution{}, true},
		{"640", capture.Resolution{}, true},
		{"ax480", capture.Resolution{}, true},
		{"0x0", capture.Resolution{}, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseTranslation(t *testing.T) {
	m, err := parseTranslation([]string{"1", "-2", "300.5"})
	if err != nil {
		t.Fatal(err)
	}
	if m.At(0, 3) != 1 || m.At(1, 3) != -2 || m.At(2, 3) != 300.5 || m.At(3, 3) != 1 {
		t.Errorf("translation = %v", m)
	}
	if _, err := parseTranslation([]string{"1", "two", "3"}); err == nil {
		t.Error("bad coordinate accepted")
	}
}

func TestEvenCrop(t *testing.T) {
	img := evenCrop(image.NewRGBA(image.Rect(0, 0, 11, 7)))
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 6 {
		t.Errorf("cropped to %v", img.Bounds())
	}
	even := image.NewRGBA(image.Rect(0, 0, 4, 2))
	if evenCrop(even) != image.Image(even) {
		t.Error("even image was copied")
	}
}
