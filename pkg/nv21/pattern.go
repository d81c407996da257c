package nv21

// barColors are the seven SMPTE bars at 75% intensity.
var barColors = [7][3]float64{
	{0.75, 0.75, 0.75}, // gray
	{0.75, 0.75, 0},    // yellow
	{0, 0.75, 0.75},    // cyan
	{0, 0.75, 0},       // green
	{0.75, 0, 0.75},    // magenta
	{0.75, 0, 0},       // red
	{0, 0, 0.75},       // blue
}

// FillColorBars writes SMPTE color bars into an NV21 buffer.
func FillColorBars(buf []byte, w, h int) {
	yp, vu := Planes(buf, w, h)
	barWidth := w / 7
	if barWidth == 0 {
		barWidth = 1
	}

	var ys, us, vs [7]byte
	for i, c := range barColors {
		y, u, v := RGBToYUV(c[0], c[1], c[2])
		ys[i], us[i], vs[i] = toByte(y), toByte(u), toByte(v)
	}

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			yp[py*w+px] = ys[bar(px, barWidth)]
		}
	}
	for cy := 0; cy < h/2; cy++ {
		for cx := 0; cx < w/2; cx++ {
			b := bar(cx*2, barWidth)
			vu[cy*w+cx*2] = vs[b]
			vu[cy*w+cx*2+1] = us[b]
		}
	}
}

// FillSolid writes a single normalized RGB color into an NV21 buffer.
func FillSolid(buf []byte, w, h int, r, g, b float64) {
	yp, vu := Planes(buf, w, h)
	y, u, v := RGBToYUV(r, g, b)
	yb, ub, vb := toByte(y), toByte(u), toByte(v)
	for i := range yp {
		yp[i] = yb
	}
	for i := 0; i+1 < len(vu); i += 2 {
		vu[i] = vb
		vu[i+1] = ub
	}
}

// SweepLuma brightens a vertical band of the luma plane starting at column x.
// Used to make consecutive synthetic frames distinguishable.
func SweepLuma(buf []byte, w, h, x, width int) {
	yp, _ := Planes(buf, w, h)
	for py := 0; py < h; py++ {
		row := yp[py*w : (py+1)*w]
		for i := 0; i < width; i++ {
			row[(x+i)%w] = 235
		}
	}
}

func bar(x, barWidth int) int {
	b := x / barWidth
	if b > 6 {
		b = 6
	}
	return b
}
