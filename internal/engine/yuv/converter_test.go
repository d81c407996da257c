package yuv

import "testing"

func TestQuadCoversViewport(t *testing.T) {
	var minX, maxX, minY, maxY float32 = 1, -1, 1, -1
	for i := 0; i < len(Quad); i += 4 {
		x, y := Quad[i], Quad[i+1]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	if minX != -1 || maxX != 1 || minY != -1 || maxY != 1 {
		t.Errorf("quad spans x [%g, %g] y [%g, %g]", minX, maxX, minY, maxY)
	}
}

func TestQuadTopRowSamplesFirstFrameRow(t *testing.T) {
	for i := 0; i < len(Quad); i += 4 {
		y, tc := Quad[i+1], Quad[i+3]
		if y == 1 && tc != 0 {
			t.Errorf("top vertex has t = %g, want 0", tc)
		}
		if y == -1 && tc != 1 {
			t.Errorf("bottom vertex has t = %g, want 1", tc)
		}
	}
}

func TestQuadIndices(t *testing.T) {
	seen := map[uint32]int{}
	for _, i := range QuadIndices {
		if int(i) >= len(Quad)/4 {
			t.Fatalf("index %d out of range", i)
		}
		seen[i]++
	}
	if len(seen) != 4 {
		t.Errorf("indices reference %d vertices, want 4", len(seen))
	}
}
