// nv21tool is a CLI utility for inspecting and producing raw NV21 frames.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/debug"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "bars":
		err = cmdBars(args)
	case "convert", "c":
		err = cmdConvert(args)
	case "import":
		err = cmdImport(args)
	case "axes":
		err = cmdAxes(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nv21tool - raw NV21 frame utility

Usage:
  nv21tool <command> [options]

Commands:
  info <WxH>                         Show frame layout and processing geometry
  bars <WxH> <out.nv21>              Write SMPTE color bars
  convert <in.nv21> <WxH> <out.png>  Decode a frame to PNG or JPEG
  import <in.png> <out.nv21>         Encode an image as NV21
  axes <WxH> <x> <y> <z>             Project the axes of an object at (x, y, z)

Examples:
  nv21tool info 1280x720
  nv21tool bars 640x480 bars.nv21
  nv21tool convert -width 320 frame.nv21 640x480 frame.png
  nv21tool axes -edge 35 1280x720 0 0 300`)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nv21tool info <WxH>")
	}
	res, err := parseSize(args[0])
	if err != nil {
		return err
	}
	proc := capture.ProcessingResolution(res, capture.DefaultMaxProcessingWidth)
	xs, ys := capture.ScaleFactors(res, proc)
	k := projection.DefaultIntrinsics(proc)

	fmt.Printf("Frame:       %s\n", res)
	fmt.Printf("Bytes:       %d\n", nv21.FrameSize(res.Width, res.Height))
	fmt.Printf("Luma plane:  [0, %d)\n", res.Pixels())
	fmt.Printf("VU plane:    [%d, %d) %dx%d pairs\n", res.Pixels(), nv21.FrameSize(res.Width, res.Height), res.Width/2, res.Height/2)
	fmt.Printf("Processing:  %s (scale %.3f x %.3f)\n", proc, xs, ys)
	fmt.Printf("Intrinsics:  fx=%g fy=%g cx=%g cy=%g\n", k.Fx, k.Fy, k.Cx, k.Cy)
	return nil
}

func cmdBars(args []string) error {
	fs := flag.NewFlagSet("bars", flag.ExitOnError)
	sweep := fs.Int("sweep", -1, "Draw a bright vertical band at this x (-1 = none)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: nv21tool bars [-sweep x] <WxH> <out.nv21>")
	}
	res, err := parseSize(fs.Arg(0))
	if err != nil {
		return err
	}
	buf := make([]byte, nv21.FrameSize(res.Width, res.Height))
	nv21.FillColorBars(buf, res.Width, res.Height)
	if *sweep >= 0 {
		nv21.SweepLuma(buf, res.Width, res.Height, *sweep, res.Width/16)
	}
	if err := os.WriteFile(fs.Arg(1), buf, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s, %d bytes)\n", fs.Arg(1), res, len(buf))
	return nil
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	width := fs.Int("width", 0, "Resize to this width, keeping aspect (0 = original)")
	fs.Parse(args)

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: nv21tool convert [-width N] <in.nv21> <WxH> <out.png>")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	res, err := parseSize(fs.Arg(1))
	if err != nil {
		return err
	}
	img, err := nv21.ToRGBA(data, res.Width, res.Height)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	var out image.Image = img
	if *width > 0 {
		out = imaging.Resize(img, *width, 0, imaging.Lanczos)
	}
	if err := imaging.Save(out, fs.Arg(2)); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d)\n", fs.Arg(2), out.Bounds().Dx(), out.Bounds().Dy())
	return nil
}

func cmdImport(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: nv21tool import <in.png> <out.nv21>")
	}
	img, err := imaging.Open(args[0])
	if err != nil {
		return err
	}
	img = evenCrop(img)
	buf, err := nv21.FromImage(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], buf, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d, %d bytes)\n", args[1], img.Bounds().Dx(), img.Bounds().Dy(), len(buf))
	return nil
}

func cmdAxes(args []string) error {
	fs := flag.NewFlagSet("axes", flag.ExitOnError)
	edge := fs.Float64("edge", projection.DefaultMarkerEdge, "Axis length in object units")
	render := fs.String("o", "", "Also render the axes over color bars to this image")
	fs.Parse(args)

	if fs.NArg() < 4 {
		return fmt.Errorf("usage: nv21tool axes [-edge N] [-o out.png] <WxH> <x> <y> <z>")
	}
	res, err := parseSize(fs.Arg(0))
	if err != nil {
		return err
	}
	t, err := parseTranslation(fs.Args()[1:4])
	if err != nil {
		return err
	}

	proc := capture.ProcessingResolution(res, capture.DefaultMaxProcessingWidth)
	xs, ys := capture.ScaleFactors(res, proc)
	model := projection.New(projection.DefaultIntrinsics(proc), xs, ys)
	model.SetMarkerEdge(*edge)

	segs := model.Axes(t)
	if len(segs) == 0 {
		fmt.Println("All axes culled (object at or behind the camera plane)")
	}
	for _, s := range segs {
		x0, y0 := projection.ToNDC(s.From, res)
		x1, y1 := projection.ToNDC(s.To, res)
		fmt.Printf("%s: %v -> %v  ndc (%.3f, %.3f) -> (%.3f, %.3f)\n", s.Axis, s.From, s.To, x0, y0, x1, y1)
	}

	if *render == "" {
		return nil
	}
	frame := make([]byte, nv21.FrameSize(res.Width, res.Height))
	nv21.FillColorBars(frame, res.Width, res.Height)
	snap := debug.NewSnapshotter("", "axes", "png", nil)
	img, err := snap.Compose(frame, res, segs)
	if err != nil {
		return err
	}
	return imaging.Save(img, *render)
}
