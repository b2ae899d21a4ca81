package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultSize is the square edge used when a job's imageSize is absent or
// unparseable.
const DefaultSize = 1024

// ParseSize parses a "<width>x<height>" string. Invalid input falls back
// to the default square size.
func ParseSize(s string) (width, height int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return DefaultSize, DefaultSize
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return DefaultSize, DefaultSize
	}
	return w, h
}

// CoverResize scales src to fully cover width×height, cropping overflow
// around the center, and encodes the result as max-compression PNG.
func CoverResize(src []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid target size %dx%d", width, height)
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode source: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, coverRect(img.Bounds(), width, height), draw.Src, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect picks the largest centered source rectangle with the target
// aspect ratio.
func coverRect(bounds image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := bounds.Dx(), bounds.Dy()
	cropW, cropH := srcW, srcH
	if srcW*height > width*srcH {
		cropW = srcH * width / height
	} else {
		cropH = srcW * height / width
	}
	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}
