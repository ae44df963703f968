// Package utils: image normalization and annotation for the detect pipeline.
package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/webp"
)

// NormalizeToJPG decodes input (jpg/png/webp), applies EXIF orientation,
// resizes to maxWidth (if > 0), then encodes to JPEG with given quality.
func NormalizeToJPG(input []byte, maxWidth int, quality int) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty image")
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	img, _, err := decodeImage(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}

	img = applyOrientation(img, readEXIFOrientation(bytes.NewReader(input)))

	if maxWidth > 0 {
		img = resizeMaxWidth(img, maxWidth)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Box is a labeled pixel-space xyxy rectangle to draw on an image.
type Box struct {
	Label      string
	Confidence float64
	XYXY       [4]float64
}

// AnnotateJPG draws each box with a red outline and a "label conf" tag and
// re-encodes as JPEG.
func AnnotateJPG(input []byte, boxes []Box, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	src, _, err := decodeImage(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Copy(dst, b.Min, src, b, draw.Src, nil)

	red := color.RGBA{R: 255, A: 255}
	face := basicfont.Face7x13

	for _, box := range boxes {
		x1 := clampInt(int(box.XYXY[0]), b.Min.X, b.Max.X-1)
		y1 := clampInt(int(box.XYXY[1]), b.Min.Y, b.Max.Y-1)
		x2 := clampInt(int(box.XYXY[2]), b.Min.X, b.Max.X-1)
		y2 := clampInt(int(box.XYXY[3]), b.Min.Y, b.Max.Y-1)
		drawRect(dst, x1, y1, x2, y2, red, 2)

		text := fmt.Sprintf("%s %.2f", box.Label, box.Confidence)
		textW := font.MeasureString(face, text).Ceil()
		textH := face.Metrics().Height.Ceil()

		tagTop := y1 - textH
		if tagTop < b.Min.Y {
			tagTop = y1
		}
		fillRect(dst, x1, tagTop, x1+textW, tagTop+textH, red)

		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(x1, tagTop+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(text)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeImage(r *bytes.Reader) (image.Image, string, error) {
	r.Seek(0, io.SeekStart)
	if img, err := jpeg.Decode(r); err == nil {
		return img, "jpeg", nil
	}
	r.Seek(0, io.SeekStart)
	if img, err := png.Decode(r); err == nil {
		return img, "png", nil
	}
	r.Seek(0, io.SeekStart)
	if img, err := webp.Decode(r); err == nil {
		return img, "webp", nil
	}
	return nil, "", errors.New("unsupported image format (jpeg/png/webp)")
}

func readEXIFOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	ori, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return ori
}

// EXIF orientation: 1 normal, 2 flip-H, 3 rotate 180, 4 flip-V,
// 5 transpose, 6 rotate 90 CW, 7 transverse, 8 rotate 270 CW.
func applyOrientation(src image.Image, ori int) image.Image {
	switch ori {
	case 2:
		return transform(src, false, func(w, h, x, y int) (int, int) { return w - 1 - x, y })
	case 3:
		return transform(src, false, func(w, h, x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4:
		return transform(src, false, func(w, h, x, y int) (int, int) { return x, h - 1 - y })
	case 5:
		return transform(src, true, func(w, h, x, y int) (int, int) { return y, x })
	case 6:
		return transform(src, true, func(w, h, x, y int) (int, int) { return h - 1 - y, x })
	case 7:
		return transform(src, true, func(w, h, x, y int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8:
		return transform(src, true, func(w, h, x, y int) (int, int) { return y, w - 1 - x })
	default:
		return src
	}
}

// transform maps each source pixel (x,y) to mapXY(w,h,x,y) in the
// destination; swap means the destination has transposed dimensions.
func transform(src image.Image, swap bool, mapXY func(w, h, x, y int) (int, int)) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if swap {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := mapXY(w, h, x, y)
			dst.Set(dx, dy, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func resizeMaxWidth(src image.Image, maxW int) image.Image {
	b := src.Bounds()
	w := b.Dx()
	h := b.Dy()
	if w <= 0 || h <= 0 || w <= maxW {
		return src
	}

	scale := float64(maxW) / float64(w)
	newH := int(math.Round(float64(h) * scale))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func drawRect(dst *image.RGBA, x1, y1, x2, y2 int, c color.Color, width int) {
	for i := 0; i < width; i++ {
		for x := x1; x <= x2; x++ {
			dst.Set(x, y1+i, c)
			dst.Set(x, y2-i, c)
		}
		for y := y1; y <= y2; y++ {
			dst.Set(x1+i, y, c)
			dst.Set(x2-i, y, c)
		}
	}
}

func fillRect(dst *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			dst.Set(x, y, c)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
