package rimage

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// BGRImage is an 8 bit, 3 channel image with channels interleaved in blue, green, red order.
type BGRImage struct {
	// Pix holds the pixels in B, G, R order. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	Rect   image.Rectangle
}

// NewBGRImage returns a black image of the given size.
func NewBGRImage(width, height int) *BGRImage {
	return NewBGRImageRect(image.Rect(0, 0, width, height))
}

// NewBGRImageRect returns a black image covering r.
func NewBGRImageRect(r image.Rectangle) *BGRImage {
	return &BGRImage{
		Pix:    make([]uint8, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

// NewBGRImageFromData wraps interleaved B, G, R bytes. The image takes ownership of data.
func NewBGRImageFromData(width, height int, data []uint8) (*BGRImage, error) {
	if len(data) != 3*width*height {
		return nil, errors.Wrapf(ErrDimensionMismatch, "have %d bytes for a %dx%d bgr8 image", len(data), width, height)
	}
	return &BGRImage{Pix: data, Stride: 3 * width, Rect: image.Rect(0, 0, width, height)}, nil
}

// ConvertToBGR draws any image into a new BGRImage with the same bounds.
func ConvertToBGR(img image.Image) *BGRImage {
	if bgr, ok := img.(*BGRImage); ok {
		return bgr.Clone()
	}
	if gray, ok := img.(*image.Gray); ok {
		return GrayToBGR(gray)
	}
	out := NewBGRImageRect(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// GrayToBGR replicates the intensity of each pixel into all three channels.
func GrayToBGR(gray *image.Gray) *BGRImage {
	b := gray.Bounds()
	out := NewBGRImageRect(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := gray.Pix[gray.PixOffset(x, y)]
			i := out.PixOffset(x, y)
			out.Pix[i+0] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
		}
	}
	return out
}

// ColorModel returns the RGBA color model; pixels are always opaque.
func (i *BGRImage) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds returns the domain for which At can return non-zero color.
func (i *BGRImage) Bounds() image.Rectangle {
	return i.Rect
}

// Width returns the number of columns.
func (i *BGRImage) Width() int {
	return i.Rect.Dx()
}

// Height returns the number of rows.
func (i *BGRImage) Height() int {
	return i.Rect.Dy()
}

// In returns whether (x, y) is inside the image.
func (i *BGRImage) In(x, y int) bool {
	return image.Pt(x, y).In(i.Rect)
}

// PixOffset returns the index of the first element of Pix that corresponds to the pixel at (x, y).
// It panics when the pixel is out of bounds.
func (i *BGRImage) PixOffset(x, y int) int {
	if !i.In(x, y) {
		panic(errors.Errorf("pixel (%d, %d) is outside of image %v", x, y, i.Rect))
	}
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*3
}

// At implements image.Image.
func (i *BGRImage) At(x, y int) color.Color {
	if !i.In(x, y) {
		return color.RGBA{}
	}
	b, g, r := i.BGRAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// BGRAt returns the three channels of the pixel at (x, y) in storage order.
func (i *BGRImage) BGRAt(x, y int) (b, g, r uint8) {
	k := i.PixOffset(x, y)
	return i.Pix[k], i.Pix[k+1], i.Pix[k+2]
}

// SetBGR sets the three channels of the pixel at (x, y).
func (i *BGRImage) SetBGR(x, y int, b, g, r uint8) {
	k := i.PixOffset(x, y)
	i.Pix[k], i.Pix[k+1], i.Pix[k+2] = b, g, r
}

// Set implements draw.Image. Alpha is dropped.
func (i *BGRImage) Set(x, y int, c color.Color) {
	if !i.In(x, y) {
		return
	}
	rgba, _ := color.RGBAModel.Convert(c).(color.RGBA)
	i.SetBGR(x, y, rgba.B, rgba.G, rgba.R)
}

// Clone makes a deep copy of the image.
func (i *BGRImage) Clone() *BGRImage {
	pix := make([]uint8, len(i.Pix))
	copy(pix, i.Pix)
	return &BGRImage{Pix: pix, Stride: i.Stride, Rect: i.Rect}
}
