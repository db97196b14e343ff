package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// decoders for image/* responses
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FallbackSize is the edge length of the synthesized placeholder.
const FallbackSize = 320

// Image is a rendered bitmap. Once superseded it is released and must not be used.
type Image struct {
	Seq         uint64
	ContentType string
	Data        []byte
	Decoded     image.Image
	Fallback    bool

	released bool
}

func decodeImage(data []byte, contentType string) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotImage, contentType, err)
	}
	if contentType == "" {
		contentType = "image/" + format
	}
	return &Image{ContentType: contentType, Data: data, Decoded: img}, nil
}

// Release drops the image buffers.
func (i *Image) Release() {
	if i == nil {
		return
	}
	i.Data = nil
	i.Decoded = nil
	i.released = true
}

func (i *Image) Released() bool { return i != nil && i.released }

// Bounds returns the decoded size, or an empty rectangle once released.
func (i *Image) Bounds() image.Rectangle {
	if i == nil || i.Decoded == nil {
		return image.Rectangle{}
	}
	return i.Decoded.Bounds()
}

// blackPNG synthesizes the placeholder used when /img/black.png is unreachable.
func blackPNG() *Image {
	// a new Gray image is zeroed, i.e. black
	img := image.NewGray(image.Rect(0, 0, FallbackSize, FallbackSize))
	var buf bytes.Buffer
	// encoding an in-memory gray image cannot fail
	_ = png.Encode(&buf, img)
	return &Image{ContentType: "image/png", Data: buf.Bytes(), Decoded: img, Fallback: true}
}

// copyOf returns an unreleased copy sharing the immutable pixel data.
func (i *Image) copyOf() *Image {
	c := *i
	c.released = false
	return &c
}
