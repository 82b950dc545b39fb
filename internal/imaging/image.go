package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Encoded formats an Image can carry
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// DefaultJPEGQuality matches the capture quality of the scanner (0.9)
const DefaultJPEGQuality = 90

// Image is a single still capture, encoded as JPEG or PNG, with its pixel size
type Image struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"-"`
}

// Options controls how captures are normalized
type Options struct {
	// MaxDimension caps the longest side in pixels; zero keeps the original size
	MaxDimension int
	// JPEGQuality is used whenever a capture has to be re-encoded as JPEG
	JPEGQuality int
}

// DefaultOptions keeps captures at full resolution
var DefaultOptions = Options{JPEGQuality: DefaultJPEGQuality}

// AspectRatio returns width divided by height
func (i Image) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// Measured returns a copy of the image with Width, Height and Format filled in from the
// encoded data. Images that already carry a size are returned unchanged.
func (i Image) Measured() (Image, error) {
	if i.Width > 0 && i.Height > 0 && i.Format != "" {
		return i, nil
	}
	if len(i.Data) == 0 {
		return Image{}, fmt.Errorf("image has no data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(i.Data))
	if err != nil {
		return Image{}, fmt.Errorf("reading image header: %w", err)
	}
	if format != FormatJPEG && format != FormatPNG {
		return Image{}, fmt.Errorf("unsupported encoded format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("image has empty dimensions %dx%d", cfg.Width, cfg.Height)
	}
	i.Width = cfg.Width
	i.Height = cfg.Height
	i.Format = format
	return i, nil
}

// FromPixels encodes raw pixel data as a JPEG capture at the given quality (1-100)
func FromPixels(img image.Image, quality int) (Image, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Image{}, fmt.Errorf("image has empty dimensions %dx%d", b.Dx(), b.Dy())
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Image{}, fmt.Errorf("encoding JPEG: %w", err)
	}
	return Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatJPEG,
		Data:   buf.Bytes(),
	}, nil
}
