package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Decode turns an uploaded still capture into an Image the PDF writer and OCR workers
// accept. JPEG stays JPEG (re-encoded only when it has to be downscaled), HEIC becomes
// JPEG, the first page of a PDF and every other raster format become PNG.
func Decode(data []byte, contentType string, opts Options) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("capture is empty")
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}

	mimeType := normalizeMimeType(contentType)

	switch {
	case isPDFFormat(data) || mimeType == "application/pdf":
		img, err := pdfToImage(data)
		if err != nil {
			return Image{}, fmt.Errorf("converting PDF to image: %w", err)
		}
		return encode(Downscale(img, opts.MaxDimension), FormatPNG, opts.JPEGQuality)

	case isHEICFormat(data) || isHEICMimeType(mimeType):
		// Go's standard image package can't read HEIC (common on iPhones)
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return Image{}, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return encode(Downscale(img, opts.MaxDimension), FormatJPEG, opts.JPEGQuality)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, unsupportedFormat(err)
	}

	// JPEG that already fits is passed through untouched to avoid generation loss
	if format == FormatJPEG && !exceeds(cfg.Width, cfg.Height, opts.MaxDimension) {
		return Image{
			Width:  cfg.Width,
			Height: cfg.Height,
			Format: FormatJPEG,
			Data:   data,
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, unsupportedFormat(err)
	}
	img = Downscale(img, opts.MaxDimension)

	if format == FormatJPEG {
		return encode(img, FormatJPEG, opts.JPEGQuality)
	}
	return encode(img, FormatPNG, opts.JPEGQuality)
}

// Downscale shrinks img so its longest side is at most maxDimension, keeping the
// aspect ratio. A non-positive maxDimension returns img unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	if !exceeds(b.Dx(), b.Dy(), maxDimension) {
		return img
	}

	w, h := b.Dx(), b.Dy()
	var targetW, targetH int
	if w >= h {
		targetW = maxDimension
		targetH = max(1, h*maxDimension/w)
	} else {
		targetH = maxDimension
		targetW = max(1, w*maxDimension/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func exceeds(w, h, maxDimension int) bool {
	return maxDimension > 0 && (w > maxDimension || h > maxDimension)
}

func unsupportedFormat(err error) error {
	if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
		return fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, WebP, BMP, TIFF, HEIC, HEIF, PDF. Error: %w", err)
	}
	return fmt.Errorf("decoding image: %w", err)
}

// encode writes img in the requested format. PNG output is always 8 bits per channel
// and non-interlaced, which is what the PDF writer can embed.
func encode(img image.Image, format string, quality int) (Image, error) {
	b := img.Bounds()
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return Image{}, fmt.Errorf("encoding JPEG: %w", err)
		}
	default:
		if err := png.Encode(&buf, to8Bit(img)); err != nil {
			return Image{}, fmt.Errorf("encoding PNG: %w", err)
		}
		format = FormatPNG
	}
	return Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Data:   buf.Bytes(),
	}, nil
}

func to8Bit(img image.Image) image.Image {
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		dst := image.NewNRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	return img
}

// pdfToImage renders the first page of a PDF
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func isPDFFormat(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}
