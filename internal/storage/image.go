package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidImage = errors.New("invalid image")
	ErrUnsupported  = errors.New("unsupported image type")
)

const ContentTypeJPEG = "image/jpeg"

type ImageOptions struct {
	MaxBytes    int64
	MaxDim      int
	JPEGQuality int
	// Transparent pixels are flattened onto this colour.
	Background color.RGBA
}

func DefaultLogoOptions() ImageOptions {
	return ImageOptions{
		MaxBytes:    2 * 1024 * 1024,
		MaxDim:      512,
		JPEGQuality: 88,
		Background:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// ProcessedImage is a re-encoded JPEG ready for upload.
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

func (p *ProcessedImage) Size() int64 {
	return int64(len(p.Data))
}

type decoder func(io.Reader) (image.Image, error)

// sniff picks a decoder from the file's magic number.
func sniff(header []byte) (decoder, error) {
	if len(header) < 12 {
		return nil, ErrInvalidImage
	}
	switch {
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}):
		return jpeg.Decode, nil
	case bytes.HasPrefix(header, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return png.Decode, nil
	case bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")):
		return webp.Decode, nil
	}
	return nil, ErrUnsupported
}

// fit scales (w, h) down to fit a maxDim square, keeping the aspect ratio.
func fit(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

// ProcessImage validates an upload, downscales it to fit MaxDim and re-encodes it as JPEG.
// Images are never upscaled.
func ProcessImage(r io.Reader, opts ImageOptions) (*ProcessedImage, error) {
	defaults := DefaultLogoOptions()
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaults.MaxBytes
	}
	if opts.MaxDim <= 0 {
		opts.MaxDim = defaults.MaxDim
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = defaults.JPEGQuality
	}
	if opts.Background.A == 0 {
		opts.Background = defaults.Background
	}

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, ErrTooLarge
	}

	decode, err := sniff(data)
	if err != nil {
		return nil, err
	}
	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrInvalidImage
	}
	tw, th := fit(bounds.Dx(), bounds.Dy(), opts.MaxDim)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return &ProcessedImage{Data: out.Bytes(), ContentType: ContentTypeJPEG, Width: tw, Height: th}, nil
}
