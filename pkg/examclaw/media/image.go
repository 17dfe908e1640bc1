// Package media loads the ticket photo: it validates the file, downscales
// oversized images and exposes the base64 payload sent to the model and a
// data URL for previews.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
)

var (
	// ErrUnsupportedType is returned for anything but JPEG, PNG, GIF or WebP.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrTooLarge is returned when the file exceeds Config.MaxSize.
	ErrTooLarge = errors.New("image too large")
)

// AllowedMimeTypes are the image formats the model accepts inline.
var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// Config contains ingestion limits.
type Config struct {
	MaxSize      int64 `yaml:"max_size"`
	MaxDimension int   `yaml:"max_dimension"`
	JPEGQuality  int   `yaml:"jpeg_quality"`
}

// DefaultConfig returns default limits.
func DefaultConfig() Config {
	return Config{
		MaxSize:      20 * 1024 * 1024, // 20MB inline request limit
		MaxDimension: 3072,
		JPEGQuality:  85,
	}
}

// Image is a validated photo ready to attach to a prompt.
type Image struct {
	Filename string
	MIMEType string
	// Base64 is the raw payload without a data-URL prefix.
	Base64     string
	PreviewURL string
	Width      int
	Height     int
	Size       int64
	Resized    bool
}

// Inline returns the prompt attachment for the image.
func (img *Image) Inline() *gemini.InlineImage {
	return &gemini.InlineImage{MIMEType: img.MIMEType, Data: img.Base64}
}

// Ingestor validates and prepares images.
type Ingestor struct {
	config Config
}

// NewIngestor creates an ingestor; zero fields in cfg take their defaults.
func NewIngestor(cfg Config) *Ingestor {
	def := DefaultConfig()
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = def.MaxDimension
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = def.JPEGQuality
	}
	return &Ingestor{config: cfg}
}

// Load reads and prepares the image at path.
func (in *Ingestor) Load(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if info.Size() > in.config.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, info.Size(), in.config.MaxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return in.FromBytes(filepath.Base(path), data)
}

// FromBytes prepares an image already in memory.
func (in *Ingestor) FromBytes(name string, data []byte) (*Image, error) {
	if int64(len(data)) > in.config.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), in.config.MaxSize)
	}

	mimeType := DetectMimeType(data)
	if !isAllowed(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	cfg, err := decodeConfig(mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	img := &Image{
		Filename: name,
		MIMEType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}

	if max(cfg.Width, cfg.Height) > in.config.MaxDimension {
		data, err = in.downscale(mimeType, data)
		if err != nil {
			return nil, fmt.Errorf("resizing %s: %w", name, err)
		}
		resized, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("resizing %s: %w", name, err)
		}
		img.MIMEType = "image/jpeg"
		img.Width, img.Height = resized.Width, resized.Height
		img.Resized = true
	}

	img.Size = int64(len(data))
	img.Base64 = base64.StdEncoding.EncodeToString(data)
	img.PreviewURL = "data:" + img.MIMEType + ";base64," + img.Base64
	return img, nil
}

// downscale fits the image inside MaxDimension and re-encodes it as JPEG
// on a white background.
func (in *Ingestor) downscale(mimeType string, data []byte) ([]byte, error) {
	src, err := decode(mimeType, data)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), in.config.MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: in.config.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitWithin scales w×h so the longest side equals limit, keeping the aspect
// ratio and never returning a zero side.
func fitWithin(w, h, limit int) (int, int) {
	if w >= h {
		nh := (h*limit + w/2) / w
		return limit, max(nh, 1)
	}
	nw := (w*limit + h/2) / h
	return max(nw, 1), limit
}

// DetectMimeType sniffs the content type, dropping any parameters.
func DetectMimeType(data []byte) string {
	detected := http.DetectContentType(data)
	return strings.TrimSpace(strings.Split(detected, ";")[0])
}

func isAllowed(mimeType string) bool {
	for _, m := range AllowedMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

func decodeConfig(mimeType string, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.DecodeConfig(r)
	case "image/png":
		return png.DecodeConfig(r)
	case "image/gif":
		return gif.DecodeConfig(r)
	case "image/webp":
		return webp.DecodeConfig(r)
	}
	return image.Config{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
}

func decode(mimeType string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/gif":
		return gif.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
}
