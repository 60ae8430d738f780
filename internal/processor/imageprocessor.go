// imageprocessor.go - Image payload preparation before OCR

package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedImage is returned for uploads outside the accepted image types.
var ErrUnsupportedImage = errors.New("unsupported image type (accepted: jpg, jpeg, png)")

var acceptedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateImageExtension accepts the uploader's image types.
func ValidateImageExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !acceptedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return nil
}

// DetectMIMEType maps a file extension to the MIME type sent to OCR providers
func DetectMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// PrepareImage reads an image and downscales it so neither side exceeds
// maxDimension. No enhancement is applied; OCR sees the original pixels.
// maxDimension <= 0 returns the file bytes unchanged.
func PrepareImage(imagePath string, maxDimension int) ([]byte, string, error) {
	mimeType := DetectMIMEType(imagePath)

	if maxDimension <= 0 {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image: %w", err)
		}
		return data, mimeType, nil
	}

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxDimension || height > maxDimension {
		if width > height {
			img = imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		mimeType = "image/jpeg"
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), mimeType, nil
}

// LoadImageForOCR prepares the image and falls back to the raw file when
// decoding fails, so OCR still gets a chance on formats imaging cannot read.
func LoadImageForOCR(imagePath string, maxDimension int) ([]byte, string, error) {
	data, mimeType, err := PrepareImage(imagePath, maxDimension)
	if err == nil {
		return data, mimeType, nil
	}

	raw, readErr := os.ReadFile(imagePath)
	if readErr != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", readErr)
	}
	return raw, DetectMIMEType(imagePath), nil
}
