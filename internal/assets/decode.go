package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Image formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// ErrUnsupportedFormat is returned for extensions without a decoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromExtension maps a file extension to an image format.
func FormatFromExtension(ext string) string {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".") {
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "gif":
		return FormatGIF
	case "bmp":
		return FormatBMP
	case "tif", "tiff":
		return FormatTIFF
	case "webp":
		return FormatWebP
	case "tga":
		return FormatTGA
	}
	return ""
}

// sniffFormat guesses the format from the data signature.
// TGA has no signature and is never sniffed.
func sniffFormat(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return FormatGIF
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return FormatBMP
	case len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*"):
		return FormatTIFF
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	}
	return ""
}

func decodeAs(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		return png.Decode(r)
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatGIF:
		return gif.Decode(r)
	case FormatBMP:
		return bmp.Decode(r)
	case FormatTIFF:
		return tiff.Decode(r)
	case FormatWebP:
		return webp.Decode(r)
	case FormatTGA:
		return tga.Decode(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Decode decodes image data using the extension as a hint.
// When the extension's decoder fails, the data signature is tried instead.
func Decode(data []byte, ext string) (image.Image, string, error) {
	format := FormatFromExtension(ext)
	if format == "" {
		if sniffed := sniffFormat(data); sniffed != "" {
			format = sniffed
		} else {
			return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
		}
	}

	img, err := decodeAs(data, format)
	if err == nil {
		return img, format, nil
	}

	// Mislabelled files: a PNG saved as .jpg and the like.
	if sniffed := sniffFormat(data); sniffed != "" && sniffed != format {
		if img, err2 := decodeAs(data, sniffed); err2 == nil {
			return img, sniffed, nil
		}
	}
	return nil, format, fmt.Errorf("decoding %s: %w", format, err)
}

// EncodePNG returns the texture as PNG bytes, reusing the source data
// when it already is a PNG.
func EncodePNG(tex *Texture) ([]byte, error) {
	if tex.Format == FormatPNG && len(tex.Data) > 0 {
		return tex.Data, nil
	}
	if tex.Image == nil {
		return nil, fmt.Errorf("texture %s has no decoded image", tex.Path)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, tex.Image); err != nil {
		return nil, fmt.Errorf("encoding %s as png: %w", tex.Path, err)
	}
	return buf.Bytes(), nil
}
