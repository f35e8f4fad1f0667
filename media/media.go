package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 10 << 20

var (
	ErrNotImage   = errors.New("not an image")
	ErrTooLarge   = errors.New("image too large")
	ErrBadDataURI = errors.New("malformed data uri")
	ErrBadRef     = errors.New("image must be a data:image uri or an http(s) url")
)

// Kind groups stored images and picks their transformation.
type Kind string

const (
	KindAvatar Kind = "avatars"
	KindBanner Kind = "banners"
	KindPost   Kind = "posts"
)

// Image is a sniffed, size-checked upload.
type Image struct {
	Data []byte
	MIME *mimetype.MIME
}

func (i Image) Extension() string { return i.MIME.Extension() }

// ImageStore persists images and returns the URL they are served from.
// Delete removes what Save stored under the same kind and name.
type ImageStore interface {
	Save(ctx context.Context, kind Kind, name string, img Image) (string, error)
	Delete(ctx context.Context, kind Kind, name string) error
}

// Read loads r and checks that it holds an image.
func Read(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return sniff(data)
}

func sniff(data []byte) (Image, error) {
	if len(data) > MaxImageBytes {
		return Image{}, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	// SVG is markup and can carry script.
	if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") {
		return Image{}, ErrNotImage
	}
	return Image{Data: data, MIME: mt}, nil
}

// IsDataURI reports whether ref is an inline image.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:image/")
}

// ValidateRef accepts data:image URIs and http(s) URLs.
func ValidateRef(ref string) error {
	switch {
	case IsDataURI(ref):
		return nil
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return nil
	}
	return ErrBadRef
}

// DecodeDataURI decodes a base64 data:image URI. The declared type is not
// trusted; the payload is sniffed.
func DecodeDataURI(ref string) (Image, error) {
	if !IsDataURI(ref) {
		return Image{}, ErrBadDataURI
	}
	header, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Image{}, ErrBadDataURI
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return Image{}, ErrTooLarge
	}
	data, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload)))
	if err != nil {
		return Image{}, ErrBadDataURI
	}
	return sniff(data)
}

func (i Image) reader() io.Reader { return bytes.NewReader(i.Data) }
