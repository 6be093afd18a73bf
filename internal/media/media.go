// Package media validates uploaded post images and stores them.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadDir is the key prefix of every stored post image.
const UploadDir = "posts"

// allowedTypes maps accepted image MIME types to file extensions.
var allowedTypes = map[string]string{
	"image/gif":  ".gif",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Storage persists image bytes under a key and reports where they live.
type Storage interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ErrUnsupportedType is returned for uploads that are not images we accept.
type ErrUnsupportedType struct {
	Detected string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported image type %q", e.Detected)
}

// ErrTooLarge is returned for uploads over the size limit.
type ErrTooLarge struct {
	Limit int64
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("image is larger than %d bytes", e.Limit)
}

// Image is a validated upload ready to store.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Detect sniffs data and accepts it only if it is a gif, jpeg, png or webp.
func Detect(data []byte) (*Image, error) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowedTypes[m.String()]; ok {
			return &Image{Data: data, ContentType: m.String(), Ext: ext}, nil
		}
	}
	return nil, &ErrUnsupportedType{Detected: mt.String()}
}

// ReadUpload reads at most maxBytes of an uploaded file and validates it.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, &ErrTooLarge{Limit: maxBytes}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(buf.Len()) > maxBytes {
		return nil, &ErrTooLarge{Limit: maxBytes}
	}
	return Detect(buf.Bytes())
}

// NewKey returns a fresh storage key for img.
func NewKey(img *Image) string {
	return path.Join(UploadDir, uuid.NewString()+img.Ext)
}

// Store saves img under a new key and returns the reference to keep on the
// post.
func Store(ctx context.Context, s Storage, img *Image) (string, error) {
	return s.Save(ctx, NewKey(img), img.ContentType, img.Data)
}
