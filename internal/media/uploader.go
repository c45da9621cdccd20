// Package media validates and names uploaded media before handing the bytes
// to an object store.
package media

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/wememory/backend/internal/logging"
)

var (
	// ErrInvalidMediaType indicates the content type is outside the
	// accepted family for the upload.
	ErrInvalidMediaType = errors.New("invalid media type")
	// ErrStoreUnavailable indicates the uploader has no object store.
	ErrStoreUnavailable = errors.New("object store unavailable")
)

// ObjectStore persists uploaded bytes and exposes their public locations.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	PublicURL(key string) string
}

// UploadOptions shapes where an upload lands. Zero values fall back to the
// wrapper defaults.
type UploadOptions struct {
	Bucket      string
	Path        string
	ContentType string
}

// Uploader writes media files to an object store under collision-resistant
// names and returns their public URLs.
type Uploader struct {
	store ObjectStore

	nowFunc  func() time.Time
	randFunc func() (string, error)
}

// NewUploader constructs an Uploader over the provided store.
func NewUploader(store ObjectStore) *Uploader {
	return &Uploader{store: store}
}

// Upload writes the content to {bucket}/{path}/{filename} and returns the
// public URL. The filename is an epoch-millisecond timestamp joined with a
// random base36 token and an extension derived from the content type.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (string, error) {
	if u == nil || u.store == nil {
		return "", ErrStoreUnavailable
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = "media"
	}
	dir := opts.Path
	if dir == "" {
		dir = "uploads"
	}

	ctx, span := logging.StartSpan(ctx, "upload media")
	defer span.End()

	token, err := u.randomToken()
	if err != nil {
		return "", fmt.Errorf("generate upload token: %w", err)
	}

	filename := fmt.Sprintf("%d-%s.%s", u.now().UnixMilli(), token, extensionFor(opts.ContentType))
	key := path.Join(bucket, dir, filename)

	if err := u.store.Put(ctx, key, r, opts.ContentType); err != nil {
		span.Fail(err)
		return "", err
	}

	return u.store.PublicURL(key), nil
}

// UploadImage uploads content whose type belongs to the image family,
// defaulting the destination to images/images.
func (u *Uploader) UploadImage(ctx context.Context, r io.Reader, opts UploadOptions) (string, error) {
	if !strings.HasPrefix(opts.ContentType, "image/") {
		return "", fmt.Errorf("%w: expected image/*, got %q", ErrInvalidMediaType, opts.ContentType)
	}

	if opts.Bucket == "" {
		opts.Bucket = "images"
	}
	if opts.Path == "" {
		opts.Path = "images"
	}

	return u.Upload(ctx, r, opts)
}

// UploadVideo uploads content whose type belongs to the video family,
// defaulting the destination to videos/videos.
func (u *Uploader) UploadVideo(ctx context.Context, r io.Reader, opts UploadOptions) (string, error) {
	if !strings.HasPrefix(opts.ContentType, "video/") {
		return "", fmt.Errorf("%w: expected video/*, got %q", ErrInvalidMediaType, opts.ContentType)
	}

	if opts.Bucket == "" {
		opts.Bucket = "videos"
	}
	if opts.Path == "" {
		opts.Path = "videos"
	}

	return u.Upload(ctx, r, opts)
}

// extensionFor derives a filename extension from the content type subtype,
// falling back to "bin" when there is none.
func extensionFor(contentType string) string {
	_, subtype, ok := strings.Cut(contentType, "/")
	if !ok || subtype == "" {
		return "bin"
	}
	// image/svg+xml -> svg
	if base, _, found := strings.Cut(subtype, "+"); found {
		return base
	}
	return subtype
}

func (u *Uploader) randomToken() (string, error) {
	if u.randFunc != nil {
		return u.randFunc()
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return new(big.Int).SetBytes(buf).Text(36), nil
}

func (u *Uploader) now() time.Time {
	if u.nowFunc != nil {
		return u.nowFunc()
	}
	return time.Now().UTC()
}

// WithNowFunc overrides the time source for tests.
func (u *Uploader) WithNowFunc(now func() time.Time) {
	u.nowFunc = now
}

// WithRandFunc overrides the token source for tests.
func (u *Uploader) WithRandFunc(random func() (string, error)) {
	u.randFunc = random
}
