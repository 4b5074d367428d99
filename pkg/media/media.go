// Package media stores uploaded contribution media (images, audio, video) and
// addresses each stored file by a relative reference such as "images/<uuid>.jpg".
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Folders used for each kind of upload
const (
	FolderImages = "images"
	FolderAudio  = "audio"
	FolderVideos = "videos"
)

// ErrNotFound is returned by Open and Delete when the reference does not exist
var ErrNotFound = errors.New("media not found")

// ErrInvalidRef is returned for references that escape the store
var ErrInvalidRef = errors.New("invalid media reference")

// Store persists media and resolves references back to bytes or URLs
type Store interface {
	// Save stores r under folder and returns the reference to persist on the contribution
	Save(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes the referenced file; ErrNotFound when it does not exist
	Delete(ctx context.Context, ref string) error
	// URL returns the address a browser should fetch the reference from
	URL(ref string) string
}

// NewRef builds a fresh reference in folder with the given extension (".jpg")
func NewRef(folder, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return folder + "/" + uuid.NewString() + ext
}

// CleanRef normalizes a reference and rejects traversal outside the store
func CleanRef(ref string) (string, error) {
	if ref == "" {
		return "", ErrInvalidRef
	}
	cleaned := path.Clean("/" + ref)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(ref, "/") || strings.Contains(cleaned, "..") {
		return "", ErrInvalidRef
	}
	return cleaned, nil
}

func servedURL(ref string) string {
	return "/media/" + ref
}
