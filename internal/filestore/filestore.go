// Package filestore saves uploaded photos and hands back a reference the
// database can keep. Backends: local disk and S3.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store is implemented by every backend. Refs are backend-relative keys.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces a client-supplied file name to a single safe path element.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

// ResolutionKey is where an officer's after-photo is stored.
func ResolutionKey(complaintID, fileName string) string {
	return fmt.Sprintf("complaints/%s/resolution_proofs/%s-%s", SafeName(complaintID), uuid.NewString(), SafeName(fileName))
}

// EvidenceKey is where a citizen's photo is stored.
func EvidenceKey(complaintID, fileName string) string {
	return fmt.Sprintf("complaints/%s/evidence/%s-%s", SafeName(complaintID), uuid.NewString(), SafeName(fileName))
}

// DetectImage sniffs the content type and reports whether it is an image.
func DetectImage(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	return mt.String(), strings.HasPrefix(mt.String(), "image/")
}

// cleanKey rejects absolute keys and keys that climb out of the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("filestore: invalid key %q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("filestore: key %q escapes the store root", key)
	}
	return cleaned, nil
}
