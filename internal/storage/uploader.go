package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ImageUploader processes raw uploads and stores them as JPEG objects,
// returning the public URL clients embed in messages and profiles.
type ImageUploader struct {
	storage    *S3Storage
	publicBase string
}

func NewImageUploader(storage *S3Storage, publicBase string) *ImageUploader {
	return &ImageUploader{storage: storage, publicBase: strings.TrimRight(publicBase, "/")}
}

func (u *ImageUploader) UploadImage(ctx context.Context, data []byte, folder string) (string, error) {
	opts := DefaultMessageImageOptions()
	if folder != "messages" {
		opts = DefaultProfileImageOptions()
	}

	processed, contentType, size, err := ProcessImage(bytes.NewReader(data), opts)
	if err != nil {
		return "", err
	}

	key, err := SafeJoinObjectPath(folder, fmt.Sprintf("%s.jpg", uuid.NewString()))
	if err != nil {
		return "", err
	}

	if _, err := u.storage.PutObject(ctx, key, bytes.NewReader(processed), size, contentType); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.publicBase + "/" + key, nil
}
