package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/platefeed/backend/config"
)

// ImageStorage persists decoded image bytes and returns the public location.
type ImageStorage interface {
	Save(ctx context.Context, data []byte, fileName, contentType string) (string, error)
}

// LocalImageStorage writes images under a media directory on disk.
type LocalImageStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalImageStorage(dir, baseURL string) *LocalImageStorage {
	return &LocalImageStorage{Dir: dir, BaseURL: baseURL}
}

func (st *LocalImageStorage) Save(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	fullPath := filepath.Join(st.Dir, filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return st.BaseURL + "/" + fileName, nil
}

// S3ImageStorage uploads images to the configured bucket and returns the
// public object URL.
type S3ImageStorage struct {
	s3cfg *config.S3Config
}

func NewS3ImageStorage(s3cfg *config.S3Config) *S3ImageStorage {
	return &S3ImageStorage{s3cfg: s3cfg}
}

func (st *S3ImageStorage) Save(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	_, err := st.s3cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.s3cfg.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", st.s3cfg.BucketName, fileName)
	log.Printf("[ImageService] uploaded image to S3: %s", url)
	return url, nil
}

// ImageService decodes base64 data-URI uploads and hands the bytes to the
// configured storage backend under a generated unique filename.
type ImageService struct {
	storage ImageStorage
}

func NewImageService(storage ImageStorage) *ImageService {
	return &ImageService{storage: storage}
}

// IsDataURI reports whether the payload is an inline base64 image rather
// than an already-stored location.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image")
}

// DecodeDataURI decodes a "data:image/...;base64,..." payload and sniffs
// the file extension from the decoded bytes.
func DecodeDataURI(dataURI string) ([]byte, string, error) {
	if !IsDataURI(dataURI) {
		return nil, "", fmt.Errorf("not an image data URI")
	}
	_, b64, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return nil, "", fmt.Errorf("missing base64 marker")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, sniffExtension(data), nil
}

// StoreDataURI decodes and stores an inline upload. The field name keys the
// validation error; dir groups stored files ("recipes", "avatars").
func (s *ImageService) StoreDataURI(ctx context.Context, field, dir, dataURI string) (string, error) {
	data, ext, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", newValidationError(field, "invalid image payload: %v", err)
	}

	fileName := path.Join(dir, uuid.New().String()+"."+ext)
	return s.storage.Save(ctx, data, fileName, mime(ext))
}

func sniffExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

func mime(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
