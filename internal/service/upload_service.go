package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/storage"
)

var (
	ErrStorageDisabled   = errors.New("uploads are disabled")
	ErrFileTooLarge      = errors.New("file exceeds the upload limit")
	ErrUnsupportedUpload = errors.New("only png, jpeg, webp and gif images are accepted")
	ErrEmptyUpload       = errors.New("file is empty")
)

// DefaultMaxUploadBytes 5 MiB
const DefaultMaxUploadBytes int64 = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadService image uploads into object storage
type UploadService interface {
	// MaxBytes the upload limit, also applied by the handler before reading
	MaxBytes() int64
	UploadImage(ctx context.Context, r io.Reader, size int64, actor Actor) (*dto.UploadResponse, error)
}

type uploadService struct {
	store    storage.ObjectStore // nil when storage is disabled
	maxBytes int64
	now      Clock
	logger   *zap.Logger
}

// NewUploadService store may be nil, every upload then fails with ErrStorageDisabled.
func NewUploadService(store storage.ObjectStore, maxBytes int64, now Clock, logger *zap.Logger) UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if now == nil {
		now = utcNow
	}
	return &uploadService{store: store, maxBytes: maxBytes, now: now, logger: logger}
}

func (s *uploadService) MaxBytes() int64 { return s.maxBytes }

func (s *uploadService) UploadImage(ctx context.Context, r io.Reader, size int64, actor Actor) (*dto.UploadResponse, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	// read one byte past the limit to catch lying Content-Length headers
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedUpload
	}

	key := path.Join("uploads", actor.UserID, s.now().Format("2006/01"), uuid.NewString()+ext)
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		s.logger.Error("store upload failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	s.logger.Info("image uploaded",
		zap.String("user_id", actor.UserID),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return &dto.UploadResponse{
		URL:         url,
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}
