package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService stores uploaded images on local disk under UploadDir.
type MediaService struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, log zerolog.Logger) *MediaService {
	return &MediaService{cfg: cfg, log: logger.Component(log, "media_service")}
}

// SaveImage stores an uploaded image in dir (relative to UploadDir) under a
// random name and returns its public URL path. The type is sniffed from the
// content, not taken from the client header.
func (s *MediaService) SaveImage(dir string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	destDir := filepath.Join(s.cfg.UploadDir, dir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(destDir, filename))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// Write the sniffed head back before the rest of the stream.
	written, err := io.Copy(dst, io.MultiReader(strings.NewReader(string(head[:n])), io.LimitReader(file, s.cfg.MaxUploadBytes)))
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if written > s.cfg.MaxUploadBytes {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	s.log.Debug().Str("file", filename).Int64("bytes", written).Msg("Upload stored")
	return path.Join("/uploads", dir, filename), nil
}

// Remove deletes a previously stored upload by its URL path. Unknown paths
// are ignored.
func (s *MediaService) Remove(url string) {
	rel := strings.TrimPrefix(url, "/uploads/")
	if rel == url || strings.Contains(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("file", rel).Msg("Failed to remove upload")
	}
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
