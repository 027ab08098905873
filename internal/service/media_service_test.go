package service

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func openUpload(t *testing.T, content []byte) (*os.File, *multipart.FileHeader) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "upload")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f, &multipart.FileHeader{Filename: "avatar.bin", Size: int64(len(content))}
}

func newTestMedia(t *testing.T, maxBytes int64) (*MediaService, string) {
	dir := t.TempDir()
	return NewMediaService(&config.Config{UploadDir: dir, MaxUploadBytes: maxBytes}, zerolog.Nop()), dir
}

func TestSaveImage(t *testing.T) {
	s, root := newTestMedia(t, 1024)
	f, h := openUpload(t, pngHeader)

	url, err := s.SaveImage("avatars", f, h)
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/avatars/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %s", url)
	}

	stored := filepath.Join(root, "avatars", filepath.Base(url))
	got, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(got) != string(pngHeader) {
		t.Error("stored content differs from upload")
	}

	s.Remove(url)
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("Remove left the file behind: %v", err)
	}
}

func TestSaveImageRejects(t *testing.T) {
	s, _ := newTestMedia(t, 16)

	f, h := openUpload(t, pngHeader)
	if _, err := s.SaveImage("avatars", f, h); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized: got %v, want ErrFileTooLarge", err)
	}

	s, _ = newTestMedia(t, 1024)
	f, h = openUpload(t, []byte("<html><body>not an image</body></html>"))
	if _, err := s.SaveImage("avatars", f, h); !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("html: got %v, want ErrUnsupportedFileType", err)
	}
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	s, root := newTestMedia(t, 1024)
	outside := filepath.Join(filepath.Dir(root), "keep.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s.Remove("/uploads/../keep.txt")
	s.Remove("https://example.com/a.png")

	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the upload dir was touched: %v", err)
	}
}
