package uploads

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("file exceeds maximum size")
)

// banner uploads accept images only
var allowedTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Store persists uploaded banner files under a public directory and hands
// back the server-relative path recorded on the event. File names are a
// generated token plus the original extension, so two uploads with the same
// original name cannot collide.
type Store struct {
	dir     string
	maxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if maxSize <= 0 {
		maxSize = 5 << 20
	}

	err := os.MkdirAll(dir, 0o755)

	if err != nil {
		return nil, err
	}

	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save validates and writes one uploaded file, returning the relative path
// to store on the event record (e.g. "uploads/<token>.png").
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxSize {
		return "", ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	wantMIME, ok := allowedTypes[ext]

	if !ok {
		return "", ErrUnsupportedType
	}

	// browsers set the part's content type; reject mismatches when present
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != wantMIME {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()

	if err != nil {
		return "", err
	}

	defer src.Close()

	name := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, name))

	if err != nil {
		return "", err
	}

	_, err = io.Copy(dst, io.LimitReader(src, s.maxSize+1))

	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", err
	}

	return path.Join("uploads", name), nil
}

// Dir exposes the backing directory so the router can serve it statically.
func (s *Store) Dir() string {
	return s.dir
}
