// Package upload сохраняет загруженные изображения профиля клиента.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize — предельный размер изображения профиля в байтах.
const MaxImageSize = 5 << 20

// ErrUnsupportedType возвращается для файлов, не являющихся JPEG или PNG.
var ErrUnsupportedType = errors.New("only jpeg and png images are allowed")

// ErrTooLarge возвращается для файлов больше MaxImageSize.
var ErrTooLarge = errors.New("image exceeds maximum allowed size")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// SaveImage сохраняет изображение из multipart-поля field в каталог dir под
// уникальным именем и возвращает относительный путь к файлу. Если поле
// отсутствует в запросе, возвращает пустую строку без ошибки.
func SaveImage(r *http.Request, field, dir string) (string, error) {
	const op = "upload.SaveImage"

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxImageSize+1)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return filepath.ToSlash(filepath.Join(filepath.Base(dir), name)), nil
}
