package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedFormat возвращается для файлов, не похожих на фотографии
var ErrUnsupportedFormat = errors.New("unsupported photo format")

// allowedExtensions - допустимые расширения фотографий одометра
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// PhotoStore сохраняет фотографии одометра на диске
// Имя файла генерируется заново: оригинальное имя от водителя
// не попадает в файловую систему и в публичные URL
type PhotoStore struct {
	dir string
}

// NewPhotoStore создает хранилище и каталог загрузок, если его нет
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir возвращает каталог загрузок (для отдачи статики)
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Save записывает фото и возвращает путь вида "uploads/<имя>", под которым
// файл отдается по HTTP. Физический каталог может быть любым.
func (s *PhotoStore) Save(originalFilename string, data io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedFormat
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		// Не оставляем наполовину записанный файл
		os.Remove(path)
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	return "uploads/" + filename, nil
}
