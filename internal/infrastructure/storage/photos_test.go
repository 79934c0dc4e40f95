package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPhotoStore_Save тестирует сохранение фото одометра
func TestPhotoStore_Save(t *testing.T) {
	t.Run("фото сохраняется под новым именем", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewPhotoStore(dir)
		require.NoError(t, err)

		path, err := store.Save("IMG_20250820_143000.jpg", strings.NewReader("fake-jpeg-bytes"))
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(path, "uploads/"), "path must start with uploads/: %s", path)
		assert.True(t, strings.HasSuffix(path, ".jpg"))
		assert.NotContains(t, path, "IMG_20250820_143000")

		data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(path, "uploads/")))
		require.NoError(t, err)
		assert.Equal(t, "fake-jpeg-bytes", string(data))
	})

	t.Run("расширение нормализуется к нижнему регистру", func(t *testing.T) {
		store, err := NewPhotoStore(t.TempDir())
		require.NoError(t, err)

		path, err := store.Save("FOTO.JPG", strings.NewReader("x"))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(path, ".jpg"))
	})

	t.Run("два сохранения дают разные имена", func(t *testing.T) {
		store, err := NewPhotoStore(t.TempDir())
		require.NoError(t, err)

		first, err := store.Save("a.png", strings.NewReader("1"))
		require.NoError(t, err)
		second, err := store.Save("a.png", strings.NewReader("2"))
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("не-изображение отклоняется", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewPhotoStore(dir)
		require.NoError(t, err)

		_, err = store.Save("rechnung.pdf", strings.NewReader("%PDF"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "rejected upload must not leave files")
	})

	t.Run("файл без расширения отклоняется", func(t *testing.T) {
		store, err := NewPhotoStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Save("foto", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

// TestNewPhotoStore тестирует создание каталога загрузок
func TestNewPhotoStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewPhotoStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
