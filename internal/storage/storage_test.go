package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		base string
		ext  string
	}{
		{"spaces become underscores", "my poster.png", "my_poster", ".png"},
		{"unsafe characters stripped", "a;b$(c).mp4", "abc", ".mp4"},
		{"empty base falls back", "???.pdf", "file", ".pdf"},
		{"extension preserved", "Deck.PPTX", "Deck", ".PPTX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeFilename(tt.in)
			assert.True(t, strings.HasPrefix(got, tt.base+"_"), "got %q", got)
			assert.True(t, strings.HasSuffix(got, tt.ext), "got %q", got)
			assert.NotContains(t, got, " ")
		})
	}
}

func TestNormalizeFilenameUniqueAcrossUploads(t *testing.T) {
	a := normalizeFilename("poster.png")
	b := normalizeFilename("poster.png")
	// same second may produce the same stamp; both must stay valid names
	assert.True(t, strings.HasPrefix(a, "poster_"))
	assert.True(t, strings.HasPrefix(b, "poster_"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", contentTypeFor("a.png"))
	assert.Equal(t, "video/mp4", contentTypeFor("clip.MP4"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.presentationml.presentation", contentTypeFor("deck.pptx"))
	assert.Equal(t, "text/html", contentTypeFor("page.htm"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("blob.bin"))
}

// uploadHeader builds a real multipart.FileHeader the way gin would hand one
// to the upload endpoint.
func uploadHeader(t *testing.T, filename, body string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir, "/uploads/")

	url, err := ls.SaveFile(uploadHeader(t, "my poster.png", "pngbytes"), "my poster.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/my_poster_"), "got %q", url)

	stored := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "pngbytes", string(data))

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageDeleteIgnoresForeignURLs(t *testing.T) {
	ls := NewLocalStorage(t.TempDir(), "/uploads")

	assert.NoError(t, ls.DeleteFile("https://cdn.example.com/uploads/a.png"))
	assert.NoError(t, ls.DeleteFile("/uploads/never-stored.png"))
}
