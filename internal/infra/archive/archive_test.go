package archive

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryArchivePutCopiesData(t *testing.T) {
	t.Parallel()

	archive := NewMemoryArchive()
	data := []byte("%PDF-1.4 contenu")
	key, err := archive.Put(context.Background(), "uploads/1/doc.pdf", data, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "uploads/1/doc.pdf", key)

	data[0] = 'X'
	obj, ok := archive.Get(key)
	require.True(t, ok)
	require.Equal(t, "%PDF-1.4 contenu", string(obj.Data))
	require.Equal(t, "application/pdf", obj.ContentType)
	require.Equal(t, 1, archive.Len())

	_, err = archive.Put(context.Background(), "", data, "application/pdf")
	require.Error(t, err)
}

func TestSanitizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                                     "",
		"https://acc.r2.cloudflarestorage.com": "acc.r2.cloudflarestorage.com",
		"http://localhost:9000/bucket/path":    "localhost:9000",
		"  minio:9000 ":                        "minio:9000",
	}
	for in, want := range tests {
		require.Equal(t, want, sanitizeEndpoint(in), in)
	}
}

func TestNewR2ArchiveValidatesConfig(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewR2Archive(R2Config{Endpoint: "https://acc.r2.cloudflarestorage.com"}, logger)
	require.Error(t, err)
	_, err = NewR2Archive(R2Config{Bucket: "uploads"}, logger)
	require.Error(t, err)

	archive, err := NewR2Archive(R2Config{Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "uploads", Region: "auto"}, logger)
	require.NoError(t, err)
	require.Equal(t, "uploads", archive.bucket)
}
