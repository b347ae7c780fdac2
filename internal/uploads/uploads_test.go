package uploads

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newLocalService(t *testing.T) (*Service, *Local) {
	t.Helper()
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewService(local), local
}

func TestUploadLocalPNG(t *testing.T) {
	svc, local := newLocalService(t)
	data := pngBytes(t)

	img, err := svc.Upload(context.Background(), "Photo.PNG", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.True(t, strings.HasPrefix(img.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(img.FileName, ".png"))
	assert.EqualValues(t, len(data), img.Size)

	path, err := local.Path(img.FileName)
	require.NoError(t, err)
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	svc, _ := newLocalService(t)
	_, err := svc.Upload(context.Background(), "doc.pdf", strings.NewReader("%PDF-1.4"), 8)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadRejectsDisguisedContent(t *testing.T) {
	svc, _ := newLocalService(t)
	body := "<html>pas une image</html>"
	_, err := svc.Upload(context.Background(), "image.jpg", strings.NewReader(body), int64(len(body)))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	svc, _ := newLocalService(t)

	_, err := svc.Upload(context.Background(), "big.png", strings.NewReader(""), MaxSize+1)
	assert.ErrorIs(t, err, ErrTooLarge)

	// Taille annoncée mensongère.
	big := bytes.Repeat([]byte{0}, MaxSize+10)
	_, err = svc.Upload(context.Background(), "big.png", bytes.NewReader(big), 10)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPEG"))
	assert.Equal(t, "image/webp", ContentType("a.webp"))
	assert.Equal(t, "image/gif", ContentType("a.gif"))
	assert.Equal(t, "application/octet-stream", ContentType("a.txt"))
}

func TestLocalPathRejectsTraversal(t *testing.T) {
	_, local := newLocalService(t)
	for _, name := range []string{"../secret.png", "a/b.png", "", ".env"} {
		_, err := local.Path(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestMinIOSignedURL(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	m := NewMinIO(client, "verdure-images", "")
	assert.Equal(t, "http://localhost:9000", m.publicBase)

	signed, err := m.SignedURL(context.Background(), "http://localhost:9000/verdure-images/products/a.png", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, signed, "/verdure-images/products/a.png")
	assert.Contains(t, signed, "X-Amz-Signature=")
}
