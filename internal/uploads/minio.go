package uploads

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// MinIO stocke les images dans un bucket, sous le préfixe products/.
type MinIO struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinIO : publicBase est l'URL publique du serveur (MINIO_PUBLIC_URL),
// par défaut http://<endpoint>.
func NewMinIO(client *minio.Client, bucket, publicBase string) *MinIO {
	if publicBase == "" {
		publicBase = client.EndpointURL().String()
	}
	return &MinIO{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}
}

func (m *MinIO) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := "products/" + name
	_, err := m.client.PutObject(ctx, m.bucket, objectName, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload MinIO: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", m.publicBase, m.bucket, objectName), nil
}

// SignedURL retourne une URL de lecture temporaire pour un bucket privé.
func (m *MinIO) SignedURL(ctx context.Context, objectURL string, ttl time.Duration) (string, error) {
	key := strings.TrimPrefix(objectURL, m.publicBase+"/"+m.bucket+"/")
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
