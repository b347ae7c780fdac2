// Package uploads valide et stocke les images envoyées par le back-office.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize est la taille maximale d'une image (5 Mo).
const MaxSize = 5 << 20

var (
	ErrTooLarge        = errors.New("fichier trop volumineux (5 Mo maximum)")
	ErrUnsupportedType = errors.New("type de fichier non supporté (JPEG, PNG, GIF, WebP)")
	ErrInvalidName     = errors.New("nom de fichier invalide")
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Image est le résultat renvoyé au client après un upload.
type Image struct {
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Storage persiste un objet et retourne son URL publique.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// Upload vérifie la taille, l'extension et le contenu réel du fichier avant de
// le stocker sous un nom unique.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader, size int64) (*Image, error) {
	if size > MaxSize {
		return nil, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	expected, ok := allowedTypes[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	// Lecture bornée : un corps plus long que annoncé est rejeté.
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("lecture fichier: %w", err)
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is(expected) {
		log.Printf("⚠️ Upload refusé: %s annoncé %s, contenu %s", filename, expected, detected.String())
		return nil, ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	url, err := s.storage.Save(ctx, name, bytes.NewReader(data), int64(len(data)), expected)
	if err != nil {
		return nil, fmt.Errorf("stockage %s: %w", name, err)
	}

	log.Printf("🖼️ Image enregistrée: %s (%d octets)", name, len(data))
	return &Image{URL: url, FileName: name, ContentType: expected, Size: int64(len(data))}, nil
}

// ContentType déduit le type MIME d'un fichier servi à partir de son extension.
func ContentType(name string) string {
	if ct, ok := allowedTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
