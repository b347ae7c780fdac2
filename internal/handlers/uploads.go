package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/uploads"
)

// URLSigner est implémenté par le stockage MinIO pour les buckets privés.
type URLSigner interface {
	SignedURL(ctx context.Context, objectURL string, ttl time.Duration) (string, error)
}

type UploadHandler struct {
	svc    *uploads.Service
	local  *uploads.Local
	signer URLSigner
}

// NewUploadHandler : local est nil quand les images sont sur MinIO, signer est
// nil en stockage local.
func NewUploadHandler(svc *uploads.Service, local *uploads.Local, signer URLSigner) *UploadHandler {
	return &UploadHandler{svc: svc, local: local, signer: signer}
}

// 🖼️ POST /api/upload (multipart, champ "image")
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploads.MaxSize+1<<20)

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ 'image' manquant", "details": err.Error()})
		return
	}
	if fh.Size > uploads.MaxSize {
		respondError(c, uploads.ErrTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	img, err := h.svc.Upload(c.Request.Context(), fh.Filename, f, fh.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// GET /uploads/:file
func (h *UploadHandler) Serve(c *gin.Context) {
	if h.local == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fichier introuvable"})
		return
	}
	path, err := h.local.Path(c.Param("file"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", uploads.ContentType(path))
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}

// GET /api/upload/signed?url=...&ttl=15m
func (h *UploadHandler) SignedURL(c *gin.Context) {
	if h.signer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "URLs signées indisponibles en stockage local"})
		return
	}
	objectURL := c.Query("url")
	if objectURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url requise"})
		return
	}
	ttl, err := time.ParseDuration(c.DefaultQuery("ttl", "15m"))
	if err != nil || ttl <= 0 || ttl > 7*24*time.Hour {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttl invalide"})
		return
	}

	signed, err := h.signer.SignedURL(c.Request.Context(), objectURL, ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signed, "expires_in": int(ttl.Seconds())})
}
