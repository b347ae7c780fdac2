package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/messaging"
	"verdure_back_end/internal/models"
)

type MessagingHandler struct {
	svc *messaging.Service
}

func NewMessagingHandler(svc *messaging.Service) *MessagingHandler {
	return &MessagingHandler{svc: svc}
}

// ---------- Contact ----------

// ✉️ POST /api/contact
func (h *MessagingHandler) SubmitContact(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SubmitContact(c.Request.Context(), &contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message envoyé", "id": contact.ID})
}

func (h *MessagingHandler) ListContacts(c *gin.Context) {
	list, err := h.svc.ListContacts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessagingHandler) MarkContactRead(c *gin.Context) {
	if err := h.svc.MarkContactRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marqué comme lu"})
}

// ---------- Newsletter ----------

// POST /api/newsletter : 201 à la première inscription, 200 ensuite.
func (h *MessagingHandler) Subscribe(c *gin.Context) {
	var req models.NewsletterSubscriber
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.svc.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Déjà inscrit"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Inscription confirmée"})
}

// ---------- Chat ----------

// 💬 GET /api/chat/messages?session_id=...&since=RFC3339
func (h *MessagingHandler) ListMessages(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id requis"})
		return
	}
	h.listMessages(c, sessionID)
}

// GET /api/admin/chat/messages : session_id optionnel, toutes les sessions sinon.
func (h *MessagingHandler) ListAllMessages(c *gin.Context) {
	h.listMessages(c, c.Query("session_id"))
}

func (h *MessagingHandler) listMessages(c *gin.Context, sessionID string) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since invalide (RFC3339 attendu)"})
			return
		}
		since = t
	}

	list, err := h.svc.ListMessages(c.Request.Context(), sessionID, since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/chat/messages : l'expéditeur est toujours le visiteur.
func (h *MessagingHandler) PostMessage(c *gin.Context) {
	h.postAs(c, messaging.SenderVisitor)
}

// POST /api/admin/chat/messages
func (h *MessagingHandler) PostAdminMessage(c *gin.Context) {
	h.postAs(c, messaging.SenderAdmin)
}

func (h *MessagingHandler) postAs(c *gin.Context, sender string) {
	var msg models.ChatMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		badRequest(c, err)
		return
	}
	msg.Sender = sender
	if err := h.svc.PostMessage(c.Request.Context(), &msg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ---------- Avis ----------

// GET /api/reviews?product_id=... : avis approuvés uniquement.
func (h *MessagingHandler) ListReviews(c *gin.Context) {
	list, err := h.svc.ListReviews(c.Request.Context(), c.Query("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessagingHandler) SubmitReview(c *gin.Context) {
	var r models.Review
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SubmitReview(c.Request.Context(), &r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Avis reçu, en attente de modération", "id": r.ID})
}

func (h *MessagingHandler) ListAllReviews(c *gin.Context) {
	list, err := h.svc.ListAllReviews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessagingHandler) ApproveReview(c *gin.Context) {
	if err := h.svc.ApproveReview(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis approuvé"})
}

func (h *MessagingHandler) DeleteReview(c *gin.Context) {
	if err := h.svc.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis supprimé"})
}

// ---------- Témoignages ----------

func (h *MessagingHandler) ListTestimonials(c *gin.Context) {
	list, err := h.svc.ListTestimonials(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessagingHandler) SubmitTestimonial(c *gin.Context) {
	var t models.Testimonial
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SubmitTestimonial(c.Request.Context(), &t); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Témoignage reçu, en attente de modération", "id": t.ID})
}

func (h *MessagingHandler) ListAllTestimonials(c *gin.Context) {
	list, err := h.svc.ListAllTestimonials(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/admin/testimonials : création directe, approbation libre.
func (h *MessagingHandler) CreateTestimonial(c *gin.Context) {
	var t models.Testimonial
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.CreateTestimonial(c.Request.Context(), &t); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *MessagingHandler) UpdateTestimonial(c *gin.Context) {
	var t models.Testimonial
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return
	}
	t.ID = c.Param("id")
	if err := h.svc.UpdateTestimonial(c.Request.Context(), &t); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *MessagingHandler) ApproveTestimonial(c *gin.Context) {
	if err := h.svc.ApproveTestimonial(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Témoignage approuvé"})
}

func (h *MessagingHandler) DeleteTestimonial(c *gin.Context) {
	if err := h.svc.DeleteTestimonial(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Témoignage supprimé"})
}

// ---------- Slides d'accueil ----------

func (h *MessagingHandler) ListHeroSlides(c *gin.Context) {
	list, err := h.svc.ListHeroSlides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MessagingHandler) ListAllHeroSlides(c *gin.Context) {
	list, err := h.svc.ListAllHeroSlides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/admin/hero-slides et PUT /api/admin/hero-slides/:id
func (h *MessagingHandler) SaveHeroSlide(c *gin.Context) {
	var s models.HeroSlide
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, err)
		return
	}
	// POST crée toujours une nouvelle slide, même si le corps porte un id.
	status := http.StatusCreated
	if id := c.Param("id"); id != "" {
		s.ID = id
		status = http.StatusOK
	} else {
		s.ID = ""
	}
	if err := h.svc.SaveHeroSlide(c.Request.Context(), &s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, s)
}

func (h *MessagingHandler) DeleteHeroSlide(c *gin.Context) {
	if err := h.svc.DeleteHeroSlide(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Slide supprimée"})
}
