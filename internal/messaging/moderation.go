package messaging

import (
	"context"

	"verdure_back_end/internal/models"
)

// --- Avis produits ---

// SubmitReview place l'avis en attente de modération.
func (s *Service) SubmitReview(ctx context.Context, r *models.Review) error {
	r.IsApproved = false
	return s.moderation.AddReview(ctx, r)
}

// ListReviews retourne les avis approuvés, filtrés par produit si productID est non vide.
func (s *Service) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	all, err := s.moderation.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Review{}
	for _, r := range all {
		if r.IsApproved && (productID == "" || r.ProductID == productID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAllReviews inclut les avis en attente (file de modération).
func (s *Service) ListAllReviews(ctx context.Context) ([]models.Review, error) {
	return s.moderation.ListReviews(ctx)
}

func (s *Service) ApproveReview(ctx context.Context, id string) error {
	return s.moderation.ApproveReview(ctx, id)
}

func (s *Service) DeleteReview(ctx context.Context, id string) error {
	return s.moderation.DeleteReview(ctx, id)
}

// --- Témoignages ---

func (s *Service) SubmitTestimonial(ctx context.Context, t *models.Testimonial) error {
	t.IsApproved = false
	return s.moderation.AddTestimonial(ctx, t)
}

func (s *Service) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	all, err := s.moderation.ListTestimonials(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Testimonial{}
	for _, t := range all {
		if t.IsApproved {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) ListAllTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	return s.moderation.ListTestimonials(ctx)
}

// CreateTestimonial est la saisie admin : le statut d'approbation est celui fourni.
func (s *Service) CreateTestimonial(ctx context.Context, t *models.Testimonial) error {
	return s.moderation.AddTestimonial(ctx, t)
}

func (s *Service) UpdateTestimonial(ctx context.Context, t *models.Testimonial) error {
	return s.moderation.UpdateTestimonial(ctx, t)
}

func (s *Service) ApproveTestimonial(ctx context.Context, id string) error {
	return s.moderation.ApproveTestimonial(ctx, id)
}

func (s *Service) DeleteTestimonial(ctx context.Context, id string) error {
	return s.moderation.DeleteTestimonial(ctx, id)
}

// --- Slides d'accueil ---

// ListHeroSlides retourne les slides actives, triées par sort_order.
func (s *Service) ListHeroSlides(ctx context.Context) ([]models.HeroSlide, error) {
	all, err := s.moderation.ListHeroSlides(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.HeroSlide{}
	for _, sl := range all {
		if sl.IsActive {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (s *Service) ListAllHeroSlides(ctx context.Context) ([]models.HeroSlide, error) {
	return s.moderation.ListHeroSlides(ctx)
}

func (s *Service) SaveHeroSlide(ctx context.Context, sl *models.HeroSlide) error {
	return s.moderation.SaveHeroSlide(ctx, sl)
}

func (s *Service) DeleteHeroSlide(ctx context.Context, id string) error {
	return s.moderation.DeleteHeroSlide(ctx, id)
}
