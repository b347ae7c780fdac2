package cache

import "time"

const (
	KeyProductsAll   = "products:all"
	KeyCategoriesAll = "categories:all"

	// product:{id} -> JSON du produit
	KeyProduct = "product:%s"

	// idem:checkout:{Idempotency-Key} -> order_id
	KeyIdemCheckout       = "idem:checkout:%s"
	// idem:checkout:{Idempotency-Key}:result -> JSON de la réponse checkout
	KeyIdemCheckoutResult = "idem:checkout:%s:result"

	// cart:{session} -> JSON des lignes du panier
	KeyCart = "cart:%s"

	// ratelimit:{scope}:{ip}
	KeyRateLimit = "ratelimit:%s:%s"
)

var (
	TTLProducts    = time.Hour
	TTLCategories  = time.Hour
	TTLProduct     = 10 * time.Minute
	TTLIdempotency = 24 * time.Hour
	TTLCart        = 30 * 24 * time.Hour
)
