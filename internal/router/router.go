package router

import (
	"io/fs"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/security"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Product  *handler.ProductHandler
	Catalog  *handler.CatalogHandler
	Order    *handler.OrderHandler
	Account  *handler.AccountHandler
	Content  *handler.ContentHandler
	Upload   *handler.UploadHandler
	Security *handler.SecurityHandler
}

// Options configures the cross-cutting parts of the router.
type Options struct {
	Auth *middleware.Authenticator
	// Limiter applies to every route; AuthLimiter additionally guards the
	// credential endpoints.
	Limiter     *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
	Events      security.Recorder
	// TrustedProxies may rewrite the client address through forwarded headers.
	TrustedProxies []netip.Prefix
	// UploadDir, when set, is served under UploadPath.
	UploadDir  string
	UploadPath string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	optional := wrap(opts.Auth.Optional)
	user := wrap(opts.Auth.RequireUser)
	admin := wrap(opts.Auth.RequireAdmin)
	throttled := wrap(opts.AuthLimiter.Middleware)

	// Health checks (no authentication required)
	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /ready", h.Health.Ready)

	// Public catalog
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("GET /api/products/{id}", h.Product.Get)
	mux.HandleFunc("GET /api/brands", h.Catalog.ListBrands)
	mux.HandleFunc("GET /api/categories", h.Catalog.ListCategories)
	mux.HandleFunc("GET /api/models", h.Catalog.ListModels)
	mux.HandleFunc("GET /api/home", h.Content.Home)
	mux.HandleFunc("GET /api/products/{id}/reviews", h.Content.ProductReviews)
	mux.HandleFunc("GET /api/testimonials", h.Content.Testimonials)
	mux.HandleFunc("GET /api/banners", h.Content.Banners)
	mux.HandleFunc("GET /api/settings", h.Content.Settings)

	// Checkout and orders
	mux.Handle("POST /api/checkout", optional(h.Order.Checkout))
	mux.Handle("GET /api/orders", user(h.Order.ListMine))
	mux.Handle("GET /api/orders/{id}", user(h.Order.Get))
	mux.Handle("POST /api/orders/lookup", throttled(h.Order.Lookup))
	mux.HandleFunc("GET /api/tracking/{code}", h.Order.Track)

	// Accounts
	mux.Handle("POST /api/auth/register", throttled(h.Account.Register))
	mux.Handle("POST /api/auth/login", throttled(h.Account.Login))
	mux.Handle("POST /api/auth/verify", throttled(h.Account.Verify))
	mux.Handle("POST /api/auth/forgot-password", throttled(h.Account.ForgotPassword))
	mux.Handle("POST /api/auth/reset-password", throttled(h.Account.ResetPassword))
	mux.Handle("GET /api/me", user(h.Account.Me))
	mux.Handle("PUT /api/me", user(h.Account.UpdateMe))
	mux.Handle("PUT /api/me/password", user(h.Account.ChangePassword))
	mux.Handle("GET /api/me/addresses", user(h.Account.ListAddresses))
	mux.Handle("POST /api/me/addresses", user(h.Account.CreateAddress))
	mux.Handle("PUT /api/me/addresses/{id}", user(h.Account.UpdateAddress))
	mux.Handle("DELETE /api/me/addresses/{id}", user(h.Account.DeleteAddress))
	mux.Handle("POST /api/me/addresses/{id}/default", user(h.Account.SetDefaultAddress))
	mux.Handle("POST /api/products/{id}/reviews", user(h.Content.CreateReview))

	// Back office: catalog
	mux.Handle("GET /api/admin/products", admin(h.Product.AdminList))
	mux.Handle("GET /api/admin/products/{id}", admin(h.Product.AdminGet))
	mux.Handle("POST /api/admin/products", admin(h.Product.Create))
	mux.Handle("PUT /api/admin/products/{id}", admin(h.Product.Update))
	mux.Handle("DELETE /api/admin/products/{id}", admin(h.Product.Delete))
	mux.Handle("POST /api/admin/brands", admin(h.Catalog.CreateBrand))
	mux.Handle("PUT /api/admin/brands/{id}", admin(h.Catalog.UpdateBrand))
	mux.Handle("DELETE /api/admin/brands/{id}", admin(h.Catalog.DeleteBrand))
	mux.Handle("POST /api/admin/categories", admin(h.Catalog.CreateCategory))
	mux.Handle("PUT /api/admin/categories/{id}", admin(h.Catalog.UpdateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", admin(h.Catalog.DeleteCategory))
	mux.Handle("POST /api/admin/models", admin(h.Catalog.CreateModel))
	mux.Handle("PUT /api/admin/models/{id}", admin(h.Catalog.UpdateModel))
	mux.Handle("DELETE /api/admin/models/{id}", admin(h.Catalog.DeleteModel))

	// Back office: orders and users
	mux.Handle("GET /api/admin/orders", admin(h.Order.AdminList))
	mux.Handle("GET /api/admin/orders/{id}", admin(h.Order.Get))
	mux.Handle("PATCH /api/admin/orders/{id}/status", admin(h.Order.UpdateStatus))
	mux.Handle("GET /api/admin/users", admin(h.Account.ListUsers))
	mux.Handle("PUT /api/admin/users/{id}/role", admin(h.Account.SetRole))
	mux.Handle("DELETE /api/admin/users/{id}", admin(h.Account.DeleteUser))

	// Back office: content
	mux.Handle("GET /api/admin/reviews", admin(h.Content.PendingReviews))
	mux.Handle("POST /api/admin/reviews/{id}/approve", admin(h.Content.ApproveReview))
	mux.Handle("DELETE /api/admin/reviews/{id}", admin(h.Content.DeleteReview))
	mux.Handle("GET /api/admin/testimonials", admin(h.Content.AdminTestimonials))
	mux.Handle("POST /api/admin/testimonials", admin(h.Content.CreateTestimonial))
	mux.Handle("PUT /api/admin/testimonials/{id}", admin(h.Content.UpdateTestimonial))
	mux.Handle("DELETE /api/admin/testimonials/{id}", admin(h.Content.DeleteTestimonial))
	mux.Handle("GET /api/admin/banners", admin(h.Content.AdminBanners))
	mux.Handle("POST /api/admin/banners", admin(h.Content.CreateBanner))
	mux.Handle("PUT /api/admin/banners/{id}", admin(h.Content.UpdateBanner))
	mux.Handle("DELETE /api/admin/banners/{id}", admin(h.Content.DeleteBanner))
	mux.Handle("PUT /api/admin/settings", admin(h.Content.UpdateSettings))
	mux.Handle("POST /api/admin/uploads", admin(h.Upload.Upload))
	mux.Handle("DELETE /api/admin/uploads/{key...}", admin(h.Upload.Delete))
	mux.Handle("GET /api/admin/security/events", admin(h.Security.Events))

	// An absolute UploadPath means files are served by a CDN instead.
	if opts.UploadDir != "" && strings.HasPrefix(opts.UploadPath, "/") {
		prefix := strings.TrimSuffix(opts.UploadPath, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(noListing{http.Dir(opts.UploadDir)})))
	}

	// Apply middleware in order: RealIP -> Recovery -> Logging -> CORS -> RateLimit
	return middleware.Chain(mux,
		middleware.RealIP(opts.TrustedProxies),
		middleware.Recovery(opts.Events, logger),
		middleware.Logging(logger),
		middleware.CORS,
		opts.Limiter.Middleware,
	)
}

// wrap adapts a middleware so it can guard a handler method directly.
func wrap(mw func(http.Handler) http.Handler) func(http.HandlerFunc) http.Handler {
	return func(fn http.HandlerFunc) http.Handler {
		return mw(fn)
	}
}

// noListing hides directory indexes from the upload file server.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
