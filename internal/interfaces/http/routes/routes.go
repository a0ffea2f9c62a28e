// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth     *handlers.AuthHandler
	Product  *handlers.ProductHandler
	Category *handlers.CategoryHandler
	Cart     *handlers.CartHandler
	Order    *handlers.OrderHandler
	Invoice  *handlers.InvoiceHandler
	Upload   *handlers.UploadHandler
}

// Dependencies carries what the route groups need besides handlers
type Dependencies struct {
	Config   *config.Config
	JWT      *auth.JWTManager
	Sessions middleware.SessionStore
	Logger   *logrus.Logger
	Handlers Handlers
}

// SetupRoutes mounts every API route group on rg
func SetupRoutes(rg *gin.RouterGroup, d Dependencies) {
	SetupAuthRoutes(rg, d)
	SetupCatalogRoutes(rg, d)
	SetupCartRoutes(rg, d)
	SetupOrderRoutes(rg, d)
	SetupAdminRoutes(rg, d)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, d Dependencies) {
	h := d.Handlers.Auth

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.GET("/me", middleware.AuthMiddleware(d.JWT), h.GetCurrentUser)
	}
}

// SetupCatalogRoutes sets up the public product and category routes
func SetupCatalogRoutes(rg *gin.RouterGroup, d Dependencies) {
	products := rg.Group("/products")
	{
		products.GET("", d.Handlers.Product.GetProducts)
		products.GET("/:slug", d.Handlers.Product.GetProductBySlug)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", d.Handlers.Category.GetCategories)
		categories.GET("/:slug", d.Handlers.Category.GetCategoryBySlug)
	}
}

// SetupCartRoutes sets up cart routes. They work for guest sessions and
// authenticated users alike.
func SetupCartRoutes(rg *gin.RouterGroup, d Dependencies) {
	h := d.Handlers.Cart

	cartGroup := rg.Group("/cart")
	cartGroup.Use(
		middleware.OptionalAuthMiddleware(d.JWT),
		middleware.CartOwner(d.Sessions, d.Config.Session, d.Logger),
	)
	{
		cartGroup.GET("", h.GetCart)
		cartGroup.GET("/items", h.ListItems)
		cartGroup.POST("/items", h.AddItem)
		cartGroup.PATCH("/items/:id", h.UpdateItem)
		cartGroup.DELETE("/items/:id", h.RemoveItem)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, d Dependencies) {
	h := d.Handlers.Order

	// Checkout is open to guests
	rg.POST("/orders",
		middleware.OptionalAuthMiddleware(d.JWT),
		middleware.CartOwner(d.Sessions, d.Config.Session, d.Logger),
		h.CreateOrder,
	)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(d.JWT))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PATCH("/:id", h.EditOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.GET("/:id/invoice", d.Handlers.Invoice.GenerateInvoice)
		orders.GET("/:id/invoice/data", d.Handlers.Invoice.GetInvoiceData)
	}
}

// SetupAdminRoutes sets up staff-only routes
func SetupAdminRoutes(rg *gin.RouterGroup, d Dependencies) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.JWT))
	admin.Use(middleware.StaffMiddleware())
	{
		products := admin.Group("/products")
		{
			products.POST("", d.Handlers.Product.CreateProduct)
			products.PUT("/:id", d.Handlers.Product.UpdateProduct)
			products.DELETE("/:id", d.Handlers.Product.DeleteProduct)
			products.PUT("/:id/image", d.Handlers.Upload.SetProductImage)
			products.POST("/:id/images", d.Handlers.Upload.AddProductImage)
			products.DELETE("/:id/images/:imageId", d.Handlers.Upload.DeleteProductImage)
		}

		categories := admin.Group("/categories")
		{
			categories.POST("", d.Handlers.Category.CreateCategory)
			categories.PUT("/:id", d.Handlers.Category.UpdateCategory)
			categories.DELETE("/:id", d.Handlers.Category.DeleteCategory)
			categories.PUT("/:id/image", d.Handlers.Upload.SetCategoryImage)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", d.Handlers.Order.ListAllOrders)
			orders.GET("/:id", d.Handlers.Order.GetOrder)
			orders.PUT("/:id/status", d.Handlers.Order.UpdateOrderStatus)
			orders.POST("/:id/cancel", d.Handlers.Order.CancelOrder)
		}
	}
}
