package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/upload"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/routes"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/metrics"
	"github.com/your-org/storefront-api/internal/pkg/pdf"
	"github.com/your-org/storefront-api/internal/pkg/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func (m *memSessions) Create(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.tokens[token] = true
	return token, nil
}

func (m *memSessions) Touch(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type stubChecker struct{ err error }

func (s stubChecker) Health(context.Context) error { return s.err }

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	handler  http.Handler
	jwt      *auth.JWTManager
	sessions *memSessions
}

func newTestEnv(t *testing.T, checks map[string]HealthChecker) *testEnv {
	t.Helper()

	cfg := &config.Config{
		App:    config.AppConfig{Name: "Storefront API", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4, CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Session:  config.SessionConfig{CookieName: "session_id", TTL: time.Hour},
		Invoice:  config.InvoiceConfig{CompanyName: "Lamp & Co", Currency: "RUB"},
		Upload: config.UploadConfig{
			LocalPath:         t.TempDir(),
			MaxBytes:          1 << 20,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "gif"},
		},
	}

	db := testutil.NewTestDB(t)
	log := logger.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	productRepo := product.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	cartService := cart.NewService(db, cartRepo, productRepo, log, m)
	orderService := order.NewService(db, order.NewRepository(db), cartRepo, productRepo, order.NopPublisher{}, log, m)
	sessions := &memSessions{tokens: map[string]bool{}}
	jwt := auth.NewJWTManager(cfg)
	images := upload.NewStorage(cfg.Upload)
	productService := product.NewService(db, log).WithImageStore(images)
	categoryService := product.NewCategoryService(db).WithImageStore(images)

	server := NewServer(cfg, log, Options{
		Routes: routes.Dependencies{
			Config:   cfg,
			JWT:      jwt,
			Sessions: sessions,
			Logger:   log,
			Handlers: routes.Handlers{
				Auth:     handlers.NewAuthHandler(user.NewService(db, cfg, log), cartService, sessions, cfg.Session, log),
				Product:  handlers.NewProductHandler(productService, log),
				Category: handlers.NewCategoryHandler(categoryService, log),
				Cart:     handlers.NewCartHandler(cartService, log),
				Order:    handlers.NewOrderHandler(orderService, log),
				Invoice:  handlers.NewInvoiceHandler(orderService, pdf.NewService(cfg.Invoice), log),
				Upload:   handlers.NewUploadHandler(upload.NewService(db, images, log), productService, categoryService, log),
			},
		},
		Metrics:  m,
		Gatherer: registry,
		Checks:   checks,
	})

	return &testEnv{t: t, db: db, handler: server.Handler(), jwt: jwt, sessions: sessions}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(cookie *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(cookie) }
}

func (e *testEnv) do(method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// upload sends a multipart form with the file under "image"
func (e *testEnv) upload(method, path, filename string, content []byte, fields map[string]string, opts ...requestOption) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, form.WriteField(k, v))
	}
	part, err := form.CreateFormFile("image", filename)
	require.NoError(e.t, err)
	_, err = part.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, form.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func (e *testEnv) staffToken() string {
	e.t.Helper()
	staff := testutil.CreateUser(e.t, e.db, "staff@example.com", true)
	token, err := e.jwt.GenerateAccessToken(staff.ID, staff.Email, true)
	require.NoError(e.t, err)
	return token
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, w).Data, v))
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func uintPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

var contact = gin.H{"full_name": "Ivan Petrov", "phone": "8 (999) 123-45-67", "email": "ivan@example.com"}

func TestGuestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "100.00", 5, testutil.WithDiscount(10))

	w := env.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	w = env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 3}, withCookie(cookie))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item cart.ItemResponse
	decodeData(t, w, &item)
	assert.Equal(t, "90.00", item.Price)
	assert.Equal(t, "270.00", item.TotalPrice)

	w = env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 0}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_quantity", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 3}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_stock", body.Error)
	assert.JSONEq(t, `{"available": 5, "requested": 6}`, string(body.Details))

	w = env.do(http.MethodPost, "/api/v1/orders", contact, withCookie(cookie))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created order.CreatedResponse
	decodeData(t, w, &created)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, created.OrderNumber)

	assert.Equal(t, 2, testutil.ReloadProduct(t, env.db, lamp.ID).Stock)

	w = env.do(http.MethodGet, "/api/v1/cart", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, w.Code)
	var emptied cart.Response
	decodeData(t, w, &emptied)
	assert.Empty(t, emptied.Items)
	assert.Equal(t, "0.00", emptied.TotalPrice)

	w = env.do(http.MethodPost, "/api/v1/orders", contact, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_cart", decode(t, w).Error)
}

func TestCartItemRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "10.00", 5)

	w := env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)
	var item cart.ItemResponse
	decodeData(t, w, &item)

	w = env.do(http.MethodPatch, "/api/v1/cart/items/"+item.ID.String(), gin.H{"quantity": 4}, withCookie(cookie))
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &item)
	assert.Equal(t, 4, item.Quantity)

	w = env.do(http.MethodGet, "/api/v1/cart/items", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, w.Code)
	var items []cart.ItemResponse
	decodeData(t, w, &items)
	assert.Len(t, items, 1)

	// Another session cannot touch the line
	w = env.do(http.MethodPatch, "/api/v1/cart/items/"+item.ID.String(), gin.H{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodDelete, "/api/v1/cart/items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A product that does not exist makes the request itself invalid
	w = env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": 424242, "quantity": 1}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Error)

	w = env.do(http.MethodDelete, "/api/v1/cart/items/not-a-uuid", nil, withCookie(cookie))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/cart/items/"+item.ID.String(), nil, withCookie(cookie))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCheckoutWithoutCart(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/v1/orders", contact)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Error)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &order.Order{}))
}

func TestRegisterMergesGuestCart(t *testing.T) {
	env := newTestEnv(t, nil)
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "10.00", 5)

	w := env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	w = env.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":            "customer@example.com",
		"password":         "Customer#Pass24",
		"confirm_password": "Customer#Pass24",
	}, withCookie(cookie))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cleared := sessionCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.False(t, env.sessions.tokens[cookie.Value])

	var tokens user.AuthResponse
	decodeData(t, w, &tokens)
	require.NotEmpty(t, tokens.AccessToken)

	w = env.do(http.MethodGet, "/api/v1/cart", nil, withToken(tokens.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)
	var merged cart.Response
	decodeData(t, w, &merged)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, 2, merged.Items[0].Quantity)

	w = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "customer@example.com", "password": "wrong#Pass24"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "customer@example.com", "password": "Customer#Pass24"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, withToken(tokens.AccessToken))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserOrderLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "10.00", 5)
	customer := testutil.CreateUser(t, env.db, "customer@example.com", false)
	token, err := env.jwt.GenerateAccessToken(customer.ID, customer.Email, false)
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 2}, withToken(token))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Result().Cookies(), "authenticated carts need no session")

	w = env.do(http.MethodPost, "/api/v1/orders", contact, withToken(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created order.CreatedResponse
	decodeData(t, w, &created)
	orderPath := "/api/v1/orders/" + created.ID.String()

	w = env.do(http.MethodGet, "/api/v1/orders", nil, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)
	var list order.ListResponse
	decodeData(t, w, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "+79991234567", list.Orders[0].Phone)
	assert.Equal(t, "20.00", list.Orders[0].TotalPrice)

	w = env.do(http.MethodGet, orderPath, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stranger, err := env.jwt.GenerateAccessToken(customer.ID+100, "x@example.com", false)
	require.NoError(t, err)
	w = env.do(http.MethodGet, orderPath, nil, withToken(stranger))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil, withToken(token))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPatch, orderPath, gin.H{"full_name": "Ivan I. Petrov"}, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)
	var edited order.Response
	decodeData(t, w, &edited)
	assert.Equal(t, "Ivan I. Petrov", edited.FullName)

	w = env.do(http.MethodGet, orderPath+"/invoice?format=html", nil, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), created.OrderNumber)

	w = env.do(http.MethodPost, orderPath+"/cancel", gin.H{"reason": "changed my mind"}, withToken(token))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 3, testutil.ReloadProduct(t, env.db, lamp.ID).Stock)

	staff := env.staffToken()
	w = env.do(http.MethodPost, orderPath+"/cancel", gin.H{"reason": "customer called"}, withToken(staff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled order.Response
	decodeData(t, w, &cancelled)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "customer called")
	assert.Equal(t, 5, testutil.ReloadProduct(t, env.db, lamp.ID).Stock)

	w = env.do(http.MethodPost, orderPath+"/cancel", nil, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_cancelled", decode(t, w).Error)

	w = env.do(http.MethodPatch, orderPath, gin.H{"full_name": "Late Edit"}, withToken(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_editable", decode(t, w).Error)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "10.00", 5)
	staff := env.staffToken()

	customer, err := env.jwt.GenerateAccessToken(999, "c@example.com", false)
	require.NoError(t, err)
	w := env.do(http.MethodGet, "/api/v1/admin/orders", nil, withToken(customer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": lamp.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/api/v1/orders", contact, withCookie(sessionCookie(t, w)))
	require.Equal(t, http.StatusCreated, w.Code)
	var created order.CreatedResponse
	decodeData(t, w, &created)

	w = env.do(http.MethodGet, "/api/v1/admin/orders?status=new", nil, withToken(staff))
	require.Equal(t, http.StatusOK, w.Code)
	var list order.ListResponse
	decodeData(t, w, &list)
	assert.Len(t, list.Orders, 1)

	w = env.do(http.MethodGet, "/api/v1/admin/orders?status=bogus", nil, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	statusPath := "/api/v1/admin/orders/" + created.ID.String() + "/status"
	w = env.do(http.MethodPut, statusPath, gin.H{"status": "processing", "comment": "packing"}, withToken(staff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated order.Response
	decodeData(t, w, &updated)
	assert.Equal(t, order.StatusProcessing, updated.Status)
	assert.NotNil(t, updated.ProcessedAt)

	w = env.do(http.MethodPut, statusPath, gin.H{"status": "new"}, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/admin/products/"+uintPath(lamp.ID), nil, withToken(staff))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.staffToken()

	w := env.do(http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Lighting"}, withToken(staff))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category product.CategoryResponse
	decodeData(t, w, &category)

	w = env.do(http.MethodPost, "/api/v1/admin/products", gin.H{
		"sku":         "LMP-9",
		"name":        "Desk Lamp",
		"price":       "100.00",
		"discount":    10,
		"stock":       3,
		"category_id": category.ID,
	}, withToken(staff))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created product.ProductResponse
	decodeData(t, w, &created)

	w = env.do(http.MethodGet, "/api/v1/products/"+created.Slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched product.ProductResponse
	decodeData(t, w, &fetched)
	assert.Equal(t, "LMP-9", fetched.SKU)

	w = env.do(http.MethodGet, "/api/v1/products?category="+category.Slug, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/categories/"+category.Slug, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/products/no-such-lamp", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w).Error)

	w = env.do(http.MethodPost, "/api/v1/admin/products", gin.H{"sku": "X"}, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decode(t, w).Error)
}

func TestCatalogImageRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.staffToken()
	lamp := testutil.CreateProduct(t, env.db, "LMP-1", "10.00", 5)
	category := testutil.CreateCategory(t, env.db, "Lighting")
	productPath := "/api/v1/admin/products/" + uintPath(lamp.ID)

	w := env.do(http.MethodGet, "/api/v1/products/"+lamp.Slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched product.ProductResponse
	decodeData(t, w, &fetched)
	assert.Equal(t, "/media/catalog/default.png", fetched.MainImage)
	assert.Empty(t, fetched.ExtraImages)

	w = env.upload(http.MethodPut, productPath+"/image", "lamp.png", pngBytes(t), nil, withToken(staff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &fetched)
	assert.True(t, strings.HasPrefix(fetched.MainImage, "/media/catalog/products/"), fetched.MainImage)

	w = env.do(http.MethodGet, fetched.MainImage, nil)
	assert.Equal(t, http.StatusOK, w.Code, "uploaded files are served under /media")

	var added product.ImageResponse
	for _, tc := range []struct {
		ordering string
		want     int
	}{{"", 1}, {"5", 5}, {"", 6}} {
		w = env.upload(http.MethodPost, productPath+"/images", "extra.png", pngBytes(t), map[string]string{"ordering": tc.ordering}, withToken(staff))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		decodeData(t, w, &added)
		assert.Equal(t, tc.want, added.Ordering)
	}

	w = env.upload(http.MethodPost, productPath+"/images", "extra.png", pngBytes(t), map[string]string{"ordering": "first"}, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(http.MethodPost, productPath+"/images", "notes.png", []byte("not an image"), nil, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decode(t, w).Error)

	w = env.do(http.MethodPost, productPath+"/images", gin.H{"image": "x"}, withToken(staff))
	assert.Equal(t, http.StatusBadRequest, w.Code, "a file part is required")

	w = env.do(http.MethodGet, "/api/v1/products/"+lamp.Slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &fetched)
	require.Len(t, fetched.ExtraImages, 3)
	assert.Equal(t, 1, fetched.ExtraImages[0].Ordering)
	assert.Equal(t, 6, fetched.ExtraImages[2].Ordering)

	imagePath := productPath + "/images/" + uintPath(added.ID)
	w = env.do(http.MethodDelete, imagePath, nil, withToken(staff))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodDelete, imagePath, nil, withToken(staff))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.upload(http.MethodPut, "/api/v1/admin/categories/"+uintPath(category.ID)+"/image", "cat.png", pngBytes(t), nil, withToken(staff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var categoryResp product.CategoryResponse
	decodeData(t, w, &categoryResp)
	require.NotNil(t, categoryResp.Image)
	assert.True(t, strings.HasPrefix(*categoryResp.Image, "/media/catalog/categories/"))

	customer, err := env.jwt.GenerateAccessToken(999, "c@example.com", false)
	require.NoError(t, err)
	w = env.upload(http.MethodPut, productPath+"/image", "lamp.png", pngBytes(t), nil, withToken(customer))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthReadinessAndMetrics(t *testing.T) {
	env := newTestEnv(t, map[string]HealthChecker{
		"database": stubChecker{},
		"redis":    stubChecker{err: errors.New("connection refused")},
	})

	w := env.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "unavailable"}, health.Checks)

	w = env.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}
