// internal/domain/product/dto.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"` // category slug
	Search   string `form:"search"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	InStock  *bool  `form:"in_stock"`
	Ordering string `form:"ordering"` // price, sku, discount, stock; "-" prefix for descending
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	SKU               string          `json:"sku" binding:"required,max=50"`
	Name              string          `json:"name" binding:"required,max=200"`
	Slug              string          `json:"slug" binding:"max=255"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Discount          int             `json:"discount" binding:"min=0,max=100"`
	Stock             int             `json:"stock" binding:"min=0"`
	AvailableForOrder *bool           `json:"available_for_order"`
	CategoryID        *uint           `json:"category_id"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name              *string          `json:"name" binding:"omitempty,max=200"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	Discount          *int             `json:"discount" binding:"omitempty,min=0,max=100"`
	Stock             *int             `json:"stock" binding:"omitempty,min=0"`
	AvailableForOrder *bool            `json:"available_for_order"`
	CategoryID        *uint            `json:"category_id"`
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"max=120"`
	Description string `json:"description"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes paging info for a result set
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NormalizePage clamps page and limit to sane values
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// CategorySummary is the category as embedded in a product
type CategorySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductResponse is the public view of a product; money is rendered as fixed 2dp strings
type ProductResponse struct {
	ID                 uint               `json:"id"`
	SKU                string             `json:"sku"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	Description        string             `json:"description"`
	Price              string             `json:"price"`
	Discount           int                `json:"discount"`
	ActualPrice        string             `json:"actual_price"`
	Stock              int                `json:"stock"`
	AvailableForOrder  bool               `json:"available_for_order"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	Category           *CategorySummary   `json:"category,omitempty"`
	MainImage          string             `json:"main_image"`
	ExtraImages        []ImageResponse    `json:"extra_images,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// ImageResponse is an extra product image
type ImageResponse struct {
	ID       uint   `json:"id"`
	Image    string `json:"image"`
	Ordering int    `json:"ordering"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// CategoryResponse is the public view of a category
type CategoryResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Image        *string   `json:"image"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCategoryResponse builds the view of c; Image is null until one is uploaded
func NewCategoryResponse(c *Category, productCount int64) CategoryResponse {
	resp := CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ProductCount: productCount,
		CreatedAt:    c.CreatedAt,
	}
	if c.Image != "" {
		url := ImageURL(c.Image)
		resp.Image = &url
	}
	return resp
}

// NewProductResponse builds the view of p
func NewProductResponse(p *Product) ProductResponse {
	resp := ProductResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Price:              FormatMoney(p.Price),
		Discount:           p.Discount,
		ActualPrice:        FormatMoney(p.ActualPrice()),
		Stock:              p.Stock,
		AvailableForOrder:  p.AvailableForOrder,
		AvailabilityStatus: p.Availability(),
		MainImage:          ImageURL(p.MainImage),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	for _, img := range p.Images {
		resp.ExtraImages = append(resp.ExtraImages, ImageResponse{ID: img.ID, Image: ImageURL(img.Image), Ordering: img.Ordering})
	}
	return resp
}
