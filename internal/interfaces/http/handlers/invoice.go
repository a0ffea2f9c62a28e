// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/pkg/pdf"
)

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
	logger       *logrus.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, pdfService *pdf.Service, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		pdfService:   pdfService,
		logger:       logger,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice.
// ?format=html returns the rendered document without the PDF step. When
// wkhtmltopdf is unavailable the HTML rendition is served instead.
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), actorFromContext(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if c.Query("format") != "html" {
		pdfBuffer, err := h.pdfService.GenerateInvoice(o)
		if err == nil {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderNumber))
			c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
			c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
			return
		}
		h.logger.WithError(err).WithField("order_number", o.OrderNumber).Warn("PDF generation failed, serving HTML invoice")
	}

	html, err := h.pdfService.RenderHTML(o)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), actorFromContext(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice data retrieved successfully",
		"data":    h.pdfService.NewInvoiceData(o),
	})
}
