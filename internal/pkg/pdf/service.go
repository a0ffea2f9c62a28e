// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
)

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// Service renders order invoices
type Service struct {
	config config.InvoiceConfig
	now    func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg config.InvoiceConfig) *Service {
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	OrderNumber   string
	OrderDate     string
	Status        string
	Currency      string
	Customer      CustomerInfo
	Lines         []InvoiceLine
	Total         string
	Cancelled     bool
	Company       CompanyInfo
}

// CustomerInfo is the contact block printed under "Bill To"
type CustomerInfo struct {
	FullName string
	Phone    string
	Email    string
}

// InvoiceLine is one rendered order line; amounts are pre-formatted
type InvoiceLine struct {
	Name     string
	SKU      string
	Quantity int
	Price    string
	Total    string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// NewInvoiceData builds template data for o using the shared money rules
func (s *Service) NewInvoiceData(o *order.Order) InvoiceData {
	lines := make([]InvoiceLine, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		lines = append(lines, InvoiceLine{
			Name:     item.Name,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Price:    product.FormatMoney(item.Price),
			Total:    product.FormatMoney(item.LineTotal()),
		})
	}

	return InvoiceData{
		InvoiceNumber: "INV-" + o.OrderNumber,
		InvoiceDate:   s.now().Format("January 2, 2006"),
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("January 2, 2006"),
		Status:        string(o.Status),
		Currency:      s.config.Currency,
		Customer: CustomerInfo{
			FullName: o.FullName,
			Phone:    o.Phone,
			Email:    o.Email,
		},
		Lines:     lines,
		Total:     product.FormatMoney(o.Total()),
		Cancelled: o.Status == order.StatusCancelled,
		Company: CompanyInfo{
			Name:    s.config.CompanyName,
			Address: s.config.CompanyAddress,
			Phone:   s.config.CompanyPhone,
			Email:   s.config.CompanyEmail,
			Website: s.config.CompanyWebsite,
		},
	}
}

// RenderHTML renders the invoice page for o
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, s.NewInvoiceData(o)); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateInvoice converts the rendered invoice to PDF. Requires the wkhtmltopdf binary.
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; overflow: hidden; }
        .company-info { float: left; }
        .invoice-info { float: right; text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .total-row { font-size: 18px; font-weight: bold; text-align: right; }
        .cancelled { color: #b91c1c; font-weight: bold; text-transform: uppercase; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Phone: {{.Company.Phone}}</p>{{end}}
            {{if .Company.Email}}<p>Email: {{.Company.Email}}</p>{{end}}
            {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.OrderDate}}</p>
            <p><strong>Status:</strong> {{if .Cancelled}}<span class="cancelled">{{.Status}}</span>{{else}}{{.Status}}{{end}}</p>
        </div>
    </div>

    <div class="section-title">Bill To:</div>
    <p><strong>{{.Customer.FullName}}</strong></p>
    <p>Phone: {{.Customer.Phone}}</p>
    {{if .Customer.Email}}<p>Email: {{.Customer.Email}}</p>{{end}}

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th>SKU</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td><strong>{{.Name}}</strong></td>
                <td>{{.SKU}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.Price}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <p class="total-row">Total: {{.Total}} {{.Currency}}</p>

    <div class="footer">
        <p>Thank you for your order!</p>
        {{if .Company.Email}}<p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
