package service

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
)

const (
	smtpAuthAddress   = "smtp.gmail.com"
	smtpServerAddress = "smtp.gmail.com:587"
)

type IMailService interface {
	SendOrderConfirmation(ctx context.Context, to string, order *model.Order, user *model.User) error
	SendNewOrderNotification(ctx context.Context, to string, order *model.Order, user *model.User) error
	SendLowStockNotification(ctx context.Context, to string, products []model.Product, threshold int) error
	SendDailySalesReport(ctx context.Context, to string, date time.Time, data *DailySalesData) error
}

type MailService struct {
	senderName        string
	fromEmailAddress  string
	fromEmailPassword string
}

// NewMailService 初始化 mail service
// 參數:
//
//	senderName: 寄件者屬名
//	fromEmailAddress: 寄件者郵件地址
//	fromEmailPassword: 寄件者郵件密碼
func NewMailService(senderName, fromEmailAddress, fromEmailPassword string) IMailService {
	return &MailService{
		senderName:        senderName,
		fromEmailAddress:  fromEmailAddress,
		fromEmailPassword: fromEmailPassword,
	}
}

func (m *MailService) sendEmail(subject, content string, to []string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", m.senderName, m.fromEmailAddress)
	e.Subject = subject
	e.HTML = []byte(content)
	e.To = to

	smtpAuth := smtp.PlainAuth("", m.fromEmailAddress, m.fromEmailPassword, smtpAuthAddress)
	return e.Send(smtpServerAddress, smtpAuth)
}

// 訂單信的明細列
type orderLineData struct {
	ProductName string
	Quantity    int
	Price       string
	Subtotal    string
}

type orderEmailData struct {
	UserName  string
	OrderID   uint
	OrderDate string
	Lines     []orderLineData
	Total     string
}

func decimalFromInt(i int) decimal.Decimal {
	return decimal.NewFromInt(int64(i))
}

func buildOrderEmailData(order *model.Order, user *model.User) orderEmailData {
	data := orderEmailData{
		UserName:  user.UserName,
		OrderID:   order.OrderID,
		OrderDate: order.OrderDate.Format("2006-01-02 15:04"),
		Total:     order.Amount.StringFixed(2),
	}
	for _, item := range order.OrderItems {
		subtotal := item.Price.Mul(decimalFromInt(item.Quantity))
		data.Lines = append(data.Lines, orderLineData{
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Subtotal:    subtotal.StringFixed(2),
		})
	}
	return data
}

func (m *MailService) SendOrderConfirmation(ctx context.Context, to string, order *model.Order, user *model.User) error {
	html, err := renderTemplate("orderConfirmation", orderConfirmationTemplate, buildOrderEmailData(order, user))
	if err != nil {
		return err
	}
	return m.sendEmail(fmt.Sprintf("Order Confirmation #%d", order.OrderID), html, []string{to})
}

func (m *MailService) SendNewOrderNotification(ctx context.Context, to string, order *model.Order, user *model.User) error {
	html, err := renderTemplate("newOrderPlaced", newOrderPlacedTemplate, buildOrderEmailData(order, user))
	if err != nil {
		return err
	}
	return m.sendEmail(fmt.Sprintf("New Order Placed #%d", order.OrderID), html, []string{to})
}

type lowStockEmailData struct {
	Threshold int
	Products  []lowStockLineData
}

type lowStockLineData struct {
	ProductName string
	Stock       uint
}

func (m *MailService) SendLowStockNotification(ctx context.Context, to string, products []model.Product, threshold int) error {
	data := lowStockEmailData{Threshold: threshold}
	for _, p := range products {
		data.Products = append(data.Products, lowStockLineData{ProductName: p.Name, Stock: p.Stock})
	}

	html, err := renderTemplate("lowStock", lowStockTemplate, data)
	if err != nil {
		return err
	}
	return m.sendEmail("Low Stock Alert", html, []string{to})
}

type salesReportEmailData struct {
	Date          string
	Items         []salesReportLineData
	TotalRevenue  string
	TotalQuantity int
	OrderCount    int
}

type salesReportLineData struct {
	ProductName  string
	QuantitySold int
	Revenue      string
}

func (m *MailService) SendDailySalesReport(ctx context.Context, to string, date time.Time, data *DailySalesData) error {
	emailData := salesReportEmailData{
		Date:          date.Format("2006-01-02"),
		TotalRevenue:  data.TotalRevenue.StringFixed(2),
		TotalQuantity: data.TotalQuantity,
		OrderCount:    data.OrderCount,
	}
	for _, item := range data.Items {
		emailData.Items = append(emailData.Items, salesReportLineData{
			ProductName:  item.ProductName,
			QuantitySold: item.QuantitySold,
			Revenue:      item.Revenue.StringFixed(2),
		})
	}

	html, err := renderTemplate("dailySalesReport", dailySalesReportTemplate, emailData)
	if err != nil {
		return err
	}
	return m.sendEmail(fmt.Sprintf("Daily Sales Report %s", emailData.Date), html, []string{to})
}

func renderTemplate(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template failed: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template failed: %w", name, err)
	}
	return buf.String(), nil
}

const orderConfirmationTemplate = `
<!DOCTYPE html>
<html>
<body>
    <h2>Thank you for your order, {{.UserName}}!</h2>
    <p>Order #{{.OrderID}} placed at {{.OrderDate}}.</p>
    <table border="1" cellpadding="6" cellspacing="0">
        <tr><th>Product</th><th>Quantity</th><th>Price</th><th>Subtotal</th></tr>
        {{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>${{.Price}}</td><td>${{.Subtotal}}</td></tr>
        {{end}}
    </table>
    <p><strong>Total: ${{.Total}}</strong></p>
</body>
</html>
`

const newOrderPlacedTemplate = `
<!DOCTYPE html>
<html>
<body>
    <h2>New order placed</h2>
    <p>Order #{{.OrderID}} by {{.UserName}} at {{.OrderDate}}.</p>
    <table border="1" cellpadding="6" cellspacing="0">
        <tr><th>Product</th><th>Quantity</th><th>Price</th><th>Subtotal</th></tr>
        {{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>${{.Price}}</td><td>${{.Subtotal}}</td></tr>
        {{end}}
    </table>
    <p><strong>Total: ${{.Total}}</strong></p>
</body>
</html>
`

const lowStockTemplate = `
<!DOCTYPE html>
<html>
<body>
    <h2>Low stock alert</h2>
    <p>The following products are at or below the threshold of {{.Threshold}}:</p>
    <ul>
        {{range .Products}}<li>{{.ProductName}} - remaining stock: {{.Stock}}</li>
        {{end}}
    </ul>
</body>
</html>
`

const dailySalesReportTemplate = `
<!DOCTYPE html>
<html>
<body>
    <h2>Daily sales report for {{.Date}}</h2>
    <p>Orders: {{.OrderCount}}, items sold: {{.TotalQuantity}}</p>
    <table border="1" cellpadding="6" cellspacing="0">
        <tr><th>Product</th><th>Quantity Sold</th><th>Revenue</th></tr>
        {{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.QuantitySold}}</td><td>${{.Revenue}}</td></tr>
        {{end}}
    </table>
    <p><strong>Total revenue: ${{.TotalRevenue}}</strong></p>
</body>
</html>
`
