package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier renders and sends the store's transactional emails.
type Notifier interface {
	Welcome(ctx context.Context, to, name, verifyToken string) error
	PasswordReset(ctx context.Context, to, name, resetToken string) error
	OrderConfirmation(ctx context.Context, order *model.OrderDetail) error
	OrderStatusChanged(ctx context.Context, order *model.Order) error
}

type templateData struct {
	StoreName string
	Name      string
	ActionURL string
	Order     any
}

type notifier struct {
	sender    Sender
	storeName string
	baseURL   string
	templates map[string]*template.Template
}

var templateNames = []string{"welcome", "password_reset", "order_confirmation", "order_status"}

// NewNotifier parses the embedded templates. baseURL is the storefront origin
// used to build links.
func NewNotifier(sender Sender, storeName, baseURL string) (Notifier, error) {
	funcs := template.FuncMap{
		"brl":         FormatBRL,
		"statusLabel": statusLabel,
	}

	templates := make(map[string]*template.Template, len(templateNames))
	for _, name := range templateNames {
		tmpl, err := template.New(name+".html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &notifier{
		sender:    sender,
		storeName: storeName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: templates,
	}, nil
}

func (n *notifier) Welcome(ctx context.Context, to, name, verifyToken string) error {
	return n.send(ctx, to, "Confirme seu email", "welcome", templateData{
		Name:      name,
		ActionURL: n.link("/verify-email", "token", verifyToken),
	})
}

func (n *notifier) PasswordReset(ctx context.Context, to, name, resetToken string) error {
	return n.send(ctx, to, "Redefinição de senha", "password_reset", templateData{
		Name:      name,
		ActionURL: n.link("/reset-password", "token", resetToken),
	})
}

func (n *notifier) OrderConfirmation(ctx context.Context, order *model.OrderDetail) error {
	return n.send(ctx, order.CustomerEmail, "Pedido "+order.Number+" recebido", "order_confirmation", templateData{
		ActionURL: n.link("/orders/lookup", "number", order.Number),
		Order:     order,
	})
}

func (n *notifier) OrderStatusChanged(ctx context.Context, order *model.Order) error {
	subject := fmt.Sprintf("Pedido %s: %s", order.Number, statusLabel(order.Status))
	return n.send(ctx, order.CustomerEmail, subject, "order_status", templateData{
		ActionURL: n.link("/orders/lookup", "number", order.Number),
		Order:     order,
	})
}

func (n *notifier) send(ctx context.Context, to, subject, name string, data templateData) error {
	data.StoreName = n.storeName

	var buf bytes.Buffer
	if err := n.templates[name].Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", name, err)
	}

	return n.sender.Send(ctx, Message{
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
	})
}

func (n *notifier) link(path, key, value string) string {
	return n.baseURL + path + "?" + url.Values{key: {value}}.Encode()
}

// FormatBRL formats an amount as Brazilian reais, e.g. "R$ 1.234,50".
func FormatBRL(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(amount*100 + 0.5)
	whole := strconv.FormatInt(cents/100, 10)

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents%100)
}

func statusLabel(status model.OrderStatus) string {
	switch status {
	case model.OrderStatusPending:
		return "aguardando pagamento"
	case model.OrderStatusPaid:
		return "pagamento confirmado"
	case model.OrderStatusShipped:
		return "enviado"
	case model.OrderStatusDelivered:
		return "entregue"
	case model.OrderStatusCancelled:
		return "cancelado"
	}
	return string(status)
}
