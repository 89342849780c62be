// Package notify renders and delivers new-order notifications to the
// restaurant.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"sufikitchen/pkg/order"
)

var orderTemplate = template.Must(template.New("order").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h1 style="color: #FFB800;">New Order Received: #{{.ID}}</h1>
  <p>A new order has been placed on the Sufi's Kitchen website.</p>
  <h2 style="border-bottom: 2px solid #FFB800; padding-bottom: 5px;">Customer Details</h2>
  <p><strong>Name:</strong> {{.Customer.Name}}</p>
  <p><strong>Phone:</strong> {{.Customer.Phone}}</p>
  <p><strong>Address:</strong> {{.Customer.Address}}</p>
  <h2 style="border-bottom: 2px solid #FFB800; padding-bottom: 5px;">Order Details</h2>
  <table style="width: 100%; border-collapse: collapse;">
    <thead>
      <tr>
        <th style="padding: 8px; border-bottom: 2px solid #ddd; text-align: left;">Item</th>
        <th style="padding: 8px; border-bottom: 2px solid #ddd; text-align: right;">Price</th>
      </tr>
    </thead>
    <tbody>
{{- range .Lines}}
      <tr>
        <td style="padding: 8px; border-bottom: 1px solid #ddd;">{{.Name}} (x{{.Quantity}})</td>
        <td style="padding: 8px; border-bottom: 1px solid #ddd; text-align: right;">PKR {{.Subtotal.StringFixed 2}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>
  <h2 style="border-bottom: 2px solid #FFB800; padding-bottom: 5px;">Summary</h2>
  <p><strong>Payment Method:</strong> <span style="font-weight: bold; color: #D42A2A;">{{.PaymentMethod}}</span></p>
  <p style="font-size: 1.2em; font-weight: bold;"><strong>Total Amount:</strong> PKR {{.TotalPrice.StringFixed 2}}</p>
  <p style="margin-top: 20px; font-size: 0.9em; color: #555;">This is an automated notification. Please process the order accordingly.</p>
</div>
`))

// Subject returns the e-mail subject for o.
func Subject(o order.Order) string {
	return fmt.Sprintf("New Order Received: #%s", o.ID)
}

// RenderOrderHTML renders the owner notification body for o.
func RenderOrderHTML(o order.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("render order %s: %w", o.ID, err)
	}
	return buf.String(), nil
}

// LogNotifier writes the notification to the log instead of sending it.
// It is used when no mail credentials are configured.
type LogNotifier struct {
	Log *zap.Logger
}

// NotifyOrder implements order.Notifier.
func (n LogNotifier) NotifyOrder(_ context.Context, o order.Order) error {
	body, err := RenderOrderHTML(o)
	if err != nil {
		return err
	}
	n.Log.Warn("mail credentials not configured, order notification logged only",
		zap.String("subject", Subject(o)),
		zap.String("body", body))
	return nil
}
