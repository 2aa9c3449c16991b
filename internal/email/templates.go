package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/example/ec-checkout/internal/domain/money"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice money.Money
}

// Confirmation is everything the order confirmation shows
type Confirmation struct {
	OrderID        string
	RecipientName  string
	Items          []OrderItem
	ShippingMethod string
	Subtotal       money.Money
	ShippingCost   money.Money
	Tax            money.Money
	Discount       money.Money
	Total          money.Money
	CouponCode     string
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(c Confirmation) string {
	var itemsHTML strings.Builder
	for _, item := range c.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			FormatINR(item.UnitPrice),
			FormatINR(item.UnitPrice.Times(item.Quantity)),
		))
	}

	var summary strings.Builder
	summaryRow(&summary, "Subtotal", FormatINR(c.Subtotal))
	summaryRow(&summary, fmt.Sprintf("Shipping (%s)", html.EscapeString(c.ShippingMethod)), FormatINR(c.ShippingCost))
	summaryRow(&summary, "Tax", FormatINR(c.Tax))
	if c.Discount > 0 {
		label := "Discount"
		if c.CouponCode != "" {
			label = fmt.Sprintf("Discount (%s)", html.EscapeString(c.CouponCode))
		}
		summaryRow(&summary, label, "-"+FormatINR(c.Discount))
	}

	greeting := "Hello,"
	if c.RecipientName != "" {
		greeting = fmt.Sprintf("Hello %s,", html.EscapeString(c.RecipientName))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">%s</p>
		<p>We have received your order and will let you know when it ships.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Order details</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Amount</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<table style="width: 100%%; border-collapse: collapse;">
			%s
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">%s</span>
		</div>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. Please contact support if you have any questions.
		</p>
	</div>
</body>
</html>`, greeting, c.OrderID, itemsHTML.String(), summary.String(), FormatINR(c.Total))
}

func summaryRow(b *strings.Builder, label, amount string) {
	fmt.Fprintf(b, `<tr>
				<td style="padding: 6px 12px; color: #666;">%s</td>
				<td style="padding: 6px 12px; text-align: right;">%s</td>
			</tr>`, label, amount)
}

// FormatINR formats an amount as rupees with Indian digit grouping,
// e.g. ₹1,23,456.50
func FormatINR(m money.Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	rupees := fmt.Sprintf("%d", int64(m)/100)
	paise := int64(m) % 100

	if len(rupees) > 3 {
		head, tail := rupees[:len(rupees)-3], rupees[len(rupees)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		rupees = strings.Join(groups, ",") + "," + tail
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, rupees, paise)
}
