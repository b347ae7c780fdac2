package utils

import (
	"bytes"
	"html/template"

	"verdure_back_end/internal/models"
)

var orderConfirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f4f7f2; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #2f5d3a;">Merci pour votre commande</h2>
		<p>Bonjour {{.CustomerName}},</p>
		<p>Votre commande <strong>{{.ID}}</strong> a bien été enregistrée.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #e8f0e4;">
					<th style="padding: 8px; text-align: left;">Produit</th>
					<th style="padding: 8px; text-align: left;">Quantité</th>
					<th style="padding: 8px; text-align: left;">Prix unitaire</th>
				</tr>
			</thead>
			<tbody>
			{{range .Items}}
				<tr>
					<td style="padding: 8px;">{{.ProductName}}</td>
					<td style="padding: 8px;">{{.Quantity}}</td>
					<td style="padding: 8px;">{{.UnitPrice.StringFixed 2}} €</td>
				</tr>
			{{end}}
			</tbody>
		</table>
		<p style="font-weight: bold;">Total : {{.Total.StringFixed 2}} €</p>
		<p style="margin-top: 30px; color: #555;">À bientôt,<br><strong>L'équipe Verdure</strong></p>
	</div>
</body>
</html>`))

var orderStatusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f4f7f2; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: {{.Color}};">{{.Icon}} {{.Message}}</h2>
		<p>Bonjour {{.Order.CustomerName}},</p>
		<p>Le statut de votre commande <strong>{{.Order.ID}}</strong> est maintenant : <strong>{{.Order.Status}}</strong>.</p>
		<p>Montant : {{.Order.Total.StringFixed 2}} €</p>
		<p style="margin-top: 30px; color: #555;">L'équipe Verdure</p>
	</div>
</body>
</html>`))

var contactTmpl = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Nouveau message</title></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>Nouveau message de contact</h2>
	<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;{{if .Phone}} · {{.Phone}}{{end}}</p>
	<p><strong>Sujet :</strong> {{.Subject}}</p>
	<p style="white-space: pre-wrap;">{{.Message}}</p>
</body>
</html>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OrderConfirmationEmail retourne le sujet et le corps HTML de la confirmation.
func OrderConfirmationEmail(order models.Order) (string, string, error) {
	body, err := render(orderConfirmationTmpl, order)
	return "🌿 Confirmation de votre commande - Verdure", body, err
}

// OrderStatusEmail retourne le sujet et le corps HTML d'un changement de statut.
func OrderStatusEmail(order models.Order) (string, string, error) {
	body, err := render(orderStatusTmpl, map[string]any{
		"Order":   order,
		"Message": statusMessage(order.Status),
		"Icon":    statusIcon(order.Status),
		"Color":   statusColor(order.Status),
	})
	return statusSubject(order.Status), body, err
}

// ContactNotificationEmail prévient la boutique d'un nouveau message.
func ContactNotificationEmail(c models.Contact) (string, string, error) {
	body, err := render(contactTmpl, c)
	subject := "✉️ Contact : " + c.Subject
	if c.Subject == "" {
		subject = "✉️ Nouveau message de " + c.Name
	}
	return subject, body, err
}

func statusSubject(s models.OrderStatus) string {
	switch s {
	case models.OrderPaid:
		return "✅ Paiement confirmé - Verdure"
	case models.OrderShipped:
		return "📦 Votre commande a été expédiée - Verdure"
	case models.OrderDelivered:
		return "🎉 Votre commande a été livrée - Verdure"
	case models.OrderCancelled:
		return "❌ Commande annulée - Verdure"
	default:
		return "📋 Mise à jour de votre commande - Verdure"
	}
}

func statusMessage(s models.OrderStatus) string {
	switch s {
	case models.OrderPaid:
		return "Paiement reçu"
	case models.OrderShipped:
		return "Commande expédiée"
	case models.OrderDelivered:
		return "Commande livrée"
	case models.OrderCancelled:
		return "Commande annulée"
	default:
		return "Commande en attente"
	}
}

func statusIcon(s models.OrderStatus) string {
	switch s {
	case models.OrderPaid:
		return "✅"
	case models.OrderShipped:
		return "📦"
	case models.OrderDelivered:
		return "🎉"
	case models.OrderCancelled:
		return "❌"
	default:
		return "⏳"
	}
}

func statusColor(s models.OrderStatus) string {
	if s == models.OrderCancelled {
		return "#b23b3b"
	}
	return "#2f5d3a"
}
