package utils

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// OrderTrackingURL est l'URL encodée dans le QR code d'une commande.
func OrderTrackingURL(baseURL, orderID string) string {
	return fmt.Sprintf("%s/order-confirmation/%s", strings.TrimRight(baseURL, "/"), orderID)
}

// OrderQRCode génère un PNG carré de size pixels.
func OrderQRCode(baseURL, orderID string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(OrderTrackingURL(baseURL, orderID), qrcode.Medium, size)
}
