// Package receipts renders an order receipt PDF with a signed QR payload
// so suppliers can verify an order at the doorstep without a network call.
package receipts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"agrolink/apperr"
	"agrolink/db"
	"agrolink/models"
	"agrolink/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func receiptSecret() []byte {
	if s := os.Getenv("RECEIPT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev-receipt-secret")
}

// QRPayload is orderID|orderNumber|timestamp|signature. Verification
// recomputes the HMAC over everything before the last separator.
func QRPayload(orderID, orderNumber string, issuedAt time.Time) string {
	data := fmt.Sprintf("%s|%s|%d", orderID, orderNumber, issuedAt.Unix())
	h := hmac.New(sha256.New, receiptSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return data + "|" + sig
}

func VerifyQRPayload(payload string) bool {
	idx := -1
	for i := len(payload) - 1; i >= 0; i-- {
		if payload[i] == '|' {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return false
	}
	data, sig := payload[:idx], payload[idx+1:]

	h := hmac.New(sha256.New, receiptSecret())
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}

// GetReceipt streams the order receipt as a PDF. Buyer, any farmer with a
// line item, and the assigned supplier may download it.
func GetReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("orderid")
	callerID := utils.GetUserIDFromRequest(r)
	ctx := r.Context()

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Respond(w, apperr.Resource("order not found"))
			return
		}
		apperr.Respond(w, err)
		return
	}

	allowed := order.BuyerID == callerID
	if !allowed {
		n, err := db.OrderItemsCollection.CountDocuments(ctx, bson.M{"orderid": orderID, "farmerid": callerID})
		if err != nil {
			apperr.Respond(w, err)
			return
		}
		allowed = n > 0
	}
	if !allowed {
		n, err := db.DeliveriesCollection.CountDocuments(ctx, bson.M{"orderid": orderID, "supplierid": callerID})
		if err != nil {
			apperr.Respond(w, err)
			return
		}
		allowed = n > 0
	}
	if !allowed {
		apperr.Respond(w, apperr.Permission("you are not a participant in this order"))
		return
	}

	cursor, err := db.OrderItemsCollection.Find(ctx, bson.M{"orderid": orderID},
		options.Find().SetSort(bson.M{"itemid": 1}))
	if err != nil {
		apperr.Respond(w, err)
		return
	}
	defer cursor.Close(ctx)

	var items []models.OrderItem
	if err := cursor.All(ctx, &items); err != nil {
		apperr.Respond(w, err)
		return
	}

	pdfBytes, err := renderReceipt(order, items)
	if err != nil {
		apperr.Respond(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.OrderNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

func renderReceipt(order models.Order, items []models.OrderItem) ([]byte, error) {
	qrPNG, err := qrcode.Encode(QRPayload(order.OrderID, order.OrderNumber, time.Now()), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Order: %s", order.OrderNumber))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Placed: %s", order.CreatedAt.Format("2 Jan 2006 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deliver to: %s, %s, %s",
		order.Shipping.FullName, order.Shipping.Address, order.Shipping.City))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 8, "Item", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range items {
		pdf.CellFormat(70, 8, item.ProductName, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.Subtotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, item.Status, "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f (%s, payment %s)",
		order.TotalAmount, order.PaymentMethod, order.PaymentStatus))

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 155, 15, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
