package model

import "time"

type Product struct {
	Code        int64     `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Batch is a priced, barcoded lot of a product with its own quantity on hand.
// Quantity is fractional (kg, meters) and only ever lowered by the catalog's
// conditional decrement.
type Batch struct {
	Code             string    `db:"code" json:"code"`
	ProductCode      int64     `db:"product_code" json:"product_code"`
	Quantity         float64   `db:"quantity" json:"quantity"`
	SellingPrice     float64   `db:"selling_price" json:"selling_price"`
	BuyingPrice      float64   `db:"buying_price" json:"buying_price"`
	ShowPrice        float64   `db:"show_price" json:"show_price"`
	DiscountEligible bool      `db:"discount_eligible" json:"discount_eligible"`
	BarcodeImage     []byte    `db:"barcode_image" json:"-"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
	Description      string    `db:"description" json:"description"` // joined from products
}
