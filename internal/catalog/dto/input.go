package dto

type CreateProductInput struct {
	Description string
}

type RegisterBatchInput struct {
	Code             string // generated when empty
	ProductCode      int64
	Quantity         float64
	SellingPrice     float64
	BuyingPrice      float64
	ShowPrice        float64
	DiscountEligible bool
	BarcodeImage     []byte
	OperatorID       string
}

type DecrementStockInput struct {
	BatchCode     string
	Quantity      float64
	ReferenceType string // 'order'
	ReferenceID   string
	OperatorID    string
}
