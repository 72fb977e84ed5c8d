package model

// Cart is the shopping cart carried on the user record.
type Cart struct {
	Items []CartItem `json:"items"`
}

type CartItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}
