package domain

import "github.com/shopspring/decimal"

// CartLine is one product of the cart with its quantity. The product is a
// snapshot taken when the line was first added.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartLines is the ordered content of a cart, one line per product id.
type CartLines []CartLine

// TotalAmount returns the sum of unit price times quantity over all lines.
func (l CartLines) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.Product.Prix.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemCount returns the total number of items in the cart.
func (l CartLines) ItemCount() int {
	var count int
	for _, line := range l {
		count += line.Quantity
	}
	return count
}

// FindIndex returns the index of the line for productID, or -1.
func (l CartLines) FindIndex(productID int64) int {
	for i := range l {
		if l[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of l.
func (l CartLines) Clone() CartLines {
	out := make(CartLines, len(l))
	for i, line := range l {
		out[i] = CartLine{Product: line.Product.Clone(), Quantity: line.Quantity}
	}
	return out
}

// OrderInput converts the cart into the POST /commandes payload.
func (l CartLines) OrderInput(modePaiement string) OrderInput {
	in := OrderInput{
		Produits:     make([]OrderItemInput, 0, len(l)),
		ModePaiement: modePaiement,
	}
	for _, line := range l {
		in.Produits = append(in.Produits, OrderItemInput{
			ProduitID: line.Product.ID,
			Quantite:  line.Quantity,
		})
	}
	return in
}
