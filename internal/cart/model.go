package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

// MaxQuantity is the per-line-item quantity ceiling. AddItem clamps merged
// quantities to it; UpdateQuantity deliberately does not.
const MaxQuantity = 10

// Item is one line of a user's cart. A line is identified by the combination
// (user, product, size, color); adding the same combination again increments
// the existing line instead of creating a second one. Price caches
// unit price × quantity as of the last write.
type Item struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Size      string    `json:"size" db:"size"`
	Color     string    `json:"color" db:"color"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Total sums the cached line prices. It does not re-resolve products, so the
// result reflects prices as of each line's last mutation.
func Total(items []Item) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price
	}
	return total
}

// UnitCount sums quantities across lines. A quantity-3 line counts as 3 units.
func UnitCount(items []Item) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
