package domain

// MenuCategory groups menu items on the customer-facing menu.
type MenuCategory string

const (
	CategoryAppetizer MenuCategory = "appetizer"
	CategoryMain      MenuCategory = "main"
	CategoryDessert   MenuCategory = "dessert"
	CategoryDrinks    MenuCategory = "drinks"
)

// Valid reports whether the category is one of the known values.
func (c MenuCategory) Valid() bool {
	switch c {
	case CategoryAppetizer, CategoryMain, CategoryDessert, CategoryDrinks:
		return true
	}
	return false
}

// MenuItem is a purchasable dish. Price is stored in cents to avoid
// floating-point money arithmetic; the valid range is 0..99999999 (0.00 to
// 999999.99).
type MenuItem struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Category    MenuCategory
	Tags        string
	IsAvailable bool
}

const (
	MenuItemNameMinLen = 2
	MenuItemNameMaxLen = 100
	MenuItemTagsMaxLen = 200
	MenuItemMaxPrice   = 99999999
)
