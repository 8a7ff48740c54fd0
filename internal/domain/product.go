package domain

import (
	"time"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryElectronics  Category = "electronics"
	CategoryCameras      Category = "cameras"
	CategoryLaptops      Category = "laptops"
	CategoryAccessories  Category = "accessories"
	CategoryHeadphones   Category = "headphones"
	CategorySports       Category = "sports"
	CategoryBooks        Category = "books"
	CategoryClothesShoes Category = "clothes-shoes"
	CategoryBeautyHealth Category = "beauty-health"
	CategoryHome         Category = "home"
	CategoryFood         Category = "food"
)

// ValidCategories returns every catalog category in display order.
func ValidCategories() []Category {
	return []Category{
		CategoryElectronics,
		CategoryCameras,
		CategoryLaptops,
		CategoryAccessories,
		CategoryHeadphones,
		CategorySports,
		CategoryBooks,
		CategoryClothesShoes,
		CategoryBeautyHealth,
		CategoryHome,
		CategoryFood,
	}
}

// CategoryNames returns every catalog category as plain strings.
func CategoryNames() []string {
	categories := ValidCategories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}

// IsValidCategory checks whether the given string names a catalog category.
func IsValidCategory(c string) bool {
	for _, v := range ValidCategories() {
		if string(v) == c {
			return true
		}
	}
	return false
}

// Sort orders for product listings.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRatingAsc = "rating_asc"
	SortRating    = "rating"
)

// IsValidSort checks whether the given string names a listing sort order.
func IsValidSort(s string) bool {
	switch s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortRatingAsc, SortRating:
		return true
	}
	return false
}

// Product represents a catalog product. Price and ComparePrice are in cents;
// a zero ComparePrice means the product is not discounted.
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	Category     Category          `json:"category"`
	Price        int64             `json:"price"`
	ComparePrice int64             `json:"compare_price,omitempty"`
	Currency     string            `json:"currency"`
	Images       []string          `json:"images,omitempty"`
	Stock        int               `json:"stock"`
	Specs        map[string]string `json:"specs,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	RatingAvg    float64           `json:"rating_avg"`
	RatingCount  int               `json:"rating_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// InStock reports whether any units remain.
func (p *Product) InStock() bool { return p.Stock > 0 }

// PrimaryImage returns the first image URL, or "" when the product has none.
// Carts capture it as a denormalized display field.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CategoryCount is one row of the category listing: a category and how many
// products it holds.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
