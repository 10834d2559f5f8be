package domain

import "time"

// Recommendation is a scored product hint produced by the recommendation backend.
type Recommendation struct {
	ProductID int     `json:"product_id"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

const (
	InteractionView     = "view"
	InteractionCartAdd  = "cart_add"
	InteractionPurchase = "purchase"
)

// Interaction is a single user event that feeds the recommendation backend.
type Interaction struct {
	UserID          string    `json:"user_id"`
	ProductID       int       `json:"product_id"`
	InteractionType string    `json:"interaction_type"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Analytics summarizes recorded interactions.
type Analytics struct {
	TotalUsers         int64           `json:"total_users"`
	TotalInteractions  int64           `json:"total_interactions"`
	TotalViews         int64           `json:"total_views"`
	TotalCartAdds      int64           `json:"total_cart_adds"`
	TotalPurchases     int64           `json:"total_purchases"`
	PopularCategories  []CategoryCount `json:"popular_categories"`
	RecentInteractions []Interaction   `json:"recent_interactions"`
}

// ValidInteractionType reports whether kind is one of the tracked interaction types.
func ValidInteractionType(kind string) bool {
	switch kind {
	case InteractionView, InteractionCartAdd, InteractionPurchase:
		return true
	}
	return false
}
