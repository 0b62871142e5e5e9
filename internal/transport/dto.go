package transport

import "github.com/Skotchmaster/storefront/internal/models"

// UpsertCartRequest carries a quantity delta. Quantity is a pointer so a
// missing field is told apart from zero.
type UpsertCartRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  *int64 `json:"quantity"`
}

type CartLineResponse struct {
	CartLine *models.CartLine `json:"cartLine"`
}

type CartItemsResponse struct {
	CartItems []models.CartItemView `json:"cartItems"`
}

type ProductsResponse struct {
	Products []models.Product `json:"products"`
}

type SearchResponse struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}

type DiscountsResponse struct {
	Discounts []models.Discount `json:"discounts"`
}

type NewsletterSignupRequest struct {
	Email string `json:"email" form:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
