package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary is the API view of an account. Credential material never
// appears here.
type AccountSummary struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	LastLogin *time.Time  `json:"last_login,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewAccountSummary converts a domain account into its API view.
func NewAccountSummary(account *domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		LastLogin: account.LastLogin,
		CreatedAt: account.CreatedAt,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LastUseSummary is the resolved "last account use" banner: the more recent
// of the previous successful login and the cached failure.
type LastUseSummary struct {
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
	IP      string    `json:"ip,omitempty"`
}

// LoginResponse describes a successful login.
type LoginResponse struct {
	Account AccountSummary  `json:"account"`
	LastUse *LastUseSummary `json:"last_use,omitempty"`
}

// ReauthRequest carries the password re-entry for the sensitive-action gate.
type ReauthRequest struct {
	Password string `json:"password" binding:"required"`
}

// RegisterRequest defines the account registration payload. The security
// question is optional at sign-up and can be set later from the profile.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PasswordChangeRequest carries a password change. The new password is
// entered twice.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ResetStartRequest begins the password recovery flow.
type ResetStartRequest struct {
	Username string `json:"username" binding:"required"`
}

// ResetAnswerRequest carries the recovery answer.
type ResetAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// ResetCompleteRequest carries the replacement password, entered twice.
type ResetCompleteRequest struct {
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// SecurityQuestionRequest updates the profile recovery question.
type SecurityQuestionRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

// RoleChangeRequest moves an account to a new role.
type RoleChangeRequest struct {
	Role string `json:"role" binding:"required"`
}

// MenuItemRequest carries the create/update form for a dish.
type MenuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category" binding:"required"`
	Tags        string `json:"tags"`
	IsAvailable bool   `json:"is_available"`
}

// MenuItemResponse is the API view of a dish.
type MenuItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
	Tags        string `json:"tags,omitempty"`
	IsAvailable bool   `json:"is_available"`
}

// NewMenuItemResponse converts a domain menu item into its API view.
func NewMenuItemResponse(item *domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		PriceCents:  item.PriceCents,
		Category:    string(item.Category),
		Tags:        item.Tags,
		IsAvailable: item.IsAvailable,
	}
}

// OrderLineRequest is one requested dish with quantity.
type OrderLineRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Notes      string `json:"notes"`
}

// OrderCreateRequest places a new order.
type OrderCreateRequest struct {
	TableNumber string             `json:"table_number"`
	Items       []OrderLineRequest `json:"items" binding:"required"`
}

// OrderStatusRequest moves an order along its lifecycle.
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderItemResponse is one line of an order.
type OrderItemResponse struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// OrderResponse is the API view of an order.
type OrderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customer_id"`
	Status      string              `json:"status"`
	TableNumber string              `json:"table_number,omitempty"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewOrderResponse converts a domain order into its API view.
func NewOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		})
	}

	return OrderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		TableNumber: order.TableNumber,
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}
}

// AuditEntryResponse is one row of the audit viewer.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	AccountID *string   `json:"account_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
