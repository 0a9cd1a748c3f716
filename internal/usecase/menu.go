package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/google/uuid"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

var (
	// ErrMenuItemNotFound indicates the menu item does not exist.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrMenuItemInUse indicates order lines still reference the item.
	ErrMenuItemInUse = errors.New("menu item is referenced by orders")
	// ErrInvalidMenuItem indicates the item failed validation.
	ErrInvalidMenuItem = errors.New("invalid menu item")
)

// MenuService manages the dish catalog. Write access is restricted to
// managers and admins at the transport layer; validation happens here.
type MenuService struct {
	menu  port.MenuRepository
	audit *AuditRecorder
}

// NewMenuService constructs a MenuService instance.
func NewMenuService(menu port.MenuRepository, audit *AuditRecorder) *MenuService {
	return &MenuService{menu: menu, audit: audit}
}

// MenuItemInput carries the create/update form for a dish.
type MenuItemInput struct {
	Name        string
	Description string
	PriceCents  int64
	Category    string
	Tags        string
	IsAvailable bool
}

func (in MenuItemInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if len(name) < domain.MenuItemNameMinLen || len(name) > domain.MenuItemNameMaxLen {
		return fmt.Errorf("%w: name must be %d-%d characters", ErrInvalidMenuItem, domain.MenuItemNameMinLen, domain.MenuItemNameMaxLen)
	}
	if in.PriceCents < 0 || in.PriceCents > domain.MenuItemMaxPrice {
		return fmt.Errorf("%w: price out of range", ErrInvalidMenuItem)
	}
	if !domain.MenuCategory(in.Category).Valid() {
		return fmt.Errorf("%w: unknown category", ErrInvalidMenuItem)
	}
	if len(in.Tags) > domain.MenuItemTagsMaxLen {
		return fmt.Errorf("%w: tags too long", ErrInvalidMenuItem)
	}
	return nil
}

// Create adds a new dish to the catalog.
func (s *MenuService) Create(ctx context.Context, actorID string, input MenuItemInput, meta RequestMeta) (*domain.MenuItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	item := domain.MenuItem{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Category:    domain.MenuCategory(input.Category),
		Tags:        strings.TrimSpace(input.Tags),
		IsAvailable: input.IsAvailable,
	}

	if err := s.menu.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}

	s.audit.Record(ctx, actorID, "menu item created", item.Name, domain.AuditSuccess, meta.IP, meta.UserAgent)
	return &item, nil
}

// Get returns one dish.
func (s *MenuService) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	item, err := s.menu.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("lookup menu item: %w", err)
	}
	return item, nil
}

// List returns catalog entries. Customers only ever see available dishes;
// staff may list everything.
func (s *MenuService) List(ctx context.Context, filter port.MenuFilter) ([]domain.MenuItem, error) {
	items, err := s.menu.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

// Update replaces the editable fields of a dish.
func (s *MenuService) Update(ctx context.Context, actorID, id string, input MenuItemInput, meta RequestMeta) (*domain.MenuItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	item := domain.MenuItem{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Category:    domain.MenuCategory(input.Category),
		Tags:        strings.TrimSpace(input.Tags),
		IsAvailable: input.IsAvailable,
	}

	if err := s.menu.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("update menu item: %w", err)
	}

	s.audit.Record(ctx, actorID, "menu item updated", item.Name, domain.AuditSuccess, meta.IP, meta.UserAgent)
	return &item, nil
}

// Delete removes a dish unless order lines still reference it.
func (s *MenuService) Delete(ctx context.Context, actorID, id string, meta RequestMeta) error {
	if err := s.menu.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrMenuItemNotFound
		case errors.Is(err, repository.ErrConflict):
			return ErrMenuItemInUse
		}
		return fmt.Errorf("delete menu item: %w", err)
	}

	s.audit.Record(ctx, actorID, "menu item deleted", id, domain.AuditSuccess, meta.IP, meta.UserAgent)
	return nil
}
