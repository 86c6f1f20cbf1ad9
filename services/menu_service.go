package services

import (
	"context"
	"strings"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
)

type MenuService struct {
	db Database
}

func NewMenuService(db Database) *MenuService {
	return &MenuService{db: db}
}

// ListMenu returns the menu in insertion order.
func (s *MenuService) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	menu := []models.MenuItem{}
	if err := db.Order("id").Find(&menu).Error; err != nil {
		return nil, queryFailed("unable to load menu", err)
	}
	return menu, nil
}

func (s *MenuService) AddMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return nil, utils.Validation("title is required")
	}
	if item.Price.IsNegative() {
		return nil, utils.Validation("price must not be negative")
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	item.ID = 0
	item.Price = item.Price.Round(2)
	if err := db.Create(&item).Error; err != nil {
		return nil, queryFailed("unable to add menu item", err)
	}
	return &item, nil
}
