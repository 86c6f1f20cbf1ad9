package services

import (
	"context"
	"time"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrdersPerPage is the size of an order history page.
const OrdersPerPage = 10

type OrderService struct {
	db  Database
	now func() time.Time
}

func NewOrderService(db Database) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// GetOrders returns one page of the diner's orders, newest first, each with
// its items in insertion order.
func (s *OrderService) GetOrders(ctx context.Context, diner models.AuthUser, page int) (*models.OrderPage, error) {
	if page < 1 {
		page = 1
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	err = db.Where("diner_id = ?", diner.ID).
		Order("id DESC").
		Offset(utils.GetOffset(page, OrdersPerPage)).
		Limit(OrdersPerPage).
		Find(&orders).Error
	if err != nil {
		return nil, queryFailed("unable to load orders", err)
	}

	for i := range orders {
		items := []models.OrderItem{}
		if err := db.Where("order_id = ?", orders[i].ID).Order("id").Find(&items).Error; err != nil {
			return nil, queryFailed("unable to load orders", err)
		}
		orders[i].Items = items
	}

	return &models.OrderPage{DinerID: diner.ID, Orders: orders, Page: page}, nil
}

// AddDinerOrder stores the order header and its items as one unit.
func (s *OrderService) AddDinerOrder(ctx context.Context, diner models.AuthUser, in models.NewOrder) (*models.Order, error) {
	if in.FranchiseID == 0 || in.StoreID == 0 {
		return nil, utils.Validation("franchiseId and storeId are required")
	}
	if len(in.Items) == 0 {
		return nil, utils.Validation("order has no items")
	}
	for _, it := range in.Items {
		if it.MenuID == 0 || it.Price.IsNegative() {
			return nil, utils.Validation("invalid order item")
		}
	}

	order := models.Order{
		DinerID:     diner.ID,
		FranchiseID: in.FranchiseID,
		StoreID:     in.StoreID,
		Date:        s.now().UTC().Truncate(time.Second),
	}

	err := runUnit(ctx, s.db, "unable to create order", func(tx *gorm.DB) error {
		var stores int64
		err := tx.Model(&models.Store{}).
			Where("id = ? AND franchise_id = ?", in.StoreID, in.FranchiseID).
			Count(&stores).Error
		if err != nil {
			return err
		}
		if stores == 0 {
			return utils.NotFound("unknown store")
		}

		if err := tx.Omit("Items").Create(&order).Error; err != nil {
			return err
		}

		order.Items = make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			var known int64
			if err := tx.Model(&models.MenuItem{}).Where("id = ?", it.MenuID).Count(&known).Error; err != nil {
				return err
			}
			if known == 0 {
				return utils.NotFound("unknown menu item")
			}

			item := models.OrderItem{
				OrderID:     order.ID,
				MenuID:      it.MenuID,
				Description: it.Description,
				Price:       it.Price.Round(2),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"diner_id": diner.ID,
		"store_id": order.StoreID,
		"items":    len(order.Items),
	}).Info("order created")

	return &order, nil
}
