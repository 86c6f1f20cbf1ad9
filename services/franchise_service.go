package services

import (
	"context"
	"strings"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultFranchisesPerPage = 10

type FranchiseService struct {
	db Database
}

func NewFranchiseService(db Database) *FranchiseService {
	return &FranchiseService{db: db}
}

// CreateFranchise resolves every admin email before writing anything, then
// inserts the franchise, one franchisee binding per admin and the embedded
// stores as one unit.
func (s *FranchiseService) CreateFranchise(ctx context.Context, in models.NewFranchise) (*models.Franchise, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, utils.Validation("franchise name is required")
	}
	for _, st := range in.Stores {
		if strings.TrimSpace(st.Name) == "" {
			return nil, utils.Validation("store name is required")
		}
	}

	franchise := models.Franchise{Name: in.Name}
	err := runUnit(ctx, s.db, "unable to create franchise", func(tx *gorm.DB) error {
		admins := make([]models.FranchiseAdmin, 0, len(in.Admins))
		for _, ref := range in.Admins {
			var u models.User
			err := tx.Select("id", "name", "email").Where("email = ?", ref.Email).First(&u).Error
			if err != nil {
				if isNotFound(err) {
					return utils.Conflict("unknown user for franchise admin " + ref.Email)
				}
				return err
			}
			admins = append(admins, models.FranchiseAdmin{ID: u.ID, Name: u.Name, Email: u.Email})
		}

		if err := tx.Omit("Stores").Create(&franchise).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("franchise already exists")
			}
			return err
		}

		for _, a := range admins {
			binding := models.BindingFor(a.ID, models.FranchiseeRole{FranchiseID: franchise.ID})
			if err := tx.Create(&binding).Error; err != nil {
				return err
			}
		}

		franchise.Stores = make([]models.Store, 0, len(in.Stores))
		for _, st := range in.Stores {
			store := models.Store{FranchiseID: franchise.ID, Name: strings.TrimSpace(st.Name)}
			if err := tx.Create(&store).Error; err != nil {
				return err
			}
			franchise.Stores = append(franchise.Stores, store)
		}

		franchise.Admins = admins
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"franchise_id": franchise.ID,
		"admins":       len(franchise.Admins),
		"stores":       len(franchise.Stores),
	}).Info("franchise created")

	return &franchise, nil
}

// DeleteFranchise removes the franchise, its stores and the franchisee
// bindings on it as one unit. Orders are kept.
func (s *FranchiseService) DeleteFranchise(ctx context.Context, id uint) error {
	err := runUnit(ctx, s.db, "unable to delete franchise", func(tx *gorm.DB) error {
		if err := tx.Where("franchise_id = ?", id).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role = ? AND object_id = ?", models.RoleFranchisee, id).Delete(&models.RoleBinding{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Franchise{}).Error
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("franchise_id", id).Info("franchise deleted")
	return nil
}

func (s *FranchiseService) UpdateFranchise(ctx context.Context, id uint, name string) (*models.Franchise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.Validation("franchise name is required")
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.Franchise{}).Where("id = ?", id).Update("name", name).Error; err != nil {
		if isDuplicate(err) {
			return nil, utils.Conflict("franchise already exists")
		}
		return nil, queryFailed("unable to update franchise", err)
	}
	return s.GetFranchise(ctx, id)
}

// CreateStore adds a store to an existing franchise.
func (s *FranchiseService) CreateStore(ctx context.Context, franchiseID uint, in models.NewStore) (*models.Store, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, utils.Validation("store name is required")
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var franchises int64
	if err := db.Model(&models.Franchise{}).Where("id = ?", franchiseID).Count(&franchises).Error; err != nil {
		return nil, queryFailed("unable to create store", err)
	}
	if franchises == 0 {
		return nil, utils.NotFound("unknown franchise")
	}

	store := models.Store{FranchiseID: franchiseID, Name: in.Name}
	if err := db.Create(&store).Error; err != nil {
		if isForeignKey(err) {
			return nil, utils.NotFound("unknown franchise")
		}
		return nil, queryFailed("unable to create store", err)
	}
	return &store, nil
}

// DeleteStore deletes storeID only when it belongs to franchiseID.
func (s *FranchiseService) DeleteStore(ctx context.Context, franchiseID, storeID uint) error {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	err = db.Where("franchise_id = ? AND id = ?", franchiseID, storeID).Delete(&models.Store{}).Error
	if err != nil {
		return queryFailed("unable to delete store", err)
	}
	return nil
}

// ListFranchises returns one page of franchises matching q. Detailed pages
// carry admins and store revenue.
func (s *FranchiseService) ListFranchises(ctx context.Context, q models.FranchiseQuery, detailed bool) (*models.FranchisePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultFranchisesPerPage
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	franchises := []models.Franchise{}
	err = db.Preload("Stores", orderByID).
		Where("name LIKE ?", likePattern(q.Name)).
		Order("id").
		Offset(utils.GetOffset(q.Page, q.Limit)).
		Limit(q.Limit + 1).
		Find(&franchises).Error
	if err != nil {
		return nil, queryFailed("unable to list franchises", err)
	}

	more := len(franchises) > q.Limit
	if more {
		franchises = franchises[:q.Limit]
	}
	if detailed {
		for i := range franchises {
			if err := attachDetails(db, &franchises[i]); err != nil {
				return nil, queryFailed("unable to list franchises", err)
			}
		}
	}
	return &models.FranchisePage{Franchises: franchises, More: more}, nil
}

// GetUserFranchises returns the franchises userID administers, with details.
func (s *FranchiseService) GetUserFranchises(ctx context.Context, userID uint) ([]models.Franchise, error) {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var ids []uint
	err = db.Model(&models.RoleBinding{}).
		Where("user_id = ? AND role = ?", userID, models.RoleFranchisee).
		Pluck("object_id", &ids).Error
	if err != nil {
		return nil, queryFailed("unable to load franchises", err)
	}

	franchises := []models.Franchise{}
	if len(ids) == 0 {
		return franchises, nil
	}
	if err := db.Preload("Stores", orderByID).Where("id IN ?", ids).Order("id").Find(&franchises).Error; err != nil {
		return nil, queryFailed("unable to load franchises", err)
	}
	for i := range franchises {
		if err := attachDetails(db, &franchises[i]); err != nil {
			return nil, queryFailed("unable to load franchises", err)
		}
	}
	return franchises, nil
}

func (s *FranchiseService) GetFranchise(ctx context.Context, id uint) (*models.Franchise, error) {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var franchise models.Franchise
	if err := db.Preload("Stores", orderByID).Where("id = ?", id).First(&franchise).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("unknown franchise")
		}
		return nil, queryFailed("unable to load franchise", err)
	}
	if err := attachDetails(db, &franchise); err != nil {
		return nil, queryFailed("unable to load franchise", err)
	}
	return &franchise, nil
}

type storeRevenue struct {
	StoreID uint
	Total   decimal.Decimal
}

// attachDetails fills the admins of f and the revenue of each of its stores.
func attachDetails(db *gorm.DB, f *models.Franchise) error {
	admins := []models.FranchiseAdmin{}
	err := db.Table("users").
		Select("users.id, users.name, users.email").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role = ? AND user_roles.object_id = ?", models.RoleFranchisee, f.ID).
		Order("users.id").
		Scan(&admins).Error
	if err != nil {
		return err
	}
	f.Admins = admins

	var revenue []storeRevenue
	err = db.Table("order_items").
		Select("diner_orders.store_id AS store_id, COALESCE(SUM(order_items.price), 0) AS total").
		Joins("JOIN diner_orders ON diner_orders.id = order_items.order_id").
		Where("diner_orders.franchise_id = ?", f.ID).
		Group("diner_orders.store_id").
		Scan(&revenue).Error
	if err != nil {
		return err
	}

	byStore := make(map[uint]decimal.Decimal, len(revenue))
	for _, r := range revenue {
		byStore[r.StoreID] = r.Total
	}
	for i := range f.Stores {
		total := byStore[f.Stores[i].ID].Round(2)
		f.Stores[i].TotalRevenue = &total
	}
	return nil
}
