package services

import (
	"context"
	"errors"
	"strings"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"gorm.io/gorm"
)

// Database is what the services need from the connection provider.
type Database interface {
	Conn(ctx context.Context) (*gorm.DB, error)
	// ReadConn serves lookups that must not wait behind a unit of work.
	ReadConn(ctx context.Context) (*gorm.DB, error)
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Services groups the repositories handed to the routing layer.
type Services struct {
	Auth       *AuthService
	Users      *UserService
	Menu       *MenuService
	Orders     *OrderService
	Franchises *FranchiseService
}

func New(db Database, hasher utils.PasswordHasher) *Services {
	auth := NewAuthService(db, hasher)
	return &Services{
		Auth:       auth,
		Users:      NewUserService(db, auth),
		Menu:       NewMenuService(db),
		Orders:     NewOrderService(db),
		Franchises: NewFranchiseService(db),
	}
}

// runUnit runs fn as a unit of work. Expected failures keep their kind; any
// other failure is logged and reported as failMsg without its cause.
func runUnit(ctx context.Context, db Database, failMsg string, fn func(tx *gorm.DB) error) error {
	err := db.RunInTx(ctx, fn)
	if err == nil {
		return nil
	}

	switch utils.KindOf(err) {
	case utils.KindNotFound, utils.KindValidation, utils.KindConflict, utils.KindStorageUnavailable:
		return err
	}

	utils.ErrorLogger.WithError(err).Error(failMsg)
	return utils.TransactionFailed(failMsg, err)
}

// queryFailed hides a storage error behind a generic message.
func queryFailed(msg string, err error) error {
	if utils.KindOf(err) != utils.KindInternal {
		return err
	}
	utils.ErrorLogger.WithError(err).Error(msg)
	return utils.Internal(msg, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKey(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// likePattern turns a '*' wildcard filter into a LIKE pattern.
func likePattern(filter string) string {
	if filter == "" {
		return "%"
	}
	return strings.ReplaceAll(filter, "*", "%")
}

// rolesOf rebuilds the tagged roles from stored bindings.
func rolesOf(bindings []models.RoleBinding) models.RoleSet {
	roles := make(models.RoleSet, 0, len(bindings))
	for _, b := range bindings {
		r, err := models.ParseRole(b.Role, b.ObjectID)
		if err != nil {
			utils.ErrorLogger.WithError(err).WithField("user_id", b.UserID).Warn("skipping invalid role binding")
			continue
		}
		roles = append(roles, r)
	}
	return roles
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
