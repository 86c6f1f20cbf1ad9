package services

import (
	"context"
	"testing"

	"github.com/marior032001/jwt-pizza-service/database"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestServices(t *testing.T) (*Services, *database.Provider) {
	t.Helper()
	p := database.NewMemoryProvider(database.Seed{})
	t.Cleanup(func() { p.Close() })
	return New(p, utils.BcryptHasher{Cost: bcrypt.MinCost}), p
}

func conn(t *testing.T, p *database.Provider) *gorm.DB {
	t.Helper()
	db, err := p.Conn(context.Background())
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, p *database.Provider, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn(t, p).Model(model).Count(&n).Error)
	return n
}

func mustCreateUser(t *testing.T, svc *Services, name, email string, roles ...models.RoleRequest) *models.User {
	t.Helper()
	u, err := svc.Users.CreateUser(context.Background(), models.NewUser{
		Name:     name,
		Email:    email,
		Password: "secret",
		Roles:    roles,
	})
	require.NoError(t, err)
	return u
}

func mustCreateFranchise(t *testing.T, svc *Services, name string, adminEmails []string, stores ...string) *models.Franchise {
	t.Helper()
	in := models.NewFranchise{Name: name}
	for _, e := range adminEmails {
		in.Admins = append(in.Admins, models.AdminRef{Email: e})
	}
	for _, s := range stores {
		in.Stores = append(in.Stores, models.NewStore{Name: s})
	}
	f, err := svc.Franchises.CreateFranchise(context.Background(), in)
	require.NoError(t, err)
	return f
}

func mustAddMenuItem(t *testing.T, svc *Services, title, price string) *models.MenuItem {
	t.Helper()
	item, err := svc.Menu.AddMenuItem(context.Background(), models.MenuItem{
		Title:       title,
		Description: title + " pizza",
		Image:       "pizza.png",
		Price:       decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return item
}

func authUser(u *models.User) models.AuthUser {
	return models.AuthUserFrom(u)
}
