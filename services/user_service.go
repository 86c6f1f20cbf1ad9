package services

import (
	"context"
	"strings"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserService struct {
	db   Database
	auth *AuthService
}

func NewUserService(db Database, auth *AuthService) *UserService {
	return &UserService{db: db, auth: auth}
}

// CreateUser registers a user with its role bindings. Franchisee roles name
// their franchise, which must exist. Without roles the user is a diner.
func (s *UserService) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, utils.Validation("name, email, and password are required")
	}

	requests := in.Roles
	if len(requests) == 0 {
		requests = []models.RoleRequest{{Role: models.RoleDiner}}
	}
	for _, r := range requests {
		switch r.Role {
		case models.RoleDiner, models.RoleAdmin:
		case models.RoleFranchisee:
			if r.Object == "" {
				return nil, utils.Validation("franchisee role requires a franchise")
			}
		default:
			return nil, utils.Validation("unknown role")
		}
	}

	hashed, err := s.auth.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{Name: in.Name, Email: in.Email, Password: hashed}
	err = runUnit(ctx, s.db, "unable to create user", func(tx *gorm.DB) error {
		roles := make(models.RoleSet, 0, len(requests))
		for _, r := range requests {
			role, err := resolveRole(tx, r)
			if err != nil {
				return err
			}
			roles = append(roles, role)
		}

		if err := tx.Omit("Bindings").Create(&user).Error; err != nil {
			if isDuplicate(err) {
				return utils.Conflict("email already registered")
			}
			return err
		}

		bindings := make([]models.RoleBinding, 0, len(roles))
		for _, r := range roles {
			bindings = append(bindings, models.BindingFor(user.ID, r))
		}
		if err := tx.Create(&bindings).Error; err != nil {
			return err
		}
		user.Roles = roles
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"roles":   len(user.Roles),
	}).Info("user created")

	user.Password = ""
	return &user, nil
}

func resolveRole(tx *gorm.DB, r models.RoleRequest) (models.Role, error) {
	if r.Role != models.RoleFranchisee {
		return models.ParseRole(r.Role, models.NoObject)
	}

	var franchise models.Franchise
	if err := tx.Select("id").Where("name = ?", r.Object).First(&franchise).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("unknown franchise")
		}
		return nil, err
	}
	return models.FranchiseeRole{FranchiseID: franchise.ID}, nil
}

// GetUserByEmail is the only lookup used for login.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.findUser(ctx, "email = ?", email)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.findUser(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Authenticate checks a login. An unknown email and a wrong password fail
// the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, utils.Validation("email and password are required")
	}

	user, err := s.findUser(ctx, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if !s.auth.Verify(password, user.Password) {
		return nil, utils.NotFound("unknown user")
	}
	user.Password = ""
	return user, nil
}

// UpdateUser applies the non-empty fields of upd and returns the reloaded
// user. Authorization is the caller's job.
func (s *UserService) UpdateUser(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	if upd.Name != nil && *upd.Name != "" {
		changes["name"] = *upd.Name
	}
	if upd.Email != nil && *upd.Email != "" {
		changes["email"] = *upd.Email
	}
	if upd.Password != nil && *upd.Password != "" {
		hashed, err := s.auth.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		changes["password"] = hashed
	}

	if len(changes) > 0 {
		db, err := s.db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		err = db.Model(&models.User{}).Where("id = ?", id).Updates(changes).Error
		if err != nil {
			if isDuplicate(err) {
				return nil, utils.Conflict("email already registered")
			}
			return nil, queryFailed("unable to update user", err)
		}
	}

	return s.GetUser(ctx, id)
}

// ListUsers returns one page of users whose name matches nameFilter ('*' is
// a wildcard) and whether more pages follow.
func (s *UserService) ListUsers(ctx context.Context, page, limit int, nameFilter string) ([]models.User, bool, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, false, err
	}

	users := []models.User{}
	err = db.Preload("Bindings", orderByID).
		Where("name LIKE ?", likePattern(nameFilter)).
		Order("id").
		Offset(utils.GetOffset(page, limit)).
		Limit(limit + 1).
		Find(&users).Error
	if err != nil {
		return nil, false, queryFailed("unable to list users", err)
	}

	more := len(users) > limit
	if more {
		users = users[:limit]
	}
	for i := range users {
		users[i].Roles = rolesOf(users[i].Bindings)
		users[i].Password = ""
	}
	return users, more, nil
}

// findUser loads a user with its roles and password hash.
func (s *UserService) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Preload("Bindings", orderByID).Where(query, arg).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("unknown user")
		}
		return nil, queryFailed("unable to load user", err)
	}
	user.Roles = rolesOf(user.Bindings)
	return &user, nil
}
