package services

import (
	"context"
	"time"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"gorm.io/gorm/clause"
)

// AuthService owns password hashing and the revocable session table.
// Only the signature segment of a bearer token is ever stored.
type AuthService struct {
	db     Database
	hasher utils.PasswordHasher
}

func NewAuthService(db Database, hasher utils.PasswordHasher) *AuthService {
	return &AuthService{db: db, hasher: hasher}
}

func (s *AuthService) Hash(plain string) (string, error) {
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return "", utils.Internal("unable to hash password", err)
	}
	return digest, nil
}

func (s *AuthService) Verify(plain, digest string) bool {
	return s.hasher.Compare(plain, digest)
}

// IssueSession marks token as active for userID. Issuing the same token
// twice is a no-op.
func (s *AuthService) IssueSession(ctx context.Context, userID uint, token string) error {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return utils.Validation("invalid token")
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}

	row := models.AuthToken{Signature: sig, UserID: userID}
	err = db.Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		if isForeignKey(err) {
			return utils.NotFound("unknown user")
		}
		return queryFailed("unable to start session", err)
	}
	return nil
}

// RevokeSession deletes the session of token. Unknown or already revoked
// tokens are ignored.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return nil
	}

	db, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("signature = ?", sig).Delete(&models.AuthToken{}).Error; err != nil {
		return queryFailed("unable to end session", err)
	}
	return nil
}

func (s *AuthService) IsActive(ctx context.Context, token string) (bool, error) {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return false, nil
	}

	db, err := s.db.ReadConn(ctx)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&models.AuthToken{}).Where("signature = ?", sig).Count(&count).Error; err != nil {
		return false, queryFailed("unable to check session", err)
	}
	return count > 0, nil
}

// PurgeSessions deletes sessions created before cutoff and reports how many
// were removed.
func (s *AuthService) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := s.db.Conn(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Where("created_at < ?", cutoff).Delete(&models.AuthToken{})
	if res.Error != nil {
		return 0, queryFailed("unable to purge sessions", res.Error)
	}
	return res.RowsAffected, nil
}
