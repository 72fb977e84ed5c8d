package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/shopauth-backend/internal/app/model"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository is the store adapter for user records. Every write replaces
// a single row.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetToken(ctx context.Context, token string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	ClearExpiredResetTickets(ctx context.Context, before time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	record := model.NewUserRecord(user)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			logger.Warn("Duplicate user rejected by database", map[string]interface{}{
				"email": user.Email,
			})
			return ErrDuplicate
		}
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	user.ID = record.ID
	user.CreatedAt = record.CreatedAt
	user.UpdatedAt = record.UpdatedAt

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id, map[string]interface{}{"user_id": id})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email, map[string]interface{}{"email": email})
}

func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "reset_token = ?", token, nil)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}, fields map[string]interface{}) (*model.User, error) {
	var record model.UserRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("User not found in database", fields)
			return nil, ErrNotFound
		}
		logger.Error("Failed to find user in database", err, fields)
		return nil, err
	}
	return record.ToUser(), nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
	})

	record := model.NewUserRecord(user)
	result := r.db.WithContext(ctx).
		Model(record).
		Select("*").
		Omit("id", "created_at").
		Updates(record)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrDuplicate
		}
		logger.Error("Failed to update user in database", result.Error, map[string]interface{}{
			"user_id": user.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	user.UpdatedAt = record.UpdatedAt
	return nil
}

// ClearExpiredResetTickets drops every ticket whose expiry is at or before
// the given instant and returns how many rows changed.
func (r *userRepository) ClearExpiredResetTickets(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.UserRecord{}).
		Where("reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= ?", before.UTC()).
		Updates(map[string]interface{}{
			"reset_token":            gorm.Expr("NULL"),
			"reset_token_expires_at": gorm.Expr("NULL"),
		})
	if result.Error != nil {
		logger.Error("Failed to clear expired reset tickets", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired reset tickets cleared from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
