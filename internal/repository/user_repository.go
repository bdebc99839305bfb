package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hotelbooking/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateName(ctx context.Context, email, name string) (*model.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateName(ctx context.Context, email, name string) (*model.User, error) {
	return r.updateByEmail(ctx, email, "name", name)
}

func (r *userRepository) UpdatePassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	return r.updateByEmail(ctx, email, "password_hash", passwordHash)
}

// updateByEmail writes one column and returns the fresh row, or gorm.ErrRecordNotFound.
func (r *userRepository) updateByEmail(ctx context.Context, email, column string, value interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update(column, value).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", user.ID).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
