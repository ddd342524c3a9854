// Package account registers users and checks their credentials.
package account

import (
	"context"                           // Request scoped database calls
	"errors"                            // Error matching
	"fmt"                               // Error wrapping
	"trading_simulator/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Money values
	"golang.org/x/crypto/bcrypt"    // Password hashing
	"gorm.io/gorm"                  // GORM ORM library
)

// Service stores credentials in the users table
type Service struct {
	db          *gorm.DB
	initialCash decimal.Decimal
	cost        int // bcrypt cost
}

// NewService returns a Service that credits every new user with initialCash
func NewService(db *gorm.DB, initialCash decimal.Decimal) *Service {
	return &Service{db: db, initialCash: initialCash.Round(2), cost: bcrypt.DefaultCost}
}

// Register creates a user and returns its id
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (uint, error) {
	// Check if username or password fields are empty
	if username == "" || password == "" || confirmation == "" {
		return 0, domain.NewError(domain.ErrValidation, "All fields must be filled.")
	}
	// Check if the passwords match
	if password != confirmation {
		return 0, domain.NewError(domain.ErrValidation, "Passwords do not match.")
	}
	db := s.db.WithContext(ctx)

	var count int64 // Check if the username already exists
	if err := db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("look up username: %w", err)
	}
	if count != 0 {
		return 0, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Username: username, Hash: string(hash), Cash: s.initialCash}
	if err := db.Create(&user).Error; err != nil {
		// A concurrent registration can still win the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, errUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

var errUsernameTaken = domain.NewError(domain.ErrConflict, "Username already exist, try different username.")

// Authenticate returns the id of the user identified by username and password
func (s *Service) Authenticate(ctx context.Context, username, password string) (uint, error) {
	if username == "" {
		return 0, domain.NewError(domain.ErrValidation, "must provide username")
	}
	if password == "" {
		return 0, domain.NewError(domain.ErrValidation, "must provide password")
	}

	var user domain.User // Fetch user from database
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errBadCredentials
	}
	if err != nil {
		return 0, fmt.Errorf("look up user: %w", err)
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return 0, errBadCredentials
	}
	return user.ID, nil
}

var errBadCredentials = domain.NewError(domain.ErrAuthentication, "invalid username and/or password")
