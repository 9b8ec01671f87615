package service

import (
	"errors"
	"os"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo  repository.UserRepositoryInterface
	seqRepo   repository.SequenceRepositoryInterface
	txManager repository.TxManager
}

func NewAuthService(userRepo repository.UserRepositoryInterface, seqRepo repository.SequenceRepositoryInterface, txManager repository.TxManager) *AuthService {
	return &AuthService{userRepo: userRepo, seqRepo: seqRepo, txManager: txManager}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	email := validation.NormalizeEmail(input.Email)
	if !validation.ValidateEmail(email) {
		return nil, invalidf("invalid email")
	}
	name := validation.TrimAndLimit(input.Name, 100)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, invalidf("password must be at least %d characters", validation.PasswordMinLength())
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, conflictf("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.txManager.InTransaction(func(tx *gorm.DB) error {
		id, err := s.seqRepo.WithTx(tx).Next(models.SeqUsers)
		if err != nil {
			return err
		}
		user = &models.User{
			ID:           id,
			Name:         name,
			Email:        email,
			PasswordHash: string(hashedPassword),
		}
		return s.userRepo.WithTx(tx).Create(user)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, forbiddenf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, forbiddenf("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
