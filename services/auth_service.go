package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"nimbusdrive/errtypes"
	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

type AuthService struct {
	store             store.Store
	jwtSecret         string
	jwtIssuer         string
	jwtExpiration     time.Duration
	defaultMaxStorage int64
}

func NewAuthService(st store.Store, jwtSecret, jwtIssuer string, jwtExpiration time.Duration, defaultMaxStorage int64) *AuthService {
	return &AuthService{
		store:             st,
		jwtSecret:         jwtSecret,
		jwtIssuer:         jwtIssuer,
		jwtExpiration:     jwtExpiration,
		defaultMaxStorage: defaultMaxStorage,
	}
}

// Signup registers a user and returns a signed token. Emails are stored
// lowercased so the unique index catches case-variant duplicates.
func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsValidEmail(email) {
		return nil, "", errtypes.InvalidOperation("invalid email address")
	}
	if len(password) < 8 {
		return nil, "", errtypes.InvalidOperation("password must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}

	existing, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "looking up email", Err: err}
	}
	if existing != nil {
		return nil, "", errtypes.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "hashing password", Err: err}
	}

	now := time.Now()
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		UsedStorage:  0,
		MaxStorage:   s.defaultMaxStorage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "creating user", Err: err}
	}

	token, err := utils.GenerateJWTToken(user, s.jwtSecret, s.jwtIssuer, s.jwtExpiration)
	if err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "signing token", Err: err}
	}
	return user, token, nil
}

// Login verifies credentials and returns a signed token. Unknown emails
// and wrong passwords produce the same denial.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "looking up email", Err: err}
	}
	if user == nil {
		return nil, "", errtypes.PermissionDenied("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", errtypes.PermissionDenied("invalid email or password")
	}

	token, err := utils.GenerateJWTToken(user, s.jwtSecret, s.jwtIssuer, s.jwtExpiration)
	if err != nil {
		return nil, "", errtypes.StorageFailure{Msg: "signing token", Err: err}
	}
	return user, token, nil
}

// Profile returns the account behind a token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errtypes.NotFound("user")
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, errtypes.StorageFailure{Msg: "looking up user", Err: err}
	}
	if user == nil {
		return nil, errtypes.NotFound("user")
	}
	return user, nil
}

// Verify checks a bearer token and returns its claims.
func (s *AuthService) Verify(tokenString string) (*utils.Claims, error) {
	claims, err := utils.VerifyJWTToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, errtypes.PermissionDenied("invalid or expired token")
	}
	return claims, nil
}
