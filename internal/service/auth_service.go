package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/mail"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// "me" is routed to the profile endpoint, so nobody may register it.
const reservedUsername = "me"

// Claims carried by access tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SignUp(ctx context.Context, email, username string) (*models.User, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo        repository.UserRepository
	codes           repository.ConfirmationStore
	mailer          mail.Mailer
	jwtSecret       string
	tokenTTL        time.Duration
	confirmationTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes repository.ConfirmationStore,
	mailer mail.Mailer,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:        userRepo,
		codes:           codes,
		mailer:          mailer,
		jwtSecret:       cfg.JWTSecret,
		tokenTTL:        cfg.TokenTTL,
		confirmationTTL: cfg.ConfirmationTTL,
	}
}

// SignUp registers a user (or re-triggers the confirmation mail for an
// existing identical email/username pair) and emails a confirmation code.
// A failed mail send fails the whole signup.
func (s *authService) SignUp(ctx context.Context, email, username string) (*models.User, error) {
	verr := NewValidationError()
	if !usernamePattern.MatchString(username) {
		verr.Add("username", "username contains invalid characters")
	}
	if username == reservedUsername {
		verr.Add("username", fmt.Sprintf("%q is not allowed as a username", username))
	}

	emailOwner, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	usernameOwner, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if emailOwner != nil && emailOwner.Username != username {
		verr.Add("email", "this email is already used by another account")
	}
	if usernameOwner != nil && usernameOwner.Email != email {
		verr.Add("username", "this username is already taken")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	// identical existing pair means resend, not conflict
	user := emailOwner
	if user == nil {
		user = &models.User{Username: username, Email: email, Role: models.RoleUser}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// concurrent signup slipped past the pre-checks
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				verr.Add("username", "username or email already in use")
				return nil, verr
			}
			return nil, err
		}
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Save(ctx, user.ID, string(hash), s.confirmationTTL); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your confirmation code: %s", code)
	if err := s.mailer.Send(user.Email, "Your reviewhub confirmation code", body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return user, nil
}

// IssueToken exchanges a confirmation code for a signed access token.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	hash, err := s.codes.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return "", ErrInvalidCode
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(confirmationCode)); err != nil {
		return "", ErrInvalidCode
	}

	// one exchange per code
	if err := s.codes.Delete(ctx, user.ID); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateConfirmationCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
