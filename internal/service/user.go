package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kushal1111/LLMproject/internal/auth"
	"github.com/kushal1111/LLMproject/internal/models"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// UserService is the credential store plus the sign-in hooks built on
// top of it.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Signup creates a credential-login user with a pending verification
// token. Email uniqueness is checked before username so a duplicate
// email conflicts regardless of the username supplied.
func (s *UserService) Signup(username, email, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	expiry := time.Now().Add(verifyTokenTTL)
	user := models.User{
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		VerifyToken:       uuid.NewString(),
		VerifyTokenExpiry: &expiry,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent signup slipped past the pre-checks; re-read
			// to tell which column the insert lost on.
			if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate validates a credentials sign-in by email. Every failure
// mode collapses into ErrInvalidCredentials so callers cannot probe
// which emails exist, whether an account is unverified, or whether it
// is OAuth-only.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Verified || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// AuthenticateByUsername backs the standalone /api/users/login path.
// Same uniform-failure policy as Authenticate, minus the verification
// requirement which that path never had.
func (s *UserService) AuthenticateByUsername(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// UpsertOAuthUser is the sign-in hook for third-party logins: unknown
// emails are provisioned as pre-verified accounts, known unverified
// accounts are marked verified on the spot.
func (s *UserService) UpsertOAuthUser(email, displayName, picture string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.Verified {
			user.Verified = true
			if err := s.db.Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username, err := s.deriveUsername(displayName, email)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username:       username,
		Email:          email,
		Verified:       true,
		ProfilePicture: picture,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// deriveUsername slugs the display name, falls back to the email
// local-part, and suffixes a short random fragment on collision.
func (s *UserService) deriveUsername(displayName, email string) (string, error) {
	base := slug(displayName)
	if base == "" {
		if at := strings.Index(email, "@"); at > 0 {
			base = slug(email[:at])
		}
	}
	if base == "" {
		base = "user"
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 0; i < 5; i++ {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:5]
	}
	return "", ErrUsernameTaken
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// VerifyEmail consumes a verification token, flipping the user to
// verified.
func (s *UserService) VerifyEmail(token string) error {
	user, err := s.findByToken("verify_token", token)
	if err != nil {
		return err
	}
	if user.VerifyTokenExpiry == nil || user.VerifyTokenExpiry.Before(time.Now()) {
		return ErrTokenInvalid
	}
	user.Verified = true
	user.VerifyToken = ""
	user.VerifyTokenExpiry = nil
	return s.db.Save(user).Error
}

// ForgotPassword mints a reset token for the account, if one exists.
// It returns the token without revealing whether the email matched;
// an empty token with a nil error means no account.
func (s *UserService) ForgotPassword(email string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	expiry := time.Now().Add(resetTokenTTL)
	user.ForgotPasswordToken = uuid.NewString()
	user.ForgotPasswordTokenExpiry = &expiry
	if err := s.db.Save(&user).Error; err != nil {
		return "", err
	}
	return user.ForgotPasswordToken, nil
}

// ResetPassword consumes a reset token and installs the new password.
func (s *UserService) ResetPassword(token, password string) error {
	user, err := s.findByToken("forgot_password_token", token)
	if err != nil {
		return err
	}
	if user.ForgotPasswordTokenExpiry == nil || user.ForgotPasswordTokenExpiry.Before(time.Now()) {
		return ErrTokenInvalid
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ForgotPasswordToken = ""
	user.ForgotPasswordTokenExpiry = nil
	return s.db.Save(user).Error
}

func (s *UserService) findByToken(column, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	var user models.User
	if err := s.db.Where(column+" = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &user, nil
}
