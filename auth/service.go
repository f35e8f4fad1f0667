package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glammate/database"
	"glammate/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CodeSender delivers one-time codes to an email address.
type CodeSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

type SignupInput struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service implements local signup, code verification, password login and
// username assignment.
type Service struct {
	users  database.UserRepository
	sender CodeSender

	now     func() time.Time
	newCode func() (string, error)
}

func NewService(users database.UserRepository, sender CodeSender) *Service {
	return &Service{
		users:   users,
		sender:  sender,
		now:     time.Now,
		newCode: GenerateOTP,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Signup registers an unverified account and mails it a one-time code. It
// returns the email the verification step must be bound to.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	email := NormalizeEmail(in.Email)
	username := NormalizeUsername(in.Username)
	if email == "" {
		return "", ErrEmailRequired
	}

	if username != "" {
		_, err := s.users.FindByUsername(ctx, username)
		if err == nil {
			return "", ErrUsernameTaken
		}
		if !errors.Is(err, database.ErrNotFound) {
			return "", fmt.Errorf("find username: %w", err)
		}
	}

	if in.Password != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if err := ValidatePassword(in.Password); err != nil {
		return "", err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.IsFederated():
		return "", ErrEmailRegisteredWithGoogle
	case err == nil:
		return "", ErrUserExists
	case !errors.Is(err, database.ErrNotFound):
		return "", fmt.Errorf("find email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	expiry := s.now().Add(OTPValidity)

	user := models.NewUser(email)
	user.Name = strings.TrimSpace(in.Name)
	user.Username = username
	user.PasswordHash = hash
	user.OTP = code
	user.OTPExpiry = &expiry

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// lost a race against a concurrent signup for the same email or username
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}

	log.Info().Str("user_id", user.ID.Hex()).Msg("signup pending verification")
	return email, nil
}

// Verify confirms the pending signup bound to pendingEmail. A code verifies
// at most once: the store clears it in the same update that sets the flag.
func (s *Service) Verify(ctx context.Context, pendingEmail, code string) (*models.User, error) {
	if pendingEmail == "" {
		return nil, ErrInvalidOTP
	}

	user, err := s.users.FindByEmail(ctx, pendingEmail)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	code = strings.TrimSpace(code)
	if !otpMatches(user.OTP, code) || user.OTPExpiry == nil || !s.now().Before(*user.OTPExpiry) {
		return nil, ErrInvalidOTP
	}

	verified, err := s.users.ConfirmOTP(ctx, user.ID, code)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("confirm otp: %w", err)
	}
	return verified, nil
}

// Login checks a password login. Unknown, unverified and wrong-password cases
// share one message; Google-linked accounts get their own.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrWrongCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsVerified {
		return nil, ErrWrongCredentials
	}

	switch cred := CredentialOf(user).(type) {
	case FederatedCredential:
		return nil, ErrUseGoogleLogin
	case LocalCredential:
		if !CheckPassword(cred.PasswordHash, password) {
			return nil, ErrWrongCredentials
		}
		return user, nil
	}
	return nil, ErrWrongCredentials
}

// SetUsername assigns a username to an account that skipped it, typically a
// Google signup.
func (s *Service) SetUsername(ctx context.Context, userID primitive.ObjectID, username string) (string, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return "", ErrUsernameEmpty
	}

	existing, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil && existing.ID == userID:
		return username, nil
	case err == nil:
		return "", ErrUsernameTaken
	case !errors.Is(err, database.ErrNotFound):
		return "", fmt.Errorf("find username: %w", err)
	}

	if err := s.users.SetUsername(ctx, userID, username); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("set username: %w", err)
	}
	return username, nil
}
