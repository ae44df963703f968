package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/worrakit/vision_service/internal/domain"
	"github.com/worrakit/vision_service/internal/dto"
	"github.com/worrakit/vision_service/internal/helper"
	"github.com/worrakit/vision_service/internal/interfaces"
	"github.com/worrakit/vision_service/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrOTPNotVerified     = errors.New("OTP not verified yet")
	ErrMissingPassword    = errors.New("new password is required")
	ErrNotificationFailed = errors.New("failed to deliver OTP email")
)

const otpEmailEventKey = "user.otp_email"

type UserService interface {
	Signup(input dto.SignupRequest) (dto.TokenPair, error)
	Login(input dto.LoginRequest) (dto.TokenPair, error)
	SendOTP(email string) error
	VerifyOTP(email, code string) error
	// ReplacePassword is gated only on an outstanding OTP code: a previous
	// SendOTP that was never consumed by a successful replace. VerifyOTP does
	// not mark state, so the caller is trusted to have checked the code first.
	// This mirrors the behavior of the original system.
	ReplacePassword(email, newPassword string) error
	GetProfile(userID uint) (*domain.User, error)
}

type userService struct {
	repo     repository.UserRepository
	auth     helper.Auth
	producer interfaces.ProducerHandler
}

func NewUserService(
	repo repository.UserRepository,
	producer interfaces.ProducerHandler,
	auth helper.Auth,
) UserService {
	return &userService{
		repo:     repo,
		producer: producer,
		auth:     auth,
	}
}

func (u *userService) Signup(input dto.SignupRequest) (dto.TokenPair, error) {
	email := normalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if email == "" || input.Password == "" || fullName == "" {
		return dto.TokenPair{}, errors.New("invalid inputs")
	}

	// duplicate pre-check keeps the error shape exact; the unique index on
	// email catches the concurrent-signup race via the same sentinel
	if existing, err := u.repo.FindUserByEmail(email); err == nil && existing != nil && existing.ID != 0 {
		return dto.TokenPair{}, repository.ErrDuplicateEmail
	}

	hashed, err := u.auth.HashPassword(input.Password)
	if err != nil {
		return dto.TokenPair{}, err
	}

	newUser := &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		IsActive:     true,
	}

	usr, err := u.repo.CreateUser(newUser)
	if err != nil {
		return dto.TokenPair{}, err
	}
	if usr == nil || usr.ID == 0 {
		return dto.TokenPair{}, errors.New("failed to create user")
	}

	// signup never offers remember_me; refresh gets the default expiry
	return u.auth.GenerateTokenPair(usr.ID, usr.Email, false)
}

func (u *userService) Login(input dto.LoginRequest) (dto.TokenPair, error) {
	email := normalizeEmail(input.Email)
	password := input.Password

	if email == "" || password == "" {
		return dto.TokenPair{}, ErrInvalidCredentials
	}

	// unknown email and wrong password collapse into one error so the
	// response never reveals which emails are registered
	user, err := u.repo.FindUserByEmail(email)
	if err != nil || user == nil || user.ID == 0 {
		return dto.TokenPair{}, ErrInvalidCredentials
	}

	if err := u.auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return dto.TokenPair{}, ErrInvalidCredentials
	}

	return u.auth.GenerateTokenPair(user.ID, user.Email, input.RememberMe)
}

func (u *userService) SendOTP(email string) error {
	email = normalizeEmail(email)

	user, err := u.repo.FindUserByEmail(email)
	if err != nil {
		return err
	}

	code, err := helper.GenerateOTP()
	if err != nil {
		return err
	}

	// overwrites any previously pending code; last write wins
	user.ResetOTP = code
	if err := u.repo.UpdateUserFields(user, "reset_otp"); err != nil {
		return err
	}

	payload, err := json.Marshal(dto.OTPEmailEvent{
		UserID: user.ID,
		Email:  user.Email,
		Code:   code,
	})
	if err != nil {
		return err
	}

	if err := u.producer.PublishMessage([]byte(otpEmailEventKey), payload); err != nil {
		return ErrNotificationFailed
	}
	return nil
}

func (u *userService) VerifyOTP(email, code string) error {
	email = normalizeEmail(email)

	user, err := u.repo.FindUserByEmail(email)
	if err != nil {
		return err
	}

	// read-only check; the code stays valid until a password replace
	if user.ResetOTP == "" || user.ResetOTP != code {
		return ErrInvalidOTP
	}
	return nil
}

func (u *userService) ReplacePassword(email, newPassword string) error {
	email = normalizeEmail(email)

	user, err := u.repo.FindUserByEmail(email)
	if err != nil {
		return err
	}

	if user.ResetOTP == "" {
		return ErrOTPNotVerified
	}
	if newPassword == "" {
		return ErrMissingPassword
	}

	hashed, err := u.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashed
	user.ResetOTP = ""
	return u.repo.UpdateUserFields(user, "password_hash", "reset_otp")
}

func (u *userService) GetProfile(userID uint) (*domain.User, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	return u.repo.FindUserById(userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
