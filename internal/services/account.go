package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/accountsvc/apiserver/types"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	TouchLastLogin(ctx context.Context, id int) (time.Time, error)
}

// PasswordHasher is a one-way hash and verify primitive.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer creates and verifies bearer tokens bound to an account id.
type TokenIssuer interface {
	Issue(accountID int) (string, error)
	Verify(token string) (int, error)
}

// EventEmitter is notified after successful registrations and logins.
type EventEmitter interface {
	AccountRegistered(ctx context.Context, account types.Account)
	AccountLoggedIn(ctx context.Context, account types.Account)
}

// PhoneInput is a phone entry of a registration payload.
type PhoneInput struct {
	Number      int64  `field:"number" validate:"gt=0,lte=2147483647"`
	AreaCode    int    `field:"area_code" validate:"gt=0,lte=32767"`
	CountryCode string `field:"country_code" validate:"max=4"`
}

// RegisterInput is a normalized registration payload.
type RegisterInput struct {
	FirstName string       `field:"first_name" validate:"max=50"`
	LastName  string       `field:"last_name" validate:"max=50"`
	Email     string       `field:"email" validate:"email,max=254"`
	Password  string       `field:"password" validate:"max=255"`
	Phones    []PhoneInput `field:"phones" validate:"dive"`
}

// LoginInput is a sign in payload.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by successful registrations and logins.
type AuthResult struct {
	Account types.Account
	Token   string
}

// AccountService encapsulates the registration, login and session use-cases.
type AccountService struct {
	repo     AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventEmitter
	logger   *zap.Logger
	validate *validator.Validate
}

func NewAccountService(
	repo AccountRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	events EventEmitter,
	logger *zap.Logger,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		logger:   logger,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Register validates input, persists the account with its phones and issues a token.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input = normalizeRegisterInput(input)
	if err := s.validateRegister(input); err != nil {
		return AuthResult{}, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return AuthResult{}, &ValidationError{Kind: EmailAlreadyRegistered, Field: "email"}
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	account := types.Account{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hashed,
		Phones:       make([]types.Phone, 0, len(input.Phones)),
	}
	for _, phone := range input.Phones {
		account.Phones = append(account.Phones, types.Phone{
			Number:      phone.Number,
			AreaCode:    phone.AreaCode,
			CountryCode: phone.CountryCode,
		})
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return AuthResult{}, &ValidationError{Kind: EmailAlreadyRegistered, Field: "email", Err: err}
		}
		return AuthResult{}, fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("account registered",
		zap.Int("account_id", created.ID),
		zap.String("name", created.FullName()),
		zap.Int("phones", len(created.Phones)),
	)
	if s.events != nil {
		s.events.AccountRegistered(ctx, created)
	}
	return AuthResult{Account: created, Token: token}, nil
}

// Login checks credentials, records the login time and issues a token.
// Unknown emails and wrong passwords fail with the same InvalidLogin error.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return AuthResult{}, &ValidationError{Kind: MissingField}
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, &ValidationError{Kind: InvalidLogin}
		}
		return AuthResult{}, fmt.Errorf("load account: %w", err)
	}

	if err := s.hasher.Verify(account.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("verify password", zap.Int("account_id", account.ID), zap.Error(err))
		}
		return AuthResult{}, &ValidationError{Kind: InvalidLogin}
	}
	if !account.IsActive {
		return AuthResult{}, &ValidationError{Kind: InvalidLogin}
	}

	lastLogin, err := s.repo.TouchLastLogin(ctx, account.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("update last login: %w", err)
	}
	account.LastLogin = lastLogin

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("account logged in", zap.Int("account_id", account.ID))
	if s.events != nil {
		s.events.AccountLoggedIn(ctx, account)
	}
	return AuthResult{Account: account, Token: token}, nil
}

// Resolve maps an Authorization header value to the account its token is bound to.
func (s *AccountService) Resolve(ctx context.Context, authorization string) (types.Account, error) {
	tokenString, err := auth.BearerToken(authorization)
	if err != nil {
		if errors.Is(err, auth.ErrNoAuthorization) {
			return types.Account{}, &UnauthorizedError{Kind: NoToken}
		}
		return types.Account{}, &UnauthorizedError{Kind: InvalidSession, Err: err}
	}

	accountID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return types.Account{}, &UnauthorizedError{Kind: InvalidSession, Err: err}
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, &UnauthorizedError{Kind: InvalidSession, Err: err}
		}
		return types.Account{}, fmt.Errorf("load account: %w", err)
	}
	if !account.IsActive {
		return types.Account{}, &UnauthorizedError{Kind: InvalidSession}
	}
	return account, nil
}

// UpdateAccount always fails: accounts are append-only.
func (s *AccountService) UpdateAccount(_ context.Context, _ int, _ RegisterInput) (types.Account, error) {
	return types.Account{}, &ValidationError{Kind: UpdateNotAllowed}
}

// UpdatePhone always fails: phones are append-only.
func (s *AccountService) UpdatePhone(_ context.Context, _ int, _ PhoneInput) (types.Phone, error) {
	return types.Phone{}, &ValidationError{Kind: UpdateNotAllowed}
}

// CreatePhone always fails: phones are only created together with their account.
func (s *AccountService) CreatePhone(_ context.Context, _ int, _ PhoneInput) (types.Phone, error) {
	return types.Phone{}, &ValidationError{Kind: CreateNotAllowed}
}

func (s *AccountService) validateRegister(input RegisterInput) error {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Password == "" || len(input.Phones) == 0 {
		return &ValidationError{Kind: MissingField}
	}
	for i, phone := range input.Phones {
		if phone.Number == 0 || phone.AreaCode == 0 || phone.CountryCode == "" {
			return &ValidationError{Kind: MissingField, Phone: i + 1}
		}
	}

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{Kind: InvalidField, Field: fieldErrs[0].Field(), Err: err}
		}
		return &ValidationError{Kind: InvalidField, Err: err}
	}
	return nil
}

func normalizeRegisterInput(input RegisterInput) RegisterInput {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)
	phones := make([]PhoneInput, 0, len(input.Phones))
	for _, phone := range input.Phones {
		phone.CountryCode = strings.TrimSpace(phone.CountryCode)
		phones = append(phones, phone)
	}
	input.Phones = phones
	return input
}

// normalizeEmail trims the address and lowercases its domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
