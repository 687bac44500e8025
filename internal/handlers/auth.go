package handlers

import (
	"net/http"

	"github.com/accountsvc/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// AccountHandler provides the signup, signin and session endpoints.
type AccountHandler struct {
	accounts *services.AccountService
	logger   *zap.Logger
}

// NewAccountHandler constructs an AccountHandler with the provided dependencies.
func NewAccountHandler(accounts *services.AccountService, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// AccountRouter registers account routes on the given router.
func AccountRouter(r chi.Router, accounts *services.AccountService, logger *zap.Logger) {
	handler := NewAccountHandler(accounts, logger)

	r.Post("/signup", handler.Signup)
	r.Post("/signin", handler.Signin)
	r.Route("/me", func(r chi.Router) {
		r.Use(handler.RequireAuth)
		r.Get("/", handler.Me)
		r.Put("/", handler.Update)
		r.Patch("/", handler.Update)
	})
}

// RequireAuth resolves the bearer token and injects the account into context.
func (h *AccountHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := h.accounts.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeServiceError(w, h.logger, err, "failed to load user")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), account)))
	})
}

// Signup creates a new account and returns it with a token.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeWire(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.accounts.Register(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		User:  newAccountView(result.Account),
		Token: result.Token,
	})
}

// Signin verifies credentials and returns the account with a token.
func (h *AccountHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := decodeWire(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.accounts.Login(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:  newAccountView(result.Account),
		Token: result.Token,
	})
}

// Me returns the current authenticated account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{User: newAccountView(account)})
}

// Update rejects every attempt to change the current account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SignupRequest
	_ = decodeWire(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req)

	_, err := h.accounts.UpdateAccount(r.Context(), account.ID, req.input())
	writeServiceError(w, h.logger, err, "failed to update user")
}

type SignupRequest struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	Phones    []PhoneRequest `json:"phones"`
}

type PhoneRequest struct {
	Number      wireInt `json:"number"`
	AreaCode    wireInt `json:"area_code"`
	CountryCode string  `json:"country_code"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  AccountView `json:"user"`
	Token string      `json:"token"`
}

type MeResponse struct {
	User AccountView `json:"user"`
}

func (req SignupRequest) input() services.RegisterInput {
	input := services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.Phones != nil {
		input.Phones = make([]services.PhoneInput, 0, len(req.Phones))
		for _, phone := range req.Phones {
			input.Phones = append(input.Phones, services.PhoneInput{
				Number:      int64(phone.Number),
				AreaCode:    int(phone.AreaCode),
				CountryCode: phone.CountryCode,
			})
		}
	}
	return input
}
