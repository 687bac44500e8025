package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/accountsvc/apiserver/types"
)

// AccountRepository handles persistence for accounts and their phones.
type AccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

const selectAccount = `
		SELECT id, first_name, last_name, email, password_hash, is_active, created_at, last_login
		FROM accounts`

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	return r.getOne(ctx, selectAccount+`
		WHERE id = $1`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	return r.getOne(ctx, selectAccount+`
		WHERE email = $1`, email)
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create inserts the account and its phones in a single transaction.
// A duplicate email yields ErrEmailTaken.
func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	account.CreatedAt = now
	account.LastLogin = now
	account.IsActive = true

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Account{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertAccount = `
		INSERT INTO accounts (first_name, last_name, email, password_hash, is_active, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertAccount,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.IsActive,
		account.CreatedAt,
		account.LastLogin,
	).Scan(&account.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrEmailTaken
		}
		return types.Account{}, fmt.Errorf("insert account: %w", err)
	}

	const insertPhone = `
		INSERT INTO phones (account_id, number, area_code, country_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	phones := make([]types.Phone, 0, len(account.Phones))
	for _, phone := range account.Phones {
		phone.AccountID = account.ID
		if err := tx.QueryRowContext(
			ctx,
			insertPhone,
			phone.AccountID,
			phone.Number,
			phone.AreaCode,
			phone.CountryCode,
		).Scan(&phone.ID); err != nil {
			return types.Account{}, fmt.Errorf("insert phone: %w", err)
		}
		phones = append(phones, phone)
	}
	account.Phones = phones

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrEmailTaken
		}
		return types.Account{}, fmt.Errorf("commit: %w", err)
	}
	return account, nil
}

// TouchLastLogin sets last_login for the account and returns the stored value.
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id int) (time.Time, error) {
	at := r.now().UTC().Truncate(time.Microsecond)

	const query = `UPDATE accounts SET last_login = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (types.Account, error) {
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&account.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, fmt.Errorf("db error: %w", err)
	}

	phones, err := r.listPhones(ctx, account.ID)
	if err != nil {
		return types.Account{}, err
	}
	account.Phones = phones
	return account, nil
}

func (r *AccountRepository) listPhones(ctx context.Context, accountID int) ([]types.Phone, error) {
	const query = `
		SELECT id, account_id, number, area_code, country_code
		FROM phones
		WHERE account_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	phones := make([]types.Phone, 0)
	for rows.Next() {
		var phone types.Phone
		if err := rows.Scan(
			&phone.ID,
			&phone.AccountID,
			&phone.Number,
			&phone.AreaCode,
			&phone.CountryCode,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return phones, nil
}
