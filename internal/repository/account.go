package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// accountSelect joins the referenced asset so every read carries its title.
const accountSelect = `SELECT a.id, a.owner_id, a.account_type, a.payment_method_id, a.currency_id,
		COALESCE(pm.title, c.title, ''), a.account_name, a.account_number, a.bank_name,
		a.bank_address, a.bank_swift_code, a.details, a.is_archived, a.created_at, a.updated_at
	FROM accounts a
	LEFT JOIN payment_methods pm ON pm.id = a.payment_method_id
	LEFT JOIN currencies c ON c.id = a.currency_id`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		a        models.Account
		acctType string
	)
	err := row.Scan(&a.ID, &a.OwnerID, &acctType, &a.PaymentMethodID, &a.CurrencyID,
		&a.AssetTitle, &a.AccountName, &a.AccountNumber, &a.BankName,
		&a.BankAddress, &a.BankSwiftCode, &a.Details, &a.IsArchived, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AccountType = domain.AccountType(acctType)
	return &a, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (id, owner_id, account_type, payment_method_id, currency_id,
			account_name, account_number, bank_name, bank_address, bank_swift_code, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query, a.ID, a.OwnerID, string(a.AccountType), a.PaymentMethodID, a.CurrencyID,
		a.AccountName, a.AccountNumber, a.BankName, a.BankAddress, a.BankSwiftCode, a.Details).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return translate(err, domain.ErrAccountNotFound, "create account")
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, err := scanAccount(q.db.QueryRow(ctx, accountSelect+` WHERE a.id = $1 AND NOT a.is_archived`, id))
	if err != nil {
		return nil, translate(err, domain.ErrAccountNotFound, "get account")
	}
	return a, nil
}

// ListAccounts returns the owner's active accounts, newest first.
func (q *Queries) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error) {
	rows, err := q.db.Query(ctx, accountSelect+` WHERE a.owner_id = $1 AND NOT a.is_archived ORDER BY a.created_at DESC, a.id`, ownerID)
	if err != nil {
		return nil, translate(err, domain.ErrAccountNotFound, "list accounts")
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

// FindActiveAccount returns the owner's newest active account of the given
// type whose referenced asset is active and titled assetTitle. Duplicate
// registrations are tolerated; the most recent one wins.
func (q *Queries) FindActiveAccount(ctx context.Context, ownerID uuid.UUID, t domain.AccountType, assetTitle string) (*models.Account, error) {
	var assetCond string
	switch t {
	case domain.AccountTypePaymentMethod:
		assetCond = `pm.title = $3 AND NOT pm.is_archived`
	case domain.AccountTypeECurrency:
		assetCond = `c.title = $3 AND NOT c.is_archived`
	default:
		return nil, domain.ErrInvalidAccountType
	}
	query := accountSelect + `
		WHERE a.owner_id = $1 AND a.account_type = $2 AND NOT a.is_archived AND ` + assetCond + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT 1`
	a, err := scanAccount(q.db.QueryRow(ctx, query, ownerID, string(t), assetTitle))
	if err != nil {
		return nil, translate(err, domain.ErrAccountNotFound, "find account")
	}
	return a, nil
}

// UpdateAccount rewrites the identifying fields only; type, asset and owner
// are immutable after creation.
func (q *Queries) UpdateAccount(ctx context.Context, a *models.Account) error {
	query := `UPDATE accounts SET account_name = $2, account_number = $3, bank_name = $4,
			bank_address = $5, bank_swift_code = $6, details = $7, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived
		RETURNING updated_at`
	err := q.db.QueryRow(ctx, query, a.ID, a.AccountName, a.AccountNumber, a.BankName,
		a.BankAddress, a.BankSwiftCode, a.Details).Scan(&a.UpdatedAt)
	return translate(err, domain.ErrAccountNotFound, "update account")
}

func (q *Queries) ArchiveAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE accounts SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_archived`, id)
	if err != nil {
		return translate(err, domain.ErrAccountNotFound, "archive account")
	}
	return requireOne(tag, domain.ErrAccountNotFound)
}
