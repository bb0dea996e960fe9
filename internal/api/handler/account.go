package handler

import (
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/google/uuid"
)

// AccountHandler lets customers manage their own settlement accounts.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountFieldsRequest struct {
	AccountName   *string `json:"account_name"`
	AccountNumber *string `json:"account_number"`
	BankName      *string `json:"bank_name"`
	BankAddress   *string `json:"bank_address"`
	BankSwiftCode *string `json:"bank_swift_code"`
	Details       *string `json:"details"`
}

func (f accountFieldsRequest) toFields() service.AccountFields {
	return service.AccountFields{
		AccountName:   f.AccountName,
		AccountNumber: f.AccountNumber,
		BankName:      f.BankName,
		BankAddress:   f.BankAddress,
		BankSwiftCode: f.BankSwiftCode,
		Details:       f.Details,
	}
}

type createAccountRequest struct {
	AccountType string `json:"account_type"`
	AssetID     string `json:"asset_id"`
	accountFieldsRequest
}

// ListAccounts handles GET /v1/accounts.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list accounts")
		return
	}
	RespondJSON(w, http.StatusOK, accounts)
}

// CreateAccount handles POST /v1/accounts.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-asset-id", "asset_id must be a UUID")
		return
	}

	acct, err := h.accounts.CreateAccount(r.Context(), userID, service.CreateAccountInput{
		AccountType:   req.AccountType,
		AssetID:       assetID,
		AccountFields: req.toFields(),
	})
	if err != nil {
		writeServiceError(w, r, err, "create account")
		return
	}
	RespondJSON(w, http.StatusCreated, acct)
}

// UpdateAccount handles PATCH /v1/accounts/{id}.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	var req accountFieldsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	acct, err := h.accounts.UpdateAccount(r.Context(), userID, accountID, req.toFields())
	if err != nil {
		writeServiceError(w, r, err, "update account")
		return
	}
	RespondJSON(w, http.StatusOK, acct)
}

// ArchiveAccount handles DELETE /v1/accounts/{id}.
func (h *AccountHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	accountID, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	if err := h.accounts.ArchiveAccount(r.Context(), userID, accountID); err != nil {
		writeServiceError(w, r, err, "archive account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
