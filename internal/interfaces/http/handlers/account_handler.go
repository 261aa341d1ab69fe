package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/internal/domain/repositories"
	"atomik.backend/internal/interfaces/http/response"
)

// AccountHandler handles account endpoints
type AccountHandler struct {
	accountRepo repositories.AccountRepository
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountRepo repositories.AccountRepository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// CreateAccount creates a new account
// POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var input struct {
		Owner   string `json:"owner" binding:"required"`
		Balance int64  `json:"balance" binding:"min=0"`
		Memo    string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	now := time.Now().UTC()
	account := &entities.Account{
		ID:        uuid.New(),
		Owner:     input.Owner,
		Balance:   input.Balance,
		Memo:      null.NewString(input.Memo, input.Memo != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.accountRepo.Add(c.Request.Context(), account); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, account)
}

// GetAccount gets one account
// GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid account id"))
		return
	}

	account, err := h.accountRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, account)
}

// ListAccounts lists all accounts
// GET /api/v1/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountRepo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if accounts == nil {
		accounts = []*entities.Account{}
	}
	response.Success(c, http.StatusOK, gin.H{"accounts": accounts})
}
