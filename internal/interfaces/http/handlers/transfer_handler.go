package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/internal/interfaces/http/response"
	"atomik.backend/internal/usecases"
)

// TransferHandler handles transfer endpoints
type TransferHandler struct {
	transferUsecase *usecases.TransferUsecase
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferUsecase *usecases.TransferUsecase) *TransferHandler {
	return &TransferHandler{transferUsecase: transferUsecase}
}

// CreateTransfer moves funds between two accounts atomically
// POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var input struct {
		FromAccountID string `json:"fromAccountId" binding:"required"`
		ToAccountID   string `json:"toAccountId" binding:"required"`
		Amount        int64  `json:"amount" binding:"required"`
		Reference     string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	fromID, err := uuid.Parse(input.FromAccountID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid fromAccountId"))
		return
	}
	toID, err := uuid.Parse(input.ToAccountID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid toAccountId"))
		return
	}

	entry, err := h.transferUsecase.Transfer(c.Request.Context(), fromID, toID, input.Amount, input.Reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, entry)
}

// ListLedger returns the transfer history
// GET /api/v1/ledger
func (h *TransferHandler) ListLedger(c *gin.Context) {
	entries, err := h.transferUsecase.Ledger(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"entries": entries})
}
