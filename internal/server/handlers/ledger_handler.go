package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/service/commands"
	"github.com/mamadbah2/shopledger/internal/service/export"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
	"github.com/mamadbah2/shopledger/pkg/clients/gotenberg"
)

// LedgerService is the ledger surface exposed over HTTP.
type LedgerService interface {
	RecordSale(ctx context.Context, lines []ledger.SaleLine) (models.Transaction, error)
	RecordPurchase(ctx context.Context, in ledger.PurchaseInput) (models.Transaction, error)
	RecordExpense(ctx context.Context, description string, amount decimal.Decimal) (models.Transaction, error)
	AdjustStock(ctx context.Context, itemID string, change int, reason string) (models.Transaction, error)
	Inventory() []models.InventoryItem
	Item(id string) (models.InventoryItem, bool)
	StockCard(itemID string) ([]models.LedgerEntry, error)
	FilteredTransactions(r models.DateRange) []models.Transaction
	Summary(r models.DateRange) models.FinancialSummary
	Verify() []ledger.Discrepancy
}

// ReportExporter renders downloadable reports.
type ReportExporter interface {
	Export(ctx context.Context, format export.Format, r models.DateRange, opts export.Options) (export.Document, error)
}

// LedgerHandler adapts the ledger, command and export services to HTTP.
type LedgerHandler struct {
	ledger   LedgerService
	commands commands.Dispatcher
	exporter ReportExporter
	loc      *time.Location
	logger   *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(svc LedgerService, dispatcher commands.Dispatcher, exporter ReportExporter, loc *time.Location, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerHandler{ledger: svc, commands: dispatcher, exporter: exporter, loc: loc, logger: logger}
}

// ListInventory returns every inventory item.
func (h *LedgerHandler) ListInventory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.ledger.Inventory()})
}

// GetItem returns one inventory item.
func (h *LedgerHandler) GetItem(c *gin.Context) {
	item, ok := h.ledger.Item(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// StockCard returns the movement history of one item.
func (h *LedgerHandler) StockCard(c *gin.Context) {
	entries, err := h.ledger.StockCard(c.Param("id"))
	if errors.Is(err, ledger.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed building stock card", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build stock card"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ListTransactions returns the transactions inside the optional start/end
// range, newest first.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	r, ok := h.bindRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": h.ledger.FilteredTransactions(r)})
}

// Summary returns the financial summary of the optional start/end range.
func (h *LedgerHandler) Summary(c *gin.Context) {
	r, ok := h.bindRange(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"range":   reporting.RangeLabel(r),
		"summary": h.ledger.Summary(r),
	})
}

// RecordSale commits a sale.
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req models.SaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lines := make([]ledger.SaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ledger.SaleLine{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	tx, err := h.ledger.RecordSale(c.Request.Context(), lines)
	h.respondCommit(c, tx, err)
}

// RecordPurchase commits a purchase of new or existing stock.
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.ledger.RecordPurchase(c.Request.Context(), ledger.PurchaseInput{
		ItemID:        req.ItemID,
		Name:          req.Name,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		IsNew:         req.IsNew,
	})
	h.respondCommit(c, tx, err)
}

// RecordExpense commits an operating expense.
func (h *LedgerHandler) RecordExpense(c *gin.Context) {
	var req models.ExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.ledger.RecordExpense(c.Request.Context(), req.Description, req.Amount)
	h.respondCommit(c, tx, err)
}

// AdjustStock commits a manual stock correction for the item in the path.
func (h *LedgerHandler) AdjustStock(c *gin.Context) {
	var req models.AdjustmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.ledger.AdjustStock(c.Request.Context(), c.Param("id"), req.Change, req.Reason)
	h.respondCommit(c, tx, err)
}

// RunCommand executes a free-text command.
func (h *LedgerHandler) RunCommand(c *gin.Context) {
	var req models.CommandRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cmd := models.ParseCommand(req.Text)
	reply, err := h.commands.HandleCommand(c.Request.Context(), cmd)

	var perr *repository.PersistenceError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"reply": reply, "persisted": true})
	case errors.As(err, &perr):
		h.logger.Error("command committed but not persisted", zap.String("command", string(cmd.Type)), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"reply": reply, "persisted": false, "error": err.Error()})
	case errors.Is(err, commands.ErrInvalidArguments), errors.Is(err, commands.ErrUnsupportedCommand):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reply": reply})
	case ledger.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed processing command", zap.String("command", string(cmd.Type)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process command"})
	}
}

// ExportReport streams a PDF, HTML or CSV report as an attachment.
func (h *LedgerHandler) ExportReport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, ok := h.bindRange(c)
	if !ok {
		return
	}
	opts, err := exportOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.exporter.Export(c.Request.Context(), format, r, opts)
	switch {
	case err == nil:
	case errors.Is(err, export.ErrNoSections):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gotenberg.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pdf rendering is not configured"})
		return
	default:
		h.logger.Error("failed exporting report", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to render report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// Verify replays the transaction log against cached quantities.
func (h *LedgerHandler) Verify(c *gin.Context) {
	problems := h.ledger.Verify()
	if problems == nil {
		problems = []ledger.Discrepancy{}
	}
	c.JSON(http.StatusOK, gin.H{"consistent": len(problems) == 0, "discrepancies": problems})
}

func (h *LedgerHandler) respondCommit(c *gin.Context, tx models.Transaction, err error) {
	var perr *repository.PersistenceError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"transaction": tx, "persisted": true})
	case errors.As(err, &perr):
		c.JSON(http.StatusCreated, gin.H{"transaction": tx, "persisted": false, "error": err.Error()})
	case ledger.IsValidation(err):
		h.logger.Debug("rejected ledger operation", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("ledger operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *LedgerHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *LedgerHandler) bindRange(c *gin.Context) (models.DateRange, bool) {
	r, err := reporting.ParseRange(c.Query("start"), c.Query("end"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.DateRange{}, false
	}
	return r, true
}

// exportOptions reads the section flags. With no flag given the summary and
// the transaction list are exported.
func exportOptions(c *gin.Context) (export.Options, error) {
	opts := export.Options{Summary: true, Transactions: true}
	_, hasSummary := c.GetQuery("summary")
	_, hasTransactions := c.GetQuery("transactions")
	_, hasInventory := c.GetQuery("inventory")
	if !hasSummary && !hasTransactions && !hasInventory {
		return opts, nil
	}

	var err error
	if opts.Summary, err = queryBool(c, "summary"); err != nil {
		return opts, err
	}
	if opts.Transactions, err = queryBool(c, "transactions"); err != nil {
		return opts, err
	}
	if opts.Inventory, err = queryBool(c, "inventory"); err != nil {
		return opts, err
	}
	return opts, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	value, ok := c.GetQuery(key)
	if !ok || value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return b, nil
}
