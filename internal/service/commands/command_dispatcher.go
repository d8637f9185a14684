package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

var commandReplies = map[models.CommandType]models.CommandReply{
	models.CommandSale: {
		Title:   "Sale",
		Message: "List each item and quantity, e.g. sale widget:2 Desk Lamp:1.",
	},
	models.CommandPurchase: {
		Title:   "New Stock",
		Message: "Give the item name, quantity, unit cost and selling price, e.g. purchase Desk Lamp 5 12.50 25.",
	},
	models.CommandRestock: {
		Title:   "Restock",
		Message: "Give the item, quantity and new unit cost, e.g. restock widget 10 2.40.",
	},
	models.CommandExpense: {
		Title:   "Expense",
		Message: "Give the amount then a description, e.g. expense 120 shop rent.",
	},
	models.CommandAdjust: {
		Title:   "Stock Adjustment",
		Message: "Give the item, a signed quantity and a reason, e.g. adjust widget -2 damaged in transit.",
	},
	models.CommandSummary: {
		Title:   "Summary",
		Message: "Optionally give start and end dates, e.g. summary 2024-01-01 2024-01-31.",
	},
	models.CommandUnknown: {
		Title:   "Command Help",
		Message: "Supported: sale, purchase, restock, expense, adjust, summary, stock, help.",
	},
}

// Ledger is the subset of the ledger engine the dispatcher drives.
type Ledger interface {
	RecordSale(ctx context.Context, lines []ledger.SaleLine) (models.Transaction, error)
	RecordPurchase(ctx context.Context, in ledger.PurchaseInput) (models.Transaction, error)
	RecordExpense(ctx context.Context, description string, amount decimal.Decimal) (models.Transaction, error)
	AdjustStock(ctx context.Context, itemID string, change int, reason string) (models.Transaction, error)
	FindItem(ref string) (models.InventoryItem, error)
	Inventory() []models.InventoryItem
	Summary(r models.DateRange) models.FinancialSummary
}

// Dispatcher executes parsed text commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command) (models.CommandReply, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	ledger Ledger
	loc    *time.Location
	logger *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(l Ledger, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: l, loc: loc, logger: logger}
}

// Help returns the usage reply for a command type.
func Help(t models.CommandType) models.CommandReply {
	reply, ok := commandReplies[t]
	if !ok {
		return commandReplies[models.CommandUnknown]
	}
	return reply
}

// HandleCommand runs cmd against the ledger. When the ledger commits but the
// state cannot be saved, the reply is still returned together with the
// persistence error.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandSale:
		return s.handleSale(ctx, cmd)
	case models.CommandPurchase:
		return s.handlePurchase(ctx, cmd)
	case models.CommandRestock:
		return s.handleRestock(ctx, cmd)
	case models.CommandExpense:
		return s.handleExpense(ctx, cmd)
	case models.CommandAdjust:
		return s.handleAdjust(ctx, cmd)
	case models.CommandSummary:
		return s.handleSummary(cmd)
	case models.CommandStock:
		return s.handleStock(), nil
	case models.CommandHelp:
		return Help(models.CommandUnknown), nil
	default:
		return Help(models.CommandUnknown), ErrUnsupportedCommand
	}
}

func (s *Service) handleSale(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	refs, err := parseSaleLines(cmd.Args)
	if err != nil {
		return usage(cmd.Type)
	}

	lines := make([]ledger.SaleLine, 0, len(refs))
	for _, ref := range refs {
		item, err := s.ledger.FindItem(ref.item)
		if err != nil {
			return models.CommandReply{}, err
		}
		lines = append(lines, ledger.SaleLine{ItemID: item.ID, Quantity: ref.quantity})
	}

	tx, err := s.ledger.RecordSale(ctx, lines)
	if err != nil && tx.ID == "" {
		return models.CommandReply{}, err
	}
	return models.CommandReply{
		Title: "Sale Recorded",
		Message: fmt.Sprintf("%s: revenue %s, cost of goods %s.",
			tx.Description, tx.Amount.StringFixed(2), tx.CostOfGoods().StringFixed(2)),
	}, err
}

type saleRef struct {
	item     string
	quantity int
}

// parseSaleLines reads "<item>:<qty>" pairs. Item names may span several
// words, so words without a colon belong to the next pair.
func parseSaleLines(args []string) ([]saleRef, error) {
	var (
		refs []saleRef
		name []string
	)
	for _, arg := range args {
		sep := strings.LastIndex(arg, ":")
		if sep < 0 {
			name = append(name, arg)
			continue
		}
		if sep > 0 {
			name = append(name, arg[:sep])
		}
		qty, err := strconv.Atoi(arg[sep+1:])
		if err != nil || len(name) == 0 {
			return nil, ErrInvalidArguments
		}
		refs = append(refs, saleRef{item: strings.Join(name, " "), quantity: qty})
		name = name[:0]
	}
	if len(refs) == 0 || len(name) > 0 {
		return nil, ErrInvalidArguments
	}
	return refs, nil
}

func (s *Service) handlePurchase(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	if len(cmd.Args) < 4 {
		return usage(cmd.Type)
	}
	n := len(cmd.Args)
	qty, err := strconv.Atoi(cmd.Args[n-3])
	if err != nil {
		return usage(cmd.Type)
	}
	cost, err := decimal.NewFromString(cmd.Args[n-2])
	if err != nil {
		return usage(cmd.Type)
	}
	price, err := decimal.NewFromString(cmd.Args[n-1])
	if err != nil {
		return usage(cmd.Type)
	}

	tx, err := s.ledger.RecordPurchase(ctx, ledger.PurchaseInput{
		Name:          strings.Join(cmd.Args[:n-3], " "),
		Quantity:      qty,
		PurchasePrice: cost,
		SellingPrice:  price,
		IsNew:         true,
	})
	if err != nil && tx.ID == "" {
		return models.CommandReply{}, err
	}
	return purchaseReply(tx), err
}

func (s *Service) handleRestock(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	if len(cmd.Args) < 3 {
		return usage(cmd.Type)
	}
	n := len(cmd.Args)
	qty, err := strconv.Atoi(cmd.Args[n-2])
	if err != nil {
		return usage(cmd.Type)
	}
	cost, err := decimal.NewFromString(cmd.Args[n-1])
	if err != nil {
		return usage(cmd.Type)
	}
	item, err := s.ledger.FindItem(strings.Join(cmd.Args[:n-2], " "))
	if err != nil {
		return models.CommandReply{}, err
	}

	tx, err := s.ledger.RecordPurchase(ctx, ledger.PurchaseInput{
		ItemID:        item.ID,
		Quantity:      qty,
		PurchasePrice: cost,
	})
	if err != nil && tx.ID == "" {
		return models.CommandReply{}, err
	}
	return purchaseReply(tx), err
}

func (s *Service) handleExpense(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	if len(cmd.Args) < 2 {
		return usage(cmd.Type)
	}
	amount, err := decimal.NewFromString(cmd.Args[0])
	if err != nil {
		return usage(cmd.Type)
	}

	tx, err := s.ledger.RecordExpense(ctx, strings.Join(cmd.Args[1:], " "), amount)
	if err != nil && tx.ID == "" {
		return models.CommandReply{}, err
	}
	return models.CommandReply{
		Title:   "Expense Recorded",
		Message: fmt.Sprintf("Expense logged: %s %s.", tx.Description, tx.Amount.StringFixed(2)),
	}, err
}

// handleAdjust reads "<item> <change> <reason>". The change is the first
// signed integer after which the words before it name a known item.
func (s *Service) handleAdjust(ctx context.Context, cmd models.Command) (models.CommandReply, error) {
	var (
		item    models.InventoryItem
		change  int
		at      = -1
		findErr error
	)
	for i := 1; i < len(cmd.Args)-1; i++ {
		n, err := strconv.Atoi(strings.TrimPrefix(cmd.Args[i], "+"))
		if err != nil {
			continue
		}
		found, err := s.ledger.FindItem(strings.Join(cmd.Args[:i], " "))
		if err != nil {
			if findErr == nil {
				findErr = err
			}
			continue
		}
		item, change, at = found, n, i
		break
	}
	if at < 0 {
		if findErr != nil {
			return models.CommandReply{}, findErr
		}
		return usage(cmd.Type)
	}

	tx, err := s.ledger.AdjustStock(ctx, item.ID, change, strings.Join(cmd.Args[at+1:], " "))
	if err != nil && tx.ID == "" {
		return models.CommandReply{}, err
	}
	return models.CommandReply{Title: "Stock Adjusted", Message: tx.Description + "."}, err
}

func (s *Service) handleSummary(cmd models.Command) (models.CommandReply, error) {
	var start, end string
	if len(cmd.Args) > 0 {
		start = cmd.Args[0]
	}
	if len(cmd.Args) > 1 {
		end = cmd.Args[1]
	}
	r, err := reporting.ParseRange(start, end, s.loc)
	if err != nil {
		return Help(models.CommandSummary), fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	return models.CommandReply{
		Title:   "Financial Summary",
		Message: reporting.FormatSummary(s.ledger.Summary(r), r),
	}, nil
}

func (s *Service) handleStock() models.CommandReply {
	items := s.ledger.Inventory()
	if len(items) == 0 {
		return models.CommandReply{Title: "Stock", Message: "No items in inventory."}
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s): %d @ %s", item.Name, item.ID, item.Quantity, item.SellingPrice.StringFixed(2))
	}
	return models.CommandReply{Title: "Stock", Message: b.String()}
}

func purchaseReply(tx models.Transaction) models.CommandReply {
	qty := 0
	if len(tx.Items) > 0 {
		qty = tx.Items[0].Quantity
	}
	return models.CommandReply{
		Title:   "Purchase Recorded",
		Message: fmt.Sprintf("%s: %d units for %s.", tx.Description, qty, tx.Amount.StringFixed(2)),
	}
}

func usage(t models.CommandType) (models.CommandReply, error) {
	return Help(t), ErrInvalidArguments
}
