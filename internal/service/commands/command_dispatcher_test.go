package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
)

type failingSaver struct{}

func (failingSaver) SaveState(context.Context, []models.InventoryItem, []models.Transaction) error {
	return errors.New("disk full")
}

func run(t *testing.T, svc *Service, text string) (models.CommandReply, error) {
	t.Helper()
	return svc.HandleCommand(context.Background(), models.ParseCommand(text))
}

func newDispatcher(t *testing.T) (*Service, *ledger.Service) {
	t.Helper()
	l := ledger.NewService(repository.State{}, nil, nil)
	return NewService(l, nil, nil), l
}

func TestPurchaseSaleFlow(t *testing.T) {
	svc, l := newDispatcher(t)

	reply, err := run(t, svc, "purchase Desk Lamp 5 12.50 25")
	require.NoError(t, err)
	require.Equal(t, "Purchase Recorded", reply.Title)
	require.Contains(t, reply.Message, "Purchased Desk Lamp: 5 units for 62.50")

	reply, err = run(t, svc, "/purchase Pen 100 0.20 1")
	require.NoError(t, err)

	lamp, err := l.FindItem("desk lamp")
	require.NoError(t, err)

	reply, err = run(t, svc, "SALE Pen:10 "+lamp.ID+":2")
	require.NoError(t, err)
	require.Equal(t, "Sale Recorded", reply.Title)
	require.Contains(t, reply.Message, "revenue 60.00")
	require.Contains(t, reply.Message, "cost of goods 27.00")

	pen, err := l.FindItem("pen")
	require.NoError(t, err)
	require.Equal(t, 90, pen.Quantity)
}

func TestRestockAndAdjust(t *testing.T) {
	svc, l := newDispatcher(t)
	_, err := run(t, svc, "purchase Widget 10 2 5")
	require.NoError(t, err)

	reply, err := run(t, svc, "restock widget 5 2.40")
	require.NoError(t, err)
	require.Contains(t, reply.Message, "5 units for 12.00")

	reply, err = run(t, svc, "adjust Widget -3 damaged in transit")
	require.NoError(t, err)
	require.Equal(t, "Adjusted Widget by -3. Reason: damaged in transit.", reply.Message)

	reply, err = run(t, svc, "adjust Widget +1 found")
	require.NoError(t, err)
	require.Contains(t, reply.Message, "by +1")

	widget, err := l.FindItem("widget")
	require.NoError(t, err)
	require.Equal(t, 13, widget.Quantity)
	require.Equal(t, "2.4", widget.PurchasePrice.String())
}

func TestMultiWordItemNames(t *testing.T) {
	svc, l := newDispatcher(t)
	_, err := run(t, svc, "purchase Desk Lamp 5 12.50 25")
	require.NoError(t, err)
	_, err = run(t, svc, "purchase Model 3 Charger 4 8 15")
	require.NoError(t, err)

	reply, err := run(t, svc, "sale Desk Lamp:2 model 3 charger:1")
	require.NoError(t, err)
	require.Contains(t, reply.Message, "revenue 65.00")

	reply, err = run(t, svc, "adjust desk lamp -1 broken shade")
	require.NoError(t, err)
	require.Equal(t, "Adjusted Desk Lamp by -1. Reason: broken shade.", reply.Message)

	_, err = run(t, svc, "adjust Model 3 Charger 2 recount")
	require.NoError(t, err)

	lamp, err := l.FindItem("desk lamp")
	require.NoError(t, err)
	require.Equal(t, 2, lamp.Quantity)
	charger, err := l.FindItem("model 3 charger")
	require.NoError(t, err)
	require.Equal(t, 5, charger.Quantity)

	_, err = run(t, svc, "adjust Desk Shelf -1 broken")
	require.ErrorIs(t, err, ledger.ErrItemNotFound)
	_, err = run(t, svc, "sale Desk Lamp")
	require.ErrorIs(t, err, ErrInvalidArguments)
}

func TestExpenseAndSummary(t *testing.T) {
	svc, _ := newDispatcher(t)

	reply, err := run(t, svc, "expense 120 shop rent")
	require.NoError(t, err)
	require.Equal(t, "Expense logged: shop rent 120.00.", reply.Message)

	reply, err = run(t, svc, "summary")
	require.NoError(t, err)
	require.Equal(t, "Financial Summary", reply.Title)
	require.Contains(t, reply.Message, "expenses 120.00")
	require.Contains(t, reply.Message, "net profit -120.00")
	require.Contains(t, reply.Message, "Showing all available data")

	_, err = run(t, svc, "summary 2024-02-01 2024-01-01")
	require.ErrorIs(t, err, ErrInvalidArguments)
}

func TestStock(t *testing.T) {
	svc, _ := newDispatcher(t)

	reply, err := run(t, svc, "stock")
	require.NoError(t, err)
	require.Equal(t, "No items in inventory.", reply.Message)

	_, err = run(t, svc, "purchase Widget 10 2 5")
	require.NoError(t, err)
	reply, err = run(t, svc, "inventory")
	require.NoError(t, err)
	require.Contains(t, reply.Message, "Widget (")
	require.Contains(t, reply.Message, "): 10 @ 5.00")
}

func TestInvalidArguments(t *testing.T) {
	svc, _ := newDispatcher(t)
	_, err := run(t, svc, "purchase Widget 10 2 5")
	require.NoError(t, err)

	cases := []string{
		"sale",
		"sale widget",
		"sale widget:",
		"sale :3",
		"sale widget:two",
		"purchase Widget 10 2",
		"purchase Widget ten 2 5",
		"restock widget 5",
		"restock widget 5 abc",
		"expense 12",
		"expense twelve lunch",
		"adjust widget 2",
		"adjust widget lots recount",
	}
	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			reply, err := run(t, svc, text)
			require.ErrorIs(t, err, ErrInvalidArguments)
			require.NotEmpty(t, reply.Message)
		})
	}
}

func TestLedgerValidationPassesThrough(t *testing.T) {
	svc, l := newDispatcher(t)
	_, err := run(t, svc, "purchase Widget 2 2 5")
	require.NoError(t, err)

	_, err = run(t, svc, "sale widget:5")
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)
	require.True(t, ledger.IsValidation(err))

	_, err = run(t, svc, "sale gizmo:1")
	require.ErrorIs(t, err, ledger.ErrItemNotFound)

	_, err = run(t, svc, "expense 0 nothing")
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = run(t, svc, "adjust widget -3 lost")
	require.ErrorIs(t, err, ledger.ErrNegativeStock)

	require.Len(t, l.Transactions(), 1)
}

func TestPersistenceFailureStillReplies(t *testing.T) {
	l := ledger.NewService(repository.State{}, failingSaver{}, nil)
	svc := NewService(l, nil, nil)

	reply, err := run(t, svc, "expense 5 coffee")
	var perr *repository.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "Expense Recorded", reply.Title)
	require.Len(t, l.Transactions(), 1)
}

func TestHelpAndUnknown(t *testing.T) {
	svc, _ := newDispatcher(t)

	reply, err := run(t, svc, "help")
	require.NoError(t, err)
	require.Equal(t, "Command Help", reply.Title)

	reply, err = run(t, svc, "dance")
	require.ErrorIs(t, err, ErrUnsupportedCommand)
	require.Equal(t, "Command Help", reply.Title)

	require.Equal(t, "Restock", Help(models.CommandRestock).Title)
	require.Equal(t, "Command Help", Help(models.CommandStock).Title)
}
