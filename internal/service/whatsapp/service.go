// Package whatsapp lets shop operators drive the ledger with text commands
// sent over WhatsApp and receives the daily report there.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/service/commands"
	"github.com/mamadbah2/shopledger/internal/service/export"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	client "github.com/mamadbah2/shopledger/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

var (
	// ErrMissingVerifyToken indicates a verification request without mode or token.
	ErrMissingVerifyToken = errors.New("missing mode or verify token")
	// ErrInvalidVerifyToken indicates a verification request with the wrong token.
	ErrInvalidVerifyToken = errors.New("invalid verify token")
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// CommandService answers inbound WhatsApp messages by running them as ledger
// commands and replying with the outcome.
type CommandService struct {
	verifyToken string
	client      client.Client
	dispatcher  commands.Dispatcher
	logger      *zap.Logger
}

var _ MessagingService = (*CommandService)(nil)

// NewCommandService wires a new service instance.
func NewCommandService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *CommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandService{
		verifyToken: cfg.VerifyToken,
		client:      c,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// VerifyWebhookToken validates the callback verification token.
func (s *CommandService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", ErrMissingVerifyToken
	}
	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}
	if verifyToken != s.verifyToken {
		return "", ErrInvalidVerifyToken
	}
	return challenge, nil
}

// HandleWebhook runs every inbound message of payload in order. A failing
// message does not stop the others; the first error is returned.
func (s *CommandService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}
	return firstErr
}

func (s *CommandService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.CommandText()
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	reply, err := s.dispatcher.HandleCommand(ctx, cmd)

	s.logger.Info("handled inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args),
		zap.Error(err))

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, sendErr := s.client.SendTextMessage(ctx, client.SendTextMessageRequest{
		To:   msg.From,
		Body: replyBody(reply, err),
	})
	if sendErr != nil {
		return sendErr
	}
	if isOperatorError(err) {
		return nil
	}
	return err
}

// replyBody renders the outcome of a command for the sender.
func replyBody(reply models.CommandReply, err error) string {
	var perr *repository.PersistenceError
	switch {
	case err == nil:
		return reply.Title + "\n" + reply.Message
	case errors.As(err, &perr):
		return reply.Title + "\n" + reply.Message + "\nWarning: the ledger could not be saved."
	case errors.Is(err, commands.ErrInvalidArguments), errors.Is(err, commands.ErrUnsupportedCommand):
		return reply.Title + "\n" + reply.Message
	case ledger.IsValidation(err):
		return "Rejected\n" + err.Error()
	default:
		return "Error\nThe command could not be processed."
	}
}

// isOperatorError reports errors caused by what the operator typed. They are
// answered in the chat and not surfaced as webhook failures.
func isOperatorError(err error) bool {
	return errors.Is(err, commands.ErrInvalidArguments) ||
		errors.Is(err, commands.ErrUnsupportedCommand) ||
		ledger.IsValidation(err)
}

// ReportNotifier sends the daily report to one WhatsApp recipient.
type ReportNotifier struct {
	client    client.Client
	recipient string
	currency  string
}

// NewReportNotifier builds a report sink for the scheduler.
func NewReportNotifier(c client.Client, recipient, currency string) *ReportNotifier {
	return &ReportNotifier{client: c, recipient: recipient, currency: currency}
}

// SaveDailyReport sends report as a text message.
func (n *ReportNotifier) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := n.client.SendTextMessage(ctx, client.SendTextMessageRequest{
		To:   n.recipient,
		Body: DailyReportMessage(report, n.currency),
	})
	if err != nil {
		return fmt.Errorf("send daily report over whatsapp: %w", err)
	}
	return nil
}

// DailyReportMessage renders report as a chat message.
func DailyReportMessage(report models.DailyReport, currency string) string {
	s := report.Summary
	lines := []string{
		"Daily Report " + report.Date.Format("2006-01-02"),
		"Revenue: " + export.FormatMoney(s.Revenue, currency),
		"COGS: " + export.FormatMoney(s.COGS, currency),
		"Gross profit: " + export.FormatMoney(s.GrossProfit, currency),
		"Expenses: " + export.FormatMoney(s.OperatingExpenses, currency),
		"Net profit: " + export.FormatMoney(s.NetProfit, currency),
		fmt.Sprintf("Transactions: %d", s.TransactionCount),
		fmt.Sprintf("Stock value: %s across %d items", export.FormatMoney(report.InventoryValue, currency), report.ItemCount),
	}
	return strings.Join(lines, "\n")
}
