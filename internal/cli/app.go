// Package cli implements the shopledger command line application. Every
// command opens the configured storage, runs one ledger operation and exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/app"
	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
)

// Env carries what every command needs.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Out    io.Writer
	Err    io.Writer
}

// Register adds every shopledger command to c.
func Register(c *subcommands.Commander, env *Env) {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}

	c.Register(&saleCmd{env: env}, "record")
	c.Register(&purchaseCmd{env: env}, "record")
	c.Register(&expenseCmd{env: env}, "record")
	c.Register(&adjustCmd{env: env}, "record")

	c.Register(&inventoryCmd{env: env}, "query")
	c.Register(&transactionsCmd{env: env}, "query")
	c.Register(&summaryCmd{env: env}, "query")
	c.Register(&stockCardCmd{env: env}, "query")

	c.Register(&exportCmd{env: env}, "reports")
	c.Register(&verifyCmd{env: env}, "maintenance")
}

// withLedger opens the storage, loads the ledger and hands it to fn. The
// storage is closed once fn returns.
func (e *Env) withLedger(ctx context.Context, fn func(*ledger.Service) subcommands.ExitStatus) subcommands.ExitStatus {
	storage, err := app.OpenStorage(ctx, e.Config, false, e.Logger)
	if err != nil {
		return e.fail("Error opening storage: %v", err)
	}
	defer func() {
		if err := storage.Close(ctx); err != nil {
			fmt.Fprintf(e.Err, "Error closing storage: %v\n", err)
		}
	}()

	svc := ledger.NewService(storage.Gateway.LoadState(ctx), storage.Gateway, e.Logger.Named("svc.ledger"))
	return fn(svc)
}

// committed reports the outcome of a ledger commit.
func (e *Env) committed(tx models.Transaction, err error) subcommands.ExitStatus {
	var perr *repository.PersistenceError
	if errors.As(err, &perr) {
		return e.fail("Recorded %s but could not save the ledger: %v", tx.ID, err)
	}
	if err != nil {
		return e.fail("Error: %v", err)
	}
	fmt.Fprintf(e.Out, "%s %s: %s (%s)\n", tx.Type, tx.ID, tx.Description, tx.Amount.StringFixed(2))
	return subcommands.ExitSuccess
}

func (e *Env) fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", args...)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", args...)
	return subcommands.ExitUsageError
}

func (e *Env) currency() string {
	return e.Config.Reporting.Currency
}
