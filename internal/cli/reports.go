package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/mamadbah2/shopledger/internal/service/export"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
	"github.com/mamadbah2/shopledger/pkg/clients/gotenberg"
)

type exportCmd struct {
	env          *Env
	format       string
	output       string
	start        string
	end          string
	summary      bool
	transactions bool
	inventory    bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a custom report as pdf, html or csv" }
func (*exportCmd) Usage() string {
	return `shopledger export [-format pdf|html|csv] [-o <file>] [-start <YYYY-MM-DD>] [-end <YYYY-MM-DD>]
                  [-summary] [-transactions] [-inventory]

  Writes a report with the selected sections. PDF output needs GOTENBERG_URL.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", string(export.FormatPDF), "Output format: pdf, html or csv.")
	f.StringVar(&c.output, "o", "", "Output file. Defaults to Shop-Ledger-Report-<date>.<format>.")
	f.StringVar(&c.start, "start", "", "First day of the range.")
	f.StringVar(&c.end, "end", "", "Last day of the range.")
	f.BoolVar(&c.summary, "summary", true, "Include the financial summary.")
	f.BoolVar(&c.transactions, "transactions", true, "Include the transaction list.")
	f.BoolVar(&c.inventory, "inventory", false, "Include the inventory status.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return c.env.usage("Error: %v", err)
	}
	loc := c.env.Config.Location()
	r, err := reporting.ParseRange(c.start, c.end, loc)
	if err != nil {
		return c.env.usage("Error parsing range: %v", err)
	}
	opts := export.Options{Summary: c.summary, Transactions: c.transactions, Inventory: c.inventory}
	if opts.Empty() {
		return c.env.usage("Error: %v", export.ErrNoSections)
	}

	var renderer gotenberg.Client
	if url := c.env.Config.Reporting.GotenbergURL; url != "" {
		renderer = gotenberg.NewClient(url)
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		exporter := export.NewExporter(svc, renderer, c.env.currency(), loc, c.env.Logger.Named("svc.export"))
		doc, err := exporter.Export(ctx, format, r, opts)
		if err != nil {
			return c.env.fail("Error exporting report: %v", err)
		}

		path := c.output
		if path == "" {
			path = doc.FileName
		}
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return c.env.fail("Error writing %s: %v", path, err)
		}
		fmt.Fprintf(c.env.Out, "Wrote %s (%d bytes)\n", path, len(doc.Body))
		return subcommands.ExitSuccess
	})
}

type verifyCmd struct {
	env     *Env
	rebuild bool
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check stock quantities against the transaction log" }
func (*verifyCmd) Usage() string {
	return `shopledger verify [-rebuild]

  Replays the transaction log and reports items whose stored quantity differs.
  With -rebuild the stored quantities are reset to the replayed ones.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.rebuild, "rebuild", false, "Reset stored quantities to the values derived from the log.")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		problems := svc.Verify()
		for _, p := range problems {
			fmt.Fprintf(c.env.Out, "%s (%s): stored %d, derived %d: %s\n", p.ItemName, p.ItemID, p.Cached, p.Derived, p.Reason)
		}
		if len(problems) == 0 {
			fmt.Fprintln(c.env.Out, "Inventory matches the transaction log.")
			return subcommands.ExitSuccess
		}
		if !c.rebuild {
			return subcommands.ExitFailure
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		changed, err := svc.Rebuild(ctx)
		if err != nil {
			return c.env.fail("Error rebuilding quantities: %v", err)
		}
		fmt.Fprintf(c.env.Out, "Rebuilt %d item quantities.\n", changed)
		return subcommands.ExitSuccess
	})
}
