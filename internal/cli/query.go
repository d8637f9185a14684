package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/mamadbah2/shopledger/internal/service/export"
	"github.com/mamadbah2/shopledger/internal/service/ledger"
	"github.com/mamadbah2/shopledger/internal/service/reporting"
)

const timestampLayout = "2006-01-02 15:04"

type inventoryCmd struct {
	env *Env
}

func (*inventoryCmd) Name() string     { return "inventory" }
func (*inventoryCmd) Synopsis() string { return "list inventory items and their stock value" }
func (*inventoryCmd) Usage() string {
	return `shopledger inventory

  Lists every item with its quantity, prices and stock value at cost.
`
}

func (*inventoryCmd) SetFlags(*flag.FlagSet) {}

func (c *inventoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		items := svc.Inventory()
		if len(items) == 0 {
			fmt.Fprintln(c.env.Out, "No items in inventory.")
			return subcommands.ExitSuccess
		}

		w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tQTY\tCOST\tPRICE\tVALUE")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				item.ID, item.Name, item.Quantity,
				export.FormatMoney(item.PurchasePrice, c.env.currency()),
				export.FormatMoney(item.SellingPrice, c.env.currency()),
				export.FormatMoney(item.StockValue(), c.env.currency()))
		}
		return flush(c.env, w)
	})
}

type transactionsCmd struct {
	env   *Env
	start string
	end   string
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list transactions, newest first" }
func (*transactionsCmd) Usage() string {
	return `shopledger transactions [-start <YYYY-MM-DD>] [-end <YYYY-MM-DD>]

  Lists transactions newest first, optionally limited to a date range. Both
  bounds are inclusive whole days.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First day of the range.")
	f.StringVar(&c.end, "end", "", "Last day of the range.")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	loc := c.env.Config.Location()
	r, err := reporting.ParseRange(c.start, c.end, loc)
	if err != nil {
		return c.env.usage("Error parsing range: %v", err)
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		txs := svc.FilteredTransactions(r)
		if len(txs) == 0 {
			fmt.Fprintln(c.env.Out, "No transactions found.")
			return subcommands.ExitSuccess
		}

		w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTYPE\tDESCRIPTION\tAMOUNT")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				tx.Timestamp.In(loc).Format(timestampLayout), tx.Type, tx.Description,
				export.SignedAmount(tx, c.env.currency()))
		}
		return flush(c.env, w)
	})
}

type summaryCmd struct {
	env   *Env
	start string
	end   string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the financial summary" }
func (*summaryCmd) Usage() string {
	return `shopledger summary [-start <YYYY-MM-DD>] [-end <YYYY-MM-DD>]

  Displays revenue, cost of goods, profits and outflows for a date range.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First day of the range.")
	f.StringVar(&c.end, "end", "", "Last day of the range.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := reporting.ParseRange(c.start, c.end, c.env.Config.Location())
	if err != nil {
		return c.env.usage("Error parsing range: %v", err)
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		s := svc.Summary(r)
		fmt.Fprintln(c.env.Out, reporting.RangeLabel(r))
		w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
		cur := c.env.currency()
		fmt.Fprintf(w, "Total Revenue\t%s\n", export.FormatMoney(s.Revenue, cur))
		fmt.Fprintf(w, "Cost of Goods Sold (COGS)\t%s\n", export.FormatMoney(s.COGS, cur))
		fmt.Fprintf(w, "Gross Profit\t%s\n", export.FormatMoney(s.GrossProfit, cur))
		fmt.Fprintf(w, "Operating Expenses\t%s\n", export.FormatMoney(s.OperatingExpenses, cur))
		fmt.Fprintf(w, "Net Profit\t%s\n", export.FormatMoney(s.NetProfit, cur))
		fmt.Fprintf(w, "Purchases\t%s\n", export.FormatMoney(s.PurchasesTotal, cur))
		fmt.Fprintf(w, "Total Outflows\t%s\n", export.FormatMoney(s.TotalOutflows, cur))
		fmt.Fprintf(w, "Transactions\t%d\n", s.TransactionCount)
		return flush(c.env, w)
	})
}

type stockCardCmd struct {
	env  *Env
	item string
}

func (*stockCardCmd) Name() string     { return "stockcard" }
func (*stockCardCmd) Synopsis() string { return "show the stock movements of one item" }
func (*stockCardCmd) Usage() string {
	return `shopledger stockcard -item <item>

  Lists every movement of an item in chronological order with the running quantity.
`
}

func (c *stockCardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.item, "item", "", "Item id or name.")
}

func (c *stockCardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.item == "" {
		return c.env.usage("Error: -item is required")
	}
	loc := c.env.Config.Location()

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		item, err := svc.FindItem(c.item)
		if err != nil {
			return c.env.fail("Error: %v", err)
		}
		entries, err := svc.StockCard(item.ID)
		if err != nil {
			return c.env.fail("Error: %v", err)
		}

		fmt.Fprintf(c.env.Out, "%s (%s)\n", item.Name, item.ID)
		w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTYPE\tCHANGE\tBALANCE\tTRANSACTION")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				entry.Timestamp.In(loc).Format(timestampLayout), entry.Type,
				entry.QuantityChange, entry.NewQuantity, entry.ID)
		}
		return flush(c.env, w)
	})
}

func flush(env *Env, w *tabwriter.Writer) subcommands.ExitStatus {
	if err := w.Flush(); err != nil {
		return env.fail("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
