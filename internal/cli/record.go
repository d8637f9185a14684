package cli

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/shopledger/internal/service/ledger"
)

type saleCmd struct {
	env *Env
}

func (*saleCmd) Name() string     { return "sale" }
func (*saleCmd) Synopsis() string { return "record a sale at current selling prices" }
func (*saleCmd) Usage() string {
	return `shopledger sale <item>:<qty> [<item>:<qty> ...]

  Records one sale covering every listed item. Items are referenced by id or name.
`
}

func (*saleCmd) SetFlags(*flag.FlagSet) {}

func (c *saleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.env.usage("Error: at least one <item>:<qty> is required")
	}

	type cartLine struct {
		ref string
		qty int
	}
	cart := make([]cartLine, 0, f.NArg())
	for _, arg := range f.Args() {
		sep := strings.LastIndex(arg, ":")
		if sep <= 0 || sep == len(arg)-1 {
			return c.env.usage("Error: %q is not of the form <item>:<qty>", arg)
		}
		qty, err := strconv.Atoi(arg[sep+1:])
		if err != nil {
			return c.env.usage("Error parsing quantity in %q: %v", arg, err)
		}
		cart = append(cart, cartLine{ref: arg[:sep], qty: qty})
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		lines := make([]ledger.SaleLine, 0, len(cart))
		for _, line := range cart {
			item, err := svc.FindItem(line.ref)
			if err != nil {
				return c.env.fail("Error: %v", err)
			}
			lines = append(lines, ledger.SaleLine{ItemID: item.ID, Quantity: line.qty})
		}
		return c.env.committed(svc.RecordSale(ctx, lines))
	})
}

type purchaseCmd struct {
	env   *Env
	item  string
	name  string
	qty   int
	cost  string
	price string
}

func (*purchaseCmd) Name() string     { return "purchase" }
func (*purchaseCmd) Synopsis() string { return "buy new stock or restock an existing item" }
func (*purchaseCmd) Usage() string {
	return `shopledger purchase -name <name> -qty <n> -cost <unit cost> -price <selling price>
shopledger purchase -item <item> -qty <n> -cost <unit cost>

  Records a purchase. With -name a new item is created, with -item an existing
  item is restocked and its unit cost updated.
`
}

func (c *purchaseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.item, "item", "", "Existing item id or name to restock.")
	f.StringVar(&c.name, "name", "", "Name of a new item.")
	f.IntVar(&c.qty, "qty", 0, "Quantity purchased.")
	f.StringVar(&c.cost, "cost", "", "Unit purchase price.")
	f.StringVar(&c.price, "price", "", "Selling price of a new item.")
}

func (c *purchaseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.item == "") == (c.name == "") {
		return c.env.usage("Error: exactly one of -item or -name is required")
	}
	cost, err := decimal.NewFromString(c.cost)
	if err != nil {
		return c.env.usage("Error parsing -cost: %v", err)
	}

	in := ledger.PurchaseInput{Quantity: c.qty, PurchasePrice: cost}
	if c.name != "" {
		price, err := decimal.NewFromString(c.price)
		if err != nil {
			return c.env.usage("Error parsing -price: %v", err)
		}
		in.IsNew = true
		in.Name = c.name
		in.SellingPrice = price
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		if c.item != "" {
			item, err := svc.FindItem(c.item)
			if err != nil {
				return c.env.fail("Error: %v", err)
			}
			in.ItemID = item.ID
		}
		return c.env.committed(svc.RecordPurchase(ctx, in))
	})
}

type expenseCmd struct {
	env    *Env
	amount string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record an operating expense" }
func (*expenseCmd) Usage() string {
	return `shopledger expense -amount <amount> <description...>

  Records an operating expense such as rent or utilities.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Expense amount, must be positive.")
}

func (c *expenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return c.env.usage("Error parsing -amount: %v", err)
	}
	description := strings.Join(f.Args(), " ")

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		return c.env.committed(svc.RecordExpense(ctx, description, amount))
	})
}

type adjustCmd struct {
	env    *Env
	item   string
	change int
	reason string
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "correct the stock of an item" }
func (*adjustCmd) Usage() string {
	return `shopledger adjust -item <item> -change <+/-n> -reason <reason>

  Records a manual stock correction. The resulting quantity cannot be negative.
`
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.item, "item", "", "Item id or name.")
	f.IntVar(&c.change, "change", 0, "Signed quantity change.")
	f.StringVar(&c.reason, "reason", "", "Why the stock is corrected.")
}

func (c *adjustCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.item == "" {
		return c.env.usage("Error: -item is required")
	}

	return c.env.withLedger(ctx, func(svc *ledger.Service) subcommands.ExitStatus {
		item, err := svc.FindItem(c.item)
		if err != nil {
			return c.env.fail("Error: %v", err)
		}
		return c.env.committed(svc.AdjustStock(ctx, item.ID, c.change, c.reason))
	})
}
