package models

import "strings"

// CommandType enumerates supported text command categories.
type CommandType string

const (
	CommandSale     CommandType = "sale"
	CommandPurchase CommandType = "purchase"
	CommandRestock  CommandType = "restock"
	CommandExpense  CommandType = "expense"
	CommandAdjust   CommandType = "adjust"
	CommandSummary  CommandType = "summary"
	CommandStock    CommandType = "stock"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed instruction extracted from free text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
// Only the command keyword is case-insensitive; arguments keep their case so
// item names and descriptions survive as typed.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Raw: message}

	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch head {
	case string(CommandSale), "sales", "sell":
		cmd.Type = CommandSale
	case string(CommandPurchase), "buy":
		cmd.Type = CommandPurchase
	case string(CommandRestock):
		cmd.Type = CommandRestock
	case string(CommandExpense), "expenses":
		cmd.Type = CommandExpense
	case string(CommandAdjust):
		cmd.Type = CommandAdjust
	case string(CommandSummary):
		cmd.Type = CommandSummary
	case string(CommandStock), "inventory":
		cmd.Type = CommandStock
	case string(CommandHelp):
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
