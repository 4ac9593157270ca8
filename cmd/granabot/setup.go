package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gustavohm/granabot/internal/model"
	"github.com/gustavohm/granabot/internal/storage"
)

// setupCmd groups the provisioning commands. The conversational flow only
// reads this configuration; creating budgets, members, accounts and scheduled
// rows happens here.
func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision budgets, members, accounts and scheduled transactions",
	}

	cmd.AddCommand(setupBudgetCmd())
	cmd.AddCommand(setupMemberCmd())
	cmd.AddCommand(setupAccountCmd())
	cmd.AddCommand(setupCategoryCmd())
	cmd.AddCommand(setupSourceCmd())
	cmd.AddCommand(setupGoalCmd())
	cmd.AddCommand(setupScheduledCmd())
	return cmd
}

func openStore() (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func setupBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Create a budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budget, err := store.CreateBudget(cmd.Context(), name)
			if err != nil {
				return err
			}
			slog.Info("budget created", "id", budget.ID, "name", budget.Name)
			return nil
		},
	}
	cmd.Flags().String("name", "", "budget name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setupMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Link a Telegram chat to a budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			chatID, _ := cmd.Flags().GetInt64("chat")
			name, _ := cmd.Flags().GetString("name")

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			member, err := store.CreateMember(cmd.Context(), budgetID, chatID, name)
			if err != nil {
				return err
			}
			slog.Info("member created", "id", member.ID, "chat_id", chatID)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().Int64("chat", 0, "Telegram chat id")
	cmd.Flags().String("name", "", "member display name")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}

func setupAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create a paying account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			name, _ := cmd.Flags().GetString("name")
			accountType, _ := cmd.Flags().GetString("type")
			closingDay, _ := cmd.Flags().GetInt("closing-day")
			isDefault, _ := cmd.Flags().GetBool("default")

			switch model.AccountType(accountType) {
			case model.AccountTypeChecking, model.AccountTypeSavings, model.AccountTypeCredit, model.AccountTypeCash:
			default:
				return fmt.Errorf("invalid account type %q", accountType)
			}

			account := &model.Account{
				BudgetID:  budgetID,
				Name:      name,
				Type:      model.AccountType(accountType),
				IsDefault: isDefault,
			}
			if closingDay > 0 {
				account.ClosingDay = &closingDay
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateAccount(cmd.Context(), account); err != nil {
				return err
			}
			slog.Info("account created", "id", account.ID, "name", name, "type", accountType)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().String("name", "", "account name")
	cmd.Flags().String("type", "checking", "account type (checking, savings, credit, cash)")
	cmd.Flags().Int("closing-day", 0, "statement closing day, credit cards only")
	cmd.Flags().Bool("default", false, "use as the default account")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setupCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create an expense category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			name, _ := cmd.Flags().GetString("name")
			group, _ := cmd.Flags().GetString("group")

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.CreateCategory(cmd.Context(), budgetID, name, group)
			if err != nil {
				return err
			}
			slog.Info("category created", "id", cat.ID, "name", name, "group", group)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().String("name", "", "category name")
	cmd.Flags().String("group", "", "parent group label")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setupSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Create an income source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			name, _ := cmd.Flags().GetString("name")

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			source := &model.IncomeSource{BudgetID: budgetID, Name: name, IsActive: true}
			if err := store.CreateIncomeSource(cmd.Context(), source); err != nil {
				return err
			}
			slog.Info("income source created", "id", source.ID, "name", name)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().String("name", "", "source name")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setupGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Create a savings goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			name, _ := cmd.Flags().GetString("name")
			target, _ := cmd.Flags().GetInt64("target-cents")

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			goal := &model.Goal{BudgetID: budgetID, Name: name, TargetCents: target}
			if err := store.CreateGoal(cmd.Context(), goal); err != nil {
				return err
			}
			slog.Info("goal created", "id", goal.ID, "name", name)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().String("name", "", "goal name")
	cmd.Flags().Int64("target-cents", 0, "target amount in cents")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setupScheduledCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "Seed a scheduled (pending) transaction for a month",
		Long: `Insert a pending ledger row the bot will try to reconcile when the user
reports the matching payment or deposit. Typically seeded once per month for
recurring bills and salaries.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgetID, _ := cmd.Flags().GetString("budget")
			kind, _ := cmd.Flags().GetString("kind")
			amount, _ := cmd.Flags().GetInt64("amount-cents")
			categoryID, _ := cmd.Flags().GetString("category")
			sourceID, _ := cmd.Flags().GetString("source")
			description, _ := cmd.Flags().GetString("description")
			dateStr, _ := cmd.Flags().GetString("date")

			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", dateStr, err)
			}

			var txnKind model.TransactionKind
			switch strings.ToLower(kind) {
			case "expense":
				txnKind = model.KindExpense
			case "income":
				txnKind = model.KindIncome
			default:
				return fmt.Errorf("invalid kind %q, want expense or income", kind)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn := &model.Transaction{
				ID:             uuid.NewString(),
				BudgetID:       budgetID,
				CategoryID:     categoryID,
				IncomeSourceID: sourceID,
				Description:    description,
				Kind:           txnKind,
				Status:         model.StatusPending,
				AmountCents:    amount,
				Date:           date,
			}
			if err := store.InsertTransaction(cmd.Context(), txn); err != nil {
				return err
			}
			slog.Info("scheduled transaction seeded",
				"id", txn.ID,
				"kind", kind,
				"amount_cents", amount,
				"date", dateStr)
			return nil
		},
	}
	cmd.Flags().String("budget", "", "budget id")
	cmd.Flags().String("kind", "expense", "transaction kind (expense, income)")
	cmd.Flags().Int64("amount-cents", 0, "expected amount in cents")
	cmd.Flags().String("category", "", "category id, expenses only")
	cmd.Flags().String("source", "", "income source id, income only")
	cmd.Flags().String("description", "", "free-text description")
	cmd.Flags().String("date", "", "due date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("budget")
	_ = cmd.MarkFlagRequired("amount-cents")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
