package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/store"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/penwyp/go-herdbook/internal/util"
	"github.com/spf13/cobra"
)

var (
	seedActivities   int
	seedTransactions int
	seedForce        bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the SQLite database with sample records",
	Long: `Writes a small herd of sample subjects together with generated journal
entries and expenses, newest first from the current hour backwards.

Refuses to touch a database that already holds records unless --force is given.`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedActivities, "activities", 120,
		"Number of activity records")
	seedCmd.Flags().IntVar(&seedTransactions, "transactions", 60,
		"Number of transaction records")
	seedCmd.Flags().BoolVar(&seedForce, "force", false,
		"Add records even when the database is not empty")
}

// seedResult counts what seedStore wrote
type seedResult struct {
	Subjects     int
	Activities   int
	Transactions int
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedActivities < 0 || seedTransactions < 0 {
		return fmt.Errorf("record counts must not be negative")
	}
	initLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(expandPath(cfg.Source.DBPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	now := util.GetTimeProvider().Now().Truncate(time.Hour)
	res, err := seedStore(cmd.Context(), st, seedActivities, seedTransactions, now, seedForce)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d subjects, %d activities, %d transactions into %s\n",
		res.Subjects, res.Activities, res.Transactions, st.Path())
	return nil
}

// seedStore writes sample data ending at newest. Sample subjects are only
// written into a database without subjects.
func seedStore(ctx context.Context, st *store.Store, activities, transactions int, newest time.Time, force bool) (seedResult, error) {
	subjects, acts, txns, err := st.Counts(ctx)
	if err != nil {
		return seedResult{}, err
	}
	if acts+txns > 0 && !force {
		return seedResult{}, fmt.Errorf("database already holds %d records; use --force to add more", acts+txns)
	}

	var sample []model.Subject
	if subjects == 0 {
		sample = fixtures.SampleSubjects()
	}

	actRecords := fixtures.Activities(activities, newest, 7*time.Hour)
	for i := range actRecords {
		actRecords[i].ID = ""
	}
	txnRecords := fixtures.Transactions(transactions, newest.Add(-3*time.Hour), 11*time.Hour)
	for i := range txnRecords {
		txnRecords[i].ID = ""
	}

	if err := st.Import(ctx, sample, actRecords, txnRecords); err != nil {
		return seedResult{}, fmt.Errorf("failed to seed database: %w", err)
	}

	util.LogInfof("Seeded %d subjects, %d activities, %d transactions", len(sample), len(actRecords), len(txnRecords))
	return seedResult{
		Subjects:     len(sample),
		Activities:   len(actRecords),
		Transactions: len(txnRecords),
	}, nil
}
