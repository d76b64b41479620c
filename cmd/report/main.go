package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"referral-attribution/internal/reporting"
	"referral-attribution/internal/storage"
	"referral-attribution/internal/storage/memory"
	pgstore "referral-attribution/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	token := flag.String("token", "", "Reward token address to report balances for")
	roundsFlag := flag.String("rounds", "", "Comma-separated lottery round indexes to include")
	outputDir := flag.String("output-dir", "", "Directory for REPORT.md and CSV files (empty prints tables only)")
	useMemory := flag.Bool("use-memory", false, "Use empty in-memory stores (smoke testing)")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: --token is required")
		os.Exit(1)
	}
	if !*useMemory && *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required (use --use-memory for empty stores)")
		os.Exit(1)
	}

	roundIDs, err := parseRounds(*roundsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		balances storage.BalanceStore         = memory.NewBalanceStore()
		volumes  storage.GeneratedVolumeStore = memory.NewGeneratedVolumeStore()
		rounds   storage.LotteryRoundStore    = memory.NewLotteryRoundStore()
		entries  storage.UserLotteryStore     = memory.NewUserLotteryStore()
	)

	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		balances = pgstore.NewBalanceStore(pool)
		volumes = pgstore.NewGeneratedVolumeStore(pool)
		rounds = pgstore.NewLotteryRoundStore(pool)
		entries = pgstore.NewUserLotteryStore(pool)
	}

	generator := reporting.NewGenerator(balances, volumes, rounds, entries)
	report, err := generator.Generate(ctx, *token, roundIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	printReport(report)

	if *outputDir != "" {
		if err := writeReportFiles(report, *outputDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report files: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Report files written:")
		fmt.Printf("  - %s/REPORT.md\n", *outputDir)
		fmt.Printf("  - %s/BALANCES.csv\n", *outputDir)
		fmt.Printf("  - %s/VOLUMES.csv\n", *outputDir)
	}
}

func parseRounds(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad round index %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

// printReport renders the report sections as tables on stdout.
func printReport(r *reporting.Report) {
	fmt.Printf("Referral rewards report for %s\n", r.RewardToken)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Reward Balances")
	t.AppendHeader(table.Row{"Account", "Amount", "Last Update"})
	for _, b := range r.Balances {
		t.AppendRow(table.Row{b.Account, b.Amount, b.LastUpdate})
	}
	t.Render()

	t = table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Lifetime Volume")
	t.AppendHeader(table.Row{"Account", "Pair", "As Trader", "As Referrer", "As Grandparent"})
	for _, v := range r.Volumes {
		pair := v.Pair
		if pair == "" {
			pair = "(global)"
		}
		t.AppendRow(table.Row{v.Account, pair, v.AsTrader, v.AsReferrer, v.AsGrandparent})
	}
	t.Render()

	for _, round := range r.Rounds {
		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(fmt.Sprintf("Lottery Round %d (%d tickets)", round.Round, round.TotalTickets))
		t.AppendHeader(table.Row{"User", "Tickets"})
		for _, e := range round.Entries {
			t.AppendRow(table.Row{e.User, e.Tickets})
		}
		t.Render()
	}
}

func writeReportFiles(r *reporting.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"REPORT.md":    reporting.RenderMarkdown(r),
		"BALANCES.csv": reporting.RenderBalancesCSV(r.Balances),
		"VOLUMES.csv":  reporting.RenderVolumesCSV(r.Volumes),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
