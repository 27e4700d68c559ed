// orgplan views and sets an organization's generation quota limits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/infra"
	"server/internal/sqlinline"
)

func main() {
	var (
		orgFlag        string
		dailyFlag      int
		monthlyFlag    int
		concurrentFlag int
		showFlag       bool
	)

	flag.StringVar(&orgFlag, "org", "", "organization ID (UUID)")
	flag.IntVar(&dailyFlag, "daily", 0, "daily seconds limit (set <=0 to keep current value)")
	flag.IntVar(&monthlyFlag, "monthly", 0, "monthly seconds limit (set <=0 to keep current value)")
	flag.IntVar(&concurrentFlag, "concurrent", 0, "max concurrent jobs (set <=0 to keep current value)")
	flag.BoolVar(&showFlag, "show", false, "print current limits without changing them")
	flag.Parse()

	orgID := strings.TrimSpace(orgFlag)
	if orgID == "" {
		exitWithError(errors.New("-org is required"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "orgplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	var (
		id         string
		daily      int
		monthly    int
		concurrent int
	)
	lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
	row := runner.QueryRow(lookupCtx, sqlinline.QSelectOrgQuotaLimits, orgID)
	scanErr := row.Scan(&id, &daily, &monthly, &concurrent)
	cancelLookup()
	if scanErr != nil {
		exitWithError(fmt.Errorf("failed to load organization: %w", scanErr))
	}

	if showFlag {
		printLimits(id, daily, monthly, concurrent)
		return
	}

	if dailyFlag <= 0 && monthlyFlag <= 0 && concurrentFlag <= 0 {
		exitWithError(errors.New("nothing to change; pass -daily, -monthly or -concurrent (or -show)"))
	}
	if dailyFlag > 0 {
		daily = dailyFlag
	}
	if monthlyFlag > 0 {
		monthly = monthlyFlag
	}
	if concurrentFlag > 0 {
		concurrent = concurrentFlag
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelUpdate()
	row = runner.QueryRow(updateCtx, sqlinline.QUpdateOrgQuotaLimits, id, daily, monthly, concurrent)
	if err := row.Scan(&id, &daily, &monthly, &concurrent); err != nil {
		exitWithError(fmt.Errorf("failed to update organization limits: %w", err))
	}

	fmt.Printf("Organization %s updated\n", id)
	printLimits(id, daily, monthly, concurrent)
}

func printLimits(id string, daily, monthly, concurrent int) {
	fmt.Printf("org=%s\n", id)
	fmt.Printf("daily_seconds_limit=%d\n", daily)
	fmt.Printf("monthly_seconds_limit=%d\n", monthly)
	fmt.Printf("max_concurrent_jobs=%d\n", concurrent)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
