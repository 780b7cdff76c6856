/*
main.go - Batch command-line entry point

PURPOSE:
  Runs the period batches by hand, for cron jobs and operational recovery.
  The same code paths back the automated scheduler; because every batch
  upserts by natural keys, re-running a period is always safe.

SUBCOMMANDS:
  close-month          Freeze achieved-vs-target history for a month
  snapshot-month       Upsert per-employee monthly incentive totals
  reset-daily-targets  Zero the daily target counters

COMMON FLAGS:
  -db        SQLite database path (default: incentive.db)
  -year      Period year (default: previous calendar month)
  -month     Period month 1-12 (default: previous calendar month)
  -dry-run   Compute and log, write nothing

EXAMPLES:
  ./batch close-month -db=./data/incentive.db -year=2025 -month=3
  ./batch snapshot-month -dry-run
  ./batch reset-daily-targets

SEE ALSO:
  - incentive/close.go: Close implementation
  - incentive/snapshot.go: Snapshot implementation
  - api/scheduler.go: The automated equivalent
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	dbPath := fs.String("db", "incentive.db", "SQLite database path")
	year := fs.Int("year", 0, "period year (0 = previous month)")
	month := fs.Int("month", 0, "period month 1-12 (0 = previous month)")
	dryRun := fs.Bool("dry-run", false, "compute and log, write nothing")
	fs.Parse(os.Args[2:])

	if *year == 0 || *month == 0 {
		p := incentive.PreviousMonth(time.Now().UTC())
		*year, *month = p.Year, int(p.Month)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	switch cmd {
	case "close-month":
		closer := &incentive.Closer{Store: store}
		report, err := closer.Close(ctx, *year, *month, *dryRun)
		if err != nil {
			log.Fatalf("Close failed: %v", err)
		}
		fmt.Printf("close %s: %d written, %d failed (dry-run=%v)\n",
			report.Period, report.Written, report.Failed, report.DryRun)

	case "snapshot-month":
		snapshot := &incentive.SnapshotService{Store: store}
		report, err := snapshot.Snapshot(ctx, *year, *month, *dryRun)
		if err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		fmt.Printf("snapshot %s: %d written, %d skipped (dry-run=%v)\n",
			report.Period, report.Written, report.Skipped, report.DryRun)

	case "reset-daily-targets":
		if *dryRun {
			fmt.Println("reset-daily-targets: dry-run, nothing done")
			return
		}
		n, err := store.ResetDailyCounters(ctx)
		if err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		fmt.Printf("reset %d daily targets\n", n)

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: batch <command> [flags]

commands:
  close-month          freeze achieved-vs-target history for a month
  snapshot-month       upsert per-employee monthly incentive totals
  reset-daily-targets  zero the daily target counters

flags:
  -db=path -year=YYYY -month=M -dry-run`)
}
