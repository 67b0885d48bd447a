// Command inspect reads the run registry: it lists recent runs or shows one
// run with its event log, as a table or as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/danielpatrickdp/sbm-monitor/internal/registry"
)

// #region main

func main() {
	dbPath := flag.String("db", "sbm_registry.db", "registry database path")
	last := flag.Int("last", 10, "number of recent runs to list")
	runID := flag.String("run", "", "show one run with its event log")
	asJSON := flag.Bool("json", false, "emit JSON instead of a table")
	flag.Parse()

	if err := run(*dbPath, *last, *runID, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(dbPath string, last int, runID string, asJSON bool) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("registry not found: %s", dbPath)
	}
	store, err := registry.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		return showRun(store, runID, asJSON)
	}
	return listRuns(store, last, asJSON)
}

func listRuns(store *registry.Store, last int, asJSON bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(runs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN_ID\tVARIANT\tALPHA_N\tOUT_DIR\tCREATED_AT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.RunID, r.Variant, r.AlphaN, r.OutDir, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(store *registry.Store, runID string, asJSON bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	events, err := store.Events(runID)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(struct {
			Run    registry.RunRecord `json:"run"`
			Events []registry.Event   `json:"events"`
		}{rec, events})
	}

	fmt.Printf("RUN_ID:        %s\n", rec.RunID)
	fmt.Printf("VARIANT:       %s\n", rec.Variant)
	fmt.Printf("ALPHA_N:       %d\n", rec.AlphaN)
	fmt.Printf("OUT_DIR:       %s\n", rec.OutDir)
	fmt.Printf("MANIFEST_SHA:  %s\n", rec.ManifestSHA256)
	fmt.Printf("CREATED_AT:    %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("CONFIG:        %s\n", rec.ConfigJSON)
	if len(events) > 0 {
		fmt.Println("EVENTS:")
		for _, e := range events {
			fmt.Printf("  %s  %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Event, e.Detail)
		}
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// #endregion run
