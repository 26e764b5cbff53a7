// Command estl merges event-extraction output from one or more es runs into
// a single chronological timeline.
//
// Usage:
//
//	es "flight logs" -e -j -n 20 >> events.json
//	es "maxwell" -e -j -n 20 >> events.json
//	estl events.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gwbischof/epstein-search/pkg/timeline"
)

func main() {
	app := &cli.App{
		Name:      "estl",
		Usage:     "Build a chronological timeline from es --events --json output",
		UsageText: "estl <events-file>\n\nReads stdin when no file is given.",
		Action:    runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	in := os.Stdin
	if c.NArg() > 0 {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	docs, err := timeline.ParseConcatenated(in)
	if err != nil {
		return err
	}

	entries := timeline.Flatten(docs)
	timeline.Sort(entries)

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
