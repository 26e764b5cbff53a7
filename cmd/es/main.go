// Command es searches the DOJ Epstein Library from the terminal.
//
// Usage:
//
//	es "maxwell"
//	es "flight logs" -n 100
//	es "epstein" --json > results.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gwbischof/epstein-search/pkg/client"
	"github.com/gwbischof/epstein-search/pkg/events"
	"github.com/gwbischof/epstein-search/pkg/extract"
	"github.com/gwbischof/epstein-search/pkg/logging"
	"github.com/gwbischof/epstein-search/pkg/search"
)

const version = "0.1.0"

func main() {
	// Missing .env is fine; the API itself needs no credentials.
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "es",
		Usage:     "Search the DOJ Epstein Library",
		UsageText: "es [options] \"query\"\n\nOR queries: es \"maxwell | flight logs\"",
		Version:   version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "n",
				Usage: "Number of results (default: 0 = all)",
			},
			&cli.IntFlag{
				Name:    "skip",
				Aliases: []string{"s"},
				Usage:   "Skip first N results",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output results as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print all metadata for each result",
			},
			&cli.BoolFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Only show total result count",
			},
			&cli.BoolFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "Download PDFs and extract text",
			},
			&cli.BoolFlag{
				Name:    "events",
				Aliases: []string{"e"},
				Usage:   "Extract events with timestamps from PDFs using AI",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "OpenRouter model ID for --events",
				EnvVars: []string{"ES_MODEL"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of parallel workers for --text and --events",
				Value:   events.DefaultWorkers,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"ES_LOG_LEVEL"},
				Value:   string(logging.LevelWarn),
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(c.String("log-level")),
		Pretty: true,
	})

	rawQuery := strings.TrimSpace(c.Args().First())
	if rawQuery == "" {
		cli.ShowAppHelpAndExit(c, 1)
	}

	queries := search.ParseQueries(rawQuery)
	if len(queries) == 0 {
		return fmt.Errorf("query must not be empty")
	}

	lib, err := client.New(client.DefaultConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	svc := search.NewService(lib, search.WithFallback(search.NewFileMirror(lib, "")))

	if c.Bool("count") {
		if len(queries) > 1 {
			return fmt.Errorf("--count does not support OR queries")
		}
		total, err := svc.Count(ctx, queries[0])
		if err != nil {
			return err
		}
		fmt.Println(total)
		return nil
	}

	limit := c.Int("n")
	if limit < 0 {
		limit = 0
	}
	skip := c.Int("skip")

	switch {
	case c.Bool("events"):
		return runEvents(ctx, c, lib, svc, queries, rawQuery, limit, skip)
	case c.Bool("text"):
		return runText(ctx, c, lib, svc, queries, limit, skip)
	}

	it := svc.Search(queries, limit, skip)
	if c.Bool("json") {
		return printJSON(ctx, it)
	}
	if c.Bool("verbose") {
		return printVerbose(ctx, it)
	}
	return printDefault(ctx, it)
}

// runText downloads each result's PDF and prints the extracted text.
func runText(ctx context.Context, c *cli.Context, lib *client.Client, svc *search.Service, queries []string, limit, skip int) error {
	records, err := collect(ctx, svc, queries, limit, skip)
	if err != nil {
		return err
	}

	ex := extract.New(lib, c.Int("workers"))
	return ex.Run(ctx, records, func(rec search.Record) {
		fmt.Printf("\n\n%s\n", header(rec.Filename))
		fmt.Println(encodeURL(rec.URL) + "\n")
		fmt.Println(rec.Text)
	})
}

// runEvents extracts text from each result and asks the model for dated
// events, streaming per-document output as extractions complete.
func runEvents(ctx context.Context, c *cli.Context, lib *client.Client, svc *search.Service, queries []string, rawQuery string, limit, skip int) error {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("--events requires OPENROUTER_API_KEY")
	}

	records, err := collect(ctx, svc, queries, limit, skip)
	if err != nil {
		return err
	}

	ex := extract.New(lib, c.Int("workers"))
	withText := make([]search.Record, 0, len(records))
	if err := ex.Run(ctx, records, func(rec search.Record) {
		withText = append(withText, rec)
	}); err != nil {
		return err
	}

	extractor, err := events.New(events.Config{
		APIKey:  apiKey,
		Model:   c.String("model"),
		Workers: c.Int("workers"),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		fmt.Println("[")
		first := true
		err = extractor.Run(ctx, rawQuery, withText, func(r events.Result) {
			if len(r.Events) == 0 {
				return
			}
			entry := struct {
				Filename string         `json:"filename"`
				URL      string         `json:"url"`
				Events   []events.Event `json:"events"`
			}{r.Record.Filename, encodeURL(r.Record.URL), r.Events}
			data, merr := json.MarshalIndent(entry, "", "  ")
			if merr != nil {
				log.Error().Err(merr).Str("filename", r.Record.Filename).Msg("Failed to marshal entry")
				return
			}
			if !first {
				fmt.Println(",")
			}
			fmt.Print(string(data))
			first = false
		})
		fmt.Println("\n]")
		return err
	}

	return extractor.Run(ctx, rawQuery, withText, func(r events.Result) {
		fmt.Printf("\n%s\n", header(r.Record.Filename))
		fmt.Println(encodeURL(r.Record.URL))
		for _, ev := range r.Events {
			loc := ""
			if ev.Location != "" {
				loc = " @ " + ev.Location
			}
			fmt.Printf("  [%s]%s %s\n", ev.Timestamp, loc, ev.Summary)
		}
	})
}

// collect drains a search into a slice. Text and events modes default to a
// single result when -n is not given, since each one costs a PDF download.
func collect(ctx context.Context, svc *search.Service, queries []string, limit, skip int) ([]search.Record, error) {
	if limit == 0 {
		limit = 1
	}
	return search.Collect(ctx, svc.Search(queries, limit, skip))
}

func printDefault(ctx context.Context, it search.Iterator) error {
	for it.Next(ctx) {
		rec := it.Record()
		fmt.Println(encodeURL(rec.URL))
		for _, h := range rec.Highlights {
			fmt.Printf("  %s\n", flattenHighlight(h))
		}
		fmt.Println()
	}
	return it.Err()
}

func printVerbose(ctx context.Context, it search.Iterator) error {
	for it.Next(ctx) {
		rec := it.Record()
		fmt.Printf("\n\n%s\n\n", header(rec.Filename))
		for _, f := range recordFields(rec) {
			fmt.Printf("%-17s %s\n", f.name+":", f.value)
		}
		if len(rec.Highlights) > 0 {
			fmt.Println("highlights:")
			for _, h := range rec.Highlights {
				fmt.Printf("  %s\n", flattenHighlight(h))
			}
		}
	}
	return it.Err()
}

// printJSON streams raw hits as a JSON array, re-encoding the file URI so
// the URLs stay clickable.
func printJSON(ctx context.Context, it search.Iterator) error {
	fmt.Println("[")
	first := true
	for it.Next(ctx) {
		rec := it.Record()
		if len(rec.Raw) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(rec.Raw, &raw); err != nil {
			continue
		}
		if src, ok := raw["_source"].(map[string]any); ok {
			if uri, ok := src["ORIGIN_FILE_URI"].(string); ok {
				src["ORIGIN_FILE_URI"] = encodeURL(uri)
			}
		}
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			continue
		}
		if !first {
			fmt.Println(",")
		}
		fmt.Print(string(data))
		first = false
	}
	fmt.Println("\n]")
	return it.Err()
}

type field struct {
	name  string
	value string
}

func recordFields(rec search.Record) []field {
	return []field{
		{"document_id", rec.DocumentID},
		{"filename", rec.Filename},
		{"url", encodeURL(rec.URL)},
		{"key", rec.Key},
		{"bucket", rec.Bucket},
		{"content_type", rec.ContentType},
		{"file_size", formatInt64(rec.FileSize)},
		{"total_words", formatInt(rec.TotalWords)},
		{"total_characters", formatInt(rec.TotalCharacters)},
		{"start_page", formatInt(rec.StartPage)},
		{"end_page", formatInt(rec.EndPage)},
		{"chunk_index", formatInt(rec.ChunkIndex)},
		{"total_chunks", formatInt(rec.TotalChunks)},
		{"chunk_size", formatInt(rec.ChunkSize)},
		{"char_start", formatInt(rec.CharStart)},
		{"char_end", formatInt(rec.CharEnd)},
		{"is_chunked", formatBool(rec.IsChunked)},
		{"processed_at", rec.ProcessedAt},
		{"indexed_at", rec.IndexedAt},
		{"source", rec.Source},
		{"score", fmt.Sprintf("%g", rec.Score)},
	}
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%t", *v)
}

func header(filename string) string {
	pad := 55 - len(filename)
	if pad < 0 {
		pad = 0
	}
	return fmt.Sprintf("--- %s %s", filename, strings.Repeat("-", pad))
}

// encodeURL encodes spaces so the printed URL stays clickable.
func encodeURL(url string) string {
	return strings.ReplaceAll(url, " ", "%20")
}

func flattenHighlight(h string) string {
	return strings.TrimSpace(strings.ReplaceAll(h, "\n", " "))
}
