// Package events extracts structured events from document text using an
// OpenAI-compatible chat completions API (OpenRouter by default).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gwbischof/epstein-search/pkg/search"
)

// DefaultModel is the OpenRouter model used when none is configured.
const DefaultModel = "deepseek/deepseek-chat-v3-0324"

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultWorkers is the number of documents processed in parallel.
const DefaultWorkers = 10

// Event is one extracted event with its time reference.
type Event struct {
	// Summary is a brief statement of what happened.
	Summary string `json:"summary"`

	// Timestamp is when it happened, as stated in the text.
	Timestamp string `json:"timestamp"`

	// Location is where it happened, if mentioned.
	Location string `json:"location,omitempty"`
}

// Result pairs a record with the events extracted from its text.
type Result struct {
	Record search.Record
	Events []Event
}

// Config holds extractor configuration.
type Config struct {
	// APIKey for the completions API. Required.
	APIKey string

	// BaseURL of the OpenAI-compatible endpoint. Defaults to OpenRouter.
	BaseURL string

	// Model identifier. Defaults to DefaultModel.
	Model string

	// Workers bounds parallel extractions. Defaults to DefaultWorkers.
	Workers int
}

// Extractor runs event extraction over records that carry text.
type Extractor struct {
	api     openai.Client
	model   string
	workers int
	logger  zerolog.Logger
}

const systemPrompt = "Extract events from legal documents to assist a criminal investigation. " +
	"Be objective — report only what the document states. " +
	"Focus on interactions between people: meetings, calls, trips, transactions, communications. " +
	"Flag suspected code words or euphemisms in quotes. " +
	"Format: '[Person] [action] [details]' (10-25 words). " +
	"Timestamps: use full dates (MM/DD/YYYY) when available, otherwise the most precise reference in the text. " +
	"Include location if mentioned. Require both an actor and a time reference. " +
	"Skip boilerplate and procedural language."

const userPromptFormat = "Extract events related to '%s' from the following document. " +
	"Focus on events relevant to the search term. " +
	"For each event, identify WHO did WHAT and WHEN:\n\n"

// eventListSchema is the structured output schema for one extraction call.
var eventListSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"events": map[string]any{
			"type":        "array",
			"description": "List of events extracted from the document",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Brief summary of what happened",
					},
					"timestamp": map[string]any{
						"type":        "string",
						"description": "When it happened (date, time, or date range as stated in the text)",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "Where it happened, if mentioned in the text",
					},
				},
				"required": []string{"summary", "timestamp"},
			},
		},
	},
	"required": []string{"events"},
}

// New creates an event extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)

	return &Extractor{
		api:     api,
		model:   cfg.Model,
		workers: cfg.Workers,
		logger:  log.With().Str("component", "events").Logger(),
	}, nil
}

// Extract runs one extraction call for a record that carries text. The query
// steers the model toward events relevant to the original search.
func (x *Extractor) Extract(ctx context.Context, query string, rec search.Record) ([]Event, error) {
	if rec.Text == "" {
		return nil, nil
	}

	params := openai.ChatCompletionNewParams{
		Model: x.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptFormat, query) + rec.Text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "event_list",
					Schema: eventListSchema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	resp, err := x.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("extract events from %s: %w", rec.Filename, err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var out struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode events for %s: %w", rec.Filename, err)
	}

	return out.Events, nil
}

// Run extracts events from each record in parallel and invokes yield as
// results complete, in completion order. yield is never called
// concurrently. A single failed document is logged and yielded with no
// events rather than aborting the batch.
func (x *Extractor) Run(ctx context.Context, query string, records []search.Record, yield func(Result)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)

	var mu sync.Mutex
	for _, rec := range records {
		g.Go(func() error {
			evts, err := x.Extract(ctx, query, rec)
			if err != nil {
				x.logger.Warn().
					Err(err).
					Str("filename", rec.Filename).
					Msg("Event extraction failed")
				evts = nil
			}

			mu.Lock()
			defer mu.Unlock()
			yield(Result{Record: rec, Events: evts})
			return nil
		})
	}

	return g.Wait()
}
