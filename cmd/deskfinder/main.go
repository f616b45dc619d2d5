package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/yourusername/workspace-advisor/internal/config"
	"github.com/yourusername/workspace-advisor/internal/engine"
	"github.com/yourusername/workspace-advisor/internal/extract"
	"github.com/yourusername/workspace-advisor/internal/inventory"
	"github.com/yourusername/workspace-advisor/internal/logging"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

const defaultQuery = "Find me an available standing desk near the marketing team on the 3rd floor for tomorrow afternoon."

func main() {
	flags := pflag.NewFlagSet("deskfinder", pflag.ExitOnError)
	configPath := flags.String("config", "", "config file path (optional)")
	flags.String("data-dir", "", "directory holding spaces/desks/occupancy/policies files")
	flags.String("llm-url", "", "Ollama base URL")
	flags.String("llm-model", "", "Ollama model")
	flags.Bool("no-llm", false, "skip criteria extraction")
	flags.Bool("include-uncertain", false, "also recommend desks whose availability is uncertain")
	flags.Float64("threshold", 0, "default capacity threshold percent")
	flags.String("log-level", "", "log level")
	criteriaJSON := flags.String("criteria", "", `structured criteria as JSON, e.g. '{"desk_type":"standing","floor":3}'`)
	format := flags.String("format", "text", "output format: text or json")
	showTrace := flags.Bool("trace", true, "print the decision trace")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deskfinder [flags] [query...]\n\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !flags.Changed("log-level") {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stderr"

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	query := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if query == "" && *criteriaJSON == "" {
		query = defaultQuery
	}

	request := engine.Request{Query: query}
	var extractor extract.Extractor
	switch {
	case *criteriaJSON != "":
		criteria, warnings, err := parseCriteriaFlag(*criteriaJSON)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		request.Criteria = &criteria
		request.CriteriaWarnings = warnings
	case cfg.LLM.Enabled:
		extractor = extract.NewOllama(extract.OllamaConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.LLMTimeout(),
		}, logger)
	}

	source := inventory.NewFileSource(inventory.FilesConfig{
		Dir:       cfg.Data.Dir,
		Spaces:    cfg.Data.Spaces,
		Desks:     cfg.Data.Desks,
		Occupancy: cfg.Data.Occupancy,
		Policies:  cfg.Data.Policies,
	}, logger)

	eng := engine.New(source, extractor, engine.Config{
		DefaultThreshold: cfg.Recommend.DefaultThreshold,
		IncludeUncertain: cfg.Recommend.IncludeUncertain,
		ExtractTimeout:   cfg.LLM.LLMTimeout(),
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := eng.Recommend(ctx, request)
	if err != nil {
		if errors.Is(err, models.ErrDataAccess) {
			fmt.Fprintf(os.Stderr, "Could not load workspace data from %s: %v\n", cfg.Data.Dir, err)
		} else {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		}
		os.Exit(1)
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}
	render(os.Stdout, result, *showTrace)
}

// parseCriteriaFlag 清洗 --criteria 传入的结构化条件
func parseCriteriaFlag(raw string) (models.Criteria, []string, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return models.Criteria{}, nil, fmt.Errorf("--criteria must be a JSON object, got %q", raw)
	}
	criteria, warnings := models.SanitizeCriteria(fields)
	return criteria, warnings, nil
}

func render(w io.Writer, result *models.Result, showTrace bool) {
	fmt.Fprintf(w, "Request %s\n", result.RequestID)
	if result.Query != "" {
		fmt.Fprintf(w, "Query: %s\n", result.Query)
	}
	fmt.Fprintf(w, "Status: %s (%s)\n\n", result.Status, result.Message)

	if len(result.Recommendations) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tDESK\tTYPE\tFLOOR\tAREA\tVERDICT\tFEATURES")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n", rec.Rank, rec.Desk.ID, rec.Desk.Type, rec.Desk.Floor,
				rec.Desk.AreaID, rec.Verdict, strings.Join(rec.Desk.Features, ","))
		}
		_ = tw.Flush()

		top := result.Recommendations[0]
		fmt.Fprintf(w, "\nTop recommendation: desk %s\n", top.Desk.ID)
		if top.Desk.Location != "" {
			fmt.Fprintf(w, "  Location: %s\n", top.Desk.Location)
		}
		fmt.Fprintf(w, "  Rationale: %s\n", top.Rationale)
	}

	if showTrace {
		fmt.Fprintln(w, "\nTrace:")
		for _, entry := range result.Trace.Entries {
			fmt.Fprintf(w, "  %s\n", entry)
		}
	}
}
