package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/pkg/agent"
	cfgPkg "github.com/xhad/relay/pkg/config"
	"github.com/xhad/relay/pkg/index"
	"github.com/xhad/relay/pkg/llm"
	"github.com/xhad/relay/pkg/loader"
	"github.com/xhad/relay/pkg/orchestrator"
	"github.com/xhad/relay/pkg/router"
	"github.com/xhad/relay/pkg/session"
	"github.com/xhad/relay/pkg/tools"
	"github.com/xhad/relay/server"
)

type Options struct {
	ConfigPath string
	IngestPath string
	IngestFor  string
	Reindex    bool
	Agent      string
	Serve      bool
	Verbose    bool
}

func main() {
	opts := parseFlags()

	cfg, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s: %s", e.Field, e.Message)
		}
		os.Exit(1)
	}

	if err := run(opts, cfg); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.IngestPath, "ingest", "", "File or directory to ingest into the knowledge base")
	flag.StringVar(&opts.IngestFor, "ingest-agent", "general", "Agent whose knowledge base receives ingested documents")
	flag.BoolVar(&opts.Reindex, "reindex", false, "Clear the agent's knowledge base before ingesting")
	flag.StringVar(&opts.Agent, "agent", "", "Pin all queries to one agent instead of routing")
	flag.BoolVar(&opts.Serve, "serve", false, "Run the HTTP/WebSocket server")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	return opts
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	// Keep the interactive chat readable: only warnings and up on stderr.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts Options, cfg *cfgPkg.Config) error {
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	chatModel, err := llm.NewChatModel(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat model: %v", err)
	}

	idx, err := index.NewWithConfig(index.IndexConfig{
		ConnString:     cfg.Database.URL,
		TableName:      cfg.Database.TableName,
		VectorDim:      cfg.Database.VectorDim,
		BatchSize:      cfg.Database.BatchSize,
		EmbedRateLimit: cfg.LLM.EmbedRateLimit,
	}, embedder, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize document index: %v", err)
	}
	defer idx.Close()

	ldr := loader.NewWithConfig(loader.LoaderConfig{
		ChunkSize:    cfg.Splitter.ChunkSize,
		ChunkOverlap: cfg.Splitter.ChunkOverlap,
	}, logger)

	if opts.IngestPath != "" {
		target, ok := models.ParseAgent(opts.IngestFor)
		if !ok {
			return fmt.Errorf("unknown agent %q", opts.IngestFor)
		}
		if opts.Reindex {
			if err := idx.Clear(context.Background(), target); err != nil {
				return fmt.Errorf("failed to clear %s knowledge base: %v", target, err)
			}
			color.Yellow("Cleared the %s knowledge base\n", target)
		}
		if err := ingest(&ldr, idx, target, opts.IngestPath, cfg.Database.BatchSize); err != nil {
			return err
		}
		if !opts.Serve {
			return nil
		}
	}

	registry := tools.NewRegistry(
		tools.NewWeatherTool(tools.WeatherConfig{
			APIKey:  cfg.Weather.APIKey,
			BaseURL: cfg.Weather.BaseURL,
		}),
		tools.NewCalculatorTool(),
		tools.NewClockTool(),
		tools.NewWebSearchTool(tools.WebSearchConfig{}),
		tools.NewPropertySearchTool(),
		tools.NewMarketAnalysisTool(),
		tools.NewSymptomCheckerTool(),
		tools.NewCodeExamplesTool(),
		tools.NewModelRecommendationsTool(),
		tools.NewCRMInsightsTool(),
		tools.NewSalesMetricsTool(),
		tools.NewStudyPlannerTool(),
		tools.NewResourceFinderTool(),
	)

	agentConfig := agent.AgentConfig{
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		MaxIterations:  cfg.LLM.MaxToolIterations,
		RequestTimeout: time.Duration(cfg.LLM.RequestTimeoutSec) * time.Second,
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
	}

	agents := make(map[models.Agent]*agent.Agent)
	for id, profile := range agent.Profiles() {
		a, err := agent.New(profile, agentConfig, chatModel, idx, registry, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize agent %s: %v", id, err)
		}
		agents[id] = a
	}

	rtr := router.New(router.RouterConfig{}, chatModel, logger)

	sessions := session.NewManager(session.ManagerConfig{
		MaxSessions: cfg.Sessions.MaxSessions,
		TTL:         time.Duration(cfg.Sessions.TTLMinutes) * time.Minute,
	})

	orch, err := orchestrator.New(rtr, agents, sessions, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %v", err)
	}

	if opts.Serve {
		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			TopK:           cfg.Retrieval.TopK,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		}, orch, idx, &ldr, logger)
		return srv.ListenAndServe()
	}

	return chatLoop(orch, opts.Agent)
}

func ingest(ldr *loader.Loader, idx *index.Index, target models.Agent, path string, batchSize int) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", path, err)
	}

	color.Blue("\nLoading documents from %s\n", path)

	var chunks []models.Chunk
	if info.IsDir() {
		chunks, err = ldr.LoadDirectory(path)
	} else {
		chunks, err = ldr.LoadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to load documents: %v", err)
	}
	if len(chunks) == 0 {
		color.Yellow("No chunks produced, nothing to ingest\n")
		return nil
	}

	color.Green("✓ Split into %d chunks\n", len(chunks))

	storageBar := getProgressBar(len(chunks), "💾 Embedding and storing...")
	startTime := time.Now()

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		if _, err := idx.Add(context.Background(), target, batch); err != nil {
			return fmt.Errorf("failed to store batch: %v", err)
		}
		storageBar.Add(len(batch))

		elapsed := time.Since(startTime).Seconds()
		rate := float64(end) / elapsed
		storageBar.Describe(color.BlueString(
			"💾 Embedding and storing... (%.1f chunks/sec)", rate))
	}
	storageBar.Finish()

	color.Green("\n✓ Ingested %d chunks into the %s knowledge base\n", len(chunks), target)
	return nil
}

func chatLoop(orch *orchestrator.Orchestrator, pinnedAgent string) error {
	color.Cyan("\nChat with the agent team (type 'exit' to quit, 'agents' to list specialists)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var sessionID string

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}
		if strings.ToLower(query) == "agents" {
			for _, info := range orch.ListAgents() {
				color.Yellow("  %-22s %s", info.DisplayName, info.Description)
			}
			continue
		}

		spinner := getSpinner("🤖 Thinking...")

		result, err := orch.HandleTurn(context.Background(), orchestrator.TurnRequest{
			Query:         query,
			SessionID:     sessionID,
			AgentOverride: pinnedAgent,
		})
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		sessionID = result.SessionID

		fmt.Print("\n")
		assistantPrompt("Assistant")
		color.New(color.Faint).Printf(" [%s, %.0fms]", result.AgentUsed, result.Metrics.TotalMs)
		assistantPrompt(": %s\n", result.Response)
	}

	return nil
}
