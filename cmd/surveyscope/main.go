// ABOUTME: CLI entrypoint for the surveyscope AI data analyst with REPL and server modes.
// ABOUTME: Wires dataset loading, backend setup, the pipeline controller, and signal handling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/calder-research/surveyscope/analyst"
	"github.com/calder-research/surveyscope/dataset"
	"github.com/calder-research/surveyscope/llm"
	"github.com/calder-research/surveyscope/sandbox"
	"github.com/calder-research/surveyscope/web"
)

var version = "dev"

// cliConfig holds all CLI configuration parsed from flags.
type cliConfig struct {
	serverMode  bool
	bind        string
	dataPath    string
	schemaPath  string
	outDir      string
	verbose     bool
	showVersion bool
}

func main() {
	_ = godotenv.Load()

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("surveyscope %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

func parseFlags() cliConfig {
	var cfg cliConfig

	flag.BoolVar(&cfg.serverMode, "serve", false, "Start HTTP server mode")
	flag.StringVar(&cfg.bind, "bind", "", "Listen address for server mode (overrides SURVEYSCOPE_BIND)")
	flag.StringVar(&cfg.dataPath, "data", "data/responses.csv", "Path to the dataset CSV")
	flag.StringVar(&cfg.schemaPath, "schema", "", "Path to a schema YAML file (default: inferred from the CSV)")
	flag.StringVar(&cfg.outDir, "out", ".", "Directory for exported reports and plot images")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Log pipeline events")
	flag.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")
	flag.Parse()

	return cfg
}

func run(cfg cliConfig) int {
	env, err := configFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.bind != "" {
		env.Bind = cfg.bind
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller, err := buildPipeline(ctx, cfg, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.verbose {
		go logEvents(controller.Events().Subscribe())
	}

	if cfg.serverMode {
		server := web.NewServer(controller, web.ServerConfig{Addr: env.Bind})
		log.Printf("surveyscope listening addr=%s", server.Addr())
		if err := server.ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: server: %v\n", err)
			return 1
		}
		return 0
	}

	return runREPL(ctx, controller, cfg.outDir)
}

// buildPipeline loads the dataset, uploads it to the execution backend,
// configures the code-interpreter agent, and assembles the controller.
func buildPipeline(ctx context.Context, cfg cliConfig, env *appConfig) (*analyst.Controller, error) {
	raw, err := os.ReadFile(cfg.dataPath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	table, err := dataset.Load(cfg.dataPath)
	if err != nil {
		return nil, err
	}
	log.Printf("dataset loaded path=%s rows=%d columns=%d", cfg.dataPath, table.RowCount(), len(table.Headers()))

	fileName := filepath.Base(cfg.dataPath)
	var schema *dataset.Schema
	if cfg.schemaPath != "" {
		schema, err = dataset.LoadSchema(cfg.schemaPath)
		if err != nil {
			return nil, err
		}
	} else {
		schema = dataset.InferSchema(table, fileName, 5)
	}

	backend := sandbox.NewOpenAIBackend(env.APIKey)

	handle, err := dataset.Upload(ctx, backend, fileName, raw)
	if err != nil {
		return nil, err
	}
	log.Printf("dataset uploaded file_id=%s", handle.FileID)

	agentID, err := backend.CreateAgent(ctx, sandbox.AgentConfig{
		Name:         "surveyscope-code-interpreter",
		Model:        env.ExecModel,
		Instructions: analyst.AgentInstructions(handle.FileName),
		FileID:       handle.FileID,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring execution agent: %w", err)
	}
	log.Printf("execution agent ready agent_id=%s", agentID)

	chat := llm.NewOpenAIChat(env.APIKey, env.PlannerModel)
	events := analyst.NewEventEmitter()

	return analyst.NewController(analyst.ControllerConfig{
		Planner:      analyst.NewPlanner(chat, env.PlannerModel, handle.FileName, schema.PromptContext()),
		Quant:        analyst.NewQuantExecutor(backend, handle.FileName, sandbox.DefaultPollPolicy()),
		Qual:         analyst.NewQualExecutor(chat, env.QualModel, table),
		Synthesizer:  analyst.NewSynthesizer(chat, env.SynthModel),
		Sessions:     analyst.NewSessionManager(backend, agentID),
		Artifacts:    analyst.NewArtifactStore(backend, events),
		EventEmitter: events,
	}), nil
}

func logEvents(events <-chan analyst.PipelineEvent) {
	for ev := range events {
		log.Printf("pipeline event kind=%s conversation=%s data=%v", ev.Kind, ev.ConversationID, ev.Data)
	}
}
