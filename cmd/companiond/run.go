package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/subthread/companion/automation"
	"github.com/subthread/companion/bundle"
	"github.com/subthread/companion/catalog"
	"github.com/subthread/companion/config"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/dialogue"
	"github.com/subthread/companion/directory"
	"github.com/subthread/companion/gateway"
	"github.com/subthread/companion/identity"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/memory"
	"github.com/subthread/companion/model"
	"github.com/subthread/companion/model/anthropic"
	"github.com/subthread/companion/model/openaicompat"
	"github.com/subthread/companion/runner"
	"github.com/subthread/companion/tool"
)

// localRoom is the text-harness stand-in for the audio room. Device RPCs
// have nowhere to go, so tools exercise their fallback strings.
type localRoom struct {
	participant string
}

func (r *localRoom) RemoteParticipant() (string, error) {
	return r.participant, nil
}

func (r *localRoom) PerformRPC(context.Context, string, string, string) (string, error) {
	return "", fmt.Errorf("no device attached to local room")
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		participant string
		roomName    string
		topic       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one companion call session on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSession(cmd.Context(), cfg, participant, roomName, topic)
		},
	}

	cmd.Flags().StringVar(&participant, "participant", "", "connection identity of the caller (sip_-prefixed for telephony)")
	cmd.Flags().StringVar(&roomName, "room", "", "room label the participant joined")
	cmd.Flags().StringVar(&topic, "topic", "", "explicit discussion topic for this call")
	cobra.CheckErr(cmd.MarkFlagRequired("participant"))
	return cmd
}

func runSession(ctx context.Context, cfg *config.Config, participant, roomName, topic string) error {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Component: "companiond",
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := gateway.NewPool()
	defer pool.CloseIdleConnections()

	dirGW := gateway.New(cfg.Directory.BaseURL, func(o *gateway.Options) {
		o.Timeout = cfg.Directory.Timeout
		o.HTTPClient = pool
		o.Logger = logger
		o.Partner = "directory"
	})
	memGW := gateway.New(cfg.Memory.BaseURL, func(o *gateway.Options) {
		o.Timeout = cfg.Memory.Timeout
		o.HTTPClient = pool
		o.Logger = logger
		o.Partner = "memory"
		if cfg.Memory.APIKey != "" {
			o.Headers = map[string]string{"Authorization": "Bearer " + cfg.Memory.APIKey}
		}
	})
	autoGW := gateway.New(cfg.Automation.BaseURL, func(o *gateway.Options) {
		o.Timeout = cfg.Automation.Timeout
		o.HTTPClient = pool
		o.Logger = logger
		o.Partner = "automation"
		if cfg.Automation.APIKey != "" {
			o.Headers = map[string]string{cfg.Automation.APIKeyHdr: cfg.Automation.APIKey}
		}
	})

	dir := directory.NewClient(dirGW)
	var store memory.Store = memory.NewRemoteStore(memGW)
	if cfg.Memory.BaseURL == "" {
		logger.Warn("memory partner not configured, using in-memory store")
		store = memory.NewInMemoryStore()
	}

	scheduler := automation.NewClient(autoGW, func(o *automation.Options) {
		o.TemplateDir = cfg.Automation.TemplateDir
		o.TemplateName = cfg.Automation.TemplateName
		o.CallbackURL = cfg.Automation.CallbackURL
	})
	var recommender tool.Recommender
	if cfg.Catalog.APIKey != "" {
		catGW := gateway.New(cfg.Catalog.BaseURL, func(o *gateway.Options) {
			o.Timeout = cfg.Catalog.Timeout
			o.HTTPClient = pool
			o.Logger = logger
			o.Partner = "catalog"
		})
		recommender = catalog.NewClient(catGW, cfg.Catalog.APIKey, func(o *catalog.Options) {
			o.Language = cfg.Catalog.Language
			o.Region = cfg.Catalog.Region
			o.Logger = logger
		})
	} else {
		logger.Warn("CATALOG_API_KEY not set, entertainment recommendations use web search only")
	}

	searcher := openaicompat.NewClient(func(o *openaicompat.Options) {
		o.BaseURL = cfg.Search.BaseURL
		o.Model = cfg.Search.Model
		o.APIKey = cfg.Search.APIKey
	})

	resolver := identity.NewResolver(dir, func(o *identity.Options) { o.Logger = logger })
	aggregator := bundle.NewAggregator(dir, store, func(o *bundle.Options) {
		o.LookaheadDays = cfg.LookaheadDays
		o.Skills = "reminders, scheduled calls, web search, entertainment recommendations, stories, games, wellbeing check-ins"
		o.Logger = logger
	})

	roomClient := &localRoom{participant: participant}
	toolset := func(caller *core.Caller) []tool.Tool {
		return tool.CompanionToolset(&tool.Deps{
			Room:          roomClient,
			Scheduler:     scheduler,
			Searcher:      searcher,
			Catalog:       recommender,
			Wellbeing:     dir,
			Caller:        caller,
			RPCTimeout:    cfg.RPCTimeout,
			SearchTimeout: cfg.SearchRelay,
			Logger:        logger,
		})
	}

	replyModel := buildModel(logger)
	engines := func(*core.Caller) dialogue.Engine {
		return dialogue.NewModelEngine(replyModel, func(o *dialogue.ModelEngineOptions) {
			o.Logger = logger
		})
	}

	run := runner.New(resolver, aggregator, store, engines, toolset,
		func(o *runner.Options) { o.Logger = logger })

	conn := core.Connection{
		ParticipantID: participant,
		RoomName:      roomName,
		Attributes:    map[string]string{},
	}
	if topic != "" {
		conn.Attributes["initialRequest"] = topic
	}

	sess, err := run.Run(ctx, conn)
	if err != nil {
		return err
	}
	defer sess.End()

	engine, ok := sess.Engine.(*dialogue.ModelEngine)
	if !ok {
		<-ctx.Done()
		return nil
	}
	if history := engine.History(); len(history) > 0 {
		fmt.Println(history[len(history)-1].Content)
	}

	return dialogueLoop(ctx, engine)
}

// readLines forwards input lines until EOF or cancellation. The returned
// channel closes when the reader goroutine exits; the ctx arm keeps a
// pending send from stranding the goroutine after the receiver stops.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// dialogueLoop reads user turns from stdin until EOF or shutdown signal.
func dialogueLoop(ctx context.Context, engine *dialogue.ModelEngine) error {
	lines := readLines(ctx, os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			reply, err := engine.Say(ctx, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "reply failed:", err)
				continue
			}
			fmt.Println(reply)
		}
	}
}

// buildModel picks the reply model: Anthropic when an API key is present,
// otherwise the mock so local runs work offline.
func buildModel(logger logging.Logger) model.Model {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return anthropic.NewModel(func(o *anthropic.Options) { o.APIKey = key })
	}
	logger.Warn("ANTHROPIC_API_KEY not set, using mock reply model")
	return model.NewMockModel("mock", "local")
}
