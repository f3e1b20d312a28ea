package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jmxpilot/jmxpilot/internal/artifact"
	"github.com/jmxpilot/jmxpilot/internal/chat"
	"github.com/jmxpilot/jmxpilot/internal/config"
	"github.com/jmxpilot/jmxpilot/internal/copilot"
	"github.com/jmxpilot/jmxpilot/internal/copilot/gemini"
	"github.com/jmxpilot/jmxpilot/internal/log"
	"github.com/jmxpilot/jmxpilot/internal/testplan"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive copilot session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// repl bundles everything the conversation loop needs.
type repl struct {
	service *copilot.Service
	parser  *testplan.Parser
	store   *artifact.Store
	session uuid.UUID
	logger  log.Logger
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	transport, err := gemini.New(gemini.Config{APIKey: cfg.APIKey, Logger: logger})
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	store, err := artifact.NewStore(cfg.ArtifactDir, logger)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	service, err := copilot.New(copilot.Config{
		Transport:          transport,
		Logger:             logger,
		Model:              cfg.ModelName,
		MaxHistoryMessages: cfg.MaxHistoryMessages,
	})
	if err != nil {
		return fmt.Errorf("creating copilot service: %w", err)
	}
	defer service.Close()

	service.SetStreamHandler(func(delta string) {
		fmt.Print(delta)
	})

	if err := service.Connect(ctx); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}

	r := &repl{
		service: service,
		parser:  testplan.NewParser(nil, logger),
		store:   store,
		session: uuid.New(),
		logger:  logger,
	}

	fmt.Printf("jmxpilot %s — model %s\n", AppVersion, service.Model())
	fmt.Println("Describe the JMeter test you need. Type /help for commands.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")

		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if r.handleCommand(ctx, input) {
				break // exit command
			}
			continue
		}

		fmt.Print("copilot> ")
		if err := service.Send(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			continue
		}
		r.awaitResponse()
		fmt.Println()

		if msg, ok := lastAssistant(service.History()); ok {
			r.inspectResponse(msg)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

// awaitResponse blocks until the in-flight response finishes. The stream
// handler has already printed the deltas by the time this returns.
func (r *repl) awaitResponse() {
	for {
		switch r.service.State() {
		case copilot.StateStreaming, copilot.StateAborting:
			time.Sleep(50 * time.Millisecond)
		default:
			return
		}
	}
}

// inspectResponse looks at a completed assistant message for an inline test
// plan or a reference to a .jmx file on disk, and tells the user what it found.
func (r *repl) inspectResponse(msg chat.Message) {
	if testplan.ContainsTestPlan(msg.Content) {
		if !testplan.IsPlausible(msg.Content) {
			r.logger.Debug("response contains a test plan fragment that failed the structural check")
		}
		fmt.Println("[test plan detected — /save <name>.jmx to keep it]")
		return
	}
	if path, ok := testplan.FindReference(msg.Content); ok {
		fmt.Printf("[referenced test plan file: %s]\n", path)
	}
}

// handleCommand handles slash commands, returns true if the loop should exit.
func (r *repl) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help            show this help")
		fmt.Println("  /clear           clear the conversation and start a fresh session")
		fmt.Println("  /model [name]    show or set the model (applied by /clear)")
		fmt.Println("  /save <name>     save the last generated test plan")
		fmt.Println("  /list            list saved test plans for this session")
		fmt.Println("  /quit            exit")
		fmt.Println()

	case "/clear":
		if err := r.service.ClearConversation(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Println("Conversation cleared.")
		}
		fmt.Println()

	case "/model":
		if len(parts) < 2 {
			fmt.Printf("Current model: %s\n\n", r.service.Model())
			break
		}
		r.service.SetModel(parts[1])
		fmt.Printf("Model set to %s (takes effect after /clear)\n\n", parts[1])

	case "/save":
		if len(parts) < 2 {
			fmt.Println("Usage: /save <name>.jmx")
			fmt.Println()
			break
		}
		r.savePlan(parts[1])
		fmt.Println()

	case "/list":
		names, err := r.store.List(r.session)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		if len(names) == 0 {
			fmt.Println("No saved test plans in this session.")
		}
		for _, name := range names {
			fmt.Println("  " + name)
		}
		fmt.Println()

	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true

	default:
		fmt.Printf("Unknown command: %s\n", parts[0])
		fmt.Println("Type /help to see available commands")
		fmt.Println()
	}

	return false
}

// savePlan extracts the most recent test plan from the conversation,
// validates it, and stores it under the given filename.
func (r *repl) savePlan(filename string) {
	if !strings.HasSuffix(filename, ".jmx") {
		filename += ".jmx"
	}

	xml, ok := latestPlan(r.service.History())
	if !ok {
		fmt.Println("No test plan found in the conversation yet.")
		return
	}

	if result := r.parser.Parse(xml); !result.IsSuccess() {
		fmt.Printf("Cannot save: %s\n", result.ErrMessage())
		return
	}

	saved, err := r.store.Save(r.session, filename, xml)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("Saved %s (%s)\n", filename, saved.Path)
}

// latestPlan walks the history backwards for the newest assistant message
// carrying an extractable test plan.
func latestPlan(messages []chat.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if !messages[i].IsFromAssistant() {
			continue
		}
		if xml, ok := testplan.Extract(messages[i].Content); ok {
			return xml, true
		}
	}
	return "", false
}

func lastAssistant(messages []chat.Message) (chat.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsFromAssistant() {
			return messages[i], true
		}
	}
	return chat.Message{}, false
}
