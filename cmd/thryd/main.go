// Command thryd runs the ledger agent: an HTTP chat API plus an interactive
// console, both backed by the same transcript store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BryanBorck/thry-ethdenver-2025/internal/agent"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/api"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/chat"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/config"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/core"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/ledger"
	llmopenai "github.com/BryanBorck/thry-ethdenver-2025/internal/llm/openai"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/network"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/store"
	"github.com/BryanBorck/thry-ethdenver-2025/internal/tools"
	"github.com/BryanBorck/thry-ethdenver-2025/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "thryd:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configDir = flag.String("config", "", "config directory (default: .thry or ~/.config/thry)")
		dev       = flag.Bool("dev", false, "development logging")
		headless  = flag.Bool("headless", false, "serve the HTTP API only, no console")
	)
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(*dev)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := config.New(*configDir)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	resolver := network.NewResolver()
	if cfg.NetworksPath != "" {
		resolver, err = network.NewResolverFromFile(cfg.NetworksPath)
		if err != nil {
			return fmt.Errorf("load networks: %w", err)
		}
	}
	net, err := resolver.Resolve(cfg.NetworkID)
	if err != nil {
		return fmt.Errorf("network %q: %w", cfg.NetworkID, err)
	}

	signer, err := ledger.NewSignerFromHex(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	log.Infow("agent account", "address", signer.Address().Hex(), "network", net.NetworkID)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := ledger.NewPool(signer, log)
	defer pool.Close()

	registry := tools.NewRegistry(
		func(ctx context.Context, n core.NetworkDescriptor) (tools.Ledger, error) {
			return pool.Client(ctx, n)
		},
		log,
		tools.WithPayloadCap(cfg.ToolOutputMaxRunes),
	)

	llm := llmopenai.New(llmopenai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.Model,
	}, log)

	orch := agent.New(llm, registry, db, net, agent.Options{
		MaxToolIterations: cfg.MaxToolIterations,
	}, log)
	gateway := chat.NewGateway(orch, db, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(cfg.ListenAddr, gateway, log)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if !*headless {
		go console(ctx, gateway, log)
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown incomplete", "error", err)
	}
	log.Info("bye")
	return nil
}

// console runs a minimal REPL on stdin against the default thread.
func console(ctx context.Context, gateway *chat.Gateway, log *zap.SugaredLogger) {
	fmt.Println("thry agent console. Type a message, /history, /reset, or /quit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			fmt.Println("bye")
			return
		case line == "/reset":
			if err := gateway.Reset(ctx, chat.DefaultThreadID); err != nil {
				fmt.Println("reset failed:", err)
			} else {
				fmt.Println("history cleared")
			}
			continue
		case line == "/history":
			msgs, err := gateway.History(ctx, chat.DefaultThreadID)
			if err != nil {
				fmt.Println("history failed:", err)
				continue
			}
			for _, m := range msgs {
				printMessage(m)
			}
			continue
		}

		msgs, err := gateway.HandleMessage(ctx, chat.DefaultThreadID, line)
		if err != nil {
			log.Errorw("turn failed", "error", err)
			fmt.Println("error:", err)
			continue
		}
		// The first entry is the prompt we just typed; show the rest.
		for _, m := range msgs[1:] {
			printMessage(m)
		}
	}
}

func printMessage(m core.Message) {
	switch m.Role {
	case core.RoleUser:
		fmt.Printf("[you] %s\n", m.Content)
	case core.RoleAgent:
		if m.Content != "" {
			fmt.Printf("[agent] %s\n", m.Content)
		}
		for _, tc := range m.ToolCalls {
			fmt.Printf("[agent] calling %s %s\n", tc.Name, tc.Arguments)
		}
	case core.RoleTool:
		fmt.Printf("[tool] %s\n", m.Content)
	case core.RoleError:
		fmt.Printf("[error] %s\n", m.Content)
	}
}
