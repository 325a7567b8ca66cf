package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rag-chat/internal/config"
	"rag-chat/internal/domain/dto"
	"rag-chat/internal/infra/handlers"
	"rag-chat/internal/infra/logger"
	"rag-chat/internal/infra/mcp"
	"rag-chat/internal/infra/routes"
	"rag-chat/internal/middleware"

	"github.com/gorilla/mux"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rag-chat",
		Short:         "Retrieval augmented chat backend",
		Long:          "rag-chat answers chat messages with an LLM, grounding each reply on documents retrieved from a vector index and on the user's recent conversation.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(newServeCmd(), newSeedCmd(), newAskCmd(), newMCPCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the corpus and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Rebuild the vector collection from the corpus",
		Long:  "Drop the configured collection, embed the corpus and index it again. Everything the collection held before is lost.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			n, err := a.seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %s\n", n, a.settings.CollectionName)
			return nil
		},
	}
}

func newAskCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Run one chat turn and print the reply",
		Args:    cobra.ExactArgs(1),
		Example: `  rag-chat ask "What is RAG?" --user demo-user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if err := a.ensureIndexed(ctx); err != nil {
				return err
			}

			resp, err := a.chat.Chat(ctx, dto.ChatRequest{UserID: userID, Message: args[0]})
			if err != nil {
				return err
			}
			printChatResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "conversation owner (default: the shared anonymous conversation)")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the chat tools over MCP on stdio",
		Long: `Run rag-chat as an MCP (Model Context Protocol) server on stdio so LLM
agents can call the chat, retrieve_context and history tools. Logs go to
stderr because stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if err := a.ensureIndexed(ctx); err != nil {
				return err
			}

			server := mcp.NewServer(a.chat, a.retriever, a.chat, a.log)
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- mcpserver.ServeStdio(server)
			}()

			select {
			case <-ctx.Done():
				a.log.Info("Shutdown signal received, stopping MCP server")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	log := a.log

	if _, err := a.seed(ctx); err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}

	router := newRouter(a)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.settings.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server is running on port %s", a.settings.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("run HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
		return err
	}
	log.Info("Server stopped gracefully.")
	return nil
}

func newRouter(a *app) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(a.log))

	httpHandlers := handlers.NewHttpHandlers(a.log, a.chat, a.chat)
	routes.NewRoutes(router, httpHandlers).Init()
	return router
}

// loadApp reads .env and the environment, then wires the pipeline. Logs are
// written to logOut.
func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	envErr := config.LoadEnv()

	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(ctx, settings.LogJSON, settings.LogLevel)
	log.SetOutput(logOut)
	if envErr != nil {
		log.Debug(fmt.Sprintf("No .env file loaded: %s", envErr.Error()))
	}

	return newApp(ctx, settings, log)
}

func printChatResponse(w io.Writer, resp dto.ChatResponse) {
	fmt.Fprintln(w, resp.Reply)
	if len(resp.UsedContext) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Context:")
		for _, chunk := range resp.UsedContext {
			fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(chunk))
		}
	}
	fmt.Fprintf(w, "\nLatency: %.2f ms\n", resp.LatencyMs)
}
