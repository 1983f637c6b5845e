package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/server"
	"github.com/jonathan/admissions-assistant/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat API server",
	Long:  `Load the context, then serve the chat API until interrupted.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}
	defer gen.Close()

	jwtCfg, err := a.cfg.JWT()
	if err != nil {
		return err
	}
	var jwtService *server.JWTService
	if jwtCfg != nil {
		jwtService = server.NewJWTService(jwtCfg)
	}

	if corpus, err := a.assembler.GetContext(ctx); err != nil {
		a.logger.Warn("no context loaded, chatbot will have limited functionality", zap.Error(err))
	} else {
		a.logger.Info("context loaded", zap.Int("chars", len(corpus)))
	}

	port := servePort
	if port == 0 {
		port = a.cfg.ServerPort
	}
	srv, err := server.New(server.Config{
		Port:           port,
		Context:        a.assembler,
		Prompts:        a.session,
		Generator:      gen,
		RateLimit:      ratelimit.NewConfig(a.cfg.RateLimitEnabled, a.cfg.RateLimitChatPerMinute),
		JWT:            jwtService,
		AllowedOrigins: a.cfg.AllowedOrigins(),
		Logger:         a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}
