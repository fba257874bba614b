package main

import (
	"os/signal"
	"syscall"

	"github.com/Desarso/deckchat/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
	serveBaseURL  string
	serveRelease  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Serve /api/chat, /api/chat/ws and /api/presentation_meta until
interrupted. Flags override the config file and environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.WithAddr(serveAddr)
		}
		if serveProvider != "" {
			cfg.WithProvider(serveProvider)
		}
		if serveModel != "" {
			cfg.WithChatModel(serveModel)
		}
		if serveBaseURL != "" {
			cfg.WithBaseURL(serveBaseURL)
		}
		if serveRelease {
			gin.SetMode(gin.ReleaseMode)
		}

		g, err := newGateway(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(g).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, e.g. :8000")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: openai, gemini or anthropic")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Chat model name")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "Custom provider endpoint (OpenAI-compatible servers, proxies)")
	serveCmd.Flags().BoolVar(&serveRelease, "release", false, "Run gin in release mode")

	rootCmd.AddCommand(serveCmd)
}
