package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finmetrics/internal/analysis"
	"github.com/sells-group/finmetrics/internal/config"
	"github.com/sells-group/finmetrics/internal/extractor"
	"github.com/sells-group/finmetrics/internal/ocr"
	"github.com/sells-group/finmetrics/internal/server"
	"github.com/sells-group/finmetrics/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Document analysis is only offered when an API key is configured.
		var ext *extractor.Extractor
		var ocrExt ocr.Extractor
		if cfg.Anthropic.Key != "" {
			ext = extractor.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Extract)
			ocrExt = ocr.NewExtractor(cfg.OCR)
		} else {
			zap.L().Warn("anthropic key not configured, document endpoint disabled")
		}

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg = config.ServerConfig{Port: servePort}
		}

		srv := server.New(serverCfg, st, ext, ocrExt, analysis.ScoringPolicy(cfg.Analysis.Policy))
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
