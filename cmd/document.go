package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finmetrics/internal/extractor"
	"github.com/sells-group/finmetrics/internal/ocr"
	"github.com/sells-group/finmetrics/internal/report"
	"github.com/sells-group/finmetrics/pkg/anthropic"
)

var (
	documentPolicy string
	documentJSON   bool
)

var documentCmd = &cobra.Command{
	Use:   "document <file.pdf>",
	Short: "Analyze a financial document",
	Long:  "Extracts text from a PDF, pulls structured facts out of it via Claude, then runs the full analysis pipeline.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("document"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ocrExt := ocr.NewExtractor(cfg.OCR)
		ext := extractor.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Extract)

		text, err := ocrExt.ExtractText(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "extract text from %s", args[0])
		}
		zap.L().Info("document text extracted",
			zap.String("file", args[0]),
			zap.Int("chars", len(text)),
		)

		raw, err := ext.Extract(ctx, text)
		if err != nil {
			return eris.Wrapf(err, "extract facts from %s", args[0])
		}

		result, err := analyzeAndRecord(ctx, st, args[0], raw, documentPolicy)
		if err != nil {
			return err
		}

		if documentJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Print(report.Render(args[0], result))
		return nil
	},
}

func init() {
	documentCmd.Flags().StringVar(&documentPolicy, "policy", "", "scoring policy (confidence_weighted, completeness)")
	documentCmd.Flags().BoolVar(&documentJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(documentCmd)
}
