package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-intel/internal/gate"
	"github.com/sells-group/rfp-intel/internal/model"
)

var (
	gateExtractionFile string
	gateScopeFile      string
	gateResearchFile   string
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the quality gate over a full analysis",
	Long:  "Scores extraction, scope, and research sections and prints a pass / review_required / blocked verdict with block reasons.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in gate.Input

		if err := readJSONFile(gateExtractionFile, &in.Extraction); err != nil {
			return err
		}
		if err := readJSONFile(gateScopeFile, &in.Scope); err != nil {
			return err
		}
		if gateResearchFile != "" {
			in.Research = &model.ClientResearchV1{}
			if err := readJSONFile(gateResearchFile, in.Research); err != nil {
				return err
			}
		}

		assessment := gate.Evaluate(in)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(assessment); err != nil {
			return err
		}
		if assessment.Blocked {
			// Non-zero exit so CI pipelines can branch on the verdict.
			os.Exit(2)
		}
		return nil
	},
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}

func init() {
	gateCmd.Flags().StringVar(&gateExtractionFile, "extraction", "", "extracted RFP JSON file (required)")
	gateCmd.Flags().StringVar(&gateScopeFile, "scope", "", "scope analysis JSON file (required)")
	gateCmd.Flags().StringVar(&gateResearchFile, "research", "", "client research JSON file")
	_ = gateCmd.MarkFlagRequired("extraction")
	_ = gateCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(gateCmd)
}
