package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-intel/internal/model"
)

var (
	researchClient    string
	researchClientAr  string
	researchCountry   string
	researchAnalysis  string
	researchInputFile string
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research a client organization",
	Long:  "Plans bilingual search queries, fans out across providers with health-ranked failover, and emits a confidence-scored client research record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("research"); err != nil {
			return err
		}

		input, err := loadResearchInput()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reg := newRegistry(ctx, st)
		eng := newEngine(reg, input)

		result, err := eng.Research(ctx, input)
		archiveRun(ctx, st, reg, input.ClientName, result)
		if err != nil {
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("client", input.ClientName),
			zap.Int("profile_fields", len(result.Profile)),
			zap.Float64("confidence", result.Confidence))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// loadResearchInput builds the input from --input JSON or individual flags.
// Flags override file values.
func loadResearchInput() (model.ResearchInput, error) {
	var input model.ResearchInput

	if researchInputFile != "" {
		data, err := os.ReadFile(researchInputFile)
		if err != nil {
			return input, eris.Wrapf(err, "read input file %s", researchInputFile)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return input, eris.Wrapf(err, "parse input file %s", researchInputFile)
		}
	}

	if researchClient != "" {
		input.ClientName = researchClient
	}
	if researchClientAr != "" {
		input.ClientNameArabic = researchClientAr
	}
	if researchCountry != "" {
		input.Country = researchCountry
	}
	if researchAnalysis != "" {
		input.AnalysisID = researchAnalysis
	}
	if input.AnalysisID == "" {
		input.AnalysisID = newAnalysisID()
	}

	return input, input.Validate()
}

func newAnalysisID() string {
	return uuid.New().String()
}

func init() {
	researchCmd.Flags().StringVar(&researchClient, "client", "", "client organization name")
	researchCmd.Flags().StringVar(&researchClientAr, "client-ar", "", "client name in Arabic")
	researchCmd.Flags().StringVar(&researchCountry, "country", "", "client country")
	researchCmd.Flags().StringVar(&researchAnalysis, "analysis-id", "", "analysis id (generated if omitted)")
	researchCmd.Flags().StringVar(&researchInputFile, "input", "", "JSON file with the research input")
	rootCmd.AddCommand(researchCmd)
}
