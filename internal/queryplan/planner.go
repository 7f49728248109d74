// Package queryplan builds the bilingual search-query set for a research
// run. The primary path asks an Anthropic model for queries grounded in the
// RFP context; the fallback is pure string templating and can never fail.
package queryplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/provider"
	"github.com/sells-group/rfp-intel/pkg/anthropic"
)

// Generated-query shape bounds. Anything outside them rejects the whole
// generation and falls back to templates.
const (
	minPrimary   = 4
	maxPrimary   = 8
	minSecondary = 2
	maxSecondary = 6
)

// Claim keys assigned to planned queries, cycled in order.
var claimKeys = []string{
	"company_overview",
	"company_size",
	"marketing_activity",
	"recent_news",
	"industry_presence",
	"leadership",
	"financials",
	"partnerships",
}

// Plan is the full query set for one research run.
type Plan struct {
	Primary   []provider.Query
	Secondary []provider.Query
}

// All returns every planned query, primary first.
func (p Plan) All() []provider.Query {
	out := make([]provider.Query, 0, len(p.Primary)+len(p.Secondary))
	out = append(out, p.Primary...)
	out = append(out, p.Secondary...)
	return out
}

// Languages lists the language tracks present in the plan.
func (p Plan) Languages() []string {
	langs := []string{}
	if len(p.Primary) > 0 {
		langs = append(langs, "en")
	}
	if len(p.Secondary) > 0 {
		langs = append(langs, "ar")
	}
	return langs
}

// Planner generates query plans. A nil llm client disables the generation
// path entirely.
type Planner struct {
	llm      anthropic.Client
	llmModel string
}

// NewPlanner creates a Planner. llm may be nil.
func NewPlanner(llm anthropic.Client, llmModel string) *Planner {
	return &Planner{llm: llm, llmModel: llmModel}
}

// Generate returns the query plan for input. Generation failures of any
// kind degrade to the template plan; the returned plan is never empty.
func (p *Planner) Generate(ctx context.Context, input model.ResearchInput) Plan {
	if p.llm == nil || input.RFPContext.IsEmpty() {
		return TemplatePlan(input)
	}

	plan, err := p.generateLLM(ctx, input)
	if err != nil {
		zap.L().Warn("queryplan: generation failed, using templates",
			zap.String("client", input.ClientName),
			zap.Error(err),
		)
		return TemplatePlan(input)
	}
	return plan
}

const generationSystem = `You craft web search queries for researching a company named in an RFP.
Respond with a single JSON object and nothing else:
{"primary": [4-8 English queries], "secondary": [2-6 Arabic queries]}
Each query must quote the exact company name.`

func (p *Planner) generateLLM(ctx context.Context, input model.ResearchInput) (Plan, error) {
	rfp := input.RFPContext
	prompt := fmt.Sprintf(
		"Company: %q (Arabic: %q), country: %s.\nProject: %s\nDescription: %s\nScope: %s\nIndustry: %s",
		input.ClientName, input.ClientNameArabic, input.Country,
		rfp.ProjectName, rfp.ProjectDescription, rfp.ScopeOfWork, rfp.Industry,
	)

	resp, err := p.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.llmModel,
		MaxTokens: 1024,
		System:    generationSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Plan{}, eris.Wrap(err, "queryplan: create message")
	}

	queries, err := parseGenerated(resp.Text)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{}
	for i, q := range queries.Primary {
		plan.Primary = append(plan.Primary, provider.Query{Text: q, ClaimKey: claimKeys[i%len(claimKeys)], Lang: "en"})
	}
	for i, q := range queries.Secondary {
		plan.Secondary = append(plan.Secondary, provider.Query{Text: q, ClaimKey: claimKeys[i%len(claimKeys)] + "_ar", Lang: "ar"})
	}
	return plan, nil
}

type generatedQueries struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// parseGenerated validates the model output strictly: a lone JSON object
// with both arrays inside fixed length bounds and no blank entries. No
// partial repair is attempted.
func parseGenerated(text string) (generatedQueries, error) {
	var q generatedQueries

	raw := strings.TrimSpace(text)
	// Models occasionally fence the JSON despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return q, eris.Wrap(err, "queryplan: parse generated queries")
	}
	if len(q.Primary) < minPrimary || len(q.Primary) > maxPrimary {
		return q, eris.Errorf("queryplan: primary count %d outside [%d,%d]", len(q.Primary), minPrimary, maxPrimary)
	}
	if len(q.Secondary) < minSecondary || len(q.Secondary) > maxSecondary {
		return q, eris.Errorf("queryplan: secondary count %d outside [%d,%d]", len(q.Secondary), minSecondary, maxSecondary)
	}
	for _, s := range append(append([]string{}, q.Primary...), q.Secondary...) {
		if strings.TrimSpace(s) == "" {
			return q, eris.New("queryplan: generated query is blank")
		}
	}
	return q, nil
}

// TemplatePlan builds the deterministic fallback: four English queries and
// two Arabic ones, each quoting the literal client name.
func TemplatePlan(input model.ResearchInput) Plan {
	name := input.ClientName
	arabicName := input.ClientNameArabic
	if arabicName == "" {
		arabicName = name
	}
	country := input.Country
	if country == "" {
		country = "Middle East"
	}

	return Plan{
		Primary: []provider.Query{
			{Text: fmt.Sprintf("%q company profile size employees %s", name, country), ClaimKey: "company_overview", Lang: "en"},
			{Text: fmt.Sprintf("%q marketing advertising campaigns", name), ClaimKey: "marketing_activity", Lang: "en"},
			{Text: fmt.Sprintf("%q recent news announcements", name), ClaimKey: "recent_news", Lang: "en"},
			{Text: fmt.Sprintf("%q industry sector %s", name, country), ClaimKey: "industry_presence", Lang: "en"},
		},
		Secondary: []provider.Query{
			{Text: fmt.Sprintf("\"%s\" شركة معلومات", arabicName), ClaimKey: "company_overview_ar", Lang: "ar"},
			{Text: fmt.Sprintf("\"%s\" أخبار", arabicName), ClaimKey: "recent_news_ar", Lang: "ar"},
		},
	}
}
