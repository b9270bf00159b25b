package linking

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jonathan/link-planner/internal/config"
	"github.com/jonathan/link-planner/internal/logging"
	"github.com/jonathan/link-planner/internal/types"
)

// Options configures a Planner.
type Options struct {
	UtilityKeywords []string
	Rules           AnchorRules
	Extractor       PhraseExtractor
	Logger          logging.Logger
}

// OptionsFromConfig builds Options from the linking configuration section.
func OptionsFromConfig(cfg config.LinkingConfig, logger logging.Logger) Options {
	return Options{
		UtilityKeywords: cfg.UtilityKeywords,
		Rules: AnchorRules{
			MinWords:   cfg.MinAnchorWords,
			MaxWords:   cfg.MaxAnchorWords,
			MinOverlap: cfg.MinAnchorOverlap,
		},
		Extractor: NewPhraseExtractor(cfg.PhraseExtractor, logger),
		Logger:    logger,
	}
}

// Planner produces intra-cluster link recommendations: every non-pillar, non-utility
// member of a cluster may link once to that cluster's pillar.
type Planner struct {
	opts   Options
	logger logging.Logger
}

// NewPlanner creates a Planner. A nil Extractor selects the POS extractor.
func NewPlanner(opts Options) *Planner {
	logger := logging.OrNop(opts.Logger)
	if opts.Extractor == nil {
		opts.Extractor = NewPOSExtractor(logger)
	}
	if opts.UtilityKeywords == nil {
		opts.UtilityKeywords = config.DefaultUtilityKeywords
	}
	return &Planner{opts: opts, logger: logger}
}

// Plan returns deduplicated recommendations for pages clustered by assignment.
// pages[i] must be the page assignment.Labels[i] refers to; any mismatch is a planning error.
func (p *Planner) Plan(pages []types.Page, assignment *types.ClusterAssignment) ([]types.LinkRecommendation, error) {
	if err := checkInput(pages, assignment); err != nil {
		return nil, err
	}

	members := assignment.Members()
	recs := make([]types.LinkRecommendation, 0)

	p.logger.Info("Planning links",
		logging.Int("pages", len(pages)),
		logging.Int("clusters", len(members)),
	)

	for _, clusterID := range assignment.ClusterIDs() {
		group := members[clusterID]
		pillar, ok := SelectPillar(pages, group, p.opts.UtilityKeywords)
		if !ok {
			p.logger.Warn("No eligible pillar page", logging.Int("cluster", clusterID))
			continue
		}
		target := pages[pillar]

		for _, src := range group {
			source := pages[src]
			if src == pillar || source.URL == target.URL {
				continue
			}
			if IsUtilityPage(source.URL, source.Title, p.opts.UtilityKeywords) {
				p.logger.Debug("Skipping utility page", logging.String("url", source.URL))
				continue
			}

			candidates := p.opts.Extractor.ExtractCandidates(source.Text)
			anchor, ok := SelectAnchor(candidates, source.Text, target.Text, p.opts.Rules)
			if !ok {
				p.logger.Debug("No valid anchor",
					logging.String("source", source.URL),
					logging.String("target", target.URL),
					logging.Int("candidates", len(candidates)),
				)
				continue
			}

			rec := types.LinkRecommendation{
				SourceURL:          source.URL,
				TargetURL:          target.URL,
				AnchorText:         anchor.Text,
				SupportingSentence: anchor.Sentence,
				SemanticScore:      semanticScore(assignment, src, pillar),
				ClusterID:          clusterID,
			}
			if err := rec.Validate(); err != nil {
				p.logger.Warn("Dropping invalid recommendation", logging.Err(err))
				continue
			}

			p.logger.Debug("Recommended link",
				logging.String("source", rec.SourceURL),
				logging.String("target", rec.TargetURL),
				logging.String("anchor", rec.AnchorText),
			)
			recs = append(recs, rec)
		}
	}

	recs = Dedupe(recs)
	p.logger.Info("Link planning complete", logging.Int("recommendations", len(recs)))
	return recs, nil
}

// Summaries describes every cluster with its label, pillar and member URLs.
func (p *Planner) Summaries(pages []types.Page, assignment *types.ClusterAssignment) ([]types.ClusterSummary, error) {
	if err := checkInput(pages, assignment); err != nil {
		return nil, err
	}

	members := assignment.Members()
	summaries := make([]types.ClusterSummary, 0, len(members))
	for _, id := range assignment.ClusterIDs() {
		group := members[id]
		summary := types.ClusterSummary{
			ID:      id,
			Label:   ClusterLabel(pages, group, id),
			Members: make([]string, 0, len(group)),
		}
		if pillar, ok := SelectPillar(pages, group, p.opts.UtilityKeywords); ok {
			summary.PillarURL = pages[pillar].URL
		}
		for _, m := range group {
			summary.Members = append(summary.Members, pages[m].URL)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Dedupe keeps one recommendation per (source, target) pair, the one with the highest
// semantic score, at the position where the pair first appeared.
func Dedupe(recs []types.LinkRecommendation) []types.LinkRecommendation {
	index := make(map[string]int, len(recs))
	out := make([]types.LinkRecommendation, 0, len(recs))
	for _, rec := range recs {
		key := rec.Key()
		if i, ok := index[key]; ok {
			if rec.SemanticScore > out[i].SemanticScore {
				out[i] = rec
			}
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

func checkInput(pages []types.Page, assignment *types.ClusterAssignment) error {
	if assignment == nil {
		return types.NewError(types.KindPlanning, "missing cluster assignment", nil)
	}
	if len(assignment.Labels) != len(pages) {
		return types.NewError(types.KindPlanning,
			fmt.Sprintf("cluster labels length mismatch: %d labels for %d pages", len(assignment.Labels), len(pages)), nil)
	}
	for i, l := range assignment.Labels {
		if l < 0 {
			return types.NewError(types.KindPlanning, fmt.Sprintf("negative cluster id %d for page %d", l, i), nil)
		}
	}
	return nil
}

// semanticScore is the cosine similarity of the source and pillar embeddings, or the
// clustering quality score when embeddings are unavailable.
func semanticScore(a *types.ClusterAssignment, src, dst int) float64 {
	if len(a.Embeddings) != len(a.Labels) {
		return round(clamp(a.QualityScore))
	}
	u, v := a.Embeddings[src], a.Embeddings[dst]
	nu, nv := floats.Norm(u, 2), floats.Norm(v, 2)
	if len(u) != len(v) || nu == 0 || nv == 0 {
		return round(clamp(a.QualityScore))
	}
	return round(clamp(floats.Dot(u, v) / (nu * nv)))
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

func round(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
