package screener

import (
	"fmt"
	"sort"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/logger"
	"divrotation/internal/util"

	"github.com/maja42/goval"
)

// Candidate pairs an asset with its nearest relevant dividend event at
// scoring time. NextEx may be nil when no upcoming event is known.
type Candidate struct {
	Asset  domain.Asset
	NextEx *domain.DividendEvent
}

// ScoredCandidate carries the normalized components and the composite score.
// Components are relative ranking signals in [0, 1], not probabilities.
type ScoredCandidate struct {
	Asset          domain.Asset
	NextEx         *domain.DividendEvent
	DaysToEx       *int
	YieldScore     float64
	LiquidityScore float64
	ProximityScore float64
	Composite      float64
}

// Outcome distinguishes why a ranking may be empty: callers need to tell
// "nothing supplied" apart from "everything filtered out".
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNoInput     Outcome = "no_input"
	OutcomeAllFiltered Outcome = "all_filtered"
)

type Ranking struct {
	Candidates []ScoredCandidate
	Outcome    Outcome
}

func (r Ranking) Empty() bool {
	return len(r.Candidates) == 0
}

// Err maps an empty ranking onto the sentinel for callers that treat it as a
// failure; the ranking itself stays a normal result.
func (r Ranking) Err() error {
	if r.Empty() {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientCandidates, r.Outcome)
	}
	return nil
}

func (r Ranking) Tickers() []string {
	tickers := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		tickers = append(tickers, c.Asset.Ticker)
	}
	return tickers
}

type Options struct {
	MinYieldFraction float64
	MinAvgVolume     int64
	TopK             int
	LookaheadDays    int

	WeightYield     float64
	WeightLiquidity float64
	WeightProximity float64

	// ScoreExpression optionally replaces the weighted sum with a goval
	// expression over the variables yield, liquidity and proximity.
	ScoreExpression string
}

func (o Options) validate() error {
	if o.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidConfiguration, o.TopK)
	}
	if o.LookaheadDays <= 0 {
		return fmt.Errorf("%w: lookahead days must be positive, got %d", domain.ErrInvalidConfiguration, o.LookaheadDays)
	}
	if o.WeightYield < 0 || o.WeightLiquidity < 0 || o.WeightProximity < 0 {
		return fmt.Errorf("%w: negative score weight", domain.ErrInvalidConfiguration)
	}
	if o.ScoreExpression == "" && o.WeightYield+o.WeightLiquidity+o.WeightProximity <= 0 {
		return fmt.Errorf("%w: score weights sum to zero", domain.ErrInvalidConfiguration)
	}
	return nil
}

// Rank filters, scores and orders candidates. The returned ranking is
// deterministic: identical input always yields identical ordering. An empty
// result is an explicit outcome, never an error.
func Rank(asOf time.Time, candidates []Candidate, opts Options) (*Ranking, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	asOf = util.Truncate(asOf)

	if len(candidates) == 0 {
		return &Ranking{Outcome: OutcomeNoInput}, nil
	}

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Asset.TrailingYieldFraction < opts.MinYieldFraction {
			continue
		}
		if c.Asset.AvgVolume < opts.MinAvgVolume {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		logger.Warn("screener: all %d candidates removed by yield/volume filters", len(candidates))
		return &Ranking{Outcome: OutcomeAllFiltered}, nil
	}

	var maxYield, maxVolume float64
	for _, c := range filtered {
		if c.Asset.TrailingYieldFraction > maxYield {
			maxYield = c.Asset.TrailingYieldFraction
		}
		if v := float64(c.Asset.AvgVolume); v > maxVolume {
			maxVolume = v
		}
	}

	scored := make([]ScoredCandidate, 0, len(filtered))
	for _, c := range filtered {
		sc := ScoredCandidate{
			Asset:  c.Asset,
			NextEx: c.NextEx,
		}
		if maxYield > 0 {
			sc.YieldScore = c.Asset.TrailingYieldFraction / maxYield
		}
		if maxVolume > 0 {
			sc.LiquidityScore = float64(c.Asset.AvgVolume) / maxVolume
		}
		if c.NextEx != nil {
			days := daysBetween(asOf, c.NextEx.ExDate)
			sc.DaysToEx = &days
			sc.ProximityScore = proximityScore(days, opts.LookaheadDays)
		}

		score, err := composite(sc, opts)
		if err != nil {
			return nil, err
		}
		sc.Composite = score
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Composite != scored[j].Composite {
			return scored[i].Composite > scored[j].Composite
		}
		if scored[i].Asset.TrailingYieldFraction != scored[j].Asset.TrailingYieldFraction {
			return scored[i].Asset.TrailingYieldFraction > scored[j].Asset.TrailingYieldFraction
		}
		return scored[i].Asset.Ticker < scored[j].Asset.Ticker
	})

	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}

	return &Ranking{Candidates: scored, Outcome: OutcomeOK}, nil
}

// proximityScore decreases linearly with day-distance to the ex-date and is
// clipped to 0 outside the lookahead horizon.
func proximityScore(daysToEx, lookaheadDays int) float64 {
	if daysToEx < 0 || daysToEx > lookaheadDays {
		return 0
	}
	return 1 - float64(daysToEx)/float64(lookaheadDays)
}

func composite(sc ScoredCandidate, opts Options) (float64, error) {
	if opts.ScoreExpression != "" {
		return evaluateScoreExpression(sc, opts.ScoreExpression)
	}
	weightSum := opts.WeightYield + opts.WeightLiquidity + opts.WeightProximity
	return (opts.WeightYield*sc.YieldScore +
		opts.WeightLiquidity*sc.LiquidityScore +
		opts.WeightProximity*sc.ProximityScore) / weightSum, nil
}

func evaluateScoreExpression(sc ScoredCandidate, expression string) (float64, error) {
	variables := map[string]interface{}{
		"yield":      sc.YieldScore,
		"liquidity":  sc.LiquidityScore,
		"proximity":  sc.ProximityScore,
		"raw_yield":  sc.Asset.TrailingYieldFraction,
		"avg_volume": float64(sc.Asset.AvgVolume),
	}

	eval := goval.NewEvaluator()
	result, err := eval.Evaluate(expression, variables, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: score expression %q: %s", domain.ErrInvalidConfiguration, expression, err)
	}

	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: score expression %q returned %T, want number", domain.ErrInvalidConfiguration, expression, result)
	}
}

func daysBetween(from, to time.Time) int {
	return int(util.Truncate(to).Sub(util.Truncate(from)).Hours() / 24)
}
