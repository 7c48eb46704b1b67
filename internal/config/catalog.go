package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/geostrat/paperbot/internal/domain"
)

// Catalog holds the built-in strategy definitions and their named
// groups. It is constructed once at process start and passed by
// reference; nothing mutates it afterwards.
type Catalog struct {
	strategies map[string]domain.Strategy
	groups     map[string][]string
}

// Get returns one strategy by name.
func (c *Catalog) Get(name string) (domain.Strategy, error) {
	s, ok := c.strategies[name]
	if !ok {
		return domain.Strategy{}, fmt.Errorf("catalog: %q: %w", name, domain.ErrUnknownStrategy)
	}
	return s, nil
}

// Group returns the strategy names in a named group.
func (c *Catalog) Group(name string) ([]string, error) {
	g, ok := c.groups[name]
	if !ok {
		return nil, fmt.Errorf("catalog: %q: %w", name, domain.ErrUnknownGroup)
	}
	out := make([]string, len(g))
	copy(out, g)
	return out, nil
}

// Resolve expands a group name plus individual strategy names into a
// deduplicated, order-preserving strategy list. Either argument may be
// empty; unknown names are reported, not skipped.
func (c *Catalog) Resolve(group string, names []string) ([]domain.Strategy, error) {
	var ordered []string
	if group != "" {
		g, err := c.Group(group)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, g...)
	}
	ordered = append(ordered, names...)

	seen := make(map[string]bool, len(ordered))
	out := make([]domain.Strategy, 0, len(ordered))
	for _, name := range ordered {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Names lists every strategy name, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.strategies))
	for name := range c.strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Groups lists every group name, sorted.
func (c *Catalog) Groups() []string {
	out := make([]string, 0, len(c.groups))
	for name := range c.groups {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks every strategy for structural problems, most
// importantly overlapping volume buckets, which would make zone
// resolution order-dependent in a way nobody intended.
func (c *Catalog) Validate() error {
	var errs []string
	for name, s := range c.strategies {
		if s.Bankroll <= 0 {
			errs = append(errs, fmt.Sprintf("%s: bankroll must be > 0", name))
		}
		if s.Sizing == domain.SizingFixed && s.BetSize <= 0 {
			errs = append(errs, fmt.Sprintf("%s: bet_size must be > 0 for fixed sizing", name))
		}
		if s.Zones.Single == nil && len(s.Zones.Buckets) == 0 {
			errs = append(errs, fmt.Sprintf("%s: zone spec is empty", name))
		}
		for i, a := range s.Zones.Buckets {
			if a.VolMin >= a.VolMax {
				errs = append(errs, fmt.Sprintf("%s: bucket %d has vol_min >= vol_max", name, i))
			}
			for j, b := range s.Zones.Buckets[i+1:] {
				if a.VolMin < b.VolMax && b.VolMin < a.VolMax {
					errs = append(errs, fmt.Sprintf("%s: buckets %d and %d overlap", name, i, i+1+j))
				}
			}
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func single(min, max float64) domain.ZoneSpec {
	return domain.ZoneSpec{Single: &domain.PriceRange{Min: min, Max: max}}
}

func bucket(volMin, volMax, priceMin, priceMax float64) domain.VolumeBucket {
	return domain.VolumeBucket{
		VolMin: volMin,
		VolMax: volMax,
		Range:  domain.PriceRange{Min: priceMin, Max: priceMax},
	}
}

func buckets(bs ...domain.VolumeBucket) domain.ZoneSpec {
	return domain.ZoneSpec{Buckets: bs}
}

// strat fills in the shared defaults so each definition only states
// what differs from them.
func strat(s domain.Strategy) domain.Strategy {
	if s.Side == "" {
		s.Side = domain.BetSideNo
	}
	if s.EntryCostRate == 0 {
		s.EntryCostRate = 0.005
	}
	if s.MaxTotalExposurePct == 0 {
		s.MaxTotalExposurePct = 0.90
	}
	if s.MaxClusterExposPct == 0 {
		s.MaxClusterExposPct = 0.30
	}
	if s.Sizing == "" {
		s.Sizing = domain.SizingFixed
	}
	if s.Sizing == domain.SizingFixed && s.BetSize == 0 {
		s.BetSize = 25
	}
	if s.Priority == "" {
		s.Priority = domain.PriorityPriceHigh
	}
	if s.DeadlineMinDays == 0 {
		s.DeadlineMinDays = 3
	}
	if s.EventCap == 0 {
		s.EventCap = 3
	}
	return s
}

var inf = math.Inf(1)

// NewCatalog builds the built-in strategy catalog: four base
// strategies kept for portfolio continuity, then five tiers of
// experiment configurations (controls, volume hypothesis, multi-bucket
// zones, cash-constrained deadline tests, deployable candidates).
func NewCatalog() *Catalog {
	strategies := map[string]domain.Strategy{
		// Base strategies. These predate the tier experiments and use a
		// wider entry cost assumption and lower exposure ceilings.
		"conservative": strat(domain.Strategy{
			Name:                "conservative",
			Zones:               single(0.10, 0.25),
			MinVolume:           10000,
			Bankroll:            5000,
			EntryCostRate:       0.03,
			MaxTotalExposurePct: 0.60,
			MaxClusterExposPct:  0.20,
		}),
		"balanced": strat(domain.Strategy{
			Name:                "balanced",
			Zones:               single(0.20, 0.60),
			MinVolume:           10000,
			Bankroll:            5000,
			EntryCostRate:       0.03,
			MaxTotalExposurePct: 0.60,
			MaxClusterExposPct:  0.20,
		}),
		"aggressive": strat(domain.Strategy{
			Name:                "aggressive",
			Zones:               single(0.30, 0.60),
			MinVolume:           10000,
			BetSize:             30,
			Bankroll:            5000,
			EntryCostRate:       0.03,
			MaxTotalExposurePct: 0.75,
			MaxClusterExposPct:  0.25,
		}),
		"volume_sweet": strat(domain.Strategy{
			Name:                "volume_sweet",
			Zones:               single(0.20, 0.60),
			MinVolume:           15000,
			MaxVolume:           100000,
			Bankroll:            5000,
			EntryCostRate:       0.03,
			MaxTotalExposurePct: 0.60,
			MaxClusterExposPct:  0.20,
		}),

		// Tier 1: controls validating that the signal exists at all.
		"t1_baseline_flat": strat(domain.Strategy{
			Name:     "t1_baseline_flat",
			Zones:    single(0.40, 0.80),
			Bankroll: 1000,
		}),
		"t1_baseline_v1_zone": strat(domain.Strategy{
			Name:     "t1_baseline_v1_zone",
			Zones:    single(0.20, 0.60),
			Bankroll: 1000,
		}),
		"t1_baseline_volume_high": strat(domain.Strategy{
			Name:      "t1_baseline_volume_high",
			Zones:     single(0.50, 0.80),
			MinVolume: 250000,
			Bankroll:  1000,
		}),
		"t1_baseline_contrarian": strat(domain.Strategy{
			Name:     "t1_baseline_contrarian",
			Zones:    single(0.10, 0.35),
			Bankroll: 1000,
		}),

		// Tier 2: volume as the primary predictor.
		"t2_small_vol": strat(domain.Strategy{
			Name:      "t2_small_vol",
			Zones:     single(0.40, 0.80),
			MaxVolume: 100000,
			Sizing:    domain.SizingAdaptive,
			Priority:  domain.PriorityVolumeLow,
			Bankroll:  1000,
		}),
		"t2_micro_vol": strat(domain.Strategy{
			Name:      "t2_micro_vol",
			Zones:     single(0.30, 0.65),
			MaxVolume: 50000,
			Sizing:    domain.SizingAdaptive,
			Priority:  domain.PriorityVolumeLow,
			Bankroll:  1000,
		}),
		"t2_noseries": strat(domain.Strategy{
			Name:          "t2_noseries",
			Zones:         single(0.40, 0.80),
			Sizing:        domain.SizingAdaptive,
			Priority:      domain.PriorityVolumeLow,
			ExcludeSeries: true,
			Bankroll:      1000,
		}),

		// Tier 3: price zones conditioned on volume.
		"t3_mb_simple": strat(domain.Strategy{
			Name: "t3_mb_simple",
			Zones: buckets(
				bucket(0, 100000, 0.30, 0.65),
				bucket(100000, inf, 0.50, 0.80),
			),
			Sizing:   domain.SizingAdaptive,
			Priority: domain.PriorityVolumeLow,
			Bankroll: 1000,
		}),
		"t3_mb_3bucket": strat(domain.Strategy{
			Name: "t3_mb_3bucket",
			Zones: buckets(
				bucket(0, 25000, 0.30, 0.60),
				bucket(25000, 250000, 0.40, 0.70),
				bucket(250000, inf, 0.50, 0.80),
			),
			Sizing:   domain.SizingAdaptive,
			Priority: domain.PriorityVolumeLow,
			Bankroll: 1000,
		}),
		"t3_mb_4bucket_skip": strat(domain.Strategy{
			Name: "t3_mb_4bucket_skip",
			// 100k-250k is deliberately uncovered: a dead zone.
			Zones: buckets(
				bucket(0, 25000, 0.30, 0.60),
				bucket(25000, 100000, 0.40, 0.70),
				bucket(250000, inf, 0.50, 0.80),
			),
			Sizing:   domain.SizingAdaptive,
			Priority: domain.PriorityVolumeLow,
			Bankroll: 1000,
		}),
		"t3_mb_aggressive": strat(domain.Strategy{
			Name: "t3_mb_aggressive",
			Zones: buckets(
				bucket(0, 5000, 0.30, 0.65),
				bucket(5000, 50000, 0.35, 0.70),
				bucket(50000, 250000, 0.40, 0.80),
				bucket(250000, inf, 0.50, 0.80),
			),
			Sizing:   domain.SizingAdaptive,
			Priority: domain.PriorityVolumeLow,
			Bankroll: 1000,
		}),

		// Tier 4: small bankrolls plus deadline filters.
		"t4_cstr_baseline": strat(domain.Strategy{
			Name:     "t4_cstr_baseline",
			Zones:    single(0.40, 0.80),
			BetSize:  50,
			Priority: domain.PriorityVolumeLow,
			Bankroll: 500,
		}),
		"t4_cstr_dl60": strat(domain.Strategy{
			Name:            "t4_cstr_dl60",
			Zones:           single(0.40, 0.80),
			BetSize:         50,
			Priority:        domain.PriorityVolumeLow,
			DeadlineMaxDays: 60,
			Bankroll:        500,
		}),
		"t4_cstr_rotation_dl60": strat(domain.Strategy{
			Name:            "t4_cstr_rotation_dl60",
			Zones:           single(0.40, 0.80),
			BetSize:         50,
			Priority:        domain.PriorityRotation,
			DeadlineMaxDays: 60,
			Bankroll:        500,
		}),
		"t4_cstr_adaptive_dl90": strat(domain.Strategy{
			Name:            "t4_cstr_adaptive_dl90",
			Zones:           single(0.40, 0.80),
			Sizing:          domain.SizingAdaptive,
			Priority:        domain.PriorityVolumeLow,
			DeadlineMaxDays: 90,
			Bankroll:        1000,
		}),
		"t4_cstr_mb3_dl90": strat(domain.Strategy{
			Name: "t4_cstr_mb3_dl90",
			Zones: buckets(
				bucket(0, 25000, 0.30, 0.60),
				bucket(25000, 250000, 0.40, 0.70),
				bucket(250000, inf, 0.50, 0.80),
			),
			Sizing:          domain.SizingAdaptive,
			Priority:        domain.PriorityVolumeLow,
			DeadlineMaxDays: 90,
			Bankroll:        1000,
		}),

		// Tier 5: deployable candidates.
		"t5_deploy_conservative": strat(domain.Strategy{
			Name: "t5_deploy_conservative",
			// >250k is a dead zone.
			Zones: buckets(
				bucket(0, 50000, 0.30, 0.65),
				bucket(50000, 250000, 0.40, 0.75),
			),
			Sizing:   domain.SizingAdaptive,
			Priority: domain.PriorityVolumeLow,
			EventCap: 2,
			Bankroll: 1000,
		}),
		"t5_deploy_balanced": strat(domain.Strategy{
			Name: "t5_deploy_balanced",
			Zones: buckets(
				bucket(0, 25000, 0.30, 0.60),
				bucket(25000, 250000, 0.40, 0.70),
				bucket(250000, inf, 0.50, 0.80),
			),
			Sizing:          domain.SizingAdaptive,
			Priority:        domain.PriorityRotation,
			DeadlineMaxDays: 90,
			Bankroll:        1000,
		}),
		"t5_deploy_speed": strat(domain.Strategy{
			Name: "t5_deploy_speed",
			Zones: buckets(
				bucket(0, 50000, 0.30, 0.65),
				bucket(50000, 250000, 0.40, 0.75),
			),
			Sizing:          domain.SizingAdaptive,
			Priority:        domain.PriorityRotation,
			DeadlineMaxDays: 60,
			Bankroll:        500,
		}),
		"t5_deploy_max_growth": strat(domain.Strategy{
			Name: "t5_deploy_max_growth",
			Zones: buckets(
				bucket(0, 25000, 0.30, 0.60),
				bucket(25000, 250000, 0.40, 0.70),
				bucket(250000, inf, 0.50, 0.80),
			),
			BetSize:         50,
			Priority:        domain.PriorityVolumeLow,
			DeadlineMaxDays: 90,
			Bankroll:        1000,
		}),
	}

	tier := func(prefix string) []string {
		var out []string
		for name := range strategies {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out
	}

	base := []string{"conservative", "balanced", "aggressive", "volume_sweet"}
	all := make([]string, 0, len(strategies))
	for name := range strategies {
		all = append(all, name)
	}
	sort.Strings(all)

	groups := map[string][]string{
		"base":       base,
		"standard":   base,
		"tier1":      tier("t1_"),
		"tier2":      tier("t2_"),
		"tier3":      tier("t3_"),
		"tier4":      tier("t4_"),
		"tier5":      tier("t5_"),
		"controls":   tier("t1_"),
		"deployable": tier("t5_"),
		"new":        tier("t"),
		"all":        all,
		"phase1": append(append([]string{}, base...),
			"t1_baseline_flat", "t1_baseline_v1_zone", "t1_baseline_volume_high", "t1_baseline_contrarian",
			"t2_small_vol", "t2_micro_vol"),
		"phase2": append(tier("t3_"), "t2_noseries"),
		"phase3": tier("t4_"),
		"phase4": tier("t5_"),
		"quick":  {"balanced", "t1_baseline_flat"},
	}

	return &Catalog{strategies: strategies, groups: groups}
}
