package domain

// BetSide is the fixed polarity of a strategy: it always takes this side
// of every market it trades.
type BetSide string

const (
	BetSideYes BetSide = "YES"
	BetSideNo  BetSide = "NO"
)

// SizingMode selects how a bet size is derived from market volume.
type SizingMode string

const (
	SizingFixed    SizingMode = "fixed"
	SizingAdaptive SizingMode = "adaptive"
)

// PriorityPolicy names a candidate ordering.
type PriorityPolicy string

const (
	PriorityPriceHigh PriorityPolicy = "price_high"
	PriorityVolumeLow PriorityPolicy = "volume_low"
	PriorityRotation  PriorityPolicy = "rotation"
)

// PriceRange is an inclusive YES-price interval.
type PriceRange struct {
	Min float64
	Max float64
}

// Contains reports whether p lies inside the range, bounds inclusive.
func (r PriceRange) Contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// VolumeBucket maps a half-open volume interval [VolMin, VolMax) to a
// price range. Buckets in a zone spec are evaluated in listed order and
// must not overlap.
type VolumeBucket struct {
	VolMin float64
	VolMax float64
	Range  PriceRange
}

// ZoneSpec is either a single price range applying at every volume, or
// an ordered list of volume buckets. Volumes falling outside every
// bucket are a dead zone and never traded.
type ZoneSpec struct {
	Single  *PriceRange
	Buckets []VolumeBucket
}

// Strategy is an immutable configuration value describing one paper
// trading strategy. Instances come from the built-in catalog and are
// never mutated after construction.
type Strategy struct {
	Name                string
	Side                BetSide
	Zones               ZoneSpec
	MinVolume           float64
	MaxVolume           float64 // 0 = unbounded
	Sizing              SizingMode
	BetSize             float64 // used when Sizing == SizingFixed
	Priority            PriorityPolicy
	DeadlineMinDays     float64
	DeadlineMaxDays     float64 // 0 = unbounded
	EventCap            int
	ExcludeSeries       bool
	MaxTotalExposurePct float64
	MaxClusterExposPct  float64
	EntryCostRate       float64
	Bankroll            float64
}
