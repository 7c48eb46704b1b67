package engine

import "github.com/geostrat/paperbot/internal/domain"

// ResolveZone returns the price range a strategy applies at the given
// volume. A single-range spec always applies. A bucket list is scanned
// in listed order and the first bucket whose half-open interval
// [VolMin, VolMax) contains the volume wins. No match means the volume
// sits in a dead zone and the second return is false.
func ResolveZone(spec domain.ZoneSpec, volume float64) (domain.PriceRange, bool) {
	if spec.Single != nil {
		return *spec.Single, true
	}
	for _, b := range spec.Buckets {
		if volume >= b.VolMin && volume < b.VolMax {
			return b.Range, true
		}
	}
	return domain.PriceRange{}, false
}
