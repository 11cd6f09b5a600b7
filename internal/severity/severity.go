// Package severity maps a numeric weight, typically a measured width, onto
// an ordered set of named buckets.
package severity

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/sidewalk.report/internal/config"
)

// Unknown is returned for weights that fall outside every bucket.
const Unknown = "unknown"

// Bucket is a named half-open range [Lower, Upper). A bucket with an
// infinite Upper also holds +Inf.
type Bucket struct {
	Name  string
	Rank  int
	Lower float64
	Upper float64
}

func (b Bucket) contains(w float64) bool {
	return w >= b.Lower && (w < b.Upper || math.IsInf(b.Upper, 1))
}

var (
	names4 = []string{"critical", "narrow", "limited", "wide"}
	names7 = []string{"critical", "very_narrow", "narrow", "limited", "moderate", "comfortable", "wide"}
)

// Classifier holds non-overlapping buckets sorted by Lower.
type Classifier struct {
	buckets []Bucket
}

// New builds a Classifier from explicit buckets. Buckets may leave gaps
// but must not overlap.
func New(buckets []Bucket) (*Classifier, error) {
	bs := append([]Bucket(nil), buckets...)
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Lower < bs[j].Lower })
	for i, b := range bs {
		if b.Name == "" || b.Name == Unknown {
			return nil, fmt.Errorf("%w: bucket %d has reserved or empty name %q", config.ErrConfiguration, i, b.Name)
		}
		if !(b.Lower < b.Upper) {
			return nil, fmt.Errorf("%w: bucket %q has empty range [%g, %g)", config.ErrConfiguration, b.Name, b.Lower, b.Upper)
		}
		if i > 0 && b.Lower < bs[i-1].Upper {
			return nil, fmt.Errorf("%w: bucket %q overlaps %q", config.ErrConfiguration, b.Name, bs[i-1].Name)
		}
		bs[i].Rank = i
	}
	return &Classifier{buckets: bs}, nil
}

// FromThresholds builds the buckets [0, t1), [t1, t2), ..., [tn, +Inf).
// Three thresholds give the four-bucket scheme and six give the
// seven-bucket scheme.
func FromThresholds(thresholds []float64) (*Classifier, error) {
	var names []string
	switch len(thresholds) {
	case 3:
		names = names4
	case 6:
		names = names7
	default:
		return nil, fmt.Errorf("%w: %d thresholds, want 3 or 6", config.ErrConfiguration, len(thresholds))
	}
	bs := make([]Bucket, len(names))
	lower := 0.0
	for i, name := range names {
		upper := math.Inf(1)
		if i < len(thresholds) {
			upper = thresholds[i]
		}
		bs[i] = Bucket{Name: name, Lower: lower, Upper: upper}
		lower = upper
	}
	return New(bs)
}

// FromConfig builds the classifier for the configured scheme.
func FromConfig(c *config.SidewalkConfig) (*Classifier, error) {
	return FromThresholds(c.GetSeverityThresholds())
}

// Buckets returns a copy of the buckets in ascending order.
func (c *Classifier) Buckets() []Bucket {
	return append([]Bucket(nil), c.buckets...)
}

// Classify returns the name of the bucket containing w, or Unknown.
func (c *Classifier) Classify(w float64) string {
	if b, ok := c.Lookup(w); ok {
		return b.Name
	}
	return Unknown
}

// Lookup returns the bucket containing w. NaN is never contained.
func (c *Classifier) Lookup(w float64) (Bucket, bool) {
	i := sort.Search(len(c.buckets), func(i int) bool {
		return c.buckets[i].Upper > w || math.IsInf(c.buckets[i].Upper, 1)
	})
	if i < len(c.buckets) && c.buckets[i].contains(w) {
		return c.buckets[i], true
	}
	return Bucket{Name: Unknown, Rank: -1}, false
}
