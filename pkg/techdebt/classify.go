package techdebt

// Class labels a debt delta.
type Class string

// Debt classes.
const (
	MajorDecrease Class = "major_decrease"
	MinorDecrease Class = "minor_decrease"
	Unchanged     Class = "unchanged"
	MinorIncrease Class = "minor_increase"
	MajorIncrease Class = "major_increase"
)

// DefaultMajorThreshold is the delta, in minutes, from which a change is major.
const DefaultMajorThreshold = 60

// Classifier buckets deltas by sign and magnitude.
type Classifier struct {
	majorThreshold int64
}

// NewClassifier creates a classifier. Deltas whose magnitude reaches
// majorThreshold are major; a non-positive threshold uses the default.
func NewClassifier(majorThreshold int64) Classifier {
	if majorThreshold <= 0 {
		majorThreshold = DefaultMajorThreshold
	}

	return Classifier{majorThreshold: majorThreshold}
}

// Classify labels delta (before minus after).
func (c Classifier) Classify(delta int64) Class {
	switch {
	case delta == 0:
		return Unchanged
	case delta >= c.majorThreshold:
		return MajorDecrease
	case delta > 0:
		return MinorDecrease
	case -delta >= c.majorThreshold:
		return MajorIncrease
	default:
		return MinorIncrease
	}
}
