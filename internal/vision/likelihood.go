// Package vision classifies uploaded images for unsafe content using the
// Cloud Vision SafeSearch API.
package vision

// Likelihood is the ordinal confidence scale SafeSearch scores categories on.
// Values are ordered: Unknown < VeryUnlikely < Unlikely < Possible < Likely <
// VeryLikely.
type Likelihood int

const (
	LikelihoodUnknown Likelihood = iota
	LikelihoodVeryUnlikely
	LikelihoodUnlikely
	LikelihoodPossible
	LikelihoodLikely
	LikelihoodVeryLikely
)

// AtLeast reports whether l is ordinally at or above min.
func (l Likelihood) AtLeast(min Likelihood) bool {
	return l >= min
}

// String returns the canonical SafeSearch name for the level.
func (l Likelihood) String() string {
	switch l {
	case LikelihoodVeryUnlikely:
		return "VERY_UNLIKELY"
	case LikelihoodUnlikely:
		return "UNLIKELY"
	case LikelihoodPossible:
		return "POSSIBLE"
	case LikelihoodLikely:
		return "LIKELY"
	case LikelihoodVeryLikely:
		return "VERY_LIKELY"
	default:
		return "UNKNOWN"
	}
}

// Result holds the SafeSearch scores for the two categories this backend
// moderates on.
type Result struct {
	Adult    Likelihood
	Violence Likelihood
}

// Unsafe reports whether either category reaches LIKELY or above, the
// threshold at which an image must be blurred.
func (r Result) Unsafe() bool {
	return r.Adult.AtLeast(LikelihoodLikely) || r.Violence.AtLeast(LikelihoodLikely)
}
