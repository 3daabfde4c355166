package vision

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
)

func TestLikelihoodOrdering(t *testing.T) {
	// The scale is ordinal; every level must sort above the previous one
	assert.True(t, LikelihoodVeryUnlikely > LikelihoodUnknown)
	assert.True(t, LikelihoodUnlikely > LikelihoodVeryUnlikely)
	assert.True(t, LikelihoodPossible > LikelihoodUnlikely)
	assert.True(t, LikelihoodLikely > LikelihoodPossible)
	assert.True(t, LikelihoodVeryLikely > LikelihoodLikely)
}

func TestLikelihoodAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		level    Likelihood
		min      Likelihood
		expected bool
	}{
		{"possible below likely", LikelihoodPossible, LikelihoodLikely, false},
		{"likely meets likely", LikelihoodLikely, LikelihoodLikely, true},
		{"very likely above likely", LikelihoodVeryLikely, LikelihoodLikely, true},
		{"unknown below everything", LikelihoodUnknown, LikelihoodVeryUnlikely, false},
		{"equal levels", LikelihoodPossible, LikelihoodPossible, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.AtLeast(tt.min))
		})
	}
}

func TestResultUnsafe(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected bool
	}{
		{
			name:     "both very unlikely",
			result:   Result{Adult: LikelihoodVeryUnlikely, Violence: LikelihoodVeryUnlikely},
			expected: false,
		},
		{
			name:     "both possible stays safe",
			result:   Result{Adult: LikelihoodPossible, Violence: LikelihoodPossible},
			expected: false,
		},
		{
			name:     "adult likely",
			result:   Result{Adult: LikelihoodLikely, Violence: LikelihoodUnlikely},
			expected: true,
		},
		{
			name:     "violence likely",
			result:   Result{Adult: LikelihoodUnknown, Violence: LikelihoodLikely},
			expected: true,
		},
		{
			name:     "adult very likely",
			result:   Result{Adult: LikelihoodVeryLikely, Violence: LikelihoodVeryUnlikely},
			expected: true,
		},
		{
			name:     "both unknown",
			result:   Result{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Unsafe())
		})
	}
}

func TestLikelihoodString(t *testing.T) {
	tests := []struct {
		level    Likelihood
		expected string
	}{
		{LikelihoodUnknown, "UNKNOWN"},
		{LikelihoodVeryUnlikely, "VERY_UNLIKELY"},
		{LikelihoodUnlikely, "UNLIKELY"},
		{LikelihoodPossible, "POSSIBLE"},
		{LikelihoodLikely, "LIKELY"},
		{LikelihoodVeryLikely, "VERY_LIKELY"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestFromProto(t *testing.T) {
	tests := []struct {
		name     string
		proto    visionpb.Likelihood
		expected Likelihood
	}{
		{"unknown", visionpb.Likelihood_UNKNOWN, LikelihoodUnknown},
		{"very unlikely", visionpb.Likelihood_VERY_UNLIKELY, LikelihoodVeryUnlikely},
		{"unlikely", visionpb.Likelihood_UNLIKELY, LikelihoodUnlikely},
		{"possible", visionpb.Likelihood_POSSIBLE, LikelihoodPossible},
		{"likely", visionpb.Likelihood_LIKELY, LikelihoodLikely},
		{"very likely", visionpb.Likelihood_VERY_LIKELY, LikelihoodVeryLikely},
		{"out of range maps to unknown", visionpb.Likelihood(99), LikelihoodUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fromProto(tt.proto))
		})
	}
}
