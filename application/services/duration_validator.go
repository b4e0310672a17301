package services

import "fmt"

// Spoken-duration model: ~150 words per minute at ~5 characters per word.
const (
	charsPerWord   = 5
	wordsPerMinute = 150
)

// PlanTier is the lip-sync subscription level bounding the maximum clip
// duration the vendor will accept.
type PlanTier string

const (
	TierStarter    PlanTier = "starter"
	TierCreator    PlanTier = "creator"
	TierPro        PlanTier = "pro"
	TierEnterprise PlanTier = "enterprise"
)

var tierMaxClipSeconds = map[PlanTier]float64{
	TierStarter:    60,
	TierCreator:    300,
	TierPro:        600,
	TierEnterprise: 1800,
}

// MaxClipSeconds returns the tier's duration ceiling. Unknown tiers fall
// back to the starter limit, the most restrictive one.
func MaxClipSeconds(tier PlanTier) float64 {
	if max, ok := tierMaxClipSeconds[tier]; ok {
		return max
	}
	return tierMaxClipSeconds[TierStarter]
}

// EstimateSpokenSeconds estimates how long the dialogue takes to speak.
// Monotonic in character count.
func EstimateSpokenSeconds(dialogue string) float64 {
	return float64(len(dialogue)) / charsPerWord / wordsPerMinute * 60
}

// ValidateAudioDuration rejects dialogue whose estimated spoken duration
// strictly exceeds the plan tier's ceiling. Called before any paid vendor
// step so an over-long script does not burn audio/image/video budget on a
// clip the lip-sync vendor cannot accept. The message is suitable for
// surfacing to an operator as-is.
func ValidateAudioDuration(dialogue string, tier PlanTier) (bool, string) {
	estimated := EstimateSpokenSeconds(dialogue)
	max := MaxClipSeconds(tier)
	if estimated > max {
		return false, fmt.Sprintf(
			"estimated audio duration %.1fs exceeds the %.0fs limit of the %s plan; shorten the dialogue or upgrade the plan",
			estimated, max, tier)
	}
	return true, fmt.Sprintf("estimated audio duration %.1fs is within the %.0fs limit", estimated, max)
}
