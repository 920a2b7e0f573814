package engine

import (
	"strconv"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
)

// Metadata keys written by the threshold adjuster. Downstream alerting policy
// reads these; the adjuster itself never suppresses or escalates anything.
const (
	MetaThresholdAdjustment = "dynamicThresholdAdjustment"
	MetaPatternBased        = "patternBasedThreshold"
	MetaPatternOccurrences  = "patternOccurrences"
)

const (
	// Patterns need more than this many occurrences before adjustment
	// kicks in at all.
	thresholdMinSample = 10
	// Above this, the pattern is routine and sensitivity drops.
	thresholdFrequent = 50
	// Below this, the pattern is rare and sensitivity rises.
	thresholdRare = 5

	adjustReduced   = 0.8
	adjustIncreased = 1.2
	adjustNeutral   = 1.0
)

// ThresholdAdjuster annotates alerts with a sensitivity factor derived from
// how often their pattern has been seen.
type ThresholdAdjuster struct {
	store *PatternStore
	log   *logger.Logger
}

func NewThresholdAdjuster(store *PatternStore, log *logger.Logger) *ThresholdAdjuster {
	return &ThresholdAdjuster{store: store, log: log}
}

// Adjust writes threshold annotations onto the alert if the pattern has
// cleared the minimum-sample gate. Advisory only.
func (t *ThresholdAdjuster) Adjust(alert *models.Alert, patternID string) {
	pattern, ok := t.store.Get(patternID)
	if !ok || pattern.Occurrences <= thresholdMinSample {
		return
	}

	factor := adjustmentFactor(pattern.Occurrences)

	alert.Annotate(MetaThresholdAdjustment, strconv.FormatFloat(factor, 'f', -1, 64))
	alert.Annotate(MetaPatternBased, "true")
	alert.Annotate(MetaPatternOccurrences, strconv.Itoa(pattern.Occurrences))

	t.log.Debug("Alert %s annotated with threshold factor %.1f (pattern %s, %d occurrences)",
		alert.ID, factor, patternID, pattern.Occurrences)
}

func adjustmentFactor(occurrences int) float64 {
	switch {
	case occurrences > thresholdFrequent:
		return adjustReduced
	case occurrences < thresholdRare:
		return adjustIncreased
	}
	return adjustNeutral
}
