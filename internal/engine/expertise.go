package engine

import (
	"sort"
	"strings"
	"sync"

	"AlertIntelAPI/internal/models"
)

const (
	expertiseMin       = 0.0
	expertiseMax       = 10.0
	expertiseIncrement = 0.1
	expertiseDecrement = 0.05
)

type expertiseKey struct {
	userID    string
	alertType string // lowercased
}

// Expert pairs a user with their score for one alert type.
type Expert struct {
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

// ExpertiseSnapshot is the serializable form of one score entry.
type ExpertiseSnapshot struct {
	UserID    string  `json:"user_id"`
	AlertType string  `json:"alert_type"`
	Score     float64 `json:"score"`
}

// ExpertiseModel tracks per-user, per-alert-type proficiency in [0, 10].
// Successful resolutions earn 0.1; failures cost 0.05, so expertise erodes
// more slowly than it is gained.
type ExpertiseModel struct {
	mu     sync.RWMutex
	scores map[expertiseKey]float64
}

func NewExpertiseModel() *ExpertiseModel {
	return &ExpertiseModel{scores: make(map[expertiseKey]float64)}
}

// Update applies the asymmetric adjustment for one resolution outcome,
// clamped to the [0, 10] range.
func (m *ExpertiseModel) Update(userID string, alertType models.AlertType, successful bool) {
	key := expertiseKey{userID: userID, alertType: strings.ToLower(string(alertType))}

	m.mu.Lock()
	defer m.mu.Unlock()

	score := m.scores[key]
	if successful {
		score += expertiseIncrement
		if score > expertiseMax {
			score = expertiseMax
		}
	} else {
		score -= expertiseDecrement
		if score < expertiseMin {
			score = expertiseMin
		}
	}
	m.scores[key] = score
}

// Score returns the current score for a user and alert type, zero if unknown.
func (m *ExpertiseModel) Score(userID string, alertType models.AlertType) float64 {
	key := expertiseKey{userID: userID, alertType: strings.ToLower(string(alertType))}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scores[key]
}

// TopExperts returns up to n users for the alert type, descending by score
// with user ID as the stable tie-break.
func (m *ExpertiseModel) TopExperts(alertType models.AlertType, n int) []Expert {
	want := strings.ToLower(string(alertType))

	m.mu.RLock()
	experts := make([]Expert, 0, 8)
	for key, score := range m.scores {
		if key.alertType == want {
			experts = append(experts, Expert{UserID: key.userID, Score: score})
		}
	}
	m.mu.RUnlock()

	sort.Slice(experts, func(i, j int) bool {
		if experts[i].Score != experts[j].Score {
			return experts[i].Score > experts[j].Score
		}
		return experts[i].UserID < experts[j].UserID
	})

	if len(experts) > n {
		experts = experts[:n]
	}
	return experts
}

func (m *ExpertiseModel) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scores)
}

// Snapshot exports all score entries sorted by user then type.
func (m *ExpertiseModel) Snapshot() []ExpertiseSnapshot {
	m.mu.RLock()
	out := make([]ExpertiseSnapshot, 0, len(m.scores))
	for key, score := range m.scores {
		out = append(out, ExpertiseSnapshot{
			UserID:    key.userID,
			AlertType: key.alertType,
			Score:     score,
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].AlertType < out[j].AlertType
	})
	return out
}

// Restore replaces the model contents from a checkpoint.
func (m *ExpertiseModel) Restore(snaps []ExpertiseSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores = make(map[expertiseKey]float64, len(snaps))
	for _, snap := range snaps {
		key := expertiseKey{userID: snap.UserID, alertType: strings.ToLower(snap.AlertType)}
		score := snap.Score
		if score < expertiseMin {
			score = expertiseMin
		}
		if score > expertiseMax {
			score = expertiseMax
		}
		m.scores[key] = score
	}
}
