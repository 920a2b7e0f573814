package engine

import (
	"context"
	"fmt"
	"time"

	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
)

const defaultDispatchTimeout = 5 * time.Second

// Notifier delivers a notification to one user. Implementations talk to
// external gateways and are treated as best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, body string) error
}

// Router turns an alert into an ordered, de-duplicated set of notifications:
// rule targets first in priority order, then expert responders.
type Router struct {
	rules           *RuleSet
	expertise       *ExpertiseModel
	notifier        Notifier
	expertFanout    int
	dispatchTimeout time.Duration
	log             *logger.Logger
}

func NewRouter(rules *RuleSet, expertise *ExpertiseModel, notifier Notifier, expertFanout int, dispatchTimeout time.Duration, log *logger.Logger) *Router {
	if expertFanout <= 0 {
		expertFanout = 3
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = defaultDispatchTimeout
	}
	return &Router{
		rules:           rules,
		expertise:       expertise,
		notifier:        notifier,
		expertFanout:    expertFanout,
		dispatchTimeout: dispatchTimeout,
		log:             log,
	}
}

// FindMatchingRules returns the active rules matching the alert, ascending by
// priority.
func (r *Router) FindMatchingRules(alert *models.Alert) []RoutingRule {
	return r.rules.FindMatching(alert)
}

// FindExpertUsers returns the top scorers for the alert's type.
func (r *Router) FindExpertUsers(alert *models.Alert) []Expert {
	return r.expertise.TopExperts(alert.Type, r.expertFanout)
}

// Route dispatches notifications in two phases with a shared de-duplication
// set, so rule targets take precedence and nobody hears about the same alert
// twice. Rule and expert data is copied out of the stores before any dispatch
// I/O happens, so no store lock is held across gateway calls. Returns the
// notified user IDs in dispatch order.
func (r *Router) Route(ctx context.Context, alert *models.Alert) []string {
	matching := r.FindMatchingRules(alert)
	experts := r.FindExpertUsers(alert)

	notified := make(map[string]bool)
	var order []string

	for _, rule := range matching {
		for _, userID := range rule.Targets {
			if notified[userID] {
				continue
			}
			r.dispatch(ctx, userID, r.ruleSubject(alert), r.ruleBody(alert, rule))
			notified[userID] = true
			order = append(order, userID)
		}
	}

	for _, expert := range experts {
		if notified[expert.UserID] {
			continue
		}
		r.dispatch(ctx, expert.UserID, r.expertSubject(alert), r.expertBody(alert, expert))
		notified[expert.UserID] = true
		order = append(order, expert.UserID)
	}

	return order
}

// dispatch fires one notification with a bounded timeout. Failures are logged
// and swallowed; a dead gateway degrades delivery, never the pipeline.
func (r *Router) dispatch(ctx context.Context, userID, subject, body string) {
	dctx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
	defer cancel()

	if err := r.notifier.Notify(dctx, userID, subject, body); err != nil {
		r.log.Error("Notification to %s for alert subject %q failed: %v", userID, subject, err)
	}
}

func (r *Router) ruleSubject(alert *models.Alert) string {
	return fmt.Sprintf("Alert routed: %s", alert.Title)
}

func (r *Router) ruleBody(alert *models.Alert, rule RoutingRule) string {
	action := rule.Actions["recommended_action"]
	if action == "" {
		action = ActionInvestigate
	}
	return fmt.Sprintf(
		"Alert: %s\nRouted via rule: %s\nRecommended action: %s\nPriority: %d",
		alert.Title, rule.ID, action, rule.Priority,
	)
}

func (r *Router) expertSubject(alert *models.Alert) string {
	return fmt.Sprintf("Expert assignment: %s", alert.Title)
}

func (r *Router) expertBody(alert *models.Alert, expert Expert) string {
	return fmt.Sprintf(
		"You have been identified as an expert for this alert type.\nAlert: %s\nType: %s\nYour expertise score: %.2f",
		alert.Title, alert.Type, expert.Score,
	)
}
