package notification

import (
	"regexp"
	"strings"

	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
)

const (
	attrRegistrationProduct = "registrationProduct"
	attrSubProduct          = "subProduct"
)

// registrationProducts maps lower-cased registrationProduct values onto
// catalog products. jira is resolved separately from its sub-product.
var registrationProducts = map[string]model.Product{
	"bitbucket":  model.ProductBitbucket,
	"compass":    model.ProductCompass,
	"confluence": model.ProductConfluence,
	"home":       model.ProductHome,
	"townsquare": model.ProductHome,
	"people":     model.ProductTeams,
	"teams":      model.ProductTeams,
}

// InferProduct derives the product from analytics attributes. Keys and
// values are matched case-insensitively; anything unrecognized is
// model.ProductUnknown.
func InferProduct(attrs []atlassian.AnalyticsAttribute) model.Product {
	registration := strings.ToLower(attributeValue(attrs, attrRegistrationProduct))

	if registration == "jira" {
		switch strings.ToLower(attributeValue(attrs, attrSubProduct)) {
		case "servicedesk", "servicemanagement":
			return model.ProductJiraServiceManagement
		case "software":
			return model.ProductJira
		default:
			return model.ProductJiraProductDiscovery
		}
	}

	if p, ok := registrationProducts[registration]; ok {
		return p
	}
	return model.ProductUnknown
}

func attributeValue(attrs []atlassian.AnalyticsAttribute, key string) string {
	for _, a := range attrs {
		if strings.EqualFold(a.Key, key) {
			return a.Value
		}
	}
	return ""
}

// automationActorPrefixes are display-name prefixes used by rule engines.
var automationActorPrefixes = []string{"Automation for"}

// automationSignal detects product-specific automation that is reported
// under a real-looking actor name.
type automationSignal func(n model.AtlassifyNotification) bool

var automationSignals = []automationSignal{
	// Compass scorecard evaluations.
	func(n model.AtlassifyNotification) bool {
		msg := strings.ToLower(n.Message)
		return n.Product == model.ProductCompass &&
			strings.Contains(msg, "scorecard") &&
			strings.Contains(msg, "fail")
	},
	// Rovo Dev agent messages.
	func(n model.AtlassifyNotification) bool {
		return strings.HasPrefix(n.Actor.DisplayName, "Rovo Dev") ||
			strings.HasPrefix(n.Message, "Rovo Dev")
	},
}

// InferActorType classifies the notification's actor as a user or as
// automation. Product must already be inferred.
func InferActorType(n model.AtlassifyNotification) model.ActorType {
	name := strings.TrimSpace(n.Actor.DisplayName)
	if name == "" {
		return model.ActorAutomation
	}
	for _, prefix := range automationActorPrefixes {
		if strings.HasPrefix(name, prefix) {
			return model.ActorAutomation
		}
	}
	for _, signal := range automationSignals {
		if signal(n) {
			return model.ActorAutomation
		}
	}
	return model.ActorUser
}

// engagementRule maps a message pattern onto an engagement type.
type engagementRule struct {
	engagement model.EngagementType
	match      func(message string) bool
}

func containsRule(substr string) func(string) bool {
	return func(message string) bool {
		return strings.Contains(message, substr)
	}
}

var reactionPattern = regexp.MustCompile(`reacted .* to your`)

// engagementRules are evaluated in order; the first match wins.
var engagementRules = []engagementRule{
	{engagement: model.EngagementMention, match: containsRule(" mentioned ")},
	{engagement: model.EngagementComment, match: containsRule(" replied ")},
	{engagement: model.EngagementReaction, match: reactionPattern.MatchString},
}

// InferEngagement classifies message by the engagement rule table.
// Unmatched messages return model.EngagementNone.
func InferEngagement(message string) model.EngagementType {
	for _, rule := range engagementRules {
		if rule.match(message) {
			return rule.engagement
		}
	}
	return model.EngagementNone
}
