package model

import "time"

// ReadState is the read/unread state of a notification.
type ReadState string

const (
	ReadStateRead   ReadState = "read"
	ReadStateUnread ReadState = "unread"
)

// AllReadStates contains every valid read state.
var AllReadStates = []ReadState{ReadStateRead, ReadStateUnread}

// Category identifies why the user received a notification.
type Category string

const (
	CategoryDirect   Category = "direct"
	CategoryWatching Category = "watching"
)

// AllCategories contains every valid notification category.
var AllCategories = []Category{CategoryDirect, CategoryWatching}

// ActorType separates notifications triggered by people from those
// triggered by rules, bots and scorecards.
type ActorType string

const (
	ActorUser       ActorType = "user"
	ActorAutomation ActorType = "automation"
)

// AllActorTypes contains every valid actor type.
var AllActorTypes = []ActorType{ActorUser, ActorAutomation}

// EngagementType is the inferred kind of interaction a notification
// represents. EngagementNone means no heuristic matched.
type EngagementType string

const (
	EngagementNone     EngagementType = ""
	EngagementMention  EngagementType = "mention"
	EngagementComment  EngagementType = "comment"
	EngagementReaction EngagementType = "reaction"
)

// AllEngagementTypes contains every classified engagement type.
// EngagementNone is deliberately absent: it can never be filtered on.
var AllEngagementTypes = []EngagementType{
	EngagementMention,
	EngagementComment,
	EngagementReaction,
}

// Actor is the person or automation that triggered a notification.
type Actor struct {
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarURL"`
	Type        ActorType `json:"type"`
}

// Link is a titled reference to an entity or its parent path in an
// Atlassian product (a page, an issue, a space, a repository).
type Link struct {
	Title   string `json:"title"`
	IconURL string `json:"iconUrl"`
	URL     string `json:"url"`
}

// NotificationGroup is a server-side collapse of related notifications.
type NotificationGroup struct {
	ID               string  `json:"id"`
	Size             int     `json:"size"`
	AdditionalActors []Actor `json:"additionalActors"`
}

// IsGroup reports whether the group collapses more than one notification.
func (g NotificationGroup) IsGroup() bool {
	return g.Size > 1
}

// AtlassifyNotification is the normalized representation of a single
// (head) notification returned by the Atlassian notifications feed.
type AtlassifyNotification struct {
	// ID is the Atlassian notification identifier.
	ID string `json:"id"`

	// Message is the free-text headline, e.g. "Jane mentioned you on ...".
	Message string `json:"message"`

	// UpdatedAt is the notification timestamp.
	UpdatedAt time.Time `json:"updatedAt"`

	ReadState ReadState `json:"readState"`
	Category  Category  `json:"category"`

	// Product is inferred from analytics attributes. An empty Product
	// means no product data is available.
	Product Product `json:"product"`

	// Type is the raw content type reported by the API.
	Type string `json:"type"`

	// URL opens the notification target in the browser.
	URL string `json:"url"`

	// Path is the optional parent location (space, project); nil when absent.
	Path *Link `json:"path,omitempty"`

	Entity Link  `json:"entity"`
	Actor  Actor `json:"actor"`

	// Engagement is the inferred interaction type.
	Engagement EngagementType `json:"engagement"`

	NotificationGroup NotificationGroup `json:"notificationGroup"`

	// Account is the owning account. It is duplicated on every
	// notification so renderers never need a lookup.
	Account Account `json:"account"`
}

// IsUnread reports whether the notification is unread.
func (n AtlassifyNotification) IsUnread() bool {
	return n.ReadState == ReadStateUnread
}

// AccountNotifications is the per-account result of a fetch cycle.
type AccountNotifications struct {
	Account              Account                 `json:"account"`
	Notifications        []AtlassifyNotification `json:"notifications"`
	HasMoreNotifications bool                    `json:"hasMoreNotifications"`

	// Error is set when fetching this account failed. It is a value,
	// not a propagated error, so other accounts keep rendering.
	Error error `json:"-"`
}
