package atlassian

import (
	"encoding/json"
	"time"
)

// GraphQLRequest is the POST body accepted by the gateway.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLError is a single entry of the response "errors" array.
type GraphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		ErrorType  string `json:"errorType"`
		StatusCode int    `json:"statusCode"`
	} `json:"extensions"`
}

// Response is the generic GraphQL response envelope.
type Response struct {
	Data       json.RawMessage     `json:"data"`
	Extensions *ResponseExtensions `json:"extensions,omitempty"`
	Errors     []GraphQLError      `json:"errors,omitempty"`
}

// ResponseExtensions carries gateway metadata about the response.
type ResponseExtensions struct {
	Notifications *struct {
		ResponseInfo struct {
			ResponseSize int `json:"responseSize"`
		} `json:"response_info"`
	} `json:"notifications,omitempty"`
}

// ResponseSize returns the server-reported feed size, or -1 when absent.
func (e *ResponseExtensions) ResponseSize() int {
	if e == nil || e.Notifications == nil {
		return -1
	}
	return e.Notifications.ResponseInfo.ResponseSize
}

// MyNotificationsData is the data payload of the MyNotifications query.
type MyNotificationsData struct {
	Notifications struct {
		NotificationFeed NotificationFeed `json:"notificationFeed"`
	} `json:"notifications"`
}

// NotificationFeed is a page of notification groups.
type NotificationFeed struct {
	PageInfo PageInfo    `json:"pageInfo"`
	Nodes    []GroupNode `json:"nodes"`
}

// PageInfo is the relay-style pagination marker.
type PageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

// GroupNode is a notification group with its head notification. When the
// feed is requested flat, every node has a group size of one.
type GroupNode struct {
	GroupID          string           `json:"groupId"`
	GroupSize        int              `json:"groupSize"`
	AdditionalActors []RawActor       `json:"additionalActors"`
	HeadNotification HeadNotification `json:"headNotification"`
}

// HeadNotification is the representative notification of a group.
type HeadNotification struct {
	NotificationID      string               `json:"notificationId"`
	Timestamp           time.Time            `json:"timestamp"`
	ReadState           string               `json:"readState"`
	Category            string               `json:"category"`
	Content             Content              `json:"content"`
	AnalyticsAttributes []AnalyticsAttribute `json:"analyticsAttributes"`
}

// Content is the renderable body of a notification.
type Content struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	URL     string    `json:"url"`
	Entity  *RawLink  `json:"entity"`
	Path    []RawLink `json:"path"`
	Actor   *RawActor `json:"actor"`
}

// RawLink is an entity or path reference.
type RawLink struct {
	Title   string `json:"title"`
	IconURL string `json:"iconUrl"`
	URL     string `json:"url"`
}

// RawActor is the user that triggered a notification. DisplayName is a
// pointer because automation rules are reported with a null name.
type RawActor struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   string  `json:"avatarURL"`
}

// AnalyticsAttribute is a key/value pair used to infer the product.
type AnalyticsAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MeData is the data payload of the Me query.
type MeData struct {
	Me struct {
		User MeUser `json:"user"`
	} `json:"me"`
}

// MeUser is the authenticated Atlassian user.
type MeUser struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Picture   string `json:"picture"`
}

// FeedResult is a fetched notification page plus gateway metadata.
type FeedResult struct {
	Feed NotificationFeed

	// ResponseSize is the server-reported feed size, or -1 when absent.
	ResponseSize int
}
