package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Theme is the preferred colour scheme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// OpenPreference controls whether links open in the foreground.
type OpenPreference string

const (
	OpenForeground OpenPreference = "foreground"
	OpenBackground OpenPreference = "background"
)

// AppearanceSettings holds rendering preferences.
type AppearanceSettings struct {
	Theme Theme `json:"theme"`
}

// NotificationSettings controls fetching, grouping and read-state behavior.
type NotificationSettings struct {
	MarkAsReadOnOpen                          bool `json:"markAsReadOnOpen"`
	DelayNotificationState                    bool `json:"delayNotificationState"`
	FetchOnlyUnreadNotifications              bool `json:"fetchOnlyUnreadNotifications"`
	GroupNotificationsByProduct               bool `json:"groupNotificationsByProduct"`
	GroupNotificationsByProductAlphabetically bool `json:"groupNotificationsByProductAlphabetically"`
	GroupNotificationsByTitle                 bool `json:"groupNotificationsByTitle"`
}

// SystemSettings controls native notifications and sounds.
type SystemSettings struct {
	OpenLinks                 OpenPreference `json:"openLinks"`
	ShowNotifications         bool           `json:"showNotifications"`
	PlaySoundNewNotifications bool           `json:"playSoundNewNotifications"`
	NotificationVolume        int            `json:"notificationVolume"`
}

// TraySettings controls the tray (status bar) indicator.
type TraySettings struct {
	ShowNotificationsCountInTray bool `json:"showNotificationsCountInTray"`
	UseUnreadActiveIcon          bool `json:"useUnreadActiveIcon"`
}

// FilterSettings holds the user's filter selections. An empty slice
// means the dimension is not filtered.
type FilterSettings struct {
	Engagements []EngagementType `json:"filterEngagementStates"`
	Categories  []Category       `json:"filterCategories"`
	ReadStates  []ReadState      `json:"filterReadStates"`
	Products    []Product        `json:"filterProducts"`
	Actors      []ActorType      `json:"filterActors"`
}

// Settings is the full set of persisted user settings.
type Settings struct {
	Appearance    AppearanceSettings   `json:"appearance"`
	Notifications NotificationSettings `json:"notifications"`
	System        SystemSettings       `json:"system"`
	Tray          TraySettings         `json:"tray"`
	Filters       FilterSettings       `json:"filters"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		Appearance: AppearanceSettings{Theme: ThemeSystem},
		Notifications: NotificationSettings{
			MarkAsReadOnOpen:                          true,
			DelayNotificationState:                    false,
			FetchOnlyUnreadNotifications:              true,
			GroupNotificationsByProduct:               false,
			GroupNotificationsByProductAlphabetically: false,
			GroupNotificationsByTitle:                 true,
		},
		System: SystemSettings{
			OpenLinks:                 OpenForeground,
			ShowNotifications:         true,
			PlaySoundNewNotifications: true,
			NotificationVolume:        20,
		},
		Tray: TraySettings{
			ShowNotificationsCountInTray: true,
			UseUnreadActiveIcon:          true,
		},
		Filters: FilterSettings{},
	}
}

// MergeSettings decodes a possibly partial JSON settings blob over the
// defaults. Keys missing from raw keep their default values. Filter
// values outside their enumerations are dropped.
func MergeSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decoding settings: %w", err)
	}
	s.Filters = s.Filters.Sanitize()
	return s, nil
}

// Sanitize returns a copy of f with unknown and duplicate values removed.
func (f FilterSettings) Sanitize() FilterSettings {
	return FilterSettings{
		Engagements: keepKnown(f.Engagements, AllEngagementTypes),
		Categories:  keepKnown(f.Categories, AllCategories),
		ReadStates:  keepKnown(f.ReadStates, AllReadStates),
		Products:    keepKnown(f.Products, AllProducts),
		Actors:      keepKnown(f.Actors, AllActorTypes),
	}
}

// IsEmpty reports whether no filter of any kind is applied.
func (f FilterSettings) IsEmpty() bool {
	return f.Count() == 0
}

// Count returns the total number of selected filter values.
func (f FilterSettings) Count() int {
	return len(f.Engagements) + len(f.Categories) + len(f.ReadStates) +
		len(f.Products) + len(f.Actors)
}

func keepKnown[T comparable](values []T, known []T) []T {
	if len(values) == 0 {
		return nil
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		if slices.Contains(known, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Toggle adds v to values when absent and removes it when present.
func Toggle[T comparable](values []T, v T) []T {
	if i := slices.Index(values, v); i >= 0 {
		return slices.Delete(slices.Clone(values), i, i+1)
	}
	return append(slices.Clone(values), v)
}

// settingFields maps dotted setting keys to accessors on Settings.
// Only scalar settings are addressable; filters have their own commands.
var settingFields = map[string]func(s *Settings) any{
	"appearance.theme":                                        func(s *Settings) any { return &s.Appearance.Theme },
	"notifications.markAsReadOnOpen":                          func(s *Settings) any { return &s.Notifications.MarkAsReadOnOpen },
	"notifications.delayNotificationState":                    func(s *Settings) any { return &s.Notifications.DelayNotificationState },
	"notifications.fetchOnlyUnreadNotifications":              func(s *Settings) any { return &s.Notifications.FetchOnlyUnreadNotifications },
	"notifications.groupNotificationsByProduct":               func(s *Settings) any { return &s.Notifications.GroupNotificationsByProduct },
	"notifications.groupNotificationsByProductAlphabetically": func(s *Settings) any { return &s.Notifications.GroupNotificationsByProductAlphabetically },
	"notifications.groupNotificationsByTitle":                 func(s *Settings) any { return &s.Notifications.GroupNotificationsByTitle },
	"system.openLinks":                                        func(s *Settings) any { return &s.System.OpenLinks },
	"system.showNotifications":                                func(s *Settings) any { return &s.System.ShowNotifications },
	"system.playSoundNewNotifications":                        func(s *Settings) any { return &s.System.PlaySoundNewNotifications },
	"system.notificationVolume":                               func(s *Settings) any { return &s.System.NotificationVolume },
	"tray.showNotificationsCountInTray":                       func(s *Settings) any { return &s.Tray.ShowNotificationsCountInTray },
	"tray.useUnreadActiveIcon":                                func(s *Settings) any { return &s.Tray.UseUnreadActiveIcon },
}

// SettingKeys returns every addressable setting key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingFields))
	for k := range settingFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value and assigns it to the setting named by key.
func (s *Settings) Set(key, value string) error {
	field, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	switch p := field(s).(type) {
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		*p = b
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		if n < 0 || n > 100 {
			return fmt.Errorf("setting %s: %d out of range 0-100", key, n)
		}
		*p = n
	case *Theme:
		t := Theme(strings.ToLower(value))
		if t != ThemeSystem && t != ThemeLight && t != ThemeDark {
			return fmt.Errorf("setting %s: unknown theme %q", key, value)
		}
		*p = t
	case *OpenPreference:
		o := OpenPreference(strings.ToLower(value))
		if o != OpenForeground && o != OpenBackground {
			return fmt.Errorf("setting %s: unknown preference %q", key, value)
		}
		*p = o
	}
	return nil
}
