// Package records defines the typed rows written to the analytics store.
// Pointer fields map absent JSON values to SQL NULL rather than a zero
// value.
package records

import "time"

// PageEvent is one row in page_events.
type PageEvent struct {
	Timestamp  time.Time
	SessionID  string
	UserID     string
	TrackingID string
	EventType  string
	PageURL    string
	PageTitle  string
	Referrer   string
}

// Session is one row in sessions, appended on every page_load.
type Session struct {
	SessionID       string
	UserID          string
	TrackingID      string
	StartTime       time.Time
	DeviceType      string
	OperatingSystem string
	Browser         string
	ScreenWidth     int
	ScreenHeight    int
	ViewportWidth   int
	ViewportHeight  int
	Language        string
	Timezone        string
	Referrer        string
	EntryPage       string
	PageViews       int
}

// InteractionEvent is one row in interaction_events.
type InteractionEvent struct {
	Timestamp    time.Time
	SessionID    string
	UserID       string
	TrackingID   string
	EventType    string
	PageURL      string
	X            *int
	Y            *int
	Element      string
	ElementID    *string
	ElementClass *string
	ButtonText   *string
	ButtonType   *string
	LinkURL      *string
	LinkText     *string
	FileName     *string
	IsExternal   *bool
	Target       *string
}

// FormEvent is one row in form_events.
type FormEvent struct {
	Timestamp     time.Time
	SessionID     string
	UserID        string
	TrackingID    string
	PageURL       string
	EventType     string
	FormID        string
	FormName      string
	FormAction    *string
	FormMethod    *string
	FieldName     *string
	FieldType     *string
	FieldCount    *int
	ValueLength   *int
	HasFileUpload *bool
	Success       *bool
}

// EcommerceEvent is one row in ecommerce_events.
type EcommerceEvent struct {
	Timestamp   time.Time
	SessionID   *string
	UserID      *string
	TrackingID  string
	PageURL     *string
	EventType   string
	ProductID   *string
	ProductName *string
	Price       *float64
	Quantity    *int
	Category    *string
	Currency    string
	OrderID     *string
	Total       *float64
	Step        *int
	StepName    *string
}

// VideoEvent is one row in video_events.
type VideoEvent struct {
	Timestamp     time.Time
	SessionID     string
	UserID        string
	TrackingID    string
	PageURL       string
	EventType     string
	VideoSrc      string
	VideoDuration *float64
	CurrentTime   *float64
}

// ScrollEvent is one row in scroll_events.
type ScrollEvent struct {
	Timestamp     time.Time
	SessionID     string
	UserID        string
	TrackingID    string
	PageURL       string
	EventType     string
	DepthPercent  *int
	ScrollTop     *int
	ScrollPercent *int
}

// MouseEvent is one row in mouse_events.
type MouseEvent struct {
	Timestamp  time.Time
	SessionID  string
	UserID     string
	TrackingID string
	PageURL    string
	X          int
	Y          int
}
