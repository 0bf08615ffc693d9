package models

// Event is the body POSTed to the collector's server-to-server endpoint.
// RequestContext is embedded so its fields are flattened onto the top level.
type Event struct {
	APIKey          string         `json:"api_key"`
	EventID         string         `json:"event_id"`
	EventType       string         `json:"event_type"`
	Timestamp       string         `json:"_timestamp"`
	EventAttributes map[string]any `json:"event_attributes"`
	User            User           `json:"user"`
	Company         Company        `json:"company"`
	Src             string         `json:"src"`
	RequestContext
}

// User is the identity sub-object. Guests carry only anonymous_id and an empty id.
type User struct {
	AnonymousID string      `json:"anonymous_id"`
	ID          string      `json:"id"`
	Email       string      `json:"email,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	Custom      *UserCustom `json:"custom,omitempty"`
}

type UserCustom struct {
	Role string `json:"role"`
}

// Company is always sent with id and name, empty when the visitor has no organization.
type Company struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt string         `json:"created_at,omitempty"`
	Custom    map[string]any `json:"custom,omitempty"`
}

// RequestContext describes the page request that triggered the event.
type RequestContext struct {
	URL          string `json:"url"`
	PageTitle    string `json:"page_title"`
	DocPath      string `json:"doc_path"`
	DocHost      string `json:"doc_host"`
	UserAgent    string `json:"user_agent"`
	SourceIP     string `json:"source_ip,omitempty"`
	UserLanguage string `json:"user_language"`
	DocEncoding  string `json:"doc_encoding"`
}

// ServerSideEvent is the legacy server-to-server shape keyed by user_id instead of a user object.
type ServerSideEvent struct {
	APIKey           string            `json:"api_key"`
	EventType        string            `json:"event_type"`
	EventID          string            `json:"event_id"`
	IDs              map[string]string `json:"ids"`
	UserID           string            `json:"user_id"`
	ScreenResolution string            `json:"screen_resolution"`
	Src              string            `json:"src"`
	EventAttributes  map[string]any    `json:"event_attributes"`
	Company          *Company          `json:"company,omitempty"`
}

// CollectorResponse is the collector's acknowledgement body.
type CollectorResponse struct {
	Status string `json:"status"`
}

// PixelConfig is what the browser snippet needs to load lib.js and initialise it.
type PixelConfig struct {
	ScriptURL     string `json:"script_url"`
	APIKey        string `json:"api_key"`
	TrackingHost  string `json:"tracking_host"`
	Autocapture   bool   `json:"data_autocapture,omitempty"`
	PrivacyPolicy string `json:"data_privacy_policy,omitempty"`
}
