package protocol

import "encoding/json"

// Link is a Web Thing link.
type Link struct {
	Rel       string `json:"rel,omitempty"`
	Href      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
}

// PropertyDescription is the static metadata of a property.
//
// Older gateways send label, min and max; UnmarshalJSON maps them onto
// Title, Minimum and Maximum when the current names are absent.
type PropertyDescription struct {
	Title       string   `json:"title,omitempty"`
	Type        string   `json:"type,omitempty"`
	AtType      string   `json:"@type,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Description string   `json:"description,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	MultipleOf  *float64 `json:"multipleOf,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	ReadOnly    bool     `json:"readOnly,omitempty"`
	Links       []Link   `json:"links,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
}

// UnmarshalJSON accepts both current and legacy field names.
func (d *PropertyDescription) UnmarshalJSON(b []byte) error {
	type plain PropertyDescription
	var aux struct {
		plain
		Label string   `json:"label"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = PropertyDescription(aux.plain)
	if d.Title == "" {
		d.Title = aux.Label
	}
	if d.Minimum == nil {
		d.Minimum = aux.Min
	}
	if d.Maximum == nil {
		d.Maximum = aux.Max
	}
	return nil
}

// PropertyState is a property description plus its name and cached value.
type PropertyState struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	PropertyDescription
}

// UnmarshalJSON keeps the embedded description's legacy handling from
// swallowing name and value.
func (s *PropertyState) UnmarshalJSON(b []byte) error {
	var head struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if err := s.PropertyDescription.UnmarshalJSON(b); err != nil {
		return err
	}
	s.Name = head.Name
	s.Value = head.Value
	return nil
}

// ActionMetadata describes an action a device accepts. Input, when set, is
// a JSON schema the request input must satisfy.
type ActionMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	AtType      string `json:"@type,omitempty"`
	Input       any    `json:"input,omitempty"`
	Links       []Link `json:"links,omitempty"`
}

// EventMetadata describes an event a device may raise.
type EventMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	AtType      string `json:"@type,omitempty"`
	Type        string `json:"type,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Links       []Link `json:"links,omitempty"`
}

// PinDescription tells the gateway whether pairing needs a PIN.
type PinDescription struct {
	Required bool   `json:"required"`
	Pattern  string `json:"pattern,omitempty"`
}

// DeviceDescription is the full device state sent on add and after a
// successful PIN or credentials update.
type DeviceDescription struct {
	ID                  string                    `json:"id"`
	Title               string                    `json:"title,omitempty"`
	Context             string                    `json:"@context"`
	Type                []string                  `json:"@type"`
	Description         string                    `json:"description,omitempty"`
	Properties          map[string]PropertyState  `json:"properties"`
	Actions             map[string]ActionMetadata `json:"actions"`
	Events              map[string]EventMetadata  `json:"events"`
	BaseHref            string                    `json:"baseHref,omitempty"`
	Pin                 PinDescription            `json:"pin"`
	CredentialsRequired bool                      `json:"credentialsRequired"`
}

// ThingDescription is the value-free description of a device.
type ThingDescription struct {
	ID                  string                         `json:"id"`
	Title               string                         `json:"title,omitempty"`
	Context             string                         `json:"@context"`
	Type                []string                       `json:"@type"`
	Description         string                         `json:"description,omitempty"`
	Properties          map[string]PropertyDescription `json:"properties"`
	Actions             map[string]ActionMetadata      `json:"actions"`
	Events              map[string]EventMetadata       `json:"events"`
	BaseHref            string                         `json:"baseHref,omitempty"`
	Pin                 PinDescription                 `json:"pin"`
	CredentialsRequired bool                           `json:"credentialsRequired"`
}

// ActionDescription is an action's wire state.
type ActionDescription struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Input         any     `json:"input"`
	Status        string  `json:"status"`
	TimeRequested string  `json:"timeRequested"`
	TimeCompleted *string `json:"timeCompleted"`
}

// EventDescription is an event's wire state.
type EventDescription struct {
	Name      string `json:"name"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// OutletDescription is an outlet's wire state.
type OutletDescription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NotificationLevel is the urgency of an outlet notification.
type NotificationLevel int

// Notification levels.
const (
	NotificationLow    NotificationLevel = 0
	NotificationNormal NotificationLevel = 1
	NotificationHigh   NotificationLevel = 2
)

func (l NotificationLevel) String() string {
	switch l {
	case NotificationLow:
		return "low"
	case NotificationNormal:
		return "normal"
	case NotificationHigh:
		return "high"
	default:
		return "unknown"
	}
}

// APIRequest is an HTTP request proxied from the gateway to an API handler.
type APIRequest struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Query  map[string]any `json:"query,omitempty"`
	Body   any            `json:"body,omitempty"`
}

// APIResponse is an API handler's reply.
type APIResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`
}

// UserProfile holds the gateway's directory layout.
type UserProfile struct {
	BaseDir    string `json:"baseDir,omitempty"`
	ConfigDir  string `json:"configDir,omitempty"`
	DataDir    string `json:"dataDir,omitempty"`
	MediaDir   string `json:"mediaDir,omitempty"`
	LogDir     string `json:"logDir,omitempty"`
	GatewayDir string `json:"gatewayDir,omitempty"`
}

// Preferences holds the user's display preferences.
type Preferences struct {
	Language string `json:"language,omitempty"`
	Units    struct {
		Temperature string `json:"temperature,omitempty"`
	} `json:"units"`
}
