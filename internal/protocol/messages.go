package protocol

// Gateway to add-on payloads. Identifiers the router has already resolved
// (adapterId, deviceId, notifierId, packageName) are repeated here so a
// worker can decode everything it needs from one struct.

// RegisterResponse completes the handshake.
type RegisterResponse struct {
	PluginID       string      `json:"pluginId"`
	GatewayVersion string      `json:"gatewayVersion"`
	UserProfile    UserProfile `json:"userProfile"`
	Preferences    Preferences `json:"preferences"`
	IPCBaseAddr    string      `json:"ipcBaseAddr,omitempty"`
}

func (m *RegisterResponse) Validate() error {
	if m.GatewayVersion == "" {
		return missing(MsgRegisterResponse, "gatewayVersion")
	}
	return nil
}

// StartPairing asks an adapter to look for new devices for Timeout seconds.
type StartPairing struct {
	AdapterID string  `json:"adapterId"`
	Timeout   float64 `json:"timeout"`
}

func (m *StartPairing) Validate() error { return nil }

// AdapterCommand is the payload of cancelPairing and unloadAdapter.
type AdapterCommand struct {
	AdapterID string `json:"adapterId"`
}

func (m *AdapterCommand) Validate() error { return nil }

// DeviceCommand is the payload of removeDevice and cancelRemoveDevice.
type DeviceCommand struct {
	AdapterID string `json:"adapterId"`
	DeviceID  string `json:"deviceId"`
}

func (m *DeviceCommand) Validate() error { return nil }

// SetProperty asks for a new property value.
type SetProperty struct {
	AdapterID     string `json:"adapterId"`
	DeviceID      string `json:"deviceId"`
	PropertyName  string `json:"propertyName"`
	PropertyValue any    `json:"propertyValue"`
}

func (m *SetProperty) Validate() error {
	if m.PropertyName == "" {
		return missing(MsgSetProperty, "propertyName")
	}
	return nil
}

// RequestAction asks a device to perform an action.
type RequestAction struct {
	AdapterID  string `json:"adapterId"`
	DeviceID   string `json:"deviceId"`
	ActionID   string `json:"actionId"`
	ActionName string `json:"actionName"`
	Input      any    `json:"input,omitempty"`
	MessageID  int64  `json:"messageId,omitempty"`
}

func (m *RequestAction) Validate() error {
	if m.ActionID == "" {
		return missing(MsgRequestAction, "actionId")
	}
	if m.ActionName == "" {
		return missing(MsgRequestAction, "actionName")
	}
	return nil
}

// RemoveAction asks a device to cancel an in-flight action.
type RemoveAction struct {
	AdapterID  string `json:"adapterId"`
	DeviceID   string `json:"deviceId"`
	ActionID   string `json:"actionId"`
	ActionName string `json:"actionName"`
	MessageID  int64  `json:"messageId,omitempty"`
}

func (m *RemoveAction) Validate() error {
	if m.ActionID == "" {
		return missing(MsgRemoveAction, "actionId")
	}
	if m.ActionName == "" {
		return missing(MsgRemoveAction, "actionName")
	}
	return nil
}

// SetPin supplies a pairing PIN for a device.
type SetPin struct {
	AdapterID string `json:"adapterId"`
	DeviceID  string `json:"deviceId"`
	Pin       string `json:"pin"`
	MessageID int64  `json:"messageId"`
}

func (m *SetPin) Validate() error { return nil }

// SetCredentials supplies a username and password for a device.
type SetCredentials struct {
	AdapterID string `json:"adapterId"`
	DeviceID  string `json:"deviceId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	MessageID int64  `json:"messageId"`
}

func (m *SetCredentials) Validate() error { return nil }

// NotifierCommand is the payload of unloadNotifier.
type NotifierCommand struct {
	NotifierID string `json:"notifierId"`
}

func (m *NotifierCommand) Validate() error { return nil }

// NotifyOutlet asks an outlet to deliver a notification.
type NotifyOutlet struct {
	NotifierID string            `json:"notifierId"`
	OutletID   string            `json:"outletId"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Level      NotificationLevel `json:"level"`
	MessageID  int64             `json:"messageId"`
}

func (m *NotifyOutlet) Validate() error {
	if m.OutletID == "" {
		return missing(MsgNotifyOutlet, "outletId")
	}
	return nil
}

// APIHandlerRequest forwards an HTTP request to an API handler.
type APIHandlerRequest struct {
	PackageName string     `json:"packageName"`
	MessageID   int64      `json:"messageId"`
	Request     APIRequest `json:"request"`
}

func (m *APIHandlerRequest) Validate() error {
	if m.Request.Method == "" {
		return missing(MsgAPIHandlerRequest, "request.method")
	}
	return nil
}

// APIHandlerCommand is the payload of unloadAPIHandler.
type APIHandlerCommand struct {
	PackageName string `json:"packageName"`
}

func (m *APIHandlerCommand) Validate() error { return nil }

// Add-on to gateway payloads. Each embeds Header so the sender can stamp
// the plugin id.

// Register opens the handshake.
type Register struct {
	Header
}

// PluginUnloadResponse acknowledges unloadPlugin.
type PluginUnloadResponse struct {
	Header
}

// PluginErrorNotification reports an add-on level error to the gateway.
type PluginErrorNotification struct {
	Header
	Message string `json:"message"`
}

// AdapterAdded announces a new adapter.
type AdapterAdded struct {
	Header
	AdapterID   string `json:"adapterId"`
	Name        string `json:"name"`
	PackageName string `json:"packageName"`
}

// AdapterUnloadResponse acknowledges unloadAdapter.
type AdapterUnloadResponse struct {
	Header
	AdapterID string `json:"adapterId"`
}

// PairingPrompt asks the user to do something during (un)pairing.
type PairingPrompt struct {
	Header
	AdapterID string `json:"adapterId"`
	Prompt    string `json:"prompt"`
	URL       string `json:"url,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
}

// DeviceAdded announces a device.
type DeviceAdded struct {
	Header
	AdapterID string            `json:"adapterId"`
	Device    DeviceDescription `json:"device"`
}

// RemoveDeviceResponse announces that a device is gone.
type RemoveDeviceResponse struct {
	Header
	AdapterID string `json:"adapterId"`
	DeviceID  string `json:"deviceId"`
}

// NotifierAdded announces a new notifier.
type NotifierAdded struct {
	Header
	NotifierID  string `json:"notifierId"`
	Name        string `json:"name"`
	PackageName string `json:"packageName"`
}

// NotifierUnloadResponse acknowledges unloadNotifier.
type NotifierUnloadResponse struct {
	Header
	NotifierID string `json:"notifierId"`
}

// OutletAdded announces an outlet.
type OutletAdded struct {
	Header
	NotifierID string `json:"notifierId"`
	OutletDescription
}

// OutletRemoved announces that an outlet is gone.
type OutletRemoved struct {
	Header
	NotifierID string `json:"notifierId"`
	OutletID   string `json:"outletId"`
}

// OutletNotifyResponse resolves (Success) or rejects a notifyOutlet.
type OutletNotifyResponse struct {
	Header
	NotifierID string `json:"notifierId"`
	OutletID   string `json:"outletId"`
	MessageID  int64  `json:"messageId"`
	Success    bool   `json:"success"`
}

// APIHandlerAdded announces an API handler.
type APIHandlerAdded struct {
	Header
	PackageName string `json:"packageName"`
}

// APIHandlerUnloadResponse acknowledges unloadAPIHandler.
type APIHandlerUnloadResponse struct {
	Header
	PackageName string `json:"packageName"`
}

// APIHandlerResponse answers an apiHandlerRequest.
type APIHandlerResponse struct {
	Header
	PackageName string      `json:"packageName"`
	MessageID   int64       `json:"messageId"`
	Response    APIResponse `json:"response"`
}

// PropertyChanged carries a property's current cached value.
type PropertyChanged struct {
	Header
	AdapterID string        `json:"adapterId"`
	DeviceID  string        `json:"deviceId"`
	Property  PropertyState `json:"property"`
}

// ActionStatus carries an action status transition.
type ActionStatus struct {
	Header
	AdapterID string            `json:"adapterId"`
	DeviceID  string            `json:"deviceId"`
	Action    ActionDescription `json:"action"`
}

// EventNotification carries a device event.
type EventNotification struct {
	Header
	AdapterID string           `json:"adapterId"`
	DeviceID  string           `json:"deviceId"`
	Event     EventDescription `json:"event"`
}

// ConnectedState carries a device connectivity change.
type ConnectedState struct {
	Header
	AdapterID string `json:"adapterId"`
	DeviceID  string `json:"deviceId"`
	Connected bool   `json:"connected"`
}

// ActionResponse resolves or rejects requestAction and removeAction.
type ActionResponse struct {
	Header
	AdapterID  string `json:"adapterId"`
	DeviceID   string `json:"deviceId"`
	ActionID   string `json:"actionId"`
	ActionName string `json:"actionName"`
	MessageID  int64  `json:"messageId,omitempty"`
	Success    bool   `json:"success"`
}

// DeviceAuthResponse resolves or rejects setPin and setCredentials. On
// success Device carries the refreshed description.
type DeviceAuthResponse struct {
	Header
	AdapterID string             `json:"adapterId"`
	DeviceID  string             `json:"deviceId,omitempty"`
	Device    *DeviceDescription `json:"device,omitempty"`
	MessageID int64              `json:"messageId"`
	Success   bool               `json:"success"`
}
