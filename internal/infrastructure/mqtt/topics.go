package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every add-on topic.
const DefaultTopicPrefix = "graylogic/addon"

// Topics builds add-on MQTT topics under a prefix.
//
//	{prefix}/register            add-on → gateway, registration requests
//	{prefix}/{pluginId}/in       gateway → add-on
//	{prefix}/{pluginId}/out      add-on → gateway
//	{prefix}/{pluginId}/status   retained online/offline state (LWT)
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Register returns the topic registration requests are published on.
//
// Example: graylogic/addon/register
func (t Topics) Register() string {
	return t.prefix() + "/register"
}

// PluginIn returns the topic the gateway publishes to a plugin on.
//
// Example: graylogic/addon/virtual-adapter/in
func (t Topics) PluginIn(pluginID string) string {
	return fmt.Sprintf("%s/%s/in", t.prefix(), pluginID)
}

// PluginOut returns the topic a plugin publishes to the gateway on.
//
// Example: graylogic/addon/virtual-adapter/out
func (t Topics) PluginOut(pluginID string) string {
	return fmt.Sprintf("%s/%s/out", t.prefix(), pluginID)
}

// PluginStatus returns the retained status topic for a plugin.
//
// Example: graylogic/addon/virtual-adapter/status
func (t Topics) PluginStatus(pluginID string) string {
	return fmt.Sprintf("%s/%s/status", t.prefix(), pluginID)
}

// AllPluginOut matches every plugin's outbound topic.
func (t Topics) AllPluginOut() string {
	return t.prefix() + "/+/out"
}
