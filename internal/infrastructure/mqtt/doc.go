// Package mqtt provides MQTT broker connectivity for the add-on's MQTT
// transport.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees
//   - Subscriptions restored after reconnect
//   - Last Will and Testament on the plugin status topic
//
// # Topics
//
//	graylogic/addon/register            registration requests
//	graylogic/addon/{pluginId}/in       gateway → add-on envelopes
//	graylogic/addon/{pluginId}/out      add-on → gateway envelopes
//	graylogic/addon/{pluginId}/status   retained online/offline
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: cfg.Transport.MQTT.TopicPrefix}
//	client, err := mqtt.Connect(cfg.MQTT, topics.PluginStatus(pluginID))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.PluginIn(pluginID), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// Broker-backed tests are behind the integration build tag:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...
package mqtt
