// Package influxdb records device history in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every property
// change, event and connectivity change an add-on reports to the gateway
// can also be written here as a point tagged with adapter_id and
// device_id, giving a long-term history the gateway itself does not keep.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteProperty("virtual", "light-1", state, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; write failures are
// delivered asynchronously to the SetOnError callback.
package influxdb
