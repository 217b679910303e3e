/*
Package device is the HTTP client for a converter's extended keymap API.

# Endpoints

	GET  /api/map_ex           full table, 256 entry objects
	POST /api/map_ex_set       one entry object
	POST /api/map_ex_upload    full table, 256 entry objects
	GET  /api/map_ex_download  persisted table as an attachment
	POST /api/map_ex_reset     restore the built-in table
	GET  /api/ping             liveness
	WS   /ws/scancodes         scancode event stream

# Error Handling

Every failed request is a *TransportError carrying the operation, the HTTP
status when one was received, and the underlying error otherwise. A response
body that is not a 256-entry table is reported as a TransportError wrapping
the decode failure. UploadAll checks the table shape before sending anything
and returns a *keymap.ShapeError without touching the network.

Requests are never retried. A Timeout of zero leaves requests bounded only by
the caller's context.

# Example Usage

	client, err := device.NewClient("192.168.4.1", device.Options{})
	if err != nil {
		return err
	}
	table, err := client.Load(ctx)
*/
package device
