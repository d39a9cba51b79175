// Package realtime pushes domain events to connected browsers.
//
// Clients connect over a websocket and are registered with the Hub under
// their user ID and the organizations they belong to. Events addressed to a
// user reach only that user's connections; events addressed to an
// organization reach every member connected to it. When several server
// instances run, a NATSBridge relays events between their hubs.
package realtime
