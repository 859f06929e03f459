// Package notifications delivers push notifications through ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set, so
// callers never need to guard their calls. The Service interface covers the
// events worth surfacing outside the terminal: reminders coming due, the
// free-tier allowance running out, and daemon errors.
//
// Extend this package if you need alternative transports; daemon code
// depends only on the simple Service interface.
package notifications
