// Package bus is the Redis pub/sub transport boundary. Inbound,
// devices publish location samples on per-account channels; outbound,
// the service publishes zone-status flips and current-zone changes.
//
// Channel scheme:
//
//	geofence:loc:<account>               <- location samples (JSON)
//	geofence:status:<account>:<zone>     -> "in" / "out"
//	geofence:current:<account>           -> zone name, or "" for none
package bus

import "strings"

const (
	locationPrefix  = "geofence:loc:"
	statusPrefix    = "geofence:status:"
	currentPrefix   = "geofence:current:"
	locationPattern = locationPrefix + "*"
)

// Status payloads for zone-status channels.
const (
	PayloadInside  = "in"
	PayloadOutside = "out"
)

// LocationTopic is the channel an account's devices publish samples on.
func LocationTopic(account string) string {
	return locationPrefix + account
}

// StatusTopic is the channel a zone's in/out flips are published on.
func StatusTopic(account, zone string) string {
	return statusPrefix + account + ":" + zone
}

// CurrentZoneTopic is the channel an account's current zone is
// published on.
func CurrentZoneTopic(account string) string {
	return currentPrefix + account
}

// accountFromLocationTopic extracts the account id from an inbound
// channel name. An empty account (bare prefix) is rejected.
func accountFromLocationTopic(topic string) (string, bool) {
	account, ok := strings.CutPrefix(topic, locationPrefix)
	if !ok || account == "" {
		return "", false
	}
	return account, true
}
