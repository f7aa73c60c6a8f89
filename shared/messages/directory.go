package messages

import (
	"errors"
	"time"
)

// RelayListing is a relay as the master directory advertises it. Relays post
// it to register; the master fills in ID.
//
// TickMs and ResetPeriodMs carry the relay's simulation cadence. Peers that
// step or reset on a different cadence than the rest of a session diverge.
type RelayListing struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Version       string `json:"version,omitempty"`
	Peers         int    `json:"peers"`
	MaxPeers      int    `json:"maxPeers"`
	TickMs        int64  `json:"tickMs"`
	ResetPeriodMs int64  `json:"resetPeriodMs"`
}

// RelayHeartbeat refreshes a listing's peer count.
type RelayHeartbeat struct {
	Peers int `json:"peers"`
}

func (l RelayListing) Validate() error {
	var errs []error
	if l.Name == "" {
		errs = append(errs, errors.New("name required"))
	}
	if l.Address == "" {
		errs = append(errs, errors.New("address required"))
	}
	if l.Peers < 0 || l.MaxPeers < 0 {
		errs = append(errs, errors.New("peer counts must not be negative"))
	}
	if l.TickMs < 0 || l.ResetPeriodMs < 0 {
		errs = append(errs, errors.New("cadence must not be negative"))
	}
	return errors.Join(errs...)
}

// Full reports whether the relay turns new peers away.
func (l RelayListing) Full() bool {
	return l.MaxPeers > 0 && l.Peers >= l.MaxPeers
}

// Compatible reports whether a peer stepping every tick and resetting every
// resetPeriod can share a world with this relay's peers. Zero cadence fields
// on either side are treated as unknown and match anything.
func (l RelayListing) Compatible(tick, resetPeriod time.Duration) bool {
	if l.TickMs > 0 && tick > 0 && l.TickMs != tick.Milliseconds() {
		return false
	}
	if l.ResetPeriodMs > 0 && resetPeriod > 0 && l.ResetPeriodMs != resetPeriod.Milliseconds() {
		return false
	}
	return true
}
