package messages

import (
	"fmt"
	"time"
)

// TimePoint is wall-clock milliseconds since the Unix epoch.
type TimePoint int64

func TimePointOf(t time.Time) TimePoint { return TimePoint(t.UnixMilli()) }

func (p TimePoint) Time() time.Time { return time.UnixMilli(int64(p)) }

type ResetKind uint8

const (
	ResetNow ResetKind = iota
	ResetAtTime
)

// ResetRequest tells every peer to drop its state and restart from Tick 0.
// At is only meaningful for ResetAtTime.
type ResetRequest struct {
	Kind ResetKind
	At   TimePoint
}

func ResetImmediately() ResetRequest { return ResetRequest{Kind: ResetNow} }

func ResetAt(t TimePoint) ResetRequest { return ResetRequest{Kind: ResetAtTime, At: t} }

func (r ResetRequest) Validate() error {
	switch r.Kind {
	case ResetNow:
		return nil
	case ResetAtTime:
		if r.At <= 0 {
			return fmt.Errorf("reset time %d out of range", r.At)
		}
		return nil
	}
	return fmt.Errorf("invalid reset kind %d", uint8(r.Kind))
}

func (r ResetRequest) String() string {
	if r.Kind == ResetNow {
		return "reset(now)"
	}
	return fmt.Sprintf("reset(at=%s)", r.At.Time().UTC().Format("15:04:05.000"))
}
