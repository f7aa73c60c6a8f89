package lockstep

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/yohamta/donburi"
)

// BodySnapshot is what the renderer gets to see of one entity.
type BodySnapshot struct {
	ID       uint64
	Position gamemath.Fixed2
	Asset    string
}

// Snapshot is an immutable copy of the drawable state after a tick.
type Snapshot struct {
	Tick     messages.Tick // steps completed since the last reset
	Checksum uint64
	Bodies   []BodySnapshot
}

// Capture copies the drawable state of w.
func Capture(w *World) Snapshot {
	snap := Snapshot{
		Tick:     w.Tick(),
		Checksum: Checksum(w),
		Bodies:   make([]BodySnapshot, 0, w.Count()),
	}
	w.EachDrawable(func(e donburi.Entity, pos *gamemath.Fixed2, d *components.DrawableData) {
		snap.Bodies = append(snap.Bodies, BodySnapshot{
			ID:       uint64(e),
			Position: *pos,
			Asset:    d.Asset,
		})
	})
	return snap
}

// Checksum hashes the tick and every body's position and velocity, in query
// order. Two peers that applied the same actions produce the same value.
func Checksum(w *World) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, 32)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(w.Tick()))
	h.Write(buf)
	w.EachBody(func(_ donburi.Entity, pos, vel, _ *gamemath.Fixed2) {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(pos.X))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(pos.Y))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(vel.X))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(vel.Y))
		h.Write(buf)
	})
	return h.Sum64()
}
