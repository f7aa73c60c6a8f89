package systems

import (
	"github.com/automoto/ballpit-mp/components"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// System is one stage of the fixed step pipeline.
type System func(s *Step)

// Step is what a system sees of one world during a tick.
//
// donburi queries cache matches per world inside the Query value and are not
// safe for concurrent use, so each world owns its queries and the frame is
// reached through its entity handle instead of a component lookup.
type Step struct {
	World  donburi.World
	Bodies *donburi.Query
	frame  donburi.Entity
}

// NewStep binds the pipeline to w, its frame entity and its body query.
func NewStep(w donburi.World, frame donburi.Entity, bodies *donburi.Query) *Step {
	return &Step{World: w, Bodies: bodies, frame: frame}
}

// NewBodyQuery returns a query over simulated bodies. Use one per world.
func NewBodyQuery() *donburi.Query {
	return donburi.NewQuery(filter.Contains(
		components.Position,
		components.Velocity,
		components.Acceleration,
	))
}

// Frame returns the step resource.
func (s *Step) Frame() *components.FrameData {
	return components.Frame.Get(s.World.Entry(s.frame))
}
