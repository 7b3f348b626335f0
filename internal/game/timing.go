package game

// DefaultTickRate is the simulation rate in ticks per second.
const DefaultTickRate = 20

// secsToTicks converts a duration in seconds to game ticks at rate.
func secsToTicks(s float64, rate int) int {
	t := int(s * float64(rate))
	if t < 1 {
		t = 1
	}
	return t
}

// timing holds the tick counts derived from the loop's rate.
type timing struct {
	moveRepeat int // min ticks between moves when holding a key
	npcStep    int // ticks between wandering steps
}

func newTiming(rate int) timing {
	return timing{
		moveRepeat: secsToTicks(0.2, rate),
		npcStep:    secsToTicks(1.2, rate),
	}
}

// Speeds are in pixels per tick. A player crosses a tile in 4 ticks, so a
// client snaps instead of walking once it trails by almost 4 tiles.
const (
	PlayerSpeed = 8
	NPCSpeed    = 4
)
