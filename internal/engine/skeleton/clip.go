package skeleton

// Property identifies which part of a joint transform a channel animates.
type Property int

const (
	Translation Property = iota
	Rotation
	Scale
)

func (p Property) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	default:
		return "unknown"
	}
}

// Keyframe is a timestamped sample of one animated property. Value holds 3
// components for translation/scale and 4 (x,y,z,w quaternion) for rotation.
type Keyframe struct {
	Time  float32
	Value [4]float32
}

// Channel animates one property of one joint with time-sorted keyframes.
type Channel struct {
	Joint     int
	Property  Property
	Keyframes []Keyframe
}

// Clip is a named animation: a set of channels and the clip duration
// (the maximum keyframe time across all channels).
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// ComputeDuration recalculates Duration from the channel keyframes.
// Importers call this after filling channels.
func (c *Clip) ComputeDuration() {
	c.Duration = 0
	for _, ch := range c.Channels {
		if n := len(ch.Keyframes); n > 0 {
			if t := ch.Keyframes[n-1].Time; t > c.Duration {
				c.Duration = t
			}
		}
	}
}
