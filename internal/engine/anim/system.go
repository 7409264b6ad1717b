package anim

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"go.uber.org/zap"

	"github.com/godsgame/engine/internal/engine/model"
	"github.com/godsgame/engine/internal/logger"
)

// Command errors. All are non-fatal: a failed command leaves every model's
// state untouched.
var (
	// ErrModelNotFound is returned for commands addressing an unknown model ID.
	ErrModelNotFound = errors.New("model not found")
	// ErrClipNotFound is returned when a clip name is unknown for the model.
	ErrClipNotFound = errors.New("animation clip not found")
	// ErrInvalidBlendDuration is returned for blend durations <= 0.
	// Use SetAnimation for an instant switch.
	ErrInvalidBlendDuration = errors.New("blend duration must be greater than zero")
)

// System is the playback controller. It owns the model registry and the
// per-model blend states, and advances every model's pose once per Tick.
//
// All methods are safe for concurrent use; commands arriving from other
// goroutines are serialized against Tick with a mutex. Bone-matrix buffers
// are complete when Tick returns, never observed half-written.
type System struct {
	mu     sync.Mutex
	models map[uint32]*model.Model
	blends map[uint32]*blendState
	nextID uint32
}

// NewSystem returns an empty animation system.
func NewSystem() *System {
	return &System{
		models: make(map[uint32]*model.Model),
		blends: make(map[uint32]*blendState),
	}
}

// Add registers a model and assigns its ID. The model starts on clip 0,
// looping, at time zero.
func (s *System) Add(m *model.Model) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	m.ID = s.nextID
	s.models[m.ID] = m

	logger.Debug("model registered",
		zap.Uint32("id", m.ID),
		zap.String("name", m.Name),
		zap.Int("joints", m.Skeleton.Len()),
		zap.Int("clips", len(m.Clips)))
	return m.ID
}

// Remove unregisters a model, discarding any active blend.
func (s *System) Remove(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return fmt.Errorf("remove model %d: %w", id, ErrModelNotFound)
	}
	delete(s.models, id)
	delete(s.blends, id)
	logger.Debug("model removed", zap.Uint32("id", id))
	return nil
}

// Model returns a registered model by ID.
func (s *System) Model(id uint32) (*model.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	return m, ok
}

// Len returns the number of registered models.
func (s *System) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

// SetAnimation switches a model to the named clip immediately, resetting
// its clock and clearing any active blend.
func (s *System) SetAnimation(id uint32, clipName string, loop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return fmt.Errorf("set animation on model %d: %w", id, ErrModelNotFound)
	}
	idx, ok := m.ClipIndex(clipName)
	if !ok {
		logger.Warn("animation not found",
			zap.Uint32("model", id),
			zap.String("clip", clipName))
		return fmt.Errorf("clip %q: %w", clipName, ErrClipNotFound)
	}

	m.Current = idx
	m.Time = 0
	m.Looping = loop
	delete(s.blends, id)

	logger.Debug("animation set",
		zap.Uint32("model", id),
		zap.String("clip", clipName),
		zap.Bool("loop", loop))
	return nil
}

// BlendTo starts a cross-fade from the model's current clip to the named
// clip over blendTime seconds. A blend already in progress is replaced.
func (s *System) BlendTo(id uint32, clipName string, blendTime float32, loop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return fmt.Errorf("blend on model %d: %w", id, ErrModelNotFound)
	}
	idx, ok := m.ClipIndex(clipName)
	if !ok {
		logger.Warn("animation not found for blend",
			zap.Uint32("model", id),
			zap.String("clip", clipName))
		return fmt.Errorf("clip %q: %w", clipName, ErrClipNotFound)
	}
	if blendTime <= 0 {
		return fmt.Errorf("blend to %q over %vs: %w", clipName, blendTime, ErrInvalidBlendDuration)
	}

	s.blends[id] = newBlendState(m.Current, idx, blendTime, m.Skeleton.Len())
	m.Looping = loop

	logger.Debug("blend started",
		zap.Uint32("model", id),
		zap.String("to", clipName),
		zap.Float32("duration", blendTime))
	return nil
}

// Stop resets the model's clock and clears any active blend. The current
// clip selection is kept.
func (s *System) Stop(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return fmt.Errorf("stop model %d: %w", id, ErrModelNotFound)
	}
	m.Time = 0
	delete(s.blends, id)
	return nil
}

// Tick advances every model's animation by dt seconds, resolves blend
// progress, and recomputes each model's skinning matrices. Call once per
// frame.
func (s *System) Tick(dt float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.models {
		if st, ok := s.blends[id]; ok {
			s.tickBlend(id, m, st, dt)
		} else {
			tickPlain(m, dt)
		}
	}
}

// tickPlain advances a model that is not blending.
func tickPlain(m *model.Model, dt float32) {
	clip := m.CurrentClip()
	if clip == nil {
		// No animation data: still compose so parent transforms
		// propagate through the rest pose.
		m.Pose.Reset(m.Skeleton)
		m.Pose.Compose(m.Skeleton)
		return
	}

	m.Time += dt
	if m.Looping {
		m.Time = wrap(m.Time, clip.Duration)
	}

	m.Pose.Reset(m.Skeleton)
	SamplePose(clip, m.Time, m.Pose.Local)
	m.Pose.Compose(m.Skeleton)
}

// tickBlend advances a cross-fading model: both source and target clocks
// move, and the pose is the progress-weighted mix of both sampled poses.
func (s *System) tickBlend(id uint32, m *model.Model, st *blendState, dt float32) {
	from := m.Clips[st.from]
	to := m.Clips[st.to]

	st.progress += dt / st.duration
	if st.progress >= 1 {
		// Fade complete: the target clip takes over from its start.
		m.Current = st.to
		m.Time = 0
		delete(s.blends, id)

		m.Pose.Reset(m.Skeleton)
		SamplePose(to, 0, m.Pose.Local)
		m.Pose.Compose(m.Skeleton)

		logger.Debug("blend complete",
			zap.Uint32("model", id),
			zap.String("clip", to.Name))
		return
	}

	m.Time = wrap(m.Time+dt, from.Duration)
	st.toTime = wrap(st.toTime+dt, to.Duration)

	m.Skeleton.CopyRest(st.fromPose)
	m.Skeleton.CopyRest(st.toPose)
	SamplePose(from, m.Time, st.fromPose)
	SamplePose(to, st.toTime, st.toPose)
	mixPoses(st.fromPose, st.toPose, st.progress, m.Pose.Local)
	m.Pose.Compose(m.Skeleton)
}

// Progress returns the normalized position in the model's current clip,
// clamped to [0, 1], or -1 if the model is unknown or has no animation.
func (s *System) Progress(id uint32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return -1
	}
	clip := m.CurrentClip()
	if clip == nil {
		return -1
	}
	if clip.Duration <= 0 {
		return 0
	}
	p := m.Time / clip.Duration
	if p > 1 {
		p = 1
	}
	return p
}

// IsFinished reports whether a non-looping animation has run past its
// duration. Looping animations never finish; a model with no animation (or
// an unknown ID) is always finished.
func (s *System) IsFinished(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return true
	}
	clip := m.CurrentClip()
	if clip == nil {
		return true
	}
	if m.Looping {
		return false
	}
	return m.Time >= clip.Duration
}

// CurrentClip returns the name of the model's active clip, or an empty
// string if the model has no animation data.
func (s *System) CurrentClip(id uint32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return "", fmt.Errorf("current clip of model %d: %w", id, ErrModelNotFound)
	}
	clip := m.CurrentClip()
	if clip == nil {
		return "", nil
	}
	return clip.Name, nil
}

// BoneMatrices returns the model's skinning-matrix buffer: 16 column-major
// floats per joint, complete as of the last Tick.
func (s *System) BoneMatrices(id uint32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[id]
	if !ok {
		return nil, fmt.Errorf("bone matrices of model %d: %w", id, ErrModelNotFound)
	}
	return m.BoneMatrices(), nil
}

// wrap maps t into [0, duration) via modulo. A non-positive duration leaves
// t at zero to avoid NaN from the division.
func wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	return float32(gomath.Mod(float64(t), float64(duration)))
}
