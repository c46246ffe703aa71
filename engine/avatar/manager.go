package avatar

import (
	"errors"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoScene is returned when an avatar operation needs a scene and none is bound.
var ErrNoScene = errors.New("no scene bound")

// Manager owns the local IK rig and every remote participant's avatar.
type Manager interface {
	// Bind attaches the manager to a scene. Avatars in the previous scene are removed
	// from it and rebuilt in the new one with their current state.
	Bind(s scene.Scene)

	// Scene returns the bound scene or nil.
	Scene() scene.Scene

	// CreateLocalAvatar builds the local rig once. Later calls return the existing rig.
	CreateLocalAvatar() (*LocalAvatar, error)

	// UpdateLocalAvatar poses the local rig from the tracked head.
	UpdateLocalAvatar(headRotation mgl32.Quat, headPosition mgl32.Vec3)

	// Local returns the local rig if it exists.
	Local() (*LocalAvatar, bool)

	// CreateNetworkAvatar creates a remote avatar. An existing avatar is renamed and returned.
	CreateNetworkAvatar(id, name string) (*NetworkAvatar, error)

	// UpdateNetworkAvatar records a movement sample, creating the avatar on the first one.
	UpdateNetworkAvatar(id string, position, rotation mgl32.Vec3)

	// RemoveNetworkAvatar disposes one remote avatar. Unknown ids are ignored.
	RemoveNetworkAvatar(id string)

	// Network returns the remote avatar for id.
	Network(id string) (*NetworkAvatar, bool)

	// NetworkIDs returns the ids of every remote avatar in sorted order.
	NetworkIDs() []string

	// SetVoiceLevel sets the incoming audio RMS level for a remote participant.
	SetVoiceLevel(id string, rms float32)

	// SetLocalVoiceLevel sets the microphone RMS level for the local rig.
	SetLocalVoiceLevel(rms float32)

	// ApplyCustomization restyles the local rig.
	ApplyCustomization(c Customization) error

	// Customization returns the current local look.
	Customization() Customization

	// Update advances interpolation, idle motion and lip-sync by one frame.
	Update(delta time.Duration)

	// Dispose removes every avatar from the bound scene.
	Dispose() error
}

type managerImpl struct {
	mu     *sync.Mutex
	logger *log.Logger
	scene  scene.Scene

	local   *LocalAvatar
	remote  map[string]*NetworkAvatar
	levels  map[string]float32
	micRMS  float32
	look    Customization
	elapsed float32
	frameDT float32
}

var _ Manager = &managerImpl{}

// NewManager creates an avatar manager. Bind a scene before creating avatars.
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		mu:     &sync.Mutex{},
		logger: log.New(os.Stdout, "[avatar] ", log.LstdFlags|log.Lmicroseconds),
		remote: make(map[string]*NetworkAvatar),
		levels: make(map[string]float32),
		look:   DefaultCustomization(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *managerImpl) Bind(s scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s == m.scene {
		return
	}
	m.detachAllLocked()
	m.scene = s
	if s == nil {
		return
	}

	if m.local != nil {
		headPos, look := m.local.headPos, m.look
		m.local = newLocalAvatar()
		m.local.headPos = headPos
		m.applyLookLocked(look)
		if err := s.Add(m.local.Root, nil); err != nil {
			m.logger.Printf("rebind local avatar: %v", err)
			m.local = nil
		}
	}
	for id, old := range m.remote {
		a := newNetworkAvatar(id, old.Name, old.position, old.rotation)
		a.target = old.target
		if err := s.Add(a.Root, nil); err != nil {
			m.logger.Printf("rebind avatar %s: %v", id, err)
			delete(m.remote, id)
			continue
		}
		m.remote[id] = a
	}
}

func (m *managerImpl) Scene() scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scene
}

func (m *managerImpl) CreateLocalAvatar() (*LocalAvatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.local != nil {
		return m.local, nil
	}
	if m.scene == nil {
		m.logger.Printf("create local avatar: %v", ErrNoScene)
		return nil, ErrNoScene
	}
	a := newLocalAvatar()
	if err := m.scene.Add(a.Root, nil); err != nil {
		return nil, err
	}
	m.local = a
	m.applyLookLocked(m.look)
	return a, nil
}

func (m *managerImpl) UpdateLocalAvatar(headRotation mgl32.Quat, headPosition mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("recovered from panic in local avatar update: %v", r)
		}
	}()

	if m.local == nil {
		return
	}
	m.local.solve(headRotation, headPosition, m.elapsed, m.frameDT)
}

func (m *managerImpl) Local() (*LocalAvatar, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local, m.local != nil
}

func (m *managerImpl) CreateNetworkAvatar(id, name string) (*NetworkAvatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createNetworkLocked(id, name, mgl32.Vec3{}, mgl32.Vec3{})
}

func (m *managerImpl) createNetworkLocked(id, name string, position, rotation mgl32.Vec3) (*NetworkAvatar, error) {
	if a, ok := m.remote[id]; ok {
		if name != "" && name != a.Name {
			a.Name = name
			a.Root.SetLabel(name)
			a.Label.SetLabel(name)
		}
		return a, nil
	}
	if m.scene == nil {
		m.logger.Printf("create avatar %s: %v", id, ErrNoScene)
		return nil, ErrNoScene
	}
	if name == "" {
		name = id
	}
	a := newNetworkAvatar(id, name, position, rotation)
	if err := m.scene.Add(a.Root, nil); err != nil {
		return nil, err
	}
	m.remote[id] = a
	return a, nil
}

func (m *managerImpl) UpdateNetworkAvatar(id string, position, rotation mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.remote[id]
	if !ok {
		// first sample spawns the avatar in place
		var err error
		if a, err = m.createNetworkLocked(id, "", position, rotation); err != nil {
			return
		}
	}
	a.sample(position, rotation)
}

func (m *managerImpl) RemoveNetworkAvatar(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.remote[id]
	if !ok {
		return
	}
	delete(m.remote, id)
	delete(m.levels, id)
	if m.scene != nil && a.Root.Attached() {
		if err := m.scene.Remove(a.Root); err != nil {
			m.logger.Printf("remove avatar %s: %v", id, err)
		}
	}
}

func (m *managerImpl) Network(id string) (*NetworkAvatar, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.remote[id]
	return a, ok
}

func (m *managerImpl) NetworkIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.remote))
	for id := range m.remote {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *managerImpl) SetVoiceLevel(id string, rms float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[id] = rms
}

func (m *managerImpl) SetLocalVoiceLevel(rms float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.micRMS = rms
}

func (m *managerImpl) ApplyCustomization(c Customization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLookLocked(c)
}

func (m *managerImpl) applyLookLocked(c Customization) error {
	skinColor, ok := parseHex(c.SkinTone)
	if !ok {
		return ErrInvalidCustomization
	}
	m.look = c
	if m.local == nil {
		return nil
	}
	sk := m.local.skin
	sk.skin.Color = skinColor
	if col, ok := parseHex(c.HairColor); ok {
		sk.hair.Color = col
	}
	if col, ok := parseHex(c.OutfitColor); ok {
		sk.outfit.Color = col
	}
	m.local.Hair.SetVisible(c.HairStyle != "none")
	w := bodyWidth(c.BodyType)
	m.local.Torso.SetScale(mgl32.Vec3{w, 1, w})
	m.local.Root.SetLabel(c.DisplayName)
	return nil
}

func (m *managerImpl) Customization() Customization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.look
}

func (m *managerImpl) Update(delta time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("recovered from panic in avatar update: %v", r)
		}
	}()

	m.frameDT = float32(delta.Seconds())
	m.elapsed += m.frameDT
	for id, a := range m.remote {
		a.step(m.elapsed)
		a.setVoice(m.levels[id])
	}
	if m.local != nil {
		m.local.setVoice(m.micRMS)
	}
}

func (m *managerImpl) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.detachAllLocked()
	m.local = nil
	m.remote = make(map[string]*NetworkAvatar)
	m.levels = make(map[string]float32)
	return err
}

// detachAllLocked removes every avatar node still attached to the bound scene.
func (m *managerImpl) detachAllLocked() error {
	if m.scene == nil {
		return nil
	}
	var errs []error
	if m.local != nil && m.local.Root.Attached() {
		errs = append(errs, m.scene.Remove(m.local.Root))
	}
	for _, a := range m.remote {
		if a.Root.Attached() {
			errs = append(errs, m.scene.Remove(a.Root))
		}
	}
	return errors.Join(errs...)
}
