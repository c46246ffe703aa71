package creator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoRoom is returned when editing without an enabled room.
	ErrNoRoom = errors.New("creator has no room")
	// ErrNoSelection is returned by operations that need a selected object.
	ErrNoSelection = errors.New("nothing selected")
	// ErrUnknownPrefab is returned when placing a name missing from the catalog.
	ErrUnknownPrefab = errors.New("unknown prefab")
)

// Editing steps.
const (
	DefaultGrid  float32 = 0.5
	RotateStep   float32 = 15
	ScaleStep    float32 = 1.1
	MinScale     float32 = 0.1
	MaxScale     float32 = 10
	selectedGlow         = 0.2
)

// Creator edits the prefabs of one room in place.
type Creator interface {
	// Enable starts editing r. The room must be attached to the creator's scene.
	Enable(r *room.Room)
	// Disable stops editing and clears the selection.
	Disable()
	// Active reports whether a room is being edited.
	Active() bool
	// Room returns the edited room.
	Room() *room.Room

	// Select selects the prefab that n belongs to.
	Select(n *scene.Node) bool
	// Selected returns the selected prefab root.
	Selected() (*scene.Node, bool)
	// ClearSelection deselects.
	ClearSelection()

	// Place adds a prefab at a grid-snapped position and selects it.
	Place(prefab string, position mgl32.Vec3) (*scene.Node, error)
	// Duplicate copies the selection one grid step along +X and selects the copy.
	Duplicate() (*scene.Node, error)
	// Delete removes the selection.
	Delete() error
	// Rotate turns the selection about Y by degrees.
	Rotate(degrees float32) error
	// Scale multiplies the selection's scale.
	Scale(factor float32) error
	// Move sets the selection's position, snapped to the grid.
	Move(position mgl32.Vec3) error

	// Update handles picking, dragging and shortcuts for one frame.
	Update(cam camera.Camera, ctl input.ControlState, width, height int)

	// Export returns the room's prefabs in the room export format.
	Export() (room.Layout, error)
	// ExportJSON encodes Export as JSON.
	ExportJSON() ([]byte, error)
	// Import validates a room export and replaces the room's prefabs with it.
	Import(data []byte) (room.Layout, error)
	// ExportArchive writes Export as a zstd-compressed document.
	ExportArchive(w io.Writer) error
	// ImportArchive reads a compressed document and imports it.
	ImportArchive(r io.Reader) (room.Layout, error)
	// Save writes the current layout to the authored room store.
	Save(ctx context.Context, store room.Store) error
}

type creatorImpl struct {
	mu     *sync.Mutex
	logger *log.Logger
	scene  scene.Scene
	grid   float32
	snap   bool
	now    func() time.Time

	room     *room.Room
	selected *scene.Node

	dragging   bool
	dragY      float32
	dragOffset mgl32.Vec3
}

var _ Creator = &creatorImpl{}

// NewCreator creates an editor over s.
func NewCreator(s scene.Scene, options ...CreatorBuilderOption) Creator {
	c := &creatorImpl{
		mu:     &sync.Mutex{},
		logger: log.New(os.Stdout, "[creator] ", log.LstdFlags|log.Lmicroseconds),
		scene:  s,
		grid:   DefaultGrid,
		snap:   true,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *creatorImpl) Enable(r *room.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.room = r
}

func (c *creatorImpl) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.room = nil
}

func (c *creatorImpl) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room != nil
}

func (c *creatorImpl) Room() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *creatorImpl) Select(n *scene.Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(n)
}

func (c *creatorImpl) selectLocked(n *scene.Node) bool {
	if c.room == nil || n == nil {
		return false
	}
	root, ok := room.PrefabRoot(n)
	if !ok || root.Parent() != c.room.Root {
		return false
	}
	c.clearLocked()
	c.selected = root
	root.Walk(func(m *scene.Node) bool {
		if m.IsMesh() {
			m.SetHighlight(common.RGB(selectedGlow, selectedGlow, selectedGlow))
		}
		return true
	})
	return true
}

func (c *creatorImpl) Selected() (*scene.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != nil
}

func (c *creatorImpl) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *creatorImpl) clearLocked() {
	if c.selected != nil {
		c.selected.Walk(func(m *scene.Node) bool {
			m.ClearHighlight()
			return true
		})
	}
	c.selected = nil
	c.dragging = false
}

func (c *creatorImpl) snapped(p mgl32.Vec3) mgl32.Vec3 {
	if !c.snap {
		return p
	}
	y := p.Y()
	p = common.SnapVec3(p, c.grid)
	p[1] = y
	return p
}

func (c *creatorImpl) Place(prefab string, position mgl32.Vec3) (*scene.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return nil, ErrNoRoom
	}
	return c.addLocked(prefab, common.NewTransform(c.snapped(position)))
}

func (c *creatorImpl) addLocked(prefab string, t common.Transform) (*scene.Node, error) {
	n, ok := room.NewPrefab(prefab, t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrefab, prefab)
	}
	if err := c.scene.Add(n, c.room.Root); err != nil {
		return nil, err
	}
	n.SetVisible(c.room.Root.Visible())
	c.room.Rescan()
	c.selectLocked(n)
	return n, nil
}

func (c *creatorImpl) Duplicate() (*scene.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return nil, ErrNoRoom
	}
	if c.selected == nil {
		return nil, ErrNoSelection
	}
	name, _ := c.selected.Tag(room.TagPrefab)
	t := c.selected.Transform()
	step := c.grid
	if step <= 0 {
		step = DefaultGrid
	}
	t.Position = t.Position.Add(mgl32.Vec3{step, 0, 0})
	return c.addLocked(name, t)
}

func (c *creatorImpl) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ErrNoSelection
	}
	n := c.selected
	c.clearLocked()
	if err := c.scene.Remove(n); err != nil {
		return err
	}
	c.room.Rescan()
	return nil
}

func (c *creatorImpl) Rotate(degrees float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ErrNoSelection
	}
	r := c.selected.Rotation()
	r[1] = common.WrapAngle(r[1] + mgl32.DegToRad(degrees))
	c.selected.SetRotation(r)
	return nil
}

func (c *creatorImpl) Scale(factor float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ErrNoSelection
	}
	s := c.selected.Scale().Mul(factor)
	for i := range s {
		s[i] = mgl32.Clamp(s[i], MinScale, MaxScale)
	}
	c.selected.SetScale(s)
	return nil
}

func (c *creatorImpl) Move(position mgl32.Vec3) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return ErrNoSelection
	}
	c.selected.SetPosition(c.snapped(position))
	return nil
}

func (c *creatorImpl) Update(cam camera.Camera, ctl input.ControlState, width, height int) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("recovered from panic in creator update: %v", r)
		}
	}()
	if !c.Active() {
		return
	}
	c.shortcuts(ctl)

	if !ctl.HasPointer {
		return
	}
	ray := cam.ScreenRay(ctl.Pointer.X(), ctl.Pointer.Y(), width, height)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return
	}
	switch {
	case ctl.PrimaryPressed:
		root := c.room.Root
		hit, ok := c.scene.Raycast(ray, func(n *scene.Node) bool { return isUnder(n, root) })
		if !ok || !c.selectLocked(hit.Node) {
			c.clearLocked()
			return
		}
		c.dragY = c.selected.Position().Y()
		if p, ok := planeHit(ray, c.dragY); ok {
			c.dragOffset = c.selected.Position().Sub(p)
			c.dragging = true
		}
	case ctl.PrimaryReleased:
		c.dragging = false
	case ctl.Primary && c.dragging && c.selected != nil:
		if p, ok := planeHit(ray, c.dragY); ok {
			c.selected.SetPosition(c.snapped(p.Add(c.dragOffset)))
		}
	}
}

func (c *creatorImpl) shortcuts(ctl input.ControlState) {
	for _, k := range ctl.KeysPressed {
		var err error
		switch {
		case k == common.KeyD && ctl.Ctrl:
			_, err = c.Duplicate()
		case k == common.KeyDelete || k == common.KeyBackspace:
			err = c.Delete()
		case k == common.KeyR && ctl.Shift:
			err = c.Rotate(-RotateStep)
		case k == common.KeyR:
			err = c.Rotate(RotateStep)
		case k == common.KeyUp && ctl.Ctrl:
			err = c.Scale(ScaleStep)
		case k == common.KeyDown && ctl.Ctrl:
			err = c.Scale(1 / ScaleStep)
		case k == common.KeyG:
			c.mu.Lock()
			c.snap = !c.snap
			c.mu.Unlock()
		case k == common.KeyEsc:
			c.ClearSelection()
		}
		if err != nil && !errors.Is(err, ErrNoSelection) {
			c.logger.Printf("shortcut %d: %v", k, err)
		}
	}
}

func isUnder(n, root *scene.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
	}
	return false
}

// planeHit intersects ray with the horizontal plane at height y.
func planeHit(ray common.Ray, y float32) (mgl32.Vec3, bool) {
	dy := ray.Direction.Y()
	if dy > -1e-5 && dy < 1e-5 {
		return mgl32.Vec3{}, false
	}
	t := (y - ray.Origin.Y()) / dy
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return ray.At(t), true
}

func (c *creatorImpl) Export() (room.Layout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return room.Layout{}, ErrNoRoom
	}
	return c.room.Layout(c.now()), nil
}

func (c *creatorImpl) ExportJSON() ([]byte, error) {
	l, err := c.Export()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(l, "", "  ")
}

func (c *creatorImpl) Import(data []byte) (room.Layout, error) {
	l, err := ParseLayout(data)
	if err != nil {
		return l, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return l, ErrNoRoom
	}
	c.clearLocked()
	var errs []error
	for _, o := range c.room.Objects() {
		errs = append(errs, c.scene.Remove(o))
	}
	for _, o := range l.Objects {
		n, ok := room.NewPrefab(o.PrefabName, o.Transform())
		if !ok {
			c.logger.Printf("import %s: skipping unknown prefab %q", l.Name, o.PrefabName)
			continue
		}
		if err := c.scene.Add(n, c.room.Root); err != nil {
			errs = append(errs, err)
		}
	}
	c.room.Rescan()
	return l, errors.Join(errs...)
}

func (c *creatorImpl) ExportArchive(w io.Writer) error {
	l, err := c.Export()
	if err != nil {
		return err
	}
	return room.WriteArchive(w, l)
}

func (c *creatorImpl) ImportArchive(r io.Reader) (room.Layout, error) {
	data, err := room.ReadArchive(r)
	if err != nil {
		return room.Layout{}, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	return c.Import(bytes.TrimSpace(data))
}

func (c *creatorImpl) Save(ctx context.Context, store room.Store) error {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	l := c.room.Layout(c.now())
	meta := c.room.Metadata
	c.mu.Unlock()
	return store.Save(ctx, l, &meta)
}
