package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/input"
	"github.com/Carmen-Shannon/oxy-presence/engine/interaction"
	"github.com/Carmen-Shannon/oxy-presence/engine/module"
	"github.com/Carmen-Shannon/oxy-presence/engine/movement"
	"github.com/Carmen-Shannon/oxy-presence/engine/multiplayer"
	"github.com/Carmen-Shannon/oxy-presence/engine/profiler"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer/scenegraph"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/Carmen-Shannon/oxy-presence/engine/voice"
	"github.com/Carmen-Shannon/oxy-presence/engine/window"
	"github.com/Carmen-Shannon/oxy-presence/engine/xr"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownModule is returned when switching to a name that was never registered.
	ErrUnknownModule = errors.New("unknown module")
	// ErrDuplicateModule is returned when registering a name twice.
	ErrDuplicateModule = errors.New("module already registered")
	// ErrNoAdapter is returned when no adapter factory serves a module's renderer kind.
	ErrNoAdapter = errors.New("no adapter for renderer kind")
	// ErrNoActiveModule is returned by calls that need a loaded module.
	ErrNoActiveModule = errors.New("no active module")
)

// AdapterFactory creates the adapter for one module load.
type AdapterFactory func() (renderer.Adapter, error)

// SceneConfig selects what LoadScene shows.
type SceneConfig struct {
	// Module switches modules first when set.
	Module string
	// Room loads a room into the active module when set.
	Room string
	// Metadata seeds the room's metadata, may be nil.
	Metadata *room.Metadata
}

// Engine is the main entry point for the engine.
// It owns the active module, the adapter created for it, and the tick that drives every
// subsystem in a fixed order.
type Engine interface {
	module.Host

	// Register adds a module. Names are unique.
	//
	// Returns:
	//   - error: ErrDuplicateModule if the name is taken
	Register(m module.Module) error

	// Modules returns the registered names in registration order.
	Modules() []string

	// SwitchModule unloads the active module, creates a fresh adapter, scene and camera for
	// the named one and initializes it.
	//
	// Returns:
	//   - error: ErrUnknownModule, ErrNoAdapter, or the adapter or Init failure
	SwitchModule(name string) error

	// Active returns the active module.
	Active() (module.Module, bool)

	// LoadScene switches module and loads a room in one call.
	LoadScene(cfg SceneConfig) error

	// Update runs one tick: async completions, interactions, movement, XR, avatars,
	// multiplayer, audio listener, module update and render. Nothing escapes it.
	Update(delta float32)

	// Ticks returns the number of ticks run.
	Ticks() uint64

	// Scene returns the scene of the active module load.
	Scene() scene.Scene

	// Camera returns the camera of the active module load.
	Camera() camera.Camera

	// Voice returns the voice manager, nil when voice is disabled.
	Voice() voice.Manager

	// Multiplayer returns the pose sync, nil when multiplayer is disabled.
	Multiplayer() multiplayer.Sync

	// EnterXR starts an immersive session. An unsupported mode leaves the engine in
	// desktop mode and returns xr.ErrUnsupported.
	EnterXR(ctx context.Context, mode xr.SessionMode) error

	// ExitXR ends the immersive session.
	ExitXR() error

	// Window returns the underlying window, nil when headless.
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called after every tick.
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps how often the tick renders. 0 renders every tick.
	SetRenderFrameLimit(fps float64)

	// Run starts the tick loop and blocks until the window closes or Quit is called.
	Run()

	// Quit signals the tick loop to stop. Safe to call multiple times.
	Quit()

	// Close unloads the active module and shuts down voice and multiplayer.
	Close() error
}

// engine implements the Engine interface.
type engine struct {
	mu     *sync.Mutex
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	tickRateChannel chan time.Duration
	running         bool
	wg              sync.WaitGroup
	quitChannel     chan struct{}
	quitOnce        sync.Once

	window           window.Window
	profiler         *profiler.Profiler
	profilingEnabled bool
	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	lastRender       time.Time
	tickCallback     func(deltaTime float32)
	ticks            uint64

	adapters map[renderer.Kind]AdapterFactory
	modules  map[string]module.Module
	order    []string
	active   module.Module

	// per module load
	adapter  renderer.Adapter
	renderer renderer.Renderer
	scene    scene.Scene
	camera   camera.Camera
	rooms    room.Manager
	lastRoom string

	roomOptions     []room.ManagerBuilderOption
	movementMode    movement.Mode
	movementOptions []movement.ControllerBuilderOption
	xrRuntime       xr.Runtime

	source  input.Source
	control input.ControlState
	pointer interaction.Pointer
	width   int
	height  int

	layer    interaction.Layer
	movement movement.Controller
	xr       xr.Session
	avatars  avatar.Manager
	graph    audio.Graph
	voice    voice.Manager
	sync     multiplayer.Sync

	displayName string
	joined      bool

	reqMu     *sync.Mutex
	requested string
	routable  atomic.Bool
	loaded    atomic.Bool
}

var _ Engine = &engine{}

// NewEngine creates an Engine with no active module. The scene-graph adapter is always
// available; other kinds are registered with WithAdapter.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &engine{
		mu:              &sync.Mutex{},
		logger:          log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds),
		ctx:             ctx,
		cancel:          cancel,
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		adapters:        make(map[renderer.Kind]AdapterFactory),
		modules:         make(map[string]module.Module),
		movementMode:    movement.ModeDesktop,
		width:           1280,
		height:          720,
		displayName:     "guest",
		reqMu:           &sync.Mutex{},
	}

	for _, opt := range options {
		opt(e)
	}

	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	if _, ok := e.adapters[renderer.KindSceneGraph]; !ok {
		e.adapters[renderer.KindSceneGraph] = func() (renderer.Adapter, error) {
			return scenegraph.NewAdapter(renderer.WithSize(e.width, e.height)), nil
		}
	}
	if e.layer == nil {
		e.layer = interaction.NewLayer(interaction.WithLogger(e.logger))
	}
	if e.movement == nil {
		e.movement = movement.NewController(e.movementMode,
			append([]movement.ControllerBuilderOption{movement.WithLogger(e.logger)}, e.movementOptions...)...)
	}
	if e.xr == nil {
		e.xr = xr.NewSession(e.xrRuntime,
			xr.WithLogger(e.logger),
			xr.WithInteraction(e.layer),
			xr.WithPortalHandler(func(name string) {
				if err := e.RequestRoomSwitch(name); err != nil {
					e.logger.Printf("portal to %s: %v", name, err)
				}
			}),
		)
	}
	if e.avatars == nil {
		e.avatars = avatar.NewManager(avatar.WithLogger(e.logger))
	}
	if e.graph == nil {
		e.graph = audio.NewGraph(audio.WithLogger(e.logger))
	}

	if e.window != nil {
		e.bindWindow()
	}
	return e
}

// bindWindow routes window callbacks into the desktop and gamepad sources and keeps the
// renderer and camera sized to the window.
func (e *engine) bindWindow() {
	w := e.window
	e.width, e.height = w.Width(), w.Height()
	if e.source == nil {
		desktop := input.NewDesktopSource(0)
		w.SetKeyDownCallback(desktop.KeyDown)
		w.SetKeyUpCallback(desktop.KeyUp)
		w.SetMouseMoveCallback(desktop.MouseMove)
		w.SetMouseButtonCallback(desktop.MouseButton)
		w.SetScrollCallback(desktop.Scroll)
		gamepad := input.NewGamepadSource(func() (input.GamepadState, bool) {
			s, ok := w.Gamepad()
			return input.GamepadState(s), ok
		}, 0)
		e.source = input.Merge(desktop, gamepad)
	}
	// GLFW must be closed from the message loop's thread.
	w.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			if err := w.Close(); err != nil {
				e.logger.Printf("close window: %v", err)
			}
		default:
		}
	})
	w.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.width, e.height = width, height
		if e.renderer != nil {
			e.renderer.Resize(width, height)
		}
		if e.camera != nil {
			e.camera.SetAspect(float32(width) / float32(height))
		}
	})
}

func (e *engine) Register(m module.Module) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.modules[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, m.Name())
	}
	e.modules[m.Name()] = m
	e.order = append(e.order, m.Name())
	return nil
}

func (e *engine) Modules() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...)
}

func (e *engine) Active() (module.Module, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != nil
}

func (e *engine) SwitchModule(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.switchLocked(name)
}

func (e *engine) switchLocked(name string) error {
	m, ok := e.modules[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	if e.active == m {
		return nil
	}
	factory, ok := e.adapters[m.RendererKind()]
	if !ok {
		return fmt.Errorf("%w: %s (available: %v)", ErrNoAdapter, m.RendererKind(), e.sortedKinds())
	}
	if err := e.unloadLocked(); err != nil {
		e.logger.Printf("unload %s: %v", e.activeName(), err)
	}

	adapter, err := factory()
	if err != nil {
		return fmt.Errorf("create %s adapter: %w", m.RendererKind(), err)
	}
	r, err := adapter.CreateRenderer()
	if err != nil {
		return fmt.Errorf("create %s renderer: %w", m.RendererKind(), err)
	}
	if w, h := r.Size(); w > 0 && h > 0 {
		e.width, e.height = w, h
	}
	sc := adapter.CreateScene(m.Name())
	cam := adapter.CreateCamera(camera.WithController(camera.NewFirstPersonController()))

	e.adapter, e.renderer, e.scene, e.camera = adapter, r, sc, cam
	e.rooms = room.NewManager(sc, cam,
		append([]room.ManagerBuilderOption{room.WithLogger(e.logger)}, e.roomOptions...)...)
	e.lastRoom = ""
	e.avatars.Bind(sc)
	if err := e.movement.Attach(sc); err != nil {
		e.logger.Printf("attach movement: %v", err)
	}
	e.active = m
	e.loaded.Store(true)
	e.routable.Store(m.SupportsRoomSwitching())

	if err := m.Init(sc, cam, e); err != nil {
		if uerr := e.unloadLocked(); uerr != nil {
			e.logger.Printf("unload %s after failed init: %v", name, uerr)
		}
		return fmt.Errorf("init %s: %w", name, err)
	}
	e.logger.Printf("module %s active on the %s adapter", name, adapter.Kind())
	return nil
}

// unloadLocked disposes the active module and everything created for its load.
func (e *engine) unloadLocked() error {
	if e.active == nil {
		return nil
	}
	var errs []error
	errs = append(errs, e.active.Dispose())
	e.layer.Reset()
	errs = append(errs, e.xr.End())
	errs = append(errs, e.movement.Detach())
	e.avatars.Bind(nil)
	if e.rooms != nil {
		e.rooms.Close()
		errs = append(errs, e.rooms.Dispose())
	}
	errs = append(errs, e.adapter.Dispose(e.scene, e.renderer))

	e.active = nil
	e.loaded.Store(false)
	e.routable.Store(false)
	e.adapter, e.renderer, e.scene, e.camera, e.rooms = nil, nil, nil, nil, nil
	e.lastRoom = ""
	return errors.Join(errs...)
}

func (e *engine) activeName() string {
	if e.active == nil {
		return ""
	}
	return e.active.Name()
}

func (e *engine) LoadScene(cfg SceneConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.Module != "" {
		if err := e.switchLocked(cfg.Module); err != nil {
			return err
		}
	}
	if cfg.Room == "" {
		return nil
	}
	if e.active == nil {
		return ErrNoActiveModule
	}
	if !e.active.SupportsRoomSwitching() {
		return fmt.Errorf("%w: %s", module.ErrRoomSwitchUnsupported, e.active.Name())
	}
	_, err := e.rooms.LoadRoom(e.ctx, cfg.Room, cfg.Metadata)
	return err
}

// RequestRoomSwitch queues a switch for the active module. It never blocks on the tick and
// may be called from inside it, so portals and the shell share the same path.
func (e *engine) RequestRoomSwitch(name string) error {
	if !e.loaded.Load() {
		return ErrNoActiveModule
	}
	if !e.routable.Load() {
		return module.ErrRoomSwitchUnsupported
	}
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	e.requested = name
	return nil
}

func (e *engine) Update(delta float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks++
	dt := time.Duration(float64(delta) * float64(time.Second))

	e.step("input", e.pollInputLocked)
	if e.active == nil {
		return
	}
	e.step("completions", e.completionsLocked)
	e.step("interaction", e.interactLocked)
	e.step("movement", func() {
		f := movement.Frame{Control: e.control, Delta: dt}
		if e.pointer.Kind == interaction.PointerController {
			f.Aim, f.HasAim = e.pointer.Ray, true
		}
		e.movement.Update(e.camera, f)
	})
	if e.xr.State() == xr.StateActive {
		e.step("xr", func() { e.xr.Update(e.scene, e.camera) })
	}
	e.step("avatars", func() { e.updateAvatarsLocked(dt) })
	if e.sync != nil {
		e.step("multiplayer", func() { e.syncLocked(dt) })
	}
	e.step("audio", func() { e.graph.Listener().Follow(e.camera) })
	e.step("module", func() { e.active.Update(delta) })
	if e.active != nil && !e.active.IsStandalone() {
		e.step("render", e.renderLocked)
	}

	if e.profilingEnabled {
		e.profiler.Tick()
	}
}

// step runs one subsystem of the tick and logs instead of letting a panic escape.
func (e *engine) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("recovered from panic in %s: %v", name, r)
		}
	}()
	fn()
}

func (e *engine) pollInputLocked() {
	if e.source == nil {
		e.control = input.ControlState{}
		return
	}
	e.control = e.source.Poll()
}

// completionsLocked applies queued room requests and finished async builds.
func (e *engine) completionsLocked() {
	e.reqMu.Lock()
	name := e.requested
	e.requested = ""
	e.reqMu.Unlock()
	if name != "" {
		if sw, ok := e.active.(module.RoomSwitcher); ok && e.active.SupportsRoomSwitching() {
			if err := sw.SwitchRoom(name); err != nil {
				e.logger.Printf("switch to room %s: %v", name, err)
			}
		}
	}

	for _, res := range e.rooms.Poll() {
		if res.Err != nil {
			e.logger.Printf("room %s (ticket %d): %v", res.Name, res.Ticket, res.Err)
		}
	}

	if r, ok := e.rooms.Active(); ok && r.Name != e.lastRoom {
		e.lastRoom = r.Name
		e.graph.SetAcoustics(audio.Acoustics(r.Metadata.Acoustics))
	}
}

func (e *engine) interactLocked() {
	e.pointer = interaction.DesktopPointer(e.camera, e.control, e.width, e.height)
	if e.xr.State() == xr.StateActive {
		if p := e.xr.ActivePointer(); p.Kind != interaction.PointerNone {
			e.pointer = p
		}
	}
	e.layer.Update(e.scene, e.pointer, e.control)
}

func (e *engine) updateAvatarsLocked(dt time.Duration) {
	if _, ok := e.avatars.Local(); ok {
		rot := mgl32.QuatIdent()
		if fp, ok := e.camera.Controller().(camera.FirstPersonController); ok {
			rot = fp.Orientation()
		}
		e.avatars.UpdateLocalAvatar(rot, e.camera.Position())
	}
	if e.voice != nil {
		for id, level := range e.voice.Levels() {
			e.avatars.SetVoiceLevel(id, level)
		}
		e.avatars.SetLocalVoiceLevel(e.voice.LocalLevel())
	}
	e.avatars.Update(dt)
}

func (e *engine) syncLocked(dt time.Duration) {
	pos, rot := e.camera.Position(), mgl32.Vec3{}
	if fp, ok := e.camera.Controller().(camera.FirstPersonController); ok {
		rot = mgl32.Vec3{0, fp.Yaw(), 0}
	}
	if !e.joined {
		if _, ok := e.rooms.Active(); !ok {
			return
		}
		e.sync.Join(e.displayName, pos, rot)
		e.joined = true
	}
	e.sync.Tick(dt, pos, rot)

	sinks := []multiplayer.Sink{multiplayer.AvatarSink(e.avatars, e.logger)}
	if e.voice != nil {
		sinks = append(sinks, multiplayer.VoiceSink(e.ctx, e.voice, e.logger))
	}
	e.sync.Apply(sinks...)
}

func (e *engine) renderLocked() {
	now := time.Now()
	if e.renderFrameLimit > 0 && now.Sub(e.lastRender) < e.renderFrameLimit {
		return
	}
	e.lastRender = now
	if err := e.adapter.Render(e.scene, e.camera); err != nil {
		e.logger.Printf("render: %v", err)
	}
}

func (e *engine) EnterXR(ctx context.Context, mode xr.SessionMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.xr.Probe(mode) {
		e.logger.Printf("xr %s unsupported, staying in desktop mode", mode)
		return xr.ErrUnsupported
	}
	return e.xr.Start(ctx, mode)
}

func (e *engine) ExitXR() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.xr.End()
}

func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	errs = append(errs, e.unloadLocked())
	if e.sync != nil {
		if e.joined {
			e.sync.Leave()
			e.joined = false
		}
		errs = append(errs, e.sync.Close())
	}
	if e.voice != nil {
		errs = append(errs, e.voice.Close())
	}
	e.cancel()
	return errors.Join(errs...)
}

// Host accessors. They read the current load without locking: modules call them from Init
// and Update, which already run under the engine lock.

func (e *engine) Context() context.Context            { return e.ctx }
func (e *engine) Logger() *log.Logger                 { return e.logger }
func (e *engine) Adapter() renderer.Adapter           { return e.adapter }
func (e *engine) Renderer() renderer.Renderer         { return e.renderer }
func (e *engine) Size() (int, int)                    { return e.width, e.height }
func (e *engine) Rooms() room.Manager                 { return e.rooms }
func (e *engine) Interaction() interaction.Layer      { return e.layer }
func (e *engine) Movement() movement.Controller       { return e.movement }
func (e *engine) XR() xr.Session                      { return e.xr }
func (e *engine) Avatars() avatar.Manager             { return e.avatars }
func (e *engine) Audio() audio.Graph                  { return e.graph }
func (e *engine) Control() input.ControlState         { return e.control }
func (e *engine) Scene() scene.Scene                  { return e.scene }
func (e *engine) Camera() camera.Camera               { return e.camera }
func (e *engine) Voice() voice.Manager                { return e.voice }
func (e *engine) Multiplayer() multiplayer.Sync       { return e.sync }
func (e *engine) Window() window.Window               { return e.window }
func (e *engine) EnableProfiler()                     { e.profilingEnabled = true }
func (e *engine) DisableProfiler()                    { e.profilingEnabled = false }
func (e *engine) SetTickCallback(cb func(dt float32)) { e.tickCallback = cb }

func (e *engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// Run starts the tick loop. With a window the message loop runs on the calling goroutine,
// which GLFW requires to be the main thread.
func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the tick and quit goroutines, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.Update(dt)
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetRenderFrameLimit sets an optional render rate cap. Pass 0 to render every tick.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

// sortedKinds lists the renderer kinds with a registered factory.
func (e *engine) sortedKinds() []renderer.Kind {
	kinds := make([]renderer.Kind, 0, len(e.adapters))
	for k := range e.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
