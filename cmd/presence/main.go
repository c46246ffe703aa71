// Command presence runs the engine with the room-world and studio modules.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine"
	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/Carmen-Shannon/oxy-presence/engine/config"
	"github.com/Carmen-Shannon/oxy-presence/engine/modules/roomworld"
	"github.com/Carmen-Shannon/oxy-presence/engine/modules/studio"
	"github.com/Carmen-Shannon/oxy-presence/engine/movement"
	"github.com/Carmen-Shannon/oxy-presence/engine/multiplayer"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer/raw"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer/scenegraph"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/voice"
	"github.com/Carmen-Shannon/oxy-presence/engine/window"
	"github.com/Carmen-Shannon/oxy-presence/engine/xr"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		relayURL   = flag.String("relay", "", "relay WebSocket url, overrides multiplayer.relayURL")
		id         = flag.String("id", "", "participant id, overrides identity.participantID")
		name       = flag.String("name", "", "display name, overrides identity.displayName")
		mod        = flag.String("module", "", "module to start, overrides engine.module")
		roomName   = flag.String("room", "", "room to open, overrides engine.room")
		layout     = flag.String("layout", "", "room export to open in the studio")
		headless   = flag.Bool("headless", false, "run without a window")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[presence] ", log.LstdFlags|log.Lmicroseconds)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		cfg = loaded
	}
	cfg.Multiplayer.RelayURL = common.Coalesce(*relayURL, cfg.Multiplayer.RelayURL)
	cfg.Identity.ParticipantID = common.Coalesce(*id, cfg.Identity.ParticipantID, uuid.NewString())
	cfg.Identity.DisplayName = common.Coalesce(*name, cfg.Identity.DisplayName)
	cfg.Engine.Module = common.Coalesce(*mod, cfg.Engine.Module)
	cfg.Engine.Room = common.Coalesce(*roomName, cfg.Engine.Room)
	if *headless {
		cfg.Engine.Headless = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *layout, logger); err != nil {
		logger.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, layout string, logger *log.Logger) error {
	mode, err := movement.ParseMode(cfg.Movement.Mode)
	if err != nil {
		return err
	}

	var store room.Store
	if cfg.Rooms.StorePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Rooms.StorePath), 0o755); err != nil {
			return err
		}
		if store, err = room.OpenStore(cfg.Rooms.StorePath); err != nil {
			return err
		}
		defer store.Close()
	}

	graph := audio.NewGraph()
	options := []engine.EngineBuilderOption{
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithSize(cfg.Window.Width, cfg.Window.Height),
		engine.WithAudio(graph),
		engine.WithMovement(mode,
			movement.WithMoveSpeed(cfg.Movement.MoveSpeed),
			movement.WithVerticalSpeed(cfg.Movement.VerticalSpeed),
			movement.WithTeleportCooldown(cfg.Movement.TeleportCooldown),
			movement.WithSnapTurn(mgl32.DegToRad(cfg.Movement.SnapTurnAngle), cfg.Movement.SnapTurnCooldown),
			movement.WithEyeHeight(cfg.Rooms.EyeHeight),
		),
		engine.WithRoomOptions(
			room.WithWorkers(cfg.Rooms.Workers),
			room.WithEyeHeight(cfg.Rooms.EyeHeight),
			room.WithStoreTimeout(cfg.Rooms.StoreTimeout),
		),
	}
	if store != nil {
		options = append(options, engine.WithRoomOptions(room.WithStore(store)))
	}
	if cfg.XR.Runtime == "simulated" {
		options = append(options, engine.WithXRRuntime(&xr.SimulatedRuntime{}))
	}
	options = append(options, adapterOptions(cfg)...)

	if cfg.Multiplayer.RelayURL != "" {
		ch, err := channel.NewWebSocketChannel(ctx, cfg.Multiplayer.RelayURL, cfg.Engine.Room, cfg.Identity.ParticipantID)
		if err != nil {
			logger.Printf("relay unavailable, running alone: %v", err)
		} else {
			defer ch.Close()
			sync := multiplayer.NewSync(ch, multiplayer.WithInterval(cfg.Multiplayer.Throttle))
			if err := sync.Start(ctx); err != nil {
				return err
			}
			options = append(options, engine.WithMultiplayer(sync, cfg.Identity.DisplayName))
			if v := startVoice(ctx, cfg, ch, graph, logger); v != nil {
				options = append(options, engine.WithVoice(v))
			}
		}
	}

	eng := engine.NewEngine(options...)
	defer eng.Close()

	studioOptions := []studio.StudioBuilderOption{
		studio.WithLayoutFile(layout),
		studio.WithExportDir(cfg.Rooms.ExportDir),
		studio.WithStore(store),
	}
	switch {
	case cfg.Engine.Headless:
		studioOptions = append(studioOptions, studio.WithRendererKind(renderer.KindSceneGraph))
	case cfg.Renderer.Adapter != "":
		kind, _ := renderer.ParseKind(cfg.Renderer.Adapter)
		studioOptions = append(studioOptions, studio.WithRendererKind(kind))
	}
	if err := eng.Register(roomworld.New(roomworld.WithInitialRoom(cfg.Engine.Room))); err != nil {
		return err
	}
	if err := eng.Register(studio.New(studioOptions...)); err != nil {
		return err
	}

	sc := engine.SceneConfig{Module: cfg.Engine.Module}
	if cfg.Engine.Module == roomworld.Name {
		sc.Room = cfg.Engine.Room
	}
	if err := eng.LoadScene(sc); err != nil {
		return err
	}
	if cfg.XR.Enabled {
		if err := eng.EnterXR(ctx, xr.ModeImmersiveVR); err != nil {
			logger.Printf("staying on desktop: %v", err)
		}
	}
	if v := eng.Voice(); v != nil {
		if err := v.StartCapture(ctx); err != nil {
			logger.Printf("voice capture: %v", err)
		}
	}

	go func() {
		<-ctx.Done()
		eng.Quit()
	}()
	eng.Run()
	return nil
}

// adapterOptions registers the adapters for the configured output. Headless runs only get
// the software scene-graph adapter.
func adapterOptions(cfg config.Config) []engine.EngineBuilderOption {
	shared := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(renderer.ParsePresentMode(cfg.Renderer.PresentMode)),
		renderer.WithSnapshotDir(cfg.Renderer.SnapshotDir),
	}
	if cfg.Engine.Headless {
		return []engine.EngineBuilderOption{
			engine.WithAdapter(renderer.KindSceneGraph, func() (renderer.Adapter, error) {
				return scenegraph.NewAdapter(append(shared, renderer.WithSize(cfg.Window.Width, cfg.Window.Height))...), nil
			}),
		}
	}

	w := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithSizeLimits(0, 0, 3840, 2160),
		window.WithCursorLocked(cfg.Window.CursorLocked),
	)
	return []engine.EngineBuilderOption{
		engine.WithWindow(w),
		engine.WithAdapter(renderer.KindRaw, func() (renderer.Adapter, error) {
			return raw.NewAdapter(w, shared...), nil
		}),
		engine.WithAdapter(renderer.KindSceneGraph, func() (renderer.Adapter, error) {
			return scenegraph.NewAdapter(append(shared, renderer.WithSize(w.Width(), w.Height()))...), nil
		}),
	}
}

func startVoice(ctx context.Context, cfg config.Config, ch channel.Channel, graph audio.Graph, logger *log.Logger) voice.Manager {
	if !cfg.Voice.Enabled {
		return nil
	}
	factory, err := voice.NewPionFactory(cfg.Identity.ParticipantID, cfg.Voice.ICEServers, nil)
	if err != nil {
		logger.Printf("voice disabled: %v", err)
		return nil
	}
	v := voice.NewManager(ch, factory, graph)
	if err := v.Start(ctx); err != nil {
		logger.Printf("voice disabled: %v", err)
		return nil
	}
	return v
}
