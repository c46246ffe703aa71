// Package studio is the standalone creator module. It runs on the raw adapter, renders its
// own frames and edits a single room with the creator.
package studio

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/creator"
	"github.com/Carmen-Shannon/oxy-presence/engine/module"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/room"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
)

// Name is the registration key of the module.
const Name = "studio"

// Studio is the creator module.
type Studio interface {
	module.Module

	// Creator returns the editor bound by Init.
	Creator() creator.Creator

	// Wait blocks until every background save and export has finished.
	Wait()
}

type studio struct {
	mu     *sync.Mutex
	logger *log.Logger

	kind      renderer.Kind
	roomName  string
	layout    string
	exportDir string
	store     room.Store

	host    module.Host
	scene   scene.Scene
	camera  camera.Camera
	creator creator.Creator
	jobs    sync.WaitGroup
}

var _ Studio = &studio{}

// New creates the studio module.
func New(options ...StudioBuilderOption) Studio {
	s := &studio{
		mu:       &sync.Mutex{},
		logger:   log.New(os.Stdout, "[studio] ", log.LstdFlags|log.Lmicroseconds),
		kind:     renderer.KindRaw,
		roomName: "recording booth",
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *studio) Name() string                { return Name }
func (s *studio) RendererKind() renderer.Kind { return s.kind }
func (s *studio) SupportsRoomSwitching() bool { return false }
func (s *studio) IsStandalone() bool          { return true }
func (s *studio) Rooms() []string             { return []string{s.roomName} }

func (s *studio) Init(sc scene.Scene, cam camera.Camera, host module.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := host.Rooms().LoadRoom(host.Context(), s.roomName, nil)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.roomName, err)
	}
	s.host, s.scene, s.camera = host, sc, cam
	s.creator = creator.NewCreator(sc, creator.WithLogger(s.logger))
	s.creator.Enable(r)

	if s.layout != "" {
		data, err := os.ReadFile(s.layout)
		if err != nil {
			return fmt.Errorf("read layout: %w", err)
		}
		if _, err := s.creator.Import(data); err != nil {
			return fmt.Errorf("import %s: %w", s.layout, err)
		}
	}
	return nil
}

func (s *studio) Update(delta float32) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("recovered from panic in studio update: %v", r)
		}
	}()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host == nil {
		return
	}
	ctl := s.host.Control()
	w, h := s.host.Size()
	s.creator.Update(s.camera, ctl, w, h)

	if ctl.Ctrl && ctl.KeyPressed(common.KeyS) {
		s.saveLocked()
	}
	if ctl.Ctrl && ctl.KeyPressed(common.KeyE) {
		s.exportLocked()
	}

	if err := s.host.Adapter().Render(s.scene, s.camera); err != nil {
		s.logger.Printf("render: %v", err)
	}
}

// saveLocked writes the layout to the store off the tick.
func (s *studio) saveLocked() {
	if s.store == nil {
		s.logger.Printf("save: no room store configured")
		return
	}
	c, store := s.creator, s.store
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Save(ctx, store); err != nil {
			s.logger.Printf("save: %v", err)
			return
		}
		s.logger.Printf("saved %s", s.roomName)
	}()
}

// exportLocked snapshots the layout and writes the archive off the tick.
func (s *studio) exportLocked() {
	if s.exportDir == "" {
		s.logger.Printf("export: no export directory configured")
		return
	}
	l, err := s.creator.Export()
	if err != nil {
		s.logger.Printf("export: %v", err)
		return
	}
	path := filepath.Join(s.exportDir, fmt.Sprintf("%s-%d.layout.zst", l.Name, l.CreatedAt.Unix()))
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		f, err := os.Create(path)
		if err != nil {
			s.logger.Printf("export: %v", err)
			return
		}
		defer f.Close()
		if err := room.WriteArchive(f, l); err != nil {
			s.logger.Printf("export %s: %v", path, err)
			return
		}
		s.logger.Printf("exported %s", path)
	}()
}

func (s *studio) Creator() creator.Creator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creator
}

func (s *studio) Wait() {
	s.jobs.Wait()
}

func (s *studio) Dispose() error {
	s.jobs.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creator != nil {
		s.creator.Disable()
	}
	s.host, s.scene, s.camera, s.creator = nil, nil, nil, nil
	return nil
}
