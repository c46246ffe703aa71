package raw

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// gpuObject is one uploaded resource. Materials carry no GPU object of their own.
type gpuObject struct {
	kind    scene.ResourceKind
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (o *gpuObject) release() {
	if o.view != nil {
		o.view.Release()
		o.view = nil
	}
	if o.texture != nil {
		o.texture.Release()
		o.texture = nil
	}
	if o.buffer != nil {
		o.buffer.Release()
		o.buffer = nil
	}
}

// gpuAllocator uploads scene resources to the wgpu device.
// Geometry becomes a vertex buffer of local-space positions, textures become RGBA8 textures.
// Until the device exists, allocations are recorded and uploaded on attach.
type gpuAllocator struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue

	next    scene.Handle
	objects map[scene.Handle]*gpuObject
	pending map[scene.Handle]scene.Resource
}

var _ scene.Allocator = &gpuAllocator{}

func newGPUAllocator() *gpuAllocator {
	return &gpuAllocator{
		mu:      &sync.Mutex{},
		objects: make(map[scene.Handle]*gpuObject),
		pending: make(map[scene.Handle]scene.Resource),
	}
}

// attach binds the allocator to a device and uploads every pending resource.
func (g *gpuAllocator) attach(device *wgpu.Device, queue *wgpu.Queue) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.device = device
	g.queue = queue
	for h, r := range g.pending {
		obj, err := g.upload(r)
		if err != nil {
			return err
		}
		g.objects[h] = obj
		delete(g.pending, h)
	}
	return nil
}

// detach releases every GPU object and forgets the device. Handles stay valid as pending entries.
func (g *gpuAllocator) detach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, obj := range g.objects {
		obj.release()
	}
	g.objects = make(map[scene.Handle]*gpuObject)
	g.device = nil
	g.queue = nil
}

func (g *gpuAllocator) Allocate(r scene.Resource) (scene.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	h := g.next
	if g.device == nil {
		g.pending[h] = r
		return h, nil
	}
	obj, err := g.upload(r)
	if err != nil {
		return 0, err
	}
	g.objects[h] = obj
	return h, nil
}

func (g *gpuAllocator) Release(h scene.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[h]; ok {
		delete(g.pending, h)
		return nil
	}
	obj, ok := g.objects[h]
	if !ok {
		return fmt.Errorf("%w: %d", scene.ErrUnknownHandle, h)
	}
	obj.release()
	delete(g.objects, h)
	return nil
}

func (g *gpuAllocator) Live() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.objects) + len(g.pending)
}

// upload creates the GPU object for r. Caller must hold the mutex.
func (g *gpuAllocator) upload(r scene.Resource) (*gpuObject, error) {
	obj := &gpuObject{kind: r.Kind()}
	switch res := r.(type) {
	case *scene.Geometry:
		data := common.SliceToBytes(res.Positions)
		if len(data) == 0 {
			return obj, nil
		}
		buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: res.Label() + " Vertex Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		g.queue.WriteBuffer(buf, 0, data)
		obj.buffer = buf
	case *scene.Texture:
		if res.Width == 0 || res.Height == 0 {
			return obj, nil
		}
		tex, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     res.Label() + " Texture",
			Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              uint32(res.Width),
				Height:             uint32(res.Height),
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatRGBA8UnormSrgb,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return nil, err
		}
		g.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
			res.Pixels,
			&wgpu.TextureDataLayout{BytesPerRow: uint32(res.Width) * 4, RowsPerImage: uint32(res.Height)},
			&wgpu.Extent3D{Width: uint32(res.Width), Height: uint32(res.Height), DepthOrArrayLayers: 1},
		)
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return nil, err
		}
		obj.texture = tex
		obj.view = view
	}
	return obj, nil
}
