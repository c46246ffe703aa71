package scenegraph

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/common"
	"github.com/Carmen-Shannon/oxy-presence/engine/camera"
	"github.com/Carmen-Shannon/oxy-presence/engine/renderer"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// framebuffer is the scene-graph Renderer: a color image plus a depth buffer.
type framebuffer struct {
	mu *sync.Mutex

	color  *image.RGBA
	depth  []float32
	frames uint64
	last   renderer.FrameStats
}

var _ renderer.Renderer = &framebuffer{}

func newFramebuffer(width, height int) *framebuffer {
	fb := &framebuffer{mu: &sync.Mutex{}}
	fb.allocate(width, height)
	return fb
}

func (fb *framebuffer) allocate(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	fb.color = image.NewRGBA(image.Rect(0, 0, width, height))
	fb.depth = make([]float32, width*height)
}

func (fb *framebuffer) Size() (int, int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	b := fb.color.Bounds()
	return b.Dx(), b.Dy()
}

func (fb *framebuffer) Resize(width, height int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.allocate(width, height)
}

func (fb *framebuffer) Frames() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.frames
}

func (fb *framebuffer) LastFrame() renderer.FrameStats {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.last
}

func (fb *framebuffer) Release() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.color = image.NewRGBA(image.Rect(0, 0, 1, 1))
	fb.depth = []float32{1}
	return nil
}

// image returns a copy of the color buffer.
func (fb *framebuffer) image() *image.RGBA {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := image.NewRGBA(fb.color.Bounds())
	copy(out.Pix, fb.color.Pix)
	return out
}

// draw clears the buffers and rasterizes every visible triangle of s.
func (fb *framebuffer) draw(s scene.Scene, c camera.Camera) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	w, h := fb.color.Bounds().Dx(), fb.color.Bounds().Dy()
	c.SetAspect(float32(w) / float32(h))
	c.Update()

	bg := toRGBA(s.Background())
	for i := 0; i < len(fb.color.Pix); i += 4 {
		fb.color.Pix[i] = bg.R
		fb.color.Pix[i+1] = bg.G
		fb.color.Pix[i+2] = bg.B
		fb.color.Pix[i+3] = bg.A
	}
	for i := range fb.depth {
		fb.depth[i] = 1
	}

	viewProj := c.ViewProjectionMatrix()
	fb.last = renderer.VisitTriangles(s, viewProj, func(t renderer.Triangle) {
		fb.rasterize(viewProj, t, w, h)
	})
	fb.frames++
}

type screenVertex struct {
	x, y, z float32
}

// rasterize fills one triangle with a z-test. Triangles crossing the near plane are dropped.
func (fb *framebuffer) rasterize(viewProj mgl32.Mat4, t renderer.Triangle, w, h int) {
	var v [3]screenVertex
	for i, p := range [3]mgl32.Vec3{t.A, t.B, t.C} {
		clip := viewProj.Mul4x1(p.Vec4(1))
		if clip.W() <= 1e-4 {
			return
		}
		ndc := clip.Vec3().Mul(1 / clip.W())
		v[i] = screenVertex{
			x: (ndc.X()*0.5 + 0.5) * float32(w),
			y: (1 - (ndc.Y()*0.5 + 0.5)) * float32(h),
			z: ndc.Z()*0.5 + 0.5,
		}
	}

	area := edge(v[0], v[1], v[2].x, v[2].y)
	if mgl32.Abs(area) < 1e-8 {
		return
	}

	minX := clampInt(int(math.Floor(float64(min3(v[0].x, v[1].x, v[2].x)))), 0, w-1)
	maxX := clampInt(int(math.Ceil(float64(max3(v[0].x, v[1].x, v[2].x)))), 0, w-1)
	minY := clampInt(int(math.Floor(float64(min3(v[0].y, v[1].y, v[2].y)))), 0, h-1)
	maxY := clampInt(int(math.Ceil(float64(max3(v[0].y, v[1].y, v[2].y)))), 0, h-1)

	col := toRGBA(t.Color)
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(v[1], v[2], px, py) / area
			w1 := edge(v[2], v[0], px, py) / area
			w2 := edge(v[0], v[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*v[0].z + w1*v[1].z + w2*v[2].z
			if z < 0 || z > 1 {
				continue
			}
			idx := y*w + x
			if z >= fb.depth[idx] {
				continue
			}
			fb.depth[idx] = z
			fb.color.SetRGBA(x, y, col)
		}
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func toRGBA(c common.Color) color.RGBA {
	return color.RGBA{
		R: uint8(mgl32.Clamp(c[0], 0, 1) * 255),
		G: uint8(mgl32.Clamp(c[1], 0, 1) * 255),
		B: uint8(mgl32.Clamp(c[2], 0, 1) * 255),
		A: uint8(mgl32.Clamp(c[3], 0, 1) * 255),
	}
}

func min3(a, b, c float32) float32 {
	return float32(math.Min(float64(a), math.Min(float64(b), float64(c))))
}

func max3(a, b, c float32) float32 {
	return float32(math.Max(float64(a), math.Max(float64(b), float64(c))))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
