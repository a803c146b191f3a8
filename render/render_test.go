package render_test

import (
	"testing"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/render"
)

func TestOwnedMeshReleaseOnce(t *testing.T) {
	e := enginetest.Install(t)

	m := render.NewOwnedMesh()
	if !m.IsValid() {
		t.Fatal("fresh owned mesh must hold a valid rid")
	}
	if got := e.RenderKind(m.Rid()); got != "mesh" {
		t.Fatalf("created wrong kind: %q", got)
	}

	m.Close()
	m.Close()
	if got := e.Calls("render.free_rid"); got != 1 {
		t.Fatalf("expected exactly one release, got %d", got)
	}
	if e.RenderLive() != 0 {
		t.Fatalf("resource still live after close: %d", e.RenderLive())
	}
}

func TestFreedHandleIsRecycled(t *testing.T) {
	e := enginetest.Install(t)

	m := render.NewOwnedMesh()
	first := m.Rid()
	m.Close()

	// Sequential allocators hand freed local indices back out.
	tex := render.NewOwnedTexture2D()
	defer tex.Close()
	if tex.Rid().LocalIndex() != first.LocalIndex() {
		t.Fatalf("expected local index %d to be reused, got %d",
			first.LocalIndex(), tex.Rid().LocalIndex())
	}
	if got := e.RenderKind(tex.Rid()); got != "texture_2d" {
		t.Fatalf("recycled handle has wrong kind: %q", got)
	}
}

func TestDetachSkipsRelease(t *testing.T) {
	e := enginetest.Install(t)

	m := render.NewOwnedMesh()
	rid := m.Detach()
	m.Close()
	if got := e.Calls("render.free_rid"); got != 0 {
		t.Fatalf("detached wrapper must not release, got %d calls", got)
	}

	// The caller owns the raw rid now.
	render.Singleton().FreeRid(rid)
	if e.RenderLive() != 0 {
		t.Fatal("manual release after detach must work")
	}
}

func TestLightKindDispatch(t *testing.T) {
	e := enginetest.Install(t)

	kinds := map[render.LightKind]string{
		render.LightDirectional: "light_directional",
		render.LightOmni:        "light_omni",
		render.LightSpot:        "light_spot",
	}
	for kind, want := range kinds {
		l := render.NewOwnedLight(kind)
		if got := e.RenderKind(l.Rid()); got != want {
			t.Errorf("kind %s created %q, want %q", kind, got, want)
		}
		if l.Kind() != kind {
			t.Errorf("wrapper lost its kind: %s", l.Kind())
		}
		l.Close()
	}
}

func TestLightSetColorForwards(t *testing.T) {
	e := enginetest.Install(t)

	l := render.NewOwnedLight(render.LightOmni)
	defer l.Close()

	c := ffi.Color{R: 0.25, G: 0.5, B: 0.75, A: 1}
	l.SetColor(c)
	if got := e.LightColor(l.Rid()); got != c {
		t.Fatalf("light color: got %v", got)
	}
}

func TestMaterialShaderAndCanvasParent(t *testing.T) {
	e := enginetest.Install(t)

	sh := render.NewOwnedShader()
	defer sh.Close()
	mat := render.NewOwnedMaterial()
	defer mat.Close()
	mat.SetShader(sh.Rid())
	if got := e.MaterialShader(mat.Rid()); got != sh.Rid() {
		t.Fatalf("material shader: got %s", got)
	}

	canvas := render.NewOwnedCanvas()
	defer canvas.Close()
	item := render.NewOwnedCanvasItem()
	defer item.Close()
	item.SetParent(canvas.Rid())
	if got := e.CanvasItemParent(item.Rid()); got != canvas.Rid() {
		t.Fatalf("canvas item parent: got %s", got)
	}
}

func TestViewportAndMeshMutators(t *testing.T) {
	e := enginetest.Install(t)

	vp := render.NewOwnedViewport()
	defer vp.Close()
	vp.SetSize(640, 480)
	if w, h := e.ViewportSize(vp.Rid()); w != 640 || h != 480 {
		t.Fatalf("viewport size: got %dx%d", w, h)
	}

	m := render.NewOwnedMesh()
	defer m.Close()
	m.AddSurface(0, 0)
	m.AddSurface(0, 0)
	if got := m.SurfaceCount(); got != 2 {
		t.Fatalf("surface count: got %d", got)
	}
}

func TestDeviceOwnedBuffer(t *testing.T) {
	e := enginetest.Install(t)

	dev := render.NewDevice()
	defer dev.Close()

	buf := dev.CreateBuffer(8)
	if !buf.IsValid() {
		t.Fatal("fresh buffer must hold a valid rid")
	}
	buf.Update(0, []byte("abcd"))
	data := buf.Data()
	if len(data) != 8 || string(data[:4]) != "abcd" {
		t.Fatalf("buffer data: got %q", data)
	}

	buf.Close()
	buf.Close()
	if got := e.Calls("device.free_rid"); got != 1 {
		t.Fatalf("expected exactly one device release, got %d", got)
	}
	if e.DeviceLive(dev.ID()) != 0 {
		t.Fatal("buffer still live on device after close")
	}
}

func TestBufferUpdateIgnoresOutOfRangeOffset(t *testing.T) {
	enginetest.Install(t)

	dev := render.NewDevice()
	defer dev.Close()

	buf := dev.CreateBuffer(4)
	defer buf.Close()
	buf.Update(0, []byte("abcd"))

	buf.Update(16, []byte("zz"))
	if got := buf.Data(); string(got) != "abcd" {
		t.Fatalf("out-of-range update must leave data intact, got %q", got)
	}
}

func TestTwoDevicesAreIndependent(t *testing.T) {
	e := enginetest.Install(t)

	d1 := render.NewDevice()
	defer d1.Close()
	d2 := render.NewDevice()
	defer d2.Close()

	b1 := d1.CreateBuffer(4)
	defer b1.Close()
	s2 := d2.CreateSampler()
	defer s2.Close()

	if e.DeviceLive(d1.ID()) != 1 || e.DeviceLive(d2.ID()) != 1 {
		t.Fatalf("per-device live counts: %d and %d",
			e.DeviceLive(d1.ID()), e.DeviceLive(d2.ID()))
	}

	// Each wrapper releases through the device that issued it.
	b1.Close()
	if e.DeviceLive(d1.ID()) != 0 || e.DeviceLive(d2.ID()) != 1 {
		t.Fatal("release went to the wrong device")
	}
}
