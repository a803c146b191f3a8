package render

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/resource"
)

// Device is one rendering-device connection. Unlike the singleton server,
// several devices may exist at once and a Rid is only meaningful to the
// device that issued it, so device-owned wrappers must close over the
// issuing instance rather than a global accessor.
type Device struct {
	id ffi.DeviceID
	t  *ffi.DeviceTable
}

// NewDevice opens a device connection.
func NewDevice() *Device {
	t := &ffi.Table().Device
	return &Device{id: t.CreateDevice(), t: t}
}

// ID returns the device's connection ID.
func (d *Device) ID() ffi.DeviceID { return d.id }

// FreeRid releases a resource issued by this device.
func (d *Device) FreeRid(r ffi.Rid) { d.t.FreeRid(d.id, r) }

// Close tears down the device connection. Resources still live on the
// device go with it.
func (d *Device) Close() {
	if d.id != 0 {
		d.t.DestroyDevice(d.id)
		d.id = 0
	}
}

// OwnedBuffer owns one buffer on a specific device. The release path
// goes through the issuing device, not a singleton.
type OwnedBuffer struct {
	resource.Owned
	dev *Device
}

// CreateBuffer allocates a buffer of size bytes on the device and takes
// ownership of its handle.
func (d *Device) CreateBuffer(size uint32) *OwnedBuffer {
	rid := d.t.BufferCreate(d.id, size)
	return &OwnedBuffer{
		Owned: resource.NewOwned(rid, d.FreeRid),
		dev:   d,
	}
}

// Update writes data into the buffer at offset.
func (b *OwnedBuffer) Update(offset uint32, data []byte) {
	b.dev.t.BufferUpdate(b.dev.id, b.Rid(), offset, data)
}

// Data reads the buffer contents back.
func (b *OwnedBuffer) Data() []byte {
	return b.dev.t.BufferGetData(b.dev.id, b.Rid())
}

// OwnedSampler owns one sampler on a specific device.
type OwnedSampler struct {
	resource.Owned
}

// CreateSampler allocates a sampler on the device and takes ownership of
// its handle.
func (d *Device) CreateSampler() *OwnedSampler {
	return &OwnedSampler{Owned: resource.NewOwned(d.t.SamplerCreate(d.id), d.FreeRid)}
}
