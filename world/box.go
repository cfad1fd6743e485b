package world

import "github.com/pthm-cable/saphron-go/geom"

// Box is the simulation cell: an H-matrix (for isotropic cells, simply
// diag(Lx, Ly, Lz)) plus per-axis periodicity flags, per spec §4.1's
// "apply periodic boundaries" / "apply minimum image" / "set volume"
// contract.
type Box struct {
	H        geom.Mat3
	HInv     geom.Mat3
	Periodic [3]bool
}

// NewOrthorhombicBox builds an axis-aligned box of the given side lengths.
func NewOrthorhombicBox(lx, ly, lz float64, periodic [3]bool) *Box {
	h := geom.Diag3(lx, ly, lz)
	return &Box{H: h, HInv: geom.Diag3(1/lx, 1/ly, 1/lz), Periodic: periodic}
}

// Lengths returns the box's side lengths, valid for orthorhombic cells.
func (b *Box) Lengths() (lx, ly, lz float64) {
	return b.H.At(0, 0), b.H.At(1, 1), b.H.At(2, 2)
}

// Volume returns |det H|.
func (b *Box) Volume() float64 {
	return geom.Volume(b.H)
}

// ApplyPeriodicBoundaries folds pos into the primary image along every
// active periodic axis, in place semantics expressed as a pure function
// (Go has no implicit aliasing for value types).
func (b *Box) ApplyPeriodicBoundaries(pos geom.Vec3) geom.Vec3 {
	lx, ly, lz := b.Lengths()
	x, y, z := pos.X(), pos.Y(), pos.Z()
	if b.Periodic[0] {
		x = wrap(x, lx)
	}
	if b.Periodic[1] {
		y = wrap(y, ly)
	}
	if b.Periodic[2] {
		z = wrap(z, lz)
	}
	return geom.Vec3{x, y, z}
}

func wrap(v, length float64) float64 {
	if length == 0 {
		return v
	}
	for v < 0 {
		v += length
	}
	for v >= length {
		v -= length
	}
	return v
}

// MinimumImage folds displacement dr to its nearest-image representative
// along every active periodic axis.
func (b *Box) MinimumImage(dr geom.Vec3) geom.Vec3 {
	lx, ly, lz := b.Lengths()
	x, y, z := dr.X(), dr.Y(), dr.Z()
	if b.Periodic[0] {
		x = minImage1(x, lx)
	}
	if b.Periodic[1] {
		y = minImage1(y, ly)
	}
	if b.Periodic[2] {
		z = minImage1(z, lz)
	}
	return geom.Vec3{x, y, z}
}

func minImage1(d, length float64) float64 {
	if length == 0 {
		return d
	}
	for d > length/2 {
		d -= length
	}
	for d < -length/2 {
		d += length
	}
	return d
}

// SetVolume rescales H isotropically to the target volume, per spec §4.1.
func (b *Box) SetVolume(newVolume float64) {
	old := b.Volume()
	b.H = geom.ScaleIsotropic(b.H, newVolume, old)
	lx, ly, lz := b.Lengths()
	b.HInv = geom.Diag3(1/lx, 1/ly, 1/lz)
}
