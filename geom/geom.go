// Package geom collects the double-precision vector/matrix types and
// helpers the simulation core needs for positions, directors, box
// H-matrices, and axis-angle rotations. It is a thin layer over
// github.com/go-gl/mathgl/mgl64, the same vector-math library the
// reference corpus's Gekko3D-gekko repo uses for transform work, lifted
// to float64 for MC energy precision.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3-component double-precision vector: a position, director,
// or displacement.
type Vec3 = mgl64.Vec3

// Mat3 is a 3x3 double-precision matrix: a simulation cell's H-matrix.
type Mat3 = mgl64.Mat3

// Quat is a unit quaternion, used to build axis-angle rotation matrices
// for Rotate, InsertParticle, and CBMC moves.
type Quat = mgl64.Quat

// Zero is the zero vector.
var Zero = Vec3{}

// AxisAngleRotation returns the rotation matrix that rotates by angle
// radians about axis (which need not be normalized).
func AxisAngleRotation(axis Vec3, angle float64) Mat3 {
	n := axis.Len()
	if n == 0 {
		return mgl64.Ident3()
	}
	q := mgl64.QuatRotate(angle, axis.Mul(1/n))
	return q.Mat4().Mat3()
}

// Norm returns the Euclidean length of v.
func Norm(v Vec3) float64 { return v.Len() }

// NormSq returns the squared Euclidean length of v.
func NormSq(v Vec3) float64 { return v.Dot(v) }

// Diag3 builds a diagonal 3x3 matrix from its diagonal entries, used to
// construct and isotropically rescale orthorhombic H-matrices.
func Diag3(x, y, z float64) Mat3 {
	return Mat3{
		x, 0, 0,
		0, y, 0,
		0, 0, z,
	}
}

// Det3 returns the determinant of a 3x3 matrix (the core's unsigned
// volume is |Det3(H)|).
func Det3(m Mat3) float64 {
	return m.Det()
}

// Volume returns |det H| for a box matrix H.
func Volume(h Mat3) float64 {
	return math.Abs(h.Det())
}

// ScaleIsotropic returns H rescaled so that its volume becomes the given
// target, preserving H's shape (used by World.SetVolume).
func ScaleIsotropic(h Mat3, newVolume, oldVolume float64) Mat3 {
	if oldVolume == 0 {
		return h
	}
	factor := math.Cbrt(newVolume / oldVolume)
	return h.Mul(factor)
}

// MulVec returns h*v, i.e. the Cartesian position corresponding to
// fractional coordinates v inside box h.
func MulVec(h Mat3, v Vec3) Vec3 {
	return h.Mul3x1(v)
}

// RotateVec rotates v by rotation matrix m.
func RotateVec(m Mat3, v Vec3) Vec3 {
	return m.Mul3x1(v)
}
