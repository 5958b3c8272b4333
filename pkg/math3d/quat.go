package math3d

import "math"

// Quat is a rotation quaternion (w + xi + yj + zk).
type Quat struct {
	W, X, Y, Z float64
}

// QuatIdentity returns the identity (no rotation) quaternion.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle creates a quaternion rotating angle radians around axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	half := angle / 2
	s := math.Sin(half)
	return Quat{
		W: math.Cos(half),
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
	}
}

// QuatFromEuler creates a quaternion from pitch (X), yaw (Y), roll (Z)
// angles in radians, applied in yaw-pitch-roll order.
func QuatFromEuler(pitch, yaw, roll float64) Quat {
	qy := QuatFromAxisAngle(V3(0, 1, 0), yaw)
	qx := QuatFromAxisAngle(V3(1, 0, 0), pitch)
	qz := QuatFromAxisAngle(V3(0, 0, 1), roll)
	return qy.Mul(qx).Mul(qz)
}

// Mul returns the Hamilton product a * b (apply b, then a).
//
//nolint:st1016 // a*b naming convention is clearer for quaternion composition
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

// Len returns the quaternion magnitude.
func (q Quat) Len() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns the unit quaternion. Returns identity for zero input.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.W / l, q.X / l, q.Y / l, q.Z / l}
}

// Conjugate returns the conjugate (inverse rotation for unit quaternions).
func (q Quat) Conjugate() Quat {
	return Quat{q.W, -q.X, -q.Y, -q.Z}
}

// RotateVec3 rotates a vector by the quaternion.
func (q Quat) RotateVec3(v Vec3) Vec3 {
	// v' = v + 2*u × (u × v + w*v), u = (x, y, z)
	u := V3(q.X, q.Y, q.Z)
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Mat4 converts the quaternion to a rotation matrix.
// The quaternion should be normalized.
func (q Quat) Mat4() Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	// Column-major, matching the rest of the package.
	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Slerp returns the spherical linear interpolation between a and b by t.
//
//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a Quat) Slerp(b Quat, t float64) Quat {
	dot := a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z

	// Take the short path around the hypersphere.
	if dot < 0 {
		b = Quat{-b.W, -b.X, -b.Y, -b.Z}
		dot = -dot
	}

	// Nearly parallel: fall back to normalized lerp.
	if dot > 0.9995 {
		return Quat{
			a.W + (b.W-a.W)*t,
			a.X + (b.X-a.X)*t,
			a.Y + (b.Y-a.Y)*t,
			a.Z + (b.Z-a.Z)*t,
		}.Normalize()
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta

	return Quat{
		a.W*wa + b.W*wb,
		a.X*wa + b.X*wb,
		a.Y*wa + b.Y*wb,
		a.Z*wa + b.Z*wb,
	}
}
