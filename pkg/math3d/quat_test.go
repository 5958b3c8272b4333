package math3d

import (
	"math"
	"testing"
)

func vecNear(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestQuatIdentityRotation(t *testing.T) {
	q := QuatIdentity()
	v := V3(1, 2, 3)

	if got := q.RotateVec3(v); !vecNear(got, v, 1e-12) {
		t.Errorf("identity rotation changed vector: got %v, want %v", got, v)
	}
}

func TestQuatAxisAngle(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float64
		in    Vec3
		want  Vec3
	}{
		{"90deg around Y", V3(0, 1, 0), math.Pi / 2, V3(1, 0, 0), V3(0, 0, -1)},
		{"90deg around X", V3(1, 0, 0), math.Pi / 2, V3(0, 1, 0), V3(0, 0, 1)},
		{"90deg around Z", V3(0, 0, 1), math.Pi / 2, V3(1, 0, 0), V3(0, 1, 0)},
		{"180deg around Y", V3(0, 1, 0), math.Pi, V3(1, 0, 0), V3(-1, 0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tc.axis, tc.angle)
			got := q.RotateVec3(tc.in)
			if !vecNear(got, tc.want, 1e-9) {
				t.Errorf("rotate %v = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestQuatMat4MatchesRotateVec3(t *testing.T) {
	q := QuatFromAxisAngle(V3(1, 2, 3), 0.7)
	v := V3(-2, 1, 4)

	direct := q.RotateVec3(v)
	viaMatrix := q.Mat4().MulVec3Dir(v)

	if !vecNear(direct, viaMatrix, 1e-9) {
		t.Errorf("quaternion rotation %v disagrees with matrix rotation %v", direct, viaMatrix)
	}
}

func TestQuatMat4MatchesAxisRotations(t *testing.T) {
	// Quaternion-derived matrices should match the direct rotation matrices.
	angle := 0.4

	pairs := []struct {
		name string
		q    Quat
		m    Mat4
	}{
		{"X", QuatFromAxisAngle(V3(1, 0, 0), angle), RotateX(angle)},
		{"Y", QuatFromAxisAngle(V3(0, 1, 0), angle), RotateY(angle)},
		{"Z", QuatFromAxisAngle(V3(0, 0, 1), angle), RotateZ(angle)},
	}

	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			qm := tc.q.Mat4()
			for i := range 16 {
				if math.Abs(qm[i]-tc.m[i]) > 1e-9 {
					t.Fatalf("element %d: quat matrix %v, axis matrix %v", i, qm[i], tc.m[i])
				}
			}
		})
	}
}

func TestQuatMulComposes(t *testing.T) {
	// Applying q1 then q2 should equal rotating by q2*q1.
	q1 := QuatFromAxisAngle(V3(0, 1, 0), math.Pi/4)
	q2 := QuatFromAxisAngle(V3(1, 0, 0), math.Pi/3)
	v := V3(0, 0, -1)

	stepwise := q2.RotateVec3(q1.RotateVec3(v))
	composed := q2.Mul(q1).RotateVec3(v)

	if !vecNear(stepwise, composed, 1e-9) {
		t.Errorf("composed rotation %v, stepwise %v", composed, stepwise)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{W: 2, X: 0, Y: 0, Z: 0}.Normalize()
	if math.Abs(q.Len()-1) > 1e-12 {
		t.Errorf("normalized length = %v, want 1", q.Len())
	}

	if zero := (Quat{}).Normalize(); zero != QuatIdentity() {
		t.Errorf("normalizing zero quaternion should return identity, got %v", zero)
	}
}

func TestQuatSlerpEndpoints(t *testing.T) {
	a := QuatFromAxisAngle(V3(0, 1, 0), 0)
	b := QuatFromAxisAngle(V3(0, 1, 0), math.Pi/2)

	start := a.Slerp(b, 0)
	end := a.Slerp(b, 1)
	mid := a.Slerp(b, 0.5)

	v := V3(1, 0, 0)
	if !vecNear(start.RotateVec3(v), a.RotateVec3(v), 1e-9) {
		t.Error("slerp at t=0 should match the first quaternion")
	}
	if !vecNear(end.RotateVec3(v), b.RotateVec3(v), 1e-9) {
		t.Error("slerp at t=1 should match the second quaternion")
	}

	want := QuatFromAxisAngle(V3(0, 1, 0), math.Pi/4).RotateVec3(v)
	if !vecNear(mid.RotateVec3(v), want, 1e-9) {
		t.Errorf("slerp midpoint rotated %v, want %v", mid.RotateVec3(v), want)
	}
}

func BenchmarkQuatMat4(b *testing.B) {
	q := QuatFromAxisAngle(V3(1, 2, 3), 0.7)

	for b.Loop() {
		_ = q.Mat4()
	}
}

func BenchmarkQuatRotateVec3(b *testing.B) {
	q := QuatFromAxisAngle(V3(1, 2, 3), 0.7)
	v := V3(4, 5, 6)

	for b.Loop() {
		_ = q.RotateVec3(v)
	}
}
