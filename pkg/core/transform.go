package core

import "math"

// Transform is a rigid transform between two coordinate frames.
// A point p expressed in the child frame maps to R*p + T in the parent frame.
type Transform struct {
	R Mat3 // Rotation of the child frame axes in the parent frame
	T Vec3 // Origin of the child frame in the parent frame
}

// IdentityTransform returns the transform between coincident frames
func IdentityTransform() Transform {
	return Transform{R: Identity3()}
}

// NewTransform creates a transform from a rotation and translation
func NewTransform(r Mat3, t Vec3) Transform {
	return Transform{R: r, T: t}
}

// Apply maps a child-frame point into the parent frame
func (tf Transform) Apply(p Vec3) Vec3 {
	return tf.R.MulVec(p).Add(tf.T)
}

// ApplyDir maps a child-frame direction into the parent frame
func (tf Transform) ApplyDir(d Vec3) Vec3 {
	return tf.R.MulVec(d)
}

// ToChild maps a parent-frame point into the child frame
func (tf Transform) ToChild(p Vec3) Vec3 {
	return tf.R.Transpose().MulVec(p.Subtract(tf.T))
}

// ToChildDir maps a parent-frame direction into the child frame
func (tf Transform) ToChildDir(d Vec3) Vec3 {
	return tf.R.Transpose().MulVec(d)
}

// Inverse returns the transform from the parent frame to the child frame
func (tf Transform) Inverse() Transform {
	rt := tf.R.Transpose()
	return Transform{R: rt, T: rt.MulVec(tf.T).Negate()}
}

// Compose chains two transforms: tf maps B into A and next maps C into B,
// the result maps C into A.
func (tf Transform) Compose(next Transform) Transform {
	return Transform{
		R: tf.R.Mul(next.R),
		T: tf.R.MulVec(next.T).Add(tf.T),
	}
}

// MaxDiff returns the largest element difference in rotation or translation
func (tf Transform) MaxDiff(other Transform) float64 {
	d := tf.R.MaxAbsDiff(other.R)
	dt := tf.T.Subtract(other.T)
	d = math.Max(d, math.Abs(dt.X))
	d = math.Max(d, math.Abs(dt.Y))
	return math.Max(d, math.Abs(dt.Z))
}
