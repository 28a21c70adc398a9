// Package math32 provides the float32 vector kernels used by the bundled
// scorers.
package math32

import "math"

// Dot calculates the dot product of two vectors of equal length.
func Dot(a, b []float32) float32 {
	var ret float32
	b = b[:len(a)]
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 distance.
func SquaredL2(a, b []float32) float32 {
	var distance float32
	b = b[:len(a)]
	for i := range a {
		d := a[i] - b[i]
		distance += d * d
	}
	return distance
}

// Norm returns the L2 norm of a.
func Norm(a []float32) float32 {
	return float32(math.Sqrt(float64(Dot(a, a))))
}

// Cosine returns the cosine similarity of a and b, or 0 if either is zero.
func Cosine(a, b []float32) float32 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// AddScaled adds alpha*x to dst.
func AddScaled(dst []float32, alpha float32, x []float32) {
	x = x[:len(dst)]
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}
