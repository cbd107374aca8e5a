package emath

// Affine transforms and 3x3 homographies, used for image registration

import(
	"fmt"
	"math"
	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point, hopefully make this file redundant
)

// A Point is a location in image coords; x goes right, y goes down
type Point struct {
	X, Y float64
}

func (p Point)String() string { return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y) }

func (p Point)Distance(q Point) float64 {
	return math.Hypot(p.X - q.X, p.Y - q.Y)
}

// Use a local type so we can hang methods off it
type Aff3 f64.Aff3

// Cut-n-pasted from image@0.7.0/draw/scale:matMul
func (p Aff3)Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

func Identity() Aff3 {
	return Aff3{1, 0, 0,   0, 1, 0}
}

func (m1 Aff3)Translate(tx, ty float64) Aff3 {
	return m1.Mult(Aff3{1, 0, tx,   0, 1, ty})
}

func (m1 Aff3)Scale(sx, sy float64) Aff3 {
	return m1.Mult(Aff3{sx, 0, 0,   0, sy, 0})
}

func (m1 Aff3)Rotate(thetaDeg float64) Aff3 {
	cosTheta := math.Cos(thetaDeg * math.Pi / 180.0)
	sinTheta := math.Sin(thetaDeg * math.Pi / 180.0)
	return m1.Mult(Aff3{cosTheta, -1*sinTheta, 0,    sinTheta, cosTheta, 0})
}

func RotateAbout(thetaDeg, x, y float64) Aff3 {
	// Remember they compose back to front - rightmost operations performed first
	return Identity().Translate(x, y).Rotate(thetaDeg).Translate(-1*x, -1*y)
}

// ToMat3 adds the implicit [0 0 1] bottom row, so the affine can be
// used anywhere a homography can.
func (m Aff3)ToMat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
		0,    0,    1,
	}
}

// Actual 3x3 matrixes; as homographies, they are row-major and map
// homogeneous [x,y,1] column vectors.
type Vec3 f64.Vec3
type Mat3 f64.Mat3

func IdentityMat3() Mat3 {
	return Mat3{1, 0, 0,   0, 1, 0,   0, 0, 1}
}

func (a Mat3)Mult(b Mat3) Mat3 {
	return Mat3{
		a[3*0+0]*b[3*0+0] + a[3*0+1]*b[3*1+0] + a[3*0+2]*b[3*2+0],
		a[3*0+0]*b[3*0+1] + a[3*0+1]*b[3*1+1] + a[3*0+2]*b[3*2+1],
		a[3*0+0]*b[3*0+2] + a[3*0+1]*b[3*1+2] + a[3*0+2]*b[3*2+2],

		a[3*1+0]*b[3*0+0] + a[3*1+1]*b[3*1+0] + a[3*1+2]*b[3*2+0],
		a[3*1+0]*b[3*0+1] + a[3*1+1]*b[3*1+1] + a[3*1+2]*b[3*2+1],
		a[3*1+0]*b[3*0+2] + a[3*1+1]*b[3*1+2] + a[3*1+2]*b[3*2+2],

		a[3*2+0]*b[3*0+0] + a[3*2+1]*b[3*1+0] + a[3*2+2]*b[3*2+0],
		a[3*2+0]*b[3*0+1] + a[3*2+1]*b[3*1+1] + a[3*2+2]*b[3*2+1],
		a[3*2+0]*b[3*0+2] + a[3*2+1]*b[3*1+2] + a[3*2+2]*b[3*2+2],
	}
}

func (m Mat3)Apply(v Vec3) Vec3 {
	return Vec3{
		(m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2]),
		(m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2]),
		(m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2]),
	}
}

// Project maps p through the homography, with the homogeneous divide.
// Points that land on the line at infinity come back as NaNs.
func (m Mat3)Project(p Point) Point {
	v := m.Apply(Vec3{p.X, p.Y, 1})
	if v[2] == 0 {
		return Point{math.NaN(), math.NaN()}
	}
	return Point{v[0] / v[2], v[1] / v[2]}
}

// W is the homogeneous weight p ends up with; if it's not positive,
// the point went behind the camera.
func (m Mat3)W(p Point) float64 {
	return m[6]*p.X + m[7]*p.Y + m[8]
}

// Normalize rescales so the bottom-right element is 1.
func (m Mat3)Normalize() Mat3 {
	if m[8] == 0 {
		return m
	}
	s := m[8]
	for i := range m {
		m[i] /= s
	}
	return m
}

// Inverse returns the inverse homography, normalized. A singular
// matrix gives ErrSingular.
func (m Mat3)Inverse() (Mat3, error) {
	mi, err := NewMatrix(3, 3, m[:]).Invert()
	if err != nil {
		return Mat3{}, err
	}
	var out Mat3
	for r:=0; r<3; r++ {
		for c:=0; c<3; c++ {
			out[3*r+c] = mi.At(r, c)
		}
	}
	return out.Normalize(), nil
}

func (m Mat3)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*0+0], m[3*0+1], m[3*0+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*1+0], m[3*1+1], m[3*1+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*2+0], m[3*2+1], m[3*2+2])
	return str
}
func (v Vec3)String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", v[0], v[1], v[2])
}
