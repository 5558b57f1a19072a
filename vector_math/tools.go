package vector_math

import "github.com/chewxy/math32"

// ToRad is a helper function to turn degree to radians
func ToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

// ToDeg is a helper function to turn radians to degree
func ToDeg(rad float32) float32 {
	return rad * 180 / math32.Pi
}
