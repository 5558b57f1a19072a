package vector_math

import "github.com/chewxy/math32"

type Vec2 struct {
	X, Y float32
}

func (v Vec2) Dot(w Vec2) float32 {
	return (v.X * w.X) + (v.Y * w.Y)
}

func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{
		X: v.X - w.X,
		Y: v.Y - w.Y,
	}
}

func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{
		X: v.X + w.X,
		Y: v.Y + w.Y,
	}
}

func (v Vec2) Len() float32 {
	return math32.Sqrt((v.X * v.X) + (v.Y * v.Y))
}
