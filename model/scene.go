package model

import (
	"errors"

	lin "github.com/xlab/linmath"
)

var ErrEmptyScene = errors.New("scene contains no models")

// Scene is everything the viewer draws: a list of models sharing one model transform, one material and
// one light.
type Scene struct {
	Models   []*Model
	Uniform  ModelUniform
	Material Material
	Light    Light
}

func NewScene(models ...*Model) *Scene {
	return &Scene{
		Models:   models,
		Uniform:  NewModelUniform(),
		Material: DefaultMaterial(),
		Light:    DefaultLight(),
	}
}

// SetTransform replaces the model matrix used by every model in the scene.
func (s *Scene) SetTransform(m lin.Mat4x4) {
	s.Uniform.Model = m
}

func (s *Scene) Validate() error {
	if len(s.Models) == 0 {
		return ErrEmptyScene
	}
	for _, m := range s.Models {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}
