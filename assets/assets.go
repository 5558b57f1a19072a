// Package assets turns a scene source string into a validated scene.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"rt_renderer/glb"
	"rt_renderer/model"
	"rt_renderer/stl"
)

const builtinPrefix = "builtin:"

var ErrUnknownSource = errors.New("unknown scene source")

// Load reads the scene named by source. Accepted are builtin:cube, builtin:triangle, builtin:plane and
// paths ending in .stl, .gltf or .glb.
func Load(source string) (*model.Scene, error) {
	models, err := loadModels(source)
	if err != nil {
		return nil, err
	}
	scene := model.NewScene(models...)
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("scene '%s': %w", source, err)
	}
	return scene, nil
}

func loadModels(source string) ([]*model.Model, error) {
	if name, ok := strings.CutPrefix(source, builtinPrefix); ok {
		switch name {
		case "cube":
			return []*model.Model{model.NewCubeModel("cube")}, nil
		case "triangle":
			return []*model.Model{model.NewTriangleModel("triangle")}, nil
		case "plane":
			return []*model.Model{model.NewGridPlane("plane")}, nil
		}
		return nil, fmt.Errorf("%w: no builtin named '%s'", ErrUnknownSource, name)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".stl":
		mesh, err := stl.ReadStlFile(source)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		return []*model.Model{model.NewModel(mesh, name)}, nil
	case ".gltf", ".glb":
		return glb.ReadFile(source)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownSource, source)
}
