package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// LoadOBJFromMemory parses a Wavefront OBJ blob into a model. mtllib
// references are resolved through fsys relative to the model name's
// directory; a nil fsys skips material files.
func LoadOBJFromMemory(name string, data []byte, fsys fs.FS) (*scene.Model, error) {
	model := &scene.Model{Name: name}
	matIndex := make(map[string]int)

	var positions []math.Vec3
	var normals []math.Vec3
	var uvs []math.Vec2

	var meshName = "default"
	var verts []core.Vertex
	var indices []uint32
	currentMat := -1
	vertexMap := make(map[string]uint32)

	flush := func() {
		if len(verts) == 0 {
			return
		}
		m := scene.NewMesh(meshName, verts, indices)
		scene.ComputeTangents(m)
		model.Meshes = append(model.Meshes, m)
		model.MeshMaterial = append(model.MeshMaterial, currentMat)
		verts, indices = nil, nil
		vertexMap = make(map[string]uint32)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "v":
			if len(parts) >= 4 {
				positions = append(positions, parseVec3(parts[1:4]))
			}
		case "vn":
			if len(parts) >= 4 {
				normals = append(normals, parseVec3(parts[1:4]))
			}
		case "vt":
			if len(parts) >= 3 {
				u := parseFloat(parts[1])
				v := parseFloat(parts[2])
				uvs = append(uvs, math.Vec2{X: u, Y: v})
			}
		case "f":
			face := make([]uint32, 0, len(parts)-1)
			for _, spec := range parts[1:] {
				if idx, ok := vertexMap[spec]; ok {
					face = append(face, idx)
					continue
				}
				vert := parseFaceVertex(spec, positions, normals, uvs)
				idx := uint32(len(verts))
				verts = append(verts, vert)
				vertexMap[spec] = idx
				face = append(face, idx)
			}
			// Fan triangulation for n-gons.
			for i := 2; i < len(face); i++ {
				indices = append(indices, face[0], face[i-1], face[i])
			}
		case "o", "g":
			flush()
			meshName = "unnamed"
			if len(parts) > 1 {
				meshName = parts[1]
			}
		case "usemtl":
			if len(parts) > 1 {
				if idx, ok := matIndex[parts[1]]; ok {
					currentMat = idx
				} else {
					currentMat = -1
				}
			}
		case "mtllib":
			if len(parts) > 1 && fsys != nil {
				mtlPath := path.Join(path.Dir(name), parts[1])
				mtlData, err := fs.ReadFile(fsys, mtlPath)
				if err != nil {
					core.Logger().Warn("obj: mtllib unavailable", "path", mtlPath, "error", err)
					continue
				}
				for matName, mat := range parseMTL(mtlData) {
					matIndex[matName] = len(model.Materials)
					model.Materials = append(model.Materials, mat)
				}
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, &core.ResourceError{Path: name, Err: err}
	}
	if len(model.Meshes) == 0 {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("no mesh data")}
	}
	return model, nil
}

// parseMTL reads a Wavefront material library. Only the channels the
// renderer's material model carries are kept.
func parseMTL(data []byte) map[string]*scene.Material {
	result := make(map[string]*scene.Material)
	var current *scene.Material

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "newmtl":
			if len(parts) > 1 {
				current = scene.DefaultMaterial()
				current.Name = parts[1]
				result[parts[1]] = current
			}
		case "Kd":
			if current != nil && len(parts) >= 4 {
				c := parseVec3(parts[1:4])
				current.Albedo.Color = core.Color{R: c.X, G: c.Y, B: c.Z, A: current.Albedo.Color.A}
			}
		case "Ke":
			if current != nil && len(parts) >= 4 {
				c := parseVec3(parts[1:4])
				current.Emission.Color = core.Color{R: c.X, G: c.Y, B: c.Z, A: 1}
			}
		case "Ns":
			if current != nil && len(parts) >= 2 {
				// OBJ shininess 0..1000 maps inversely onto roughness.
				current.ORM.Roughness = math.Clamp(1-parseFloat(parts[1])/1000, 0, 1)
			}
		case "Pm":
			if current != nil && len(parts) >= 2 {
				current.ORM.Metalness = math.Clamp(parseFloat(parts[1]), 0, 1)
			}
		case "Pr":
			if current != nil && len(parts) >= 2 {
				current.ORM.Roughness = math.Clamp(parseFloat(parts[1]), 0, 1)
			}
		case "d", "Tr":
			if current != nil && len(parts) >= 2 {
				alpha := parseFloat(parts[1])
				if parts[0] == "Tr" {
					alpha = 1 - alpha
				}
				current.Albedo.Color.A = alpha
				if alpha < 1 {
					current.Blend = scene.BlendAlpha
				}
			}
		}
	}
	return result
}

func parseFloat(s string) float32 {
	f, _ := strconv.ParseFloat(s, 32)
	return float32(f)
}

func parseVec3(parts []string) math.Vec3 {
	return math.Vec3{X: parseFloat(parts[0]), Y: parseFloat(parts[1]), Z: parseFloat(parts[2])}
}

// parseFaceVertex resolves one "v/vt/vn" face corner, with OBJ's 1-based
// and negative relative indexing.
func parseFaceVertex(spec string, positions []math.Vec3, normals []math.Vec3, uvs []math.Vec2) core.Vertex {
	v := core.DefaultVertex()
	parts := strings.Split(spec, "/")

	resolve := func(s string, n int) int {
		idx, _ := strconv.Atoi(s)
		if idx < 0 {
			idx = n + idx + 1
		}
		return idx
	}

	if len(parts) >= 1 && parts[0] != "" {
		if idx := resolve(parts[0], len(positions)); idx > 0 && idx <= len(positions) {
			v.Position = positions[idx-1]
		}
	}
	if len(parts) >= 2 && parts[1] != "" {
		if idx := resolve(parts[1], len(uvs)); idx > 0 && idx <= len(uvs) {
			v.TexCoord = uvs[idx-1]
		}
	}
	if len(parts) >= 3 && parts[2] != "" {
		if idx := resolve(parts[2], len(normals)); idx > 0 && idx <= len(normals) {
			v.Normal = normals[idx-1]
		}
	}
	return v
}
