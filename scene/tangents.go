package scene

import "nexium/math"

// ComputeTangents generates per-vertex tangents for tangent-space normal
// mapping. The bitangent handedness is stored in Tangent.W, so shaders
// reconstruct the bitangent as cross(N, T.xyz) * T.w. The mesh must have
// texture coordinates; triangles with degenerate UV area are skipped.
//
// Only triangle-list meshes are processed; other primitive types keep their
// default tangents.
func ComputeTangents(m *Mesh) {
	if m.Primitive != PrimTriangles {
		return
	}

	tangents := make([]math.Vec3, len(m.Vertices))
	bitangents := make([]math.Vec3, len(m.Vertices))

	accum := func(i0, i1, i2 uint32) {
		v0 := m.Vertices[i0]
		v1 := m.Vertices[i1]
		v2 := m.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)

		du1 := v1.TexCoord.X - v0.TexCoord.X
		dv1 := v1.TexCoord.Y - v0.TexCoord.Y
		du2 := v2.TexCoord.X - v0.TexCoord.X
		dv2 := v2.TexCoord.Y - v0.TexCoord.Y

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			return
		}
		r := 1.0 / denom

		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))

		for _, i := range [3]uint32{i0, i1, i2} {
			tangents[i] = tangents[i].Add(t)
			bitangents[i] = bitangents[i].Add(b)
		}
	}

	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			accum(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(m.Vertices); i += 3 {
			accum(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	// Gram-Schmidt orthogonalize against the normal, then derive handedness.
	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := tangents[i].Sub(n.Mul(n.Dot(tangents[i])))
		if t.LengthSqr() < 1e-8 {
			// Degenerate: pick any tangent perpendicular to N.
			if n.X > -0.9 && n.X < 0.9 {
				t = math.Vec3{X: 1}.Sub(n.Mul(n.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(n.Mul(n.Y))
			}
		}
		t = t.Normalize()

		w := float32(1)
		if n.Cross(t).Dot(bitangents[i]) < 0 {
			w = -1
		}
		m.Vertices[i].Tangent = t.ToVec4(w)
	}
}
