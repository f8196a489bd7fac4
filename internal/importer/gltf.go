// Package importer provides the concrete importers behind the geometry and
// texture import boundaries: a glTF scene importer and an image texture
// importer.
package importer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/assetpipe/internal/logger"
	"github.com/Faultbox/assetpipe/pkg/geometry"
)

// ErrNoMeshes is returned when a glTF file has no triangle primitives.
var ErrNoMeshes = errors.New("scene contains no triangle meshes")

// lodSuffix matches node names such as "rock_LOD2".
var lodSuffix = regexp.MustCompile(`(?i)_lod(\d+)$`)

// lodThresholdKey is read from node extras to set a LOD's switch distance.
const lodThresholdKey = "lod_threshold"

// white is the vertex color used when the source has none.
var white = [3]uint8{0xff, 0xff, 0xff}

// GLTF imports .gltf and .glb scenes. Each root node of the default scene
// becomes one LOD group; nodes named *_LOD<n> below it form LOD n.
type GLTF struct{}

// NewGLTF creates a glTF scene importer.
func NewGLTF() *GLTF {
	return &GLTF{}
}

// ImportScene reads path and returns the raw scene buffer consumed by
// geometry.Geometry.FromRawData.
func (imp *GLTF) ImportScene(ctx context.Context, settings geometry.ImportSettings, path string) ([]byte, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF: %w", err)
	}

	scene, err := buildScene(ctx, doc, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scene.Name = path
	return geometry.EncodeRaw(scene), nil
}

func buildScene(ctx context.Context, doc *gltf.Document, settings geometry.ImportSettings) (*geometry.RawScene, error) {
	log := logger.Named("importer")
	scene := &geometry.RawScene{}

	for _, root := range rootNodes(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := doc.Nodes[root]
		group := geometry.RawGroup{Name: node.Name}
		err := walkNodes(doc, root, mgl32.Ident4(), func(n *gltf.Node, world mgl32.Mat4) error {
			meshes, err := nodeMeshes(doc, n, world, settings)
			group.Meshes = append(group.Meshes, meshes...)
			return err
		})
		if err != nil {
			return nil, err
		}

		if len(group.Meshes) == 0 {
			log.Debug("skipping node without meshes", zap.String("node", node.Name))
			continue
		}
		scene.Groups = append(scene.Groups, group)
	}

	if len(scene.Groups) == 0 {
		return nil, ErrNoMeshes
	}
	return scene, nil
}

// rootNodes returns the root nodes of the default scene, or every node that
// is nobody's child when the file declares no scene.
func rootNodes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		i := uint32(0)
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			i = *doc.Scene
		}
		return doc.Scenes[i].Nodes
	}

	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// walkNodes visits a node and its descendants depth first, passing each
// node's world transform.
func walkNodes(doc *gltf.Document, index uint32, parent mgl32.Mat4, fn func(*gltf.Node, mgl32.Mat4) error) error {
	if int(index) >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	n := doc.Nodes[index]
	world := parent.Mul4(localMatrix(n))
	if err := fn(n, world); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walkNodes(doc, c, world, fn); err != nil {
			return err
		}
	}
	return nil
}

func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return mgl32.Mat4(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// parseLOD returns the LOD id encoded in a node name, 0 when there is none.
func parseLOD(name string) int32 {
	m := lodSuffix.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return geometry.InvalidLODID
	}
	return int32(id)
}

func lodThreshold(n *gltf.Node) float32 {
	extras, ok := n.Extras.(map[string]interface{})
	if !ok {
		return 0
	}
	if v, ok := extras[lodThresholdKey].(float64); ok {
		return float32(v)
	}
	return 0
}

func nodeMeshes(doc *gltf.Document, n *gltf.Node, world mgl32.Mat4, settings geometry.ImportSettings) ([]geometry.RawMesh, error) {
	if n.Mesh == nil {
		return nil, nil
	}
	if int(*n.Mesh) >= len(doc.Meshes) {
		return nil, fmt.Errorf("node %q: mesh index %d out of range", n.Name, *n.Mesh)
	}
	src := doc.Meshes[*n.Mesh]

	name := src.Name
	if name == "" {
		name = n.Name
	}

	var out []geometry.RawMesh
	for i, p := range src.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			logger.Named("importer").Warn("skipping non-triangle primitive",
				zap.String("mesh", name), zap.Int("primitive", i))
			continue
		}

		meshName := name
		if len(src.Primitives) > 1 {
			meshName = fmt.Sprintf("%s_%d", name, i)
		}
		m, err := readPrimitive(doc, p, meshName, world, settings)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", meshName, err)
		}
		out = append(out, geometry.RawMesh{
			Mesh:         *m,
			LODID:        parseLOD(n.Name),
			LODThreshold: lodThreshold(n),
		})
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive, name string, world mgl32.Mat4, settings geometry.ImportSettings) (*geometry.Mesh, error) {
	accessor := func(attr string) (*gltf.Accessor, bool) {
		i, ok := p.Attributes[attr]
		if !ok || int(i) >= len(doc.Accessors) {
			return nil, false
		}
		return doc.Accessors[i], true
	}

	posAcc, ok := accessor("POSITION")
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	var indices []uint32
	if p.Indices != nil {
		if int(*p.Indices) >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *p.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	indices = indices[:len(indices)/3*3]
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}

	vertices := make([]geometry.Vertex, len(positions))
	for i, pos := range positions {
		vertices[i] = geometry.Vertex{Position: mgl32.Vec3(pos), Color: white}
	}

	hasNormals := false
	if acc, ok := accessor("NORMAL"); ok && !settings.CalculateNormals {
		normals, err := modeler.ReadNormal(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		for i := range vertices {
			if i < len(normals) {
				vertices[i].Normal = mgl32.Vec3(normals[i])
			}
		}
		hasNormals = true
	}

	hasUV := false
	if acc, ok := accessor("TEXCOORD_0"); ok {
		uvs, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texture coordinates: %w", err)
		}
		for i := range vertices {
			if i < len(uvs) {
				vertices[i].UV = mgl32.Vec2(uvs[i])
			}
		}
		hasUV = true
	}

	if acc, ok := accessor("COLOR_0"); ok {
		colors, err := modeler.ReadColor(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading colors: %w", err)
		}
		for i := range vertices {
			if i < len(colors) {
				vertices[i].Color = [3]uint8{colors[i][0], colors[i][1], colors[i][2]}
			}
		}
	}

	transform(vertices, world, hasNormals)
	if settings.ReverseHandedness {
		reverseHandedness(vertices, indices)
	}
	if !hasNormals {
		generateNormals(vertices, indices)
	}

	flags := geometry.ElementsNormals
	if hasUV || settings.CalculateTangents {
		generateTangents(vertices, indices)
		flags = geometry.ElementsTangentSpace
	}
	return geometry.PackVertices(name, flags, vertices, indices)
}

// transform moves vertices into world space. Normals use the inverse
// transpose of the upper 3x3.
func transform(vertices []geometry.Vertex, world mgl32.Mat4, normals bool) {
	if world == mgl32.Ident4() {
		return
	}
	normalMatrix := world.Mat3().Inv().Transpose()
	for i := range vertices {
		vertices[i].Position = world.Mul4x1(vertices[i].Position.Vec4(1)).Vec3()
		if normals {
			n := normalMatrix.Mul3x1(vertices[i].Normal)
			if n.LenSqr() > 0 {
				vertices[i].Normal = n.Normalize()
			}
		}
	}
}

// reverseHandedness mirrors the mesh along Z and flips triangle winding so
// faces keep pointing outward.
func reverseHandedness(vertices []geometry.Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Position[2] = -vertices[i].Position[2]
		vertices[i].Normal[2] = -vertices[i].Normal[2]
	}
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
}

// generateNormals sets area-weighted smooth vertex normals from
// counter-clockwise triangles.
func generateNormals(vertices []geometry.Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := vertices[a].Position, vertices[b].Position, vertices[c].Position
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		vertices[a].Normal = vertices[a].Normal.Add(n)
		vertices[b].Normal = vertices[b].Normal.Add(n)
		vertices[c].Normal = vertices[c].Normal.Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal.LenSqr() > 0 {
			vertices[i].Normal = vertices[i].Normal.Normalize()
		}
	}
}

// generateTangents derives per-vertex tangents from texture coordinates.
// The w component holds the bitangent sign.
func generateTangents(vertices []geometry.Vertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	bitan := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		e1 := vertices[b].Position.Sub(vertices[a].Position)
		e2 := vertices[c].Position.Sub(vertices[a].Position)
		d1 := vertices[b].UV.Sub(vertices[a].UV)
		d2 := vertices[c].UV.Sub(vertices[a].UV)

		det := d1.X()*d2.Y() - d2.X()*d1.Y()
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(r)
		bt := e2.Mul(d1.X()).Sub(e1.Mul(d2.X())).Mul(r)
		for _, v := range [3]uint32{a, b, c} {
			tan[v] = tan[v].Add(t)
			bitan[v] = bitan[v].Add(bt)
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		// Gram-Schmidt against the normal.
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.LenSqr() == 0 {
			t = fallbackTangent(n)
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = t.Vec4(w)
	}
}

// fallbackTangent picks any unit vector perpendicular to n.
func fallbackTangent(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if mgl32.Abs(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := axis.Sub(n.Mul(n.Dot(axis)))
	if t.LenSqr() == 0 {
		return axis
	}
	return t
}
