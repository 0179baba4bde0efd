// Package glb reads and writes binary glTF 2.0 (GLB) containers.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package glb

// Component types used by accessors.
const (
	ComponentUnsignedShort = 5123
	ComponentUnsignedInt   = 5125
	ComponentFloat         = 5126
)

// Buffer view targets.
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// Sampler filters and wrap modes.
const (
	FilterLinear             = 9729
	FilterLinearMipmapLinear = 9987
	WrapRepeat               = 10497
)

// ModeTriangles is the only primitive topology written.
const ModeTriangles = 4

// Attribute names, accessor types and image MIME types.
const (
	AttributePosition  = "POSITION"
	AttributeNormal    = "NORMAL"
	AttributeTexCoord0 = "TEXCOORD_0"

	AccessorScalar = "SCALAR"
	AccessorVec2   = "VEC2"
	AccessorVec3   = "VEC3"

	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

// Document is the root of a glTF JSON document.
type Document struct {
	Asset       Asset        `json:"asset"`
	Scene       *int         `json:"scene,omitempty"`
	Scenes      []Scene      `json:"scenes,omitempty"`
	Nodes       []Node       `json:"nodes,omitempty"`
	Meshes      []Mesh       `json:"meshes,omitempty"`
	Accessors   []Accessor   `json:"accessors,omitempty"`
	BufferViews []BufferView `json:"bufferViews,omitempty"`
	Buffers     []Buffer     `json:"buffers,omitempty"`
	Materials   []Material   `json:"materials,omitempty"`
	Textures    []Texture    `json:"textures,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	Samplers    []Sampler    `json:"samplers,omitempty"`
}

// Asset contains metadata about the glTF asset.
type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// Scene is a set of root nodes.
type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// Node is an element of the scene hierarchy.
type Node struct {
	Name        string    `json:"name,omitempty"`
	Mesh        *int      `json:"mesh,omitempty"`
	Translation []float32 `json:"translation,omitempty"`
}

// Mesh is a set of primitives.
type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
}

// Primitive is a draw call worth of geometry with one material.
type Primitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       int            `json:"mode"`
}

// Accessor describes a typed view into a buffer view.
type Accessor struct {
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float32 `json:"min,omitempty"`
	Max           []float32 `json:"max,omitempty"`
}

// BufferView is a contiguous slice of a buffer.
type BufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset,omitempty"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

// Buffer is raw binary data. In a GLB the first buffer has no URI.
type Buffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri,omitempty"`
}

// Material is a PBR metallic-roughness material.
type Material struct {
	Name                 string                `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
}

// PBRMetallicRoughness holds base color parameters.
type PBRMetallicRoughness struct {
	BaseColorFactor  []float32   `json:"baseColorFactor,omitempty"`
	BaseColorTexture *TextureRef `json:"baseColorTexture,omitempty"`
	MetallicFactor   *float32    `json:"metallicFactor,omitempty"`
	RoughnessFactor  *float32    `json:"roughnessFactor,omitempty"`
}

// TextureRef references a texture by index.
type TextureRef struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

// Texture pairs an image source with a sampler.
type Texture struct {
	Sampler *int `json:"sampler,omitempty"`
	Source  *int `json:"source,omitempty"`
}

// Image is image data stored in a buffer view.
type Image struct {
	Name       string `json:"name,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// Sampler holds texture filtering and wrapping modes.
type Sampler struct {
	MagFilter int `json:"magFilter,omitempty"`
	MinFilter int `json:"minFilter,omitempty"`
	WrapS     int `json:"wrapS,omitempty"`
	WrapT     int `json:"wrapT,omitempty"`
}

// Ptr returns a pointer to v, for optional index fields.
func Ptr(v int) *int {
	return &v
}
