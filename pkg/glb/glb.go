package glb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkJSON    = 0x4E4F534A // "JSON"
	chunkBIN     = 0x004E4942 // "BIN\0"
	headerSize   = 12
	chunkHeader  = 8
	gltfVersion  = "2.0"
	maxChunkSize = 1 << 30
)

// GLB format errors.
var (
	ErrInvalidMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedVersion = errors.New("unsupported GLB version")
	ErrTruncated          = errors.New("truncated GLB data")
	ErrMissingJSON        = errors.New("GLB has no JSON chunk")
)

// Encode writes doc and the binary buffer as a GLB container.
// The first buffer of doc is sized to bin; chunks are padded to 4 bytes.
func Encode(w io.Writer, doc *Document, bin []byte) error {
	if doc.Asset.Version == "" {
		doc.Asset.Version = gltfVersion
	}
	if len(bin) > 0 {
		if len(doc.Buffers) == 0 {
			doc.Buffers = []Buffer{{}}
		}
		doc.Buffers[0].ByteLength = len(bin)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	jsonData = pad(jsonData, ' ')
	binData := pad(bin, 0)

	total := headerSize + chunkHeader + len(jsonData)
	if len(binData) > 0 {
		total += chunkHeader + len(binData)
	}

	var buf bytes.Buffer
	buf.Grow(total)
	header := []uint32{glbMagic, glbVersion, uint32(total)}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return err
	}
	writeChunk(&buf, chunkJSON, jsonData)
	if len(binData) > 0 {
		writeChunk(&buf, chunkBIN, binData)
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func writeChunk(buf *bytes.Buffer, kind uint32, data []byte) {
	var h [chunkHeader]byte
	binary.LittleEndian.PutUint32(h[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(h[4:], kind)
	buf.Write(h[:])
	buf.Write(data)
}

func pad(data []byte, fill byte) []byte {
	for len(data)%4 != 0 {
		data = append(data, fill)
	}
	return data
}

// Decode parses a GLB container and returns the document and its binary chunk.
func Decode(r io.Reader) (*Document, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(header[0:]) != glbMagic {
		return nil, nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != glbVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	length := binary.LittleEndian.Uint32(header[8:])
	if length < headerSize || length > maxChunkSize {
		return nil, nil, ErrTruncated
	}

	body := make([]byte, length-headerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, ErrTruncated
	}

	var doc *Document
	var bin []byte
	offset := 0
	for offset+chunkHeader <= len(body) {
		size := int(binary.LittleEndian.Uint32(body[offset:]))
		kind := binary.LittleEndian.Uint32(body[offset+4:])
		offset += chunkHeader
		if size < 0 || offset+size > len(body) {
			return nil, nil, ErrTruncated
		}
		data := body[offset : offset+size]
		offset += size

		switch kind {
		case chunkJSON:
			doc = &Document{}
			if err := json.Unmarshal(bytes.TrimRight(data, " "), doc); err != nil {
				return nil, nil, fmt.Errorf("parse JSON chunk: %w", err)
			}
		case chunkBIN:
			bin = data
		}
	}

	if doc == nil {
		return nil, nil, ErrMissingJSON
	}
	return doc, bin, nil
}

// Builder accumulates the binary buffer while a document is assembled.
type Builder struct {
	Doc *Document
	bin []byte
}

// NewBuilder creates a builder for a new document.
func NewBuilder(generator string) *Builder {
	return &Builder{
		Doc: &Document{Asset: Asset{Version: gltfVersion, Generator: generator}},
	}
}

// Bytes returns the accumulated binary buffer.
func (b *Builder) Bytes() []byte {
	return b.bin
}

// AddBufferView appends data to the buffer at a 4-byte boundary.
func (b *Builder) AddBufferView(data []byte, target int) int {
	b.bin = pad(b.bin, 0)
	view := BufferView{
		Buffer:     0,
		ByteOffset: len(b.bin),
		ByteLength: len(data),
		Target:     target,
	}
	b.bin = append(b.bin, data...)
	b.Doc.BufferViews = append(b.Doc.BufferViews, view)
	return len(b.Doc.BufferViews) - 1
}

// AddVec3 stores float triples and returns the accessor index.
func (b *Builder) AddVec3(values [][3]float32, withBounds bool) int {
	data := make([]byte, 0, len(values)*12)
	for _, v := range values {
		for _, c := range v {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(c))
		}
	}
	view := b.AddBufferView(data, TargetArrayBuffer)
	acc := Accessor{
		BufferView:    Ptr(view),
		ComponentType: ComponentFloat,
		Count:         len(values),
		Type:          AccessorVec3,
	}
	if withBounds && len(values) > 0 {
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], v[k])
				hi[k] = max(hi[k], v[k])
			}
		}
		acc.Min = lo[:]
		acc.Max = hi[:]
	}
	b.Doc.Accessors = append(b.Doc.Accessors, acc)
	return len(b.Doc.Accessors) - 1
}

// AddVec2 stores float pairs and returns the accessor index.
func (b *Builder) AddVec2(values [][2]float32) int {
	data := make([]byte, 0, len(values)*8)
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[0]))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v[1]))
	}
	view := b.AddBufferView(data, TargetArrayBuffer)
	b.Doc.Accessors = append(b.Doc.Accessors, Accessor{
		BufferView:    Ptr(view),
		ComponentType: ComponentFloat,
		Count:         len(values),
		Type:          AccessorVec2,
	})
	return len(b.Doc.Accessors) - 1
}

// AddIndices stores triangle indices and returns the accessor index.
func (b *Builder) AddIndices(indices []uint32) int {
	data := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		data = binary.LittleEndian.AppendUint32(data, i)
	}
	view := b.AddBufferView(data, TargetElementArrayBuffer)
	b.Doc.Accessors = append(b.Doc.Accessors, Accessor{
		BufferView:    Ptr(view),
		ComponentType: ComponentUnsignedInt,
		Count:         len(indices),
		Type:          AccessorScalar,
	})
	return len(b.Doc.Accessors) - 1
}

// AddImage embeds encoded image bytes and returns the image index.
func (b *Builder) AddImage(name, mimeType string, data []byte) int {
	view := b.AddBufferView(data, 0)
	b.Doc.Images = append(b.Doc.Images, Image{
		Name:       name,
		BufferView: Ptr(view),
		MimeType:   mimeType,
	})
	return len(b.Doc.Images) - 1
}

// Encode writes the assembled document as GLB.
func (b *Builder) Encode(w io.Writer) error {
	return Encode(w, b.Doc, b.bin)
}
