package apktest

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

const (
	chunkXML            = 0x0003
	chunkStringPool     = 0x0001
	chunkStartNamespace = 0x0100
	chunkEndNamespace   = 0x0101
	chunkStartElement   = 0x0102
	chunkEndElement     = 0x0103

	typeString  = 0x03
	typeIntDec  = 0x10
	typeBoolean = 0x12

	nilRef = 0xFFFFFFFF
)

// EncodeAXML compiles a tree into the binary XML layout used inside APKs:
// a UTF-16 string pool followed by namespace and element chunks.
func EncodeAXML(root *Node) []byte {
	e := &axmlEncoder{index: map[string]uint32{}}
	// androidbinary reads a namespace prefix at string 0 as unmapped.
	e.ref(AndroidNS)
	e.ref("android")
	e.collect(root)

	var body bytes.Buffer
	body.Write(e.stringPool())
	e.namespaceChunk(&body, chunkStartNamespace)
	e.element(&body, root)
	e.namespaceChunk(&body, chunkEndNamespace)

	var out bytes.Buffer
	le(&out, uint16(chunkXML), uint16(8), uint32(8+body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

type axmlEncoder struct {
	strings []string
	index   map[string]uint32
}

func (e *axmlEncoder) ref(s string) uint32 {
	if i, ok := e.index[s]; ok {
		return i
	}
	i := uint32(len(e.strings))
	e.strings = append(e.strings, s)
	e.index[s] = i
	return i
}

func (e *axmlEncoder) collect(n *Node) {
	e.ref(n.Name)
	for _, a := range n.Attrs {
		e.ref(a.Name)
		if s, ok := a.Value.(string); ok {
			e.ref(s)
		}
	}
	for _, c := range n.Children {
		e.collect(c)
	}
}

func (e *axmlEncoder) stringPool() []byte {
	const headerSize = 28
	var data bytes.Buffer
	offsets := make([]uint32, len(e.strings))
	for i, s := range e.strings {
		offsets[i] = uint32(data.Len())
		units := utf16.Encode([]rune(s))
		le(&data, uint16(len(units)))
		le(&data, units)
		le(&data, uint16(0))
	}
	for data.Len()%4 != 0 {
		data.WriteByte(0)
	}

	stringsStart := uint32(headerSize + 4*len(e.strings))
	size := stringsStart + uint32(data.Len())

	var out bytes.Buffer
	le(&out, uint16(chunkStringPool), uint16(headerSize), size)
	le(&out, uint32(len(e.strings)), uint32(0), uint32(0), stringsStart, uint32(0))
	le(&out, offsets)
	out.Write(data.Bytes())
	return out.Bytes()
}

func (e *axmlEncoder) namespaceChunk(w *bytes.Buffer, typ uint16) {
	le(w, typ, uint16(16), uint32(24), uint32(1), uint32(nilRef))
	le(w, e.ref("android"), e.ref(AndroidNS))
}

func (e *axmlEncoder) element(w *bytes.Buffer, n *Node) {
	const attrSize = 20
	size := uint32(16 + 20 + attrSize*len(n.Attrs))
	le(w, uint16(chunkStartElement), uint16(16), size, uint32(1), uint32(nilRef))
	le(w, uint32(nilRef), e.ref(n.Name), uint16(20), uint16(attrSize), uint16(len(n.Attrs)),
		uint16(0), uint16(0), uint16(0))

	for _, a := range n.Attrs {
		ns := uint32(nilRef)
		if a.Android {
			ns = e.ref(AndroidNS)
		}
		raw := uint32(nilRef)
		var dataType uint8
		var data uint32
		switch v := a.Value.(type) {
		case string:
			raw = e.ref(v)
			dataType, data = typeString, raw
		case int:
			dataType, data = typeIntDec, uint32(v)
		case bool:
			dataType = typeBoolean
			if v {
				data = 0xFFFFFFFF
			}
		}
		le(w, ns, e.ref(a.Name), raw, uint16(8), uint8(0), dataType, data)
	}

	for _, c := range n.Children {
		e.element(w, c)
	}

	le(w, uint16(chunkEndElement), uint16(16), uint32(24), uint32(1), uint32(nilRef))
	le(w, uint32(nilRef), e.ref(n.Name))
}

func le(w *bytes.Buffer, values ...any) {
	for _, v := range values {
		binary.Write(w, binary.LittleEndian, v)
	}
}
