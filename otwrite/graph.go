package otwrite

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Serialization phase two: the emitted object graph is laid out into one
// contiguous buffer and every stored offset is backpatched with the
// final byte distance.

// objectID identifies one emitted sub-table in the object store.
type objectID int

// offsetRecord is a placeholder left in an object's byte image: at pos,
// a width-byte offset to child is patched in once positions are known.
// The patched value is the child's position minus the referrer's
// position plus adjustment (nonzero when the offset origin is not the
// referrer's first byte).
type offsetRecord struct {
	pos        int
	width      int
	child      objectID
	adjustment int
}

// objectData is the emitted image of one sub-table: its bytes with
// zeroed offset placeholders, plus the records to patch them.
type objectData struct {
	name    string
	bytes   []byte
	offsets []offsetRecord
}

// objectStore interns emitted objects by content. Two children with
// identical bytes and identical child references collapse into one
// object, so equal sub-tables are emitted once even when built as
// distinct values.
type objectStore struct {
	objects []*objectData
	dedup   map[string]objectID
}

func newObjectStore() *objectStore {
	return &objectStore{dedup: make(map[string]objectID)}
}

// intern adds an object and returns its id, reusing an existing id for
// identical content. Content equality requires the children to be
// interned first, which the depth-first emission order guarantees.
func (s *objectStore) intern(d *objectData) objectID {
	key := d.contentKey()
	if id, ok := s.dedup[key]; ok {
		return id
	}
	id := objectID(len(s.objects))
	s.objects = append(s.objects, d)
	s.dedup[key] = id
	return id
}

func (s *objectStore) get(id objectID) *objectData {
	return s.objects[id]
}

// contentKey encodes bytes and offset records into a comparable string.
// The byte section is length-prefixed so that no byte content can spell
// out another object's offset-record suffix.
func (d *objectData) contentKey() string {
	var sb strings.Builder
	sb.Grow(len(d.bytes) + 16*len(d.offsets) + 12)
	sb.WriteString(strconv.Itoa(len(d.bytes)))
	sb.WriteByte(':')
	sb.Write(d.bytes)
	for _, o := range d.offsets {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(o.pos))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(o.width))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(int(o.child)))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(o.adjustment))
	}
	return sb.String()
}

// layoutOrder computes the serialization order of all objects reachable
// from root: a topological order in which every object appears after
// all objects referring to it. This keeps every patched offset
// positive, which width-limited stored offsets require. The order is
// deterministic for a given graph.
func layoutOrder(s *objectStore, root objectID) []objectID {
	indeg := make(map[objectID]int)
	indeg[root] = 0
	stack := []objectID{root}
	seen := map[objectID]bool{root: true}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, o := range s.get(id).offsets {
			indeg[o.child]++
			if !seen[o.child] {
				seen[o.child] = true
				stack = append(stack, o.child)
			}
		}
	}

	var order []objectID
	queue := []objectID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, o := range s.get(id).offsets {
			indeg[o.child]--
			if indeg[o.child] == 0 {
				queue = append(queue, o.child)
			}
		}
	}
	return order
}

// assemble concatenates the objects in layout order and patches every
// offset placeholder. Offsets that do not fit their stored width fail
// with ErrOffsetOverflow.
func assemble(s *objectStore, order []objectID) ([]byte, error) {
	pos := make(map[objectID]int, len(order))
	total := 0
	for _, id := range order {
		pos[id] = total
		total += len(s.get(id).bytes)
	}

	out := make([]byte, 0, total)
	for _, id := range order {
		out = append(out, s.get(id).bytes...)
	}

	for _, id := range order {
		d := s.get(id)
		head := pos[id]
		for _, o := range d.offsets {
			value := pos[o.child] - (head + o.adjustment)
			if value < 0 || value > maxOffset(o.width) {
				return nil, writeErrWidth(ErrOffsetOverflow, d.name, "", o.width*8)
			}
			patchScalar(out, head+o.pos, o.width, uint64(value))
		}
	}
	return out, nil
}

func maxOffset(width int) int {
	return 1<<(uint(width)*8) - 1
}

// patchScalar writes a big-endian value of the given byte width at pos.
func patchScalar(b []byte, pos, width int, v uint64) {
	switch width {
	case 1:
		b[pos] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b[pos:], uint16(v))
	case 3:
		b[pos] = byte(v >> 16)
		b[pos+1] = byte(v >> 8)
		b[pos+2] = byte(v)
	case 4:
		binary.BigEndian.PutUint32(b[pos:], uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b[pos:], v)
	}
}
