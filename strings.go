package javabin

// externStrings is the per-call table of strings that later EXTERN_STRING
// tags refer back to.  Indices on the wire are 1-based.  Entries are private
// copies because the decoder's read scratch is reused.
type externStrings struct {
	list [][]byte
}

func (t *externStrings) add(b []byte) {
	t.list = append(t.list, append([]byte(nil), b...))
}

// get returns the string for wire index idx, which must be non-zero.
func (t *externStrings) get(idx int) ([]byte, bool) {
	if idx < 1 || idx > len(t.list) {
		return nil, false
	}
	return t.list[idx-1], true
}

func (t *externStrings) len() int { return len(t.list) }

// reset empties the table so nothing leaks into the next stream.
func (t *externStrings) reset() {
	for i := range t.list {
		t.list[i] = nil
	}
	t.list = t.list[:0]
}
