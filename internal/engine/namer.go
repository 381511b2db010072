package engine

import "strconv"

// blankNamer allocates fresh blank node labels.
//
// Labels have the form <label>_<serial>. The serial comes from a single
// counter advanced in plan order, so the same inputs always produce the
// same labels. A candidate that collides with a reserved label (one used
// by the template, the bindings or an earlier allocation) gets "x"
// appended until it is free.
//
// Not safe for concurrent use: all allocation happens while the plan is
// built, before rewriting fans out.
type blankNamer struct {
	serial   int64
	reserved map[string]struct{}
}

func newBlankNamer(reserved map[string]struct{}) *blankNamer {
	r := make(map[string]struct{}, len(reserved))
	for l := range reserved {
		r[l] = struct{}{}
	}
	return &blankNamer{reserved: r}
}

// Fresh returns a new label derived from label.
func (n *blankNamer) Fresh(label string) string {
	n.serial++
	candidate := label + "_" + strconv.FormatInt(n.serial, 10)
	for {
		if _, taken := n.reserved[candidate]; !taken {
			break
		}
		candidate += "x"
	}
	n.reserved[candidate] = struct{}{}
	return candidate
}

// Serial returns the number of labels allocated so far.
func (n *blankNamer) Serial() int64 {
	return n.serial
}
