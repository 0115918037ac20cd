package legacy

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the structural content hash of a raw cost fragment. Two
// fragments hash equal when they have the same component and the same
// element tree. Siblings with different names may appear in any order;
// siblings sharing a name keep their document order.
func Hash(f Fragment) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(f.Component))
	_, _ = d.WriteString("\x00")
	writeCanonical(d, f.Node)
	return d.Sum64()
}

func writeCanonical(d *xxhash.Digest, n *Node) {
	if n == nil {
		_, _ = d.WriteString("-")
		return
	}

	// Length prefixes keep "ab"+"c" distinct from "a"+"bc".
	writeField(d, n.Name)
	writeField(d, n.Text)

	children := make([]*Node, len(n.Children))
	copy(children, n.Children)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})

	_, _ = d.WriteString("(")
	_, _ = d.WriteString(strconv.Itoa(len(children)))
	for _, c := range children {
		writeCanonical(d, c)
	}
	_, _ = d.WriteString(")")
}

func writeField(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(strconv.Itoa(len(s)))
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(s)
}
