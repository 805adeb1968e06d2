// Package source loads the social graph from a backing store and notices
// when it changes.
package source

import (
	"encoding/binary"
	"math"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/validation"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// Dataset is one complete snapshot of people and relationships. Each load
// replaces the previous snapshot entirely.
type Dataset struct {
	Nodes []visualization.NodeInput `yaml:"people" json:"people" validate:"dive"`
	Edges []visualization.EdgeInput `yaml:"relationships" json:"relationships" validate:"dive"`
}

// Validate normalises intensities and checks field constraints. Failures
// are marked validation.ErrInvalid.
func (d *Dataset) Validate() error {
	if err := normalise(d); err != nil {
		return errors.Mark(err, validation.ErrInvalid)
	}
	return validation.Struct(d)
}

// NodeIDs returns the person ids in dataset order.
func (d *Dataset) NodeIDs() []uint64 {
	ids := make([]uint64, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgeRefs returns the relationships as graph edges, skipping self loops and
// relationships whose endpoints are not in the dataset.
func (d *Dataset) EdgeRefs() []algorithms.EdgeRef {
	known := make(map[uint64]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		known[n.ID] = true
	}
	refs := make([]algorithms.EdgeRef, 0, len(d.Edges))
	for _, e := range d.Edges {
		if e.Person1ID == e.Person2ID || !known[e.Person1ID] || !known[e.Person2ID] {
			continue
		}
		refs = append(refs, algorithms.EdgeRef{ID: e.ID, Source: e.Person1ID, Target: e.Person2ID})
	}
	return refs
}

// Fingerprint hashes the dataset independently of row order, so two loads
// of the same data compare equal.
func (d *Dataset) Fingerprint() uint64 {
	if d == nil {
		return 0
	}

	nodes := make([]uint64, len(d.Nodes))
	for i, n := range d.Nodes {
		h := xxhash.New()
		writeUint(h, n.ID)
		_, _ = h.WriteString(n.Label)
		nodes[i] = h.Sum64()
	}
	slices.Sort(nodes)

	edges := make([]uint64, len(d.Edges))
	for i, e := range d.Edges {
		h := xxhash.New()
		writeUint(h, e.ID)
		writeUint(h, e.Person1ID)
		writeUint(h, e.Person2ID)
		_, _ = h.WriteString(strings.ToLower(string(e.Intensity)))
		if e.Pending {
			writeUint(h, 1)
		} else {
			writeUint(h, 0)
		}
		edges[i] = h.Sum64()
	}
	slices.Sort(edges)

	total := xxhash.New()
	writeUint(total, uint64(len(nodes)))
	for _, v := range nodes {
		writeUint(total, v)
	}
	writeUint(total, math.MaxUint64)
	for _, v := range edges {
		writeUint(total, v)
	}
	return total.Sum64()
}

func writeUint(h *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}
