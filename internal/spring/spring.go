// Package spring resolves distance constraints between members of a cluster.
package spring

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

// minLinkDist is the separation below which a link has no usable direction.
const minLinkDist = 1e-5

// Link ties two nodes of the same group at a rest length.
type Link struct {
	GroupID    int     `yaml:"group" csv:"group"`
	NodeA      int     `yaml:"a" csv:"node_a"`
	NodeB      int     `yaml:"b" csv:"node_b"`
	RestLength float64 `yaml:"rest" csv:"rest"`
	Stiffness  float64 `yaml:"stiffness" csv:"stiffness"`
}

// KeyA and KeyB identify the link endpoints.
func (l Link) KeyA() body.Key { return body.Key{Group: l.GroupID, Node: l.NodeA} }
func (l Link) KeyB() body.Key { return body.Key{Group: l.GroupID, Node: l.NodeB} }

// Lookup resolves a cluster member. It returns false when the member is gone.
type Lookup func(body.Key) (*body.Body, bool)

// Compliance converts a per-step stiffness into the per-substep factor
// 1 - (1 - s)^(1/substeps), so the effective stiffness over a step does not
// depend on the substep count. Stiffness is clamped to [0, 1].
func Compliance(stiffness float64, substeps int) float64 {
	s := math.Min(1, math.Max(0, stiffness))
	if substeps <= 1 {
		return s
	}
	return 1 - math.Pow(1-s, 1/float64(substeps))
}

// ResolveLink pulls a and b toward the link's rest length, splitting the
// correction by inverse mass. k is the per-substep factor from [Compliance].
func ResolveLink(a, b *body.Body, rest, k float64) {
	total := a.InvMass + b.InvMass
	if total <= 0 {
		return
	}
	delta := r2.Sub(b.Position, a.Position)
	dist := r2.Norm(delta)
	if dist <= minLinkDist {
		return
	}
	corr := r2.Scale((dist-rest)/dist*k, delta)
	a.Move(r2.Scale(a.InvMass/total, corr))
	b.Move(r2.Scale(-b.InvMass/total, corr))
}

// Resolve runs one pass over links in order. Links with a missing endpoint
// are skipped.
func Resolve(links []Link, lookup Lookup, substeps int) {
	for _, l := range links {
		a, ok := lookup(l.KeyA())
		if !ok {
			continue
		}
		b, ok := lookup(l.KeyB())
		if !ok {
			continue
		}
		ResolveLink(a, b, l.RestLength, Compliance(l.Stiffness, substeps))
	}
}

// Stretch returns |d - rest| / rest for a link, or 0 when an endpoint is
// missing or the rest length is zero.
func Stretch(l Link, lookup Lookup) float64 {
	a, okA := lookup(l.KeyA())
	b, okB := lookup(l.KeyB())
	if !okA || !okB || l.RestLength <= 0 {
		return 0
	}
	d := r2.Norm(r2.Sub(b.Position, a.Position))
	return math.Abs(d-l.RestLength) / l.RestLength
}
