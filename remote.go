package corephys

import "github.com/go-gl/mathgl/mgl64"

// RemoteObject is the flat record the map provider and network layer use to
// describe a body: everything needed to reconstruct a Node plus the two
// velocity vectors and identity the core does not itself own persistently.
type RemoteObject struct {
	Orientation     mgl64.Quat
	Position        mgl64.Vec3
	Scale           mgl64.Vec3
	Anchor          mgl64.Vec3
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Kind            uint32
	ID              uint32
}

// ToRemoteObject flattens a node plus its body's velocities into a
// RemoteObject, preserving every component bit-for-bit (modulo floating
// point representation, which round-trips exactly through mgl64 types).
func ToRemoteObject(n *Node, linVel, angVel mgl64.Vec3, kind, id uint32) RemoteObject {
	return RemoteObject{
		Orientation:     n.Orientation(),
		Position:        n.Position(),
		Scale:           n.Scale(),
		Anchor:          n.Anchor(),
		LinearVelocity:  linVel,
		AngularVelocity: angVel,
		Kind:            kind,
		ID:              id,
	}
}

// FromRemoteObject reconstructs a node and the two velocity vectors from a
// RemoteObject. FromRemoteObject(ToRemoteObject(n, lv, av, k, id)) round
// trips n's fields, lv, and av exactly.
func FromRemoteObject(r RemoteObject) (node *Node, linVel, angVel mgl64.Vec3) {
	n := NewNode().
		WithPosition(r.Position).
		WithOrientation(r.Orientation).
		WithScale(r.Scale).
		WithAnchor(r.Anchor)
	return n, r.LinearVelocity, r.AngularVelocity
}
