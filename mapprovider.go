package corephys

// MapProvider supplies a scene's initial population of remote objects. The
// Simulator does not read a MapProvider itself: callers rebuild each node
// with FromRemoteObject, wrap it in a RigidBody and add it with
// Simulator.AddBody.
type MapProvider interface {
	InitialObjects() []RemoteObject
}

// StaticMapProvider serves a fixed, caller-built list, for scenes whose
// layout is authored rather than generated.
type StaticMapProvider struct {
	objects []RemoteObject
}

func NewStaticMapProvider(objects []RemoteObject) *StaticMapProvider {
	return &StaticMapProvider{objects: objects}
}

func (p *StaticMapProvider) InitialObjects() []RemoteObject {
	out := make([]RemoteObject, len(p.objects))
	copy(out, p.objects)
	return out
}
