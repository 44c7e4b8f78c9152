// Package gui is the raylib window for a running simulation: a 3D view of
// the planet and its particle cloud with an orbiting camera. Left clicks
// are ray-picked against the planet, or the ground plane below it, and
// strike the cloud at that point.
package gui
