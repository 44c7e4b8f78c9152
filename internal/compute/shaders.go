package compute

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// localSize is the compute work group width shared by every shader.
const localSize = 256

// Buffer bindings: particle i owns vec4 slot i of each SSBO, w unused.
const (
	bindPositions  = 0
	bindVelocities = 1
	bindColors     = 2
)

const hashGLSL = `
float hash(uint s) {
    uint state = s * 747796405u + 2891336453u;
    uint word = ((state >> ((state >> 28u) + 4u)) ^ state) * 277803737u;
    return min(float((word >> 22u) ^ word) / 4294967296.0, 0.99999994);
}

vec3 safeNormalize(vec3 v) {
    float n = length(v);
    return n == 0.0 ? vec3(0.0) : v / n;
}
`

const initShader = `#version 430 core
layout(local_size_x = 256) in;

layout(std430, binding = 0) buffer Positions { vec4 pos[]; };
layout(std430, binding = 2) buffer Colors { vec4 col[]; };

uniform uint count;
uniform uint seed;
uniform float cloudRadius;
uniform float innerRadius;

const float PI = 3.14159265358979;
` + hashGLSL + `
void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= count) return;

    uint idx = i + seed;
    float rx = hash(idx);
    float ry = hash(idx + 2u);
    float rz = hash(idx + 3u);
    float inc = hash(idx * 100u) * PI;
    float az = hash(idx * 200u) * 2.0 * PI;

    vec3 p = vec3(
        rx * cloudRadius * sin(inc) * cos(az),
        ry * cloudRadius * sin(inc) * sin(az),
        rz * cloudRadius * cos(inc));
    if (length(p) < innerRadius) {
        p += safeNormalize(p) * innerRadius;
    }

    pos[i] = vec4(p, 0.0);
    col[i] = vec4(rx, ry, rz, 0.0);
}
`

const gravityShader = `#version 430 core
layout(local_size_x = 256) in;

layout(std430, binding = 0) buffer Positions { vec4 pos[]; };
layout(std430, binding = 1) buffer Velocities { vec4 vel[]; };

uniform uint count;
uniform vec3 center;
uniform float gravity;
uniform float bounce;
uniform float friction;
uniform float planetRadius;

const float MAX_SPEED = 0.1;
const float MIN_ATTRACTION_DIST = 0.1;
const float MIN_ATTRACTION = 0.001;
` + hashGLSL + `
void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= count) return;

    vec3 v = vel[i].xyz;
    vec3 p = pos[i].xyz + v;

    vec3 dv = p - center;
    float dist = length(dv);
    vec3 n = safeNormalize(dv);

    if (dist < planetRadius) {
        if (dist == 0.0) {
            p = center + vec3(0.0, planetRadius, 0.0);
        } else {
            v = reflect(v, n) * bounce;
            p = center + n * planetRadius;
        }
    }

    float accel = -max(gravity / max(dist, MIN_ATTRACTION_DIST), MIN_ATTRACTION);
    v += n * accel;

    float speed = min(MAX_SPEED, length(v));
    v = safeNormalize(v) * speed * friction;

    pos[i] = vec4(p, 0.0);
    vel[i] = vec4(v, 0.0);
}
`

func workGroups(n int) uint32 {
	return uint32((n + localSize - 1) / localSize)
}

// packVec4 writes src into dst as std430 vec4s. dst must hold 4*len(src).
func packVec4(dst []float32, src []r3.Vec) {
	for i, v := range src {
		dst[4*i] = float32(v.X)
		dst[4*i+1] = float32(v.Y)
		dst[4*i+2] = float32(v.Z)
		dst[4*i+3] = 0
	}
}

func unpackVec4(dst []r3.Vec, src []float32) {
	for i := range dst {
		dst[i] = r3.Vec{X: float64(src[4*i]), Y: float64(src[4*i+1]), Z: float64(src[4*i+2])}
	}
}
