package opengl

// vertexTransformGLSL is the shared vertex-stage prelude: attribute layout,
// skinning, per-instance transform and billboard orientation. Both the main
// scene pass and the depth-only shadow pass include it so shadows match the
// color geometry exactly.
const vertexTransformGLSL = `
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aTexCoord;
layout(location = 2) in vec3 aNormal;
layout(location = 3) in vec4 aTangent;
layout(location = 4) in vec4 aColor;
layout(location = 5) in ivec4 aBoneIDs;
layout(location = 6) in vec4 aBoneWeights;
layout(location = 7) in vec3 iPosition;
layout(location = 8) in vec4 iRotation;
layout(location = 9) in vec3 iScale;
layout(location = 10) in vec4 iColor;
layout(location = 11) in vec4 iCustom;

uniform mat4 uModel;
uniform mat4 uBones[128];
uniform bool uSkinned;
uniform int  uBillboard;   // 0 off, 1 full, 2 y-axis
uniform vec3 uCameraRight;
uniform vec3 uCameraUp;
uniform vec3 uCameraPos;

vec3 quatRotate(vec4 q, vec3 v) {
    return v + 2.0 * cross(q.xyz, cross(q.xyz, v) + q.w * v);
}

mat4 skinMatrix() {
    return uBones[aBoneIDs.x] * aBoneWeights.x
         + uBones[aBoneIDs.y] * aBoneWeights.y
         + uBones[aBoneIDs.z] * aBoneWeights.z
         + uBones[aBoneIDs.w] * aBoneWeights.w;
}

vec3 billboardLocal(vec3 p, vec3 anchor) {
    if (uBillboard == 1) {
        return uCameraRight * p.x + uCameraUp * p.y;
    }
    // Y-axis: rotate about +Y so local +Z faces the camera.
    vec3 toCam = uCameraPos - anchor;
    float ang = atan(toCam.x, toCam.z);
    float c = cos(ang), s = sin(ang);
    return vec3(c * p.x + s * p.z, p.y, -s * p.x + c * p.z);
}

vec3 transformPosition() {
    vec3 p = aPosition;
    if (uSkinned) {
        p = (skinMatrix() * vec4(p, 1.0)).xyz;
    }
    vec3 anchor = uModel[3].xyz + iPosition;
    if (uBillboard != 0) {
        p = billboardLocal(p, anchor);
    }
    p = quatRotate(iRotation, p * iScale);
    return (uModel * vec4(p, 1.0)).xyz + iPosition;
}

vec3 transformDirection(vec3 d) {
    if (uSkinned) {
        d = mat3(skinMatrix()) * d;
    }
    if (uBillboard != 0) {
        d = billboardLocal(d, uModel[3].xyz + iPosition);
    }
    d = quatRotate(iRotation, d / max(iScale, vec3(1e-6)));
    return normalize(mat3(uModel) * d);
}
`

// fullscreenVertexShader draws a clip-space triangle without any vertex
// buffer; the UV is derived from gl_VertexID.
const fullscreenVertexShader = `#version 410 core
out vec2 vUV;

void main() {
    vec2 pos = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2));
    vUV = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"
