package raw

// frameShader draws vertices that were transformed to clip space on the CPU.
// Layout per vertex: clip position (vec4) followed by linear color (vec4).
const frameShader = `
struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@location(0) position: vec4<f32>, @location(1) color: vec4<f32>) -> VertexOut {
    var out: VertexOut;
    out.position = position;
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return in.color;
}
`

// vertexStride is the byte size of one streamed vertex.
const vertexStride = 8 * 4
