package scene

import (
	_ "embed"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
)

var (
	//go:embed shaders/lines.vert
	linesVertexShader string
	//go:embed shaders/lines.frag
	linesFragmentShader string
)

// LinesRenderer draws debug line lists streamed from the CPU each frame.
type LinesRenderer struct {
	program     uint32
	locViewProj int32
	vao, vbo    uint32
	capacity    int
}

// NewLinesRenderer compiles the line program and allocates its buffers.
func NewLinesRenderer() (*LinesRenderer, error) {
	program, err := shader.CompileProgram(linesVertexShader, linesFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("lines shader: %w", err)
	}
	lr := &LinesRenderer{
		program:     program,
		locViewProj: shader.Uniform(program, "uViewProj"),
	}

	stride := int32(unsafe.Sizeof(debug.LineVertex{}))
	gl.GenVertexArrays(1, &lr.vao)
	gl.GenBuffers(1, &lr.vbo)
	gl.BindVertexArray(lr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, lr.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.BindVertexArray(0)
	return lr, nil
}

// Render uploads lines and draws them with depth testing.
func (lr *LinesRenderer) Render(viewProj mgl32.Mat4, lines []debug.LineVertex) {
	if len(lines) == 0 {
		return
	}
	size := len(lines) * int(unsafe.Sizeof(debug.LineVertex{}))

	gl.BindBuffer(gl.ARRAY_BUFFER, lr.vbo)
	if len(lines) > lr.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(lines), gl.STREAM_DRAW)
		lr.capacity = len(lines)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(lines))
	}

	gl.UseProgram(lr.program)
	gl.UniformMatrix4fv(lr.locViewProj, 1, false, &viewProj[0])
	gl.BindVertexArray(lr.vao)
	gl.DrawArrays(gl.LINES, 0, int32(len(lines)))
	gl.BindVertexArray(0)
}

// Destroy releases the program and buffers.
func (lr *LinesRenderer) Destroy() {
	if lr.vbo != 0 {
		gl.DeleteBuffers(1, &lr.vbo)
	}
	if lr.vao != 0 {
		gl.DeleteVertexArrays(1, &lr.vao)
	}
	if lr.program != 0 {
		gl.DeleteProgram(lr.program)
	}
}
