package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW implementation of platformWindow.
type glfwWindow struct {
	handle *glfw.Window
}

var _ platformWindow = &glfwWindow{}

// openGLFWWindow creates a GLFW window without a client API context and routes its key and framebuffer
// events into w. Must run on the main thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	g := &glfwWindow{handle: handle}

	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		g.dispatchKey(w, uint32(key), action)
	})
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = handle.GetFramebufferSize()

	return g, nil
}

// dispatchKey forwards presses and releases; auto-repeat is ignored so a held key plays an overlay once.
// Escape closes the window only when nothing listens for key presses.
func (g *glfwWindow) dispatchKey(w *engineWindow, code uint32, action glfw.Action) {
	switch action {
	case glfw.Press:
		if w.onKeyDown == nil {
			if code == common.KeyEsc {
				g.handle.SetShouldClose(true)
			}
			return
		}
		w.onKeyDown(code)
	case glfw.Release:
		if w.onKeyUp != nil {
			w.onKeyUp(code)
		}
	}
}

func (g *glfwWindow) setTitle(title string) {
	g.handle.SetTitle(title)
}

// surfaceDescriptor uses the wgpuglfw bridge for the native surface handle.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.handle)
}

func (g *glfwWindow) shouldClose() bool {
	return g.handle.ShouldClose()
}

func (g *glfwWindow) pollEvents() {
	glfw.PollEvents()
}

// destroy releases the window and terminates GLFW.
func (g *glfwWindow) destroy() {
	g.handle.Destroy()
	glfw.Terminate()
}
