// prism - Terminal 3D Scene Renderer
// Render GLB models (or a built-in demo scene) in your terminal with a
// depth-buffered software pipeline.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right (Q rolls left, E rolls right)
//	Space       - Apply random impulse
//	R           - Reset rotation
//	X           - Cycle render mode (solid, wireframe, fixed-point)
//	L           - Cycle light mode (none, flat, blinn-phong)
//	?           - Toggle HUD overlay (FPS, filename, poly count, modes)
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/models"
	"github.com/taigrr/prism/pkg/render"
	"github.com/taigrr/prism/pkg/scene"
)

var (
	targetFPS  = flag.Int("fps", 60, "Target FPS")
	bgColor    = flag.String("bg", "30,30,40", "Background color (R,G,B)")
	renderMode = flag.String("mode", "solid", "Render mode: solid, wireframe, fixed")
	lightMode  = flag.String("light", "flat", "Light mode: none, flat, blinn-phong")
	pngPath    = flag.String("png", "", "Render a single frame to a PNG file and exit")
	ansiOut    = flag.Bool("ansi", false, "Stream raw ANSI frames to stdout instead of the interactive viewer")
	outWidth   = flag.Int("width", 0, "Output width in pixels (png) or columns (ansi); 0 = default")
	outHeight  = flag.Int("height", 0, "Output height in pixels (png) or rows (ansi); 0 = default")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "prism - Terminal 3D Scene Renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: prism [options] [model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Renders the built-in demo scene when no model is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  X           - Cycle render mode\n")
		fmt.Fprintf(os.Stderr, "  L           - Cycle light mode\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with harmonica spring for smooth velocity decay
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds rotation with harmonica spring physics
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// HUD renders an overlay with model info and controls
type HUD struct {
	filename  string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD
func NewHUD(filename string, polyCount int) *HUD {
	return &HUD{
		filename:  filename,
		polyCount: polyCount,
		fpsTime:   time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD overlay directly to the terminal
func (h *HUD) Render(width, height int, mode scene.RenderMode, light scene.LightMode, show bool) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works)
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if !show {
		return
	}

	// Top left: FPS
	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	// Top middle: filename
	titleCol := max((width-len(h.filename)-2)/2, 1)
	fmt.Printf("%s%s%s%s %s %s", moveTo(1, titleCol), bold, bgBlack, fgWhite, h.filename, reset)

	// Top right: polygon count
	polyCol := max(width-14, 1)
	fmt.Printf("%s%s%s%s %d polys %s", moveTo(1, polyCol), bgBlack, fgCyan, bold, h.polyCount, reset)

	// Bottom: active modes and hint
	fmt.Printf("%s%s%s X: %s  L: %s %s", moveTo(height, 1), bgBlack, fgWhite, mode, light, reset)
	hint := fmt.Sprintf("%s%s%s ?: toggle HUD %s", bgBlack, dim, fgYellow, reset)
	hintCol := max(width-16, 1)
	fmt.Print(moveTo(height, hintCol) + hint)
}

// parseRenderMode maps the -mode flag to a render mode.
func parseRenderMode(s string) (scene.RenderMode, error) {
	switch strings.ToLower(s) {
	case "wireframe", "wire":
		return scene.RenderWireframe, nil
	case "solid":
		return scene.RenderSolid, nil
	case "fixed", "fixed-point":
		return scene.RenderFixedPoint, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q (use solid, wireframe, or fixed)", s)
	}
}

// parseLightMode maps the -light flag to a light mode.
func parseLightMode(s string) (scene.LightMode, error) {
	switch strings.ToLower(s) {
	case "none", "off":
		return scene.LightNone, nil
	case "flat":
		return scene.LightFlat, nil
	case "blinn-phong", "blinn", "phong":
		return scene.LightBlinnPhong, nil
	default:
		return 0, fmt.Errorf("unknown light mode %q (use none, flat, or blinn-phong)", s)
	}
}

// appendQuad adds a quad as two triangles. Corners are listed
// counter-clockwise as seen from the visible side; indices are emitted
// swapped to match the pipeline's front-face winding.
func appendQuad(mesh *models.Mesh, a, b, c, d math3d.Vec3, col render.Color) {
	normal := b.Sub(a).Cross(c.Sub(a)).Normalize()
	base := len(mesh.Vertices)
	for _, pos := range []math3d.Vec3{a, b, c, d} {
		mesh.Vertices = append(mesh.Vertices, models.MeshVertex{
			Position: pos,
			Normal:   normal,
			Color:    col,
		})
	}
	mesh.Faces = append(mesh.Faces,
		models.Face{V: [3]int{base, base + 2, base + 1}, Material: -1},
		models.Face{V: [3]int{base, base + 3, base + 2}, Material: -1},
	)
}

// cubeMesh builds a unit cube with one color per face. Vertices are
// duplicated per face so the colors stay flat.
func cubeMesh() *models.Mesh {
	mesh := models.NewMesh("cube")
	faceColors := [6]render.Color{
		render.ColorRed, render.ColorGreen, render.ColorBlue,
		render.ColorYellow, render.ColorCyan, render.ColorMagenta,
	}

	v := func(x, y, z float64) math3d.Vec3 { return math3d.V3(x, y, z) }
	appendQuad(mesh, v(-1, -1, 1), v(1, -1, 1), v(1, 1, 1), v(-1, 1, 1), faceColors[0])     // front (+Z)
	appendQuad(mesh, v(1, -1, -1), v(-1, -1, -1), v(-1, 1, -1), v(1, 1, -1), faceColors[1]) // back (-Z)
	appendQuad(mesh, v(1, -1, 1), v(1, -1, -1), v(1, 1, -1), v(1, 1, 1), faceColors[2])     // right (+X)
	appendQuad(mesh, v(-1, -1, -1), v(-1, -1, 1), v(-1, 1, 1), v(-1, 1, -1), faceColors[3]) // left (-X)
	appendQuad(mesh, v(-1, 1, 1), v(1, 1, 1), v(1, 1, -1), v(-1, 1, -1), faceColors[4])     // top (+Y)
	appendQuad(mesh, v(-1, -1, -1), v(1, -1, -1), v(1, -1, 1), v(-1, -1, 1), faceColors[5]) // bottom (-Y)

	mesh.CalculateBounds()
	return mesh
}

// groundMesh builds a large horizontal plane below the model.
func groundMesh() *models.Mesh {
	mesh := models.NewMesh("ground")
	const ext, level = 8.0, -1.5
	appendQuad(mesh,
		math3d.V3(-ext, level, ext),
		math3d.V3(ext, level, ext),
		math3d.V3(ext, level, -ext),
		math3d.V3(-ext, level, -ext),
		render.ColorGrass,
	)
	mesh.CalculateBounds()
	return mesh
}

// loadMesh loads a model file, or builds the demo cube when no path is
// given. The mesh is centered and scaled to fit a 2-unit box.
func loadMesh(modelPath string) (*models.Mesh, string, error) {
	var mesh *models.Mesh
	name := "demo cube"

	if modelPath == "" {
		mesh = cubeMesh()
	} else {
		ext := strings.ToLower(filepath.Ext(modelPath))
		switch ext {
		case ".glb", ".gltf":
			var err error
			mesh, err = models.LoadGLB(modelPath)
			if err != nil {
				return nil, "", fmt.Errorf("load model: %w", err)
			}
		default:
			return nil, "", fmt.Errorf("unsupported format: %s (use .glb or .gltf)", ext)
		}
		name = filepath.Base(modelPath)
	}

	// Center and scale to a consistent viewing size.
	mesh.CalculateBounds()
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		scale := 2.0 / maxDim
		transform := math3d.Scale(math3d.V3(scale, scale, scale)).Mul(math3d.Translate(center.Scale(-1)))
		mesh.Transform(transform)
	}
	return mesh, name, nil
}

// buildScene assembles the model entity, the environment ground plane, and
// a key light around a camera 5 units up the +Z axis.
func buildScene(mesh *models.Mesh, mode scene.RenderMode, aspect float64) (*scene.Scene, *scene.Entity) {
	s := scene.NewScene()
	s.Camera.SetAspectRatio(aspect)
	s.Camera.SetFOV(math.Pi / 3)
	s.Camera.SetClipPlanes(0.1, 100)
	s.Camera.SetPosition(math3d.V3(0, 0, 5))
	s.Camera.LookAt(math3d.V3(0, 0, 0))

	model := scene.NewEntity("model", mesh)
	model.Mode = mode
	s.Add(model)

	ground := scene.NewEntity("ground", groundMesh())
	ground.Environment = true
	ground.Mode = mode
	s.Add(ground)

	s.AddLight(scene.Light{
		Position:  math3d.V3(3, 4, 5),
		Color:     render.ColorWhite,
		Intensity: 1,
	})
	return s, model
}

func run(modelPath string) error {
	var bgR, bgG, bgB uint8 = 30, 30, 40
	fmt.Sscanf(*bgColor, "%d,%d,%d", &bgR, &bgG, &bgB)
	bg := render.RGB(bgR, bgG, bgB)

	mode, err := parseRenderMode(*renderMode)
	if err != nil {
		return err
	}
	light, err := parseLightMode(*lightMode)
	if err != nil {
		return err
	}

	mesh, name, err := loadMesh(modelPath)
	if err != nil {
		return err
	}

	switch {
	case *pngPath != "":
		return renderPNG(mesh, mode, light, bg)
	case *ansiOut:
		return runANSI(mesh, mode, light, bg)
	default:
		return runInteractive(mesh, name, mode, light, bg)
	}
}

// renderPNG renders one frame of the scene to a PNG file.
func renderPNG(mesh *models.Mesh, mode scene.RenderMode, light scene.LightMode, bg render.Color) error {
	width, height := *outWidth, *outHeight
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}

	front, err := render.NewPixelBuffer(width, height)
	if err != nil {
		return err
	}
	back, err := render.NewPixelBuffer(width, height)
	if err != nil {
		return err
	}
	front.SetBackground(bg)
	back.SetBackground(bg)

	p, err := render.NewPipeline(front, back)
	if err != nil {
		return err
	}
	p.LightMode = light
	p.Background = bg

	s, model := buildScene(mesh, mode, float64(width)/float64(height))
	model.SetEuler(0.4, 0.7, 0)

	p.RenderFrame(s)
	if err := p.Front().(*render.PixelBuffer).SavePNG(*pngPath); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	fmt.Printf("Wrote %s (%dx%d)\n", *pngPath, width, height)
	return nil
}

// runANSI streams truecolor frames to stdout until interrupted. Useful for
// piping or for terminals where the event-driven viewer is unavailable.
func runANSI(mesh *models.Mesh, mode scene.RenderMode, light scene.LightMode, bg render.Color) error {
	width, height := *outWidth, *outHeight
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	front, err := render.NewTermBuffer(width, height)
	if err != nil {
		return err
	}
	back, err := render.NewTermBuffer(width, height)
	if err != nil {
		return err
	}
	front.SetBackground(bg)
	back.SetBackground(bg)

	p, err := render.NewPipeline(front, back)
	if err != nil {
		return err
	}
	p.LightMode = light
	p.Background = bg

	// Terminal cells are roughly twice as tall as wide.
	s, model := buildScene(mesh, mode, float64(width)/(2*float64(height)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Fprint(os.Stdout, render.HideCursor())
	defer fmt.Fprint(os.Stdout, render.ShowCursor())

	rotation := NewRotationState(*targetFPS)
	rotation.Yaw.Velocity = 0.02

	targetDuration := time.Second / time.Duration(*targetFPS)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := time.Now()

		// Keep the model slowly spinning; the spring decays velocity, so
		// top it back up each frame.
		rotation.Yaw.Velocity = 0.02
		rotation.Update()
		model.SetEuler(rotation.Pitch.Position, rotation.Yaw.Position, rotation.Roll.Position)

		p.RenderFrame(s)
		if err := p.Present(os.Stdout); err != nil {
			return fmt.Errorf("present: %w", err)
		}

		if elapsed := time.Since(start); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// runInteractive drives the event-based terminal viewer.
func runInteractive(mesh *models.Mesh, name string, mode scene.RenderMode, light scene.LightMode, bg render.Color) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	// Each terminal row holds two pixel rows via half blocks.
	newPipeline := func(w, h int) (*render.Pipeline, error) {
		front, err := render.NewPixelBuffer(w, h*2)
		if err != nil {
			return nil, err
		}
		back, err := render.NewPixelBuffer(w, h*2)
		if err != nil {
			return nil, err
		}
		front.SetBackground(bg)
		back.SetBackground(bg)
		p, err := render.NewPipeline(front, back)
		if err != nil {
			return nil, err
		}
		p.Background = bg
		return p, nil
	}

	pipeline, err := newPipeline(width, height)
	if err != nil {
		return err
	}
	pipeline.LightMode = light

	s, model := buildScene(mesh, mode, float64(width)/(2*float64(height)))
	hud := NewHUD(name, mesh.TriangleCount())
	showHUD := true

	rotation := NewRotationState(*targetFPS)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Input state
	inputTorque := struct{ pitch, yaw, roll float64 }{}
	const torqueStrength = 3.0

	// Mouse state
	var mouseDown bool
	var lastMouseX, lastMouseY int
	cameraZ := 5.0

	// The event goroutine swaps the pipeline on resize while the main loop
	// renders, so both take this lock around pipeline access.
	var mu sync.Mutex

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				term.Erase()
				term.Resize(ev.Width, ev.Height)
				p, err := newPipeline(ev.Width, ev.Height)
				if err != nil {
					continue // keep the old size rather than crash mid-session
				}
				mu.Lock()
				p.LightMode = pipeline.LightMode
				width, height = ev.Width, ev.Height
				pipeline = p
				s.Camera.SetAspectRatio(float64(width) / (2 * float64(height)))
				mu.Unlock()

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("q"):
					inputTorque.roll = -torqueStrength
				case ev.MatchString("r"):
					rotation.Reset()
					cameraZ = 5.0
					s.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("e"):
					inputTorque.roll = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				case ev.MatchString("+", "="):
					cameraZ = math.Max(1, cameraZ-0.5)
					s.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("-", "_"):
					cameraZ = math.Min(20, cameraZ+0.5)
					s.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("x"):
					mu.Lock()
					next := (model.Mode + 1) % 3
					model.Mode = next
					for _, e := range s.Entities {
						e.Mode = next
					}
					mu.Unlock()
				case ev.MatchString("l"):
					mu.Lock()
					pipeline.LightMode = (pipeline.LightMode + 1) % 3
					mu.Unlock()
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					showHUD = !showHUD
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					inputTorque.roll = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
				s.Camera.SetPosition(math3d.V3(0, 0, cameraZ))
			}
		}
	}()

	// Main loop
	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

		// Apply input torque and decay it (key release events unreliable)
		rotation.ApplyImpulse(
			inputTorque.pitch*dt,
			inputTorque.yaw*dt,
			inputTorque.roll*dt,
		)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9
		inputTorque.roll *= 0.9

		// Update springs (harmonica handles timing internally)
		rotation.Update()
		model.SetEuler(rotation.Pitch.Position, rotation.Yaw.Position, rotation.Roll.Position)

		mu.Lock()
		p := pipeline
		w, h := width, height
		modeNow, lightNow := model.Mode, p.LightMode
		p.RenderFrame(s)
		fb := p.Front().(*render.PixelBuffer)
		mu.Unlock()

		fb.Draw(term, uv.Rect(0, 0, w, h))
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		// HUD overlay (always update FPS, render clears lines when HUD off)
		hud.UpdateFPS()
		hud.Render(w, h, modeNow, lightNow, showHUD)

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
