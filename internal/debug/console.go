package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/locomotion/internal/body"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMovePulse    = 180 * time.Millisecond
	yawStep             = 5.0
)

type ControlledBody interface {
	SetInput(input body.InputState)
	Snapshot() body.Snapshot
	Warp(origin mgl64.Vec3)
	Reset()
}

// Console drives one character from a raw terminal: movement keys pulse
// input for a short time and ':' opens a command line.
type Console struct {
	body         ControlledBody
	in           io.Reader
	out          io.Writer
	quit         func()
	tickInterval time.Duration
	movePulse    time.Duration

	mu            sync.Mutex
	outMu         sync.Mutex
	currentInput  body.InputState
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
}

// NewConsole reads keys from stdin and writes to stdout. quit runs on :quit
// and may be nil.
func NewConsole(body ControlledBody, quit func()) *Console {
	return &Console{
		body:         body,
		in:           os.Stdin,
		out:          os.Stdout,
		quit:         quit,
		tickInterval: defaultTickInterval,
		movePulse:    defaultMovePulse,
	}
}

// SetIO replaces the console's input and output streams.
func (c *Console) SetIO(in io.Reader, out io.Writer) {
	c.in = in
	c.out = out
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.body == nil {
		return fmt.Errorf("console body is nil")
	}

	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set terminal raw mode: %w", err)
		}
		defer func() {
			_ = term.Restore(fd, oldState)
			c.print("\r\n")
		}()
	}

	c.print("[debug] console started (W/A/S/D pulse, Space, arrows, X, :, [ sneak, ] sprint)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.body.SetInput(c.getInput())
			c.renderStatusLine()
		}
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulseForward()
	case 's', 'S':
		c.pulseBackward()
	case 'a', 'A':
		c.pulseLeft()
	case 'd', 'D':
		c.pulseRight()
	case ' ':
		c.toggle(func(in *body.InputState) { in.Jump = !in.Jump })
	case '[':
		c.toggleSneak()
	case ']':
		c.toggleSprint()
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.adjustYaw(-yawStep)
		case 'C': // right
			c.adjustYaw(yawStep)
		}
	}
	c.body.SetInput(c.getInput())
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	c.print("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		c.print("\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		c.print("\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s \r:%s", buf, buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		s := c.body.Snapshot()
		c.printf("[debug] %s (%s) tick=%d pos=(%.3f,%.3f,%.3f) vel=(%.3f,%.3f,%.3f) ground=%t stepping=%t\r\n",
			s.Name, s.Variant, s.Tick,
			s.Position.X(), s.Position.Y(), s.Position.Z(),
			s.Velocity.X(), s.Velocity.Y(), s.Velocity.Z(),
			s.OnGround, s.Stepping,
		)
	case "tp":
		pos, ok := parseVec3(parts[1:])
		if !ok {
			c.print("[debug] usage: :tp <x> <y> <z>\r\n")
			return
		}
		c.body.Warp(pos)
		c.printf("[debug] warp queued to (%.3f, %.3f, %.3f)\r\n", pos.X(), pos.Y(), pos.Z())
	case "look":
		pos, ok := parseVec3(parts[1:])
		if !ok {
			c.print("[debug] usage: :look <x> <y> <z>\r\n")
			return
		}
		c.lookAt(pos)
		c.printf("[debug] look at (%.3f, %.3f, %.3f)\r\n", pos.X(), pos.Y(), pos.Z())
	case "reset":
		c.clearInput()
		c.body.Reset()
		c.print("[debug] controller reset queued\r\n")
	case "quit", "q":
		c.print("[debug] quitting\r\n")
		if c.quit != nil {
			c.quit()
		}
	default:
		c.printf("[debug] unknown command: %s\r\n", parts[0])
	}
}

func parseVec3(args []string) (mgl64.Vec3, bool) {
	if len(args) != 3 {
		return mgl64.Vec3{}, false
	}
	var v mgl64.Vec3
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return mgl64.Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

// lookAt turns the yaw towards target. Only the horizontal direction matters.
func (c *Console) lookAt(target mgl64.Vec3) {
	d := target.Sub(c.body.Snapshot().Position)
	if d.X() == 0 && d.Z() == 0 {
		return
	}
	yaw := mgl64.RadToDeg(math.Atan2(-d.X(), d.Z()))

	c.mu.Lock()
	c.currentInput.Yaw = normalizeYaw(yaw)
	c.mu.Unlock()
}

func (c *Console) printHelp() {
	c.print("[debug] keys:\r\n")
	c.print("  W/S/A/D: pulse movement (~180ms)\r\n")
	c.print("  Space: toggle jump\r\n")
	c.print("  [: toggle sneak\r\n")
	c.print("  ]: toggle sprint\r\n")
	c.print("  Arrow Left/Right: yaw +/-5\r\n")
	c.print("  X: clear all input\r\n")
	c.print("  : enter command mode\r\n")
	c.print("[debug] commands:\r\n")
	c.print("  :tp <x> <y> <z>\r\n")
	c.print("  :look <x> <y> <z>\r\n")
	c.print("  :state\r\n")
	c.print("  :reset\r\n")
	c.print("  :quit\r\n")
	c.print("  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	input := c.currentInput
	width := c.statusWidth
	c.mu.Unlock()

	s := c.body.Snapshot()

	line := fmt.Sprintf(
		"[FWD:%s SPR:%s SNK:%s JMP:%s | YAW:%.1f | X:%.2f Y:%.2f Z:%.2f ground:%t step:%t]",
		boolLabel(input.Forward),
		boolLabel(input.Sprint),
		boolLabel(input.Sneak),
		boolLabel(input.Jump),
		input.Yaw,
		s.Position.X(),
		s.Position.Y(),
		s.Position.Z(),
		s.OnGround,
		s.Stepping,
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	c.printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) print(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...))
}

func (c *Console) toggle(update func(*body.InputState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.currentInput)
}

func (c *Console) adjustYaw(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Yaw = normalizeYaw(c.currentInput.Yaw + delta)
}

func (c *Console) getInput() body.InputState {
	c.mu.Lock()
	c.applyMovementPulseLocked(time.Now())
	defer c.mu.Unlock()
	return c.currentInput
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func normalizeYaw(yaw float64) float64 {
	for yaw <= -180 {
		yaw += 360
	}
	for yaw > 180 {
		yaw -= 360
	}
	return yaw
}

func (c *Console) pulseForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Forward = true
	c.forwardUntil = now.Add(c.movePulse)
	c.currentInput.Backward = false
	c.backwardUntil = time.Time{}
}

func (c *Console) pulseBackward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Backward = true
	c.backwardUntil = now.Add(c.movePulse)
	c.currentInput.Forward = false
	c.forwardUntil = time.Time{}
}

func (c *Console) pulseLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Left = true
	c.leftUntil = now.Add(c.movePulse)
	c.currentInput.Right = false
	c.rightUntil = time.Time{}
}

func (c *Console) pulseRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.currentInput.Right = true
	c.rightUntil = now.Add(c.movePulse)
	c.currentInput.Left = false
	c.leftUntil = time.Time{}
}

func (c *Console) applyMovementPulseLocked(now time.Time) {
	if !c.forwardUntil.IsZero() && !now.Before(c.forwardUntil) {
		c.currentInput.Forward = false
		c.forwardUntil = time.Time{}
	}
	if !c.backwardUntil.IsZero() && !now.Before(c.backwardUntil) {
		c.currentInput.Backward = false
		c.backwardUntil = time.Time{}
	}
	if !c.leftUntil.IsZero() && !now.Before(c.leftUntil) {
		c.currentInput.Left = false
		c.leftUntil = time.Time{}
	}
	if !c.rightUntil.IsZero() && !now.Before(c.rightUntil) {
		c.currentInput.Right = false
		c.rightUntil = time.Time{}
	}
}

func (c *Console) toggleSneak() {
	c.mu.Lock()
	c.currentInput.Sneak = !c.currentInput.Sneak
	if c.currentInput.Sneak {
		c.currentInput.Sprint = false
	}
	enabled := c.currentInput.Sneak
	c.mu.Unlock()
	slog.Debug("debug sneak toggled", "enabled", enabled)
}

func (c *Console) toggleSprint() {
	c.mu.Lock()
	c.currentInput.Sprint = !c.currentInput.Sprint
	if c.currentInput.Sprint {
		c.currentInput.Sneak = false
	}
	enabled := c.currentInput.Sprint
	c.mu.Unlock()
	slog.Debug("debug sprint toggled", "enabled", enabled)
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.currentInput = body.InputState{Yaw: c.currentInput.Yaw}
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
	c.mu.Unlock()
}
