package recording

import "github.com/gogpu/cfdg"

// CommandType identifies the type of a command.
// Each command type corresponds to one canvas operation.
type CommandType uint8

const (
	// Frame commands
	CmdStart CommandType = iota // Begin a frame
	CmdClear                    // Fill the surface with a color
	CmdEnd                      // Finish a frame

	// Drawing commands
	CmdPrimitive // Draw CIRCLE, SQUARE or TRIANGLE
	CmdPath      // Fill or stroke a path
	CmdRect      // Fill the unit square (FILL)
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdStart:     "Start",
	CmdClear:     "Clear",
	CmdEnd:       "End",
	CmdPrimitive: "Primitive",
	CmdPath:      "Path",
	CmdRect:      "Rect",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// PathRef is a reference to a path in the resource pool.
// The zero value is a valid reference to the first path (if any).
type PathRef uint32

// InvalidRef marks a reference that points at nothing.
const InvalidRef = ^uint32(0)

// IsValid returns true if the reference is valid (not InvalidRef).
func (r PathRef) IsValid() bool {
	return uint32(r) != InvalidRef
}

// StartCommand begins a frame.
type StartCommand struct {
	First         bool
	Background    cfdg.RGBA
	Width, Height int
}

// Type implements Command.
func (StartCommand) Type() CommandType { return CmdStart }

// ClearCommand fills the whole surface.
type ClearCommand struct {
	Color cfdg.RGBA
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// EndCommand finishes a frame.
type EndCommand struct{}

// Type implements Command.
func (EndCommand) Type() CommandType { return CmdEnd }

// PrimitiveCommand draws the unit outline of a primitive shape.
type PrimitiveCommand struct {
	Shape     int
	Color     cfdg.RGBA
	Transform cfdg.Matrix
	Blend     cfdg.BlendMode
}

// Type implements Command.
func (PrimitiveCommand) Type() CommandType { return CmdPrimitive }

// PathCommand fills or strokes a pooled path.
type PathCommand struct {
	Path      PathRef
	Color     cfdg.RGBA
	Transform cfdg.Matrix
	Attr      cfdg.PathAttr
	Blend     cfdg.BlendMode
}

// Type implements Command.
func (PathCommand) Type() CommandType { return CmdPath }

// RectCommand fills the unit square mapped by Transform.
type RectCommand struct {
	Color     cfdg.RGBA
	Transform cfdg.Matrix
	Blend     cfdg.BlendMode
}

// Type implements Command.
func (RectCommand) Type() CommandType { return CmdRect }
