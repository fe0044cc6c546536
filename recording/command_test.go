package recording

import (
	"testing"
)

func TestCommandType_String(t *testing.T) {
	tests := []struct {
		ct   CommandType
		want string
	}{
		{CmdStart, "Start"},
		{CmdClear, "Clear"},
		{CmdEnd, "End"},
		{CmdPrimitive, "Primitive"},
		{CmdPath, "Path"},
		{CmdRect, "Rect"},
		{CommandType(254), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ct.String(); got != tt.want {
				t.Errorf("CommandType.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandInterface(t *testing.T) {
	tests := []struct {
		cmd  Command
		want CommandType
	}{
		{StartCommand{Width: 10, Height: 10}, CmdStart},
		{ClearCommand{}, CmdClear},
		{EndCommand{}, CmdEnd},
		{PrimitiveCommand{}, CmdPrimitive},
		{PathCommand{}, CmdPath},
		{RectCommand{}, CmdRect},
	}
	for _, tt := range tests {
		if got := tt.cmd.Type(); got != tt.want {
			t.Errorf("%T.Type() = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestPathRef_IsValid(t *testing.T) {
	if !PathRef(0).IsValid() {
		t.Error("PathRef(0).IsValid() = false, want true")
	}
	if PathRef(InvalidRef).IsValid() {
		t.Error("PathRef(InvalidRef).IsValid() = true, want false")
	}
}
