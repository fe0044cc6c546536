package cfdg

// BlendMode selects how a shape composites onto the canvas.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendClear
	BlendSource
	BlendDestOver
	BlendSourceIn
	BlendDestIn
	BlendSourceOut
	BlendDestOut
	BlendSourceAtop
	BlendDestAtop
	BlendXor
	BlendPlus
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion

	blendModeCount
)

var blendNames = [blendModeCount]string{
	"Normal", "Clear", "Source", "DestOver", "SourceIn", "DestIn",
	"SourceOut", "DestOut", "SourceAtop", "DestAtop", "Xor", "Plus",
	"Multiply", "Screen", "Overlay", "Darken", "Lighten", "ColorDodge",
	"ColorBurn", "HardLight", "SoftLight", "Difference", "Exclusion",
}

func (m BlendMode) String() string {
	if m < blendModeCount {
		return blendNames[m]
	}
	return "Unknown"
}
