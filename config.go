package cfdg

import (
	"slices"
	"strings"
)

// Configuration parameters a grammar may set with CF::Name = value.
const (
	ConfigAllowOverlap  = "CF::AllowOverlap"
	ConfigAlpha         = "CF::Alpha"
	ConfigBackground    = "CF::Background"
	ConfigBorderDynamic = "CF::BorderDynamic"
	ConfigBorderFixed   = "CF::BorderFixed"
	ConfigColorDepth    = "CF::ColorDepth"
	ConfigFrameTime     = "CF::FrameTime"
	ConfigFrieze        = "CF::Frieze"
	ConfigImpure        = "CF::Impure"
	ConfigMaxNatural    = "CF::MaxNatural"
	ConfigMaxShapes     = "CF::MaxShapes"
	ConfigMinimumSize   = "CF::MinimumSize"
	ConfigSize          = "CF::Size"
	ConfigStartShape    = "CF::StartShape"
	ConfigSymmetry      = "CF::Symmetry"
	ConfigTile          = "CF::Tile"
	ConfigTime          = "CF::Time"
)

var configNames = []string{
	ConfigAllowOverlap, ConfigAlpha, ConfigBackground, ConfigBorderDynamic,
	ConfigBorderFixed, ConfigColorDepth, ConfigFrameTime, ConfigFrieze,
	ConfigImpure, ConfigMaxNatural, ConfigMaxShapes, ConfigMinimumSize,
	ConfigSize, ConfigStartShape, ConfigSymmetry, ConfigTile, ConfigTime,
}

func isConfigName(name string) bool {
	return slices.Contains(configNames, name)
}

// configType is the value type each parameter takes.
func configType(name string) ExprType {
	switch name {
	case ConfigBackground, ConfigTile, ConfigSize, ConfigTime, ConfigFrieze:
		return ModType
	case ConfigStartShape:
		return RuleType
	}
	return NumericType
}

// checkConfig validates the type of a configuration value.
func (b *Builder) checkConfig(name string, def *configDef) {
	v := def.Value
	if v.Type() == NoType {
		return
	}
	want := configType(name)
	if v.Type()&want == 0 {
		b.errorf(def.Span, "%s must be %s, not %s", name, want, v.Type())
		return
	}
	switch name {
	case ConfigSymmetry:
		b.g.symmetryFlags = flagSlots(v, nil)
	case ConfigStartShape, ConfigBackground, ConfigTile, ConfigSize, ConfigTime, ConfigFrieze:
	default:
		if v.Size() != 1 {
			b.errorf(def.Span, "%s must be a single number", name)
		}
	}
}

// flagSlots records, per numeric slot of e, whether the slot holds a CF::
// flag constant. It must run before constant folding erases the flags.
func flagSlots(e Expr, out []bool) []bool {
	if t, ok := e.(*Tuple); ok {
		for _, el := range t.Elems {
			out = flagSlots(el, out)
		}
		return out
	}
	for i := 0; i < e.Size(); i++ {
		out = append(out, i == 0 && e.Type()&FlagType != 0)
	}
	return out
}

// flagConstants are the CF:: names that stand for numbers.
var flagConstants = map[string]float64{
	"CF::MiterJoin":  JoinMiter,
	"CF::RoundJoin":  JoinRound,
	"CF::BevelJoin":  JoinBevel,
	"CF::ButtCap":    CapButt,
	"CF::RoundCap":   CapRound,
	"CF::SquareCap":  CapSquare,
	"CF::ArcCW":      ArcCW,
	"CF::ArcLarge":   ArcLarge,
	"CF::Continuous": Continuous,
	"CF::Align":      Align,
	"CF::EvenOdd":    EvenOdd,
	"CF::IsoWidth":   IsoWidth,
}

// flagConstant returns the value of a CF:: constant: a path flag, a blend
// mode or a symmetry group.
func flagConstant(name string) (float64, bool) {
	if !strings.HasPrefix(name, "CF::") {
		return 0, false
	}
	if v, ok := flagConstants[name]; ok {
		return v, true
	}
	if k, ok := symmetryNames[name]; ok {
		return float64(k), true
	}
	short := strings.TrimPrefix(name, "CF::")
	for i, n := range blendNames {
		if n == short {
			return float64(i), true
		}
	}
	return 0, false
}
