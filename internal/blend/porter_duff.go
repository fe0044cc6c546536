package blend

// Porter-Duff operators on premultiplied colors.

func sourceOver(s, d Color) Color {
	k := 1 - s.A
	return Color{R: s.R + d.R*k, G: s.G + d.G*k, B: s.B + d.B*k, A: s.A + d.A*k}
}

func clearOp(_, _ Color) Color { return Color{} }

func source(s, _ Color) Color { return s }

func destOver(s, d Color) Color { return sourceOver(d, s) }

func sourceIn(s, d Color) Color { return s.Scale(d.A) }

func destIn(s, d Color) Color { return d.Scale(s.A) }

func sourceOut(s, d Color) Color { return s.Scale(1 - d.A) }

func destOut(s, d Color) Color { return d.Scale(1 - s.A) }

// S*Da + D*(1-Sa)
func sourceAtop(s, d Color) Color {
	return add(s.Scale(d.A), d.Scale(1-s.A))
}

// S*(1-Da) + D*Sa
func destAtop(s, d Color) Color {
	return add(s.Scale(1-d.A), d.Scale(s.A))
}

// S*(1-Da) + D*(1-Sa)
func xor(s, d Color) Color {
	return add(s.Scale(1-d.A), d.Scale(1-s.A))
}

func plus(s, d Color) Color {
	return Color{
		R: min(s.R+d.R, 1),
		G: min(s.G+d.G, 1),
		B: min(s.B+d.B, 1),
		A: min(s.A+d.A, 1),
	}
}

func add(a, b Color) Color {
	return Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B, A: a.A + b.A}
}
