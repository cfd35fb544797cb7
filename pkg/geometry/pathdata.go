package geometry

import (
	"strconv"
	"strings"

	"seehuhn.de/go/geom/rect"
)

// pathDataBox computes the bounding box of an SVG path "d" attribute. Curve
// control points are included, which yields the convex-hull box; for the
// freehand stroke data the reader produces, control points sit on or next to
// the stroke, so the hull box is the box that matters for cropping.
func pathDataBox(d string) (rect.Rect, bool) {
	s := &pathScanner{data: d}
	acc := newBoxAccumulator()

	var cmd byte
	var curX, curY float64
	var startX, startY float64

	for {
		c, ok := s.nextCommand()
		if ok {
			cmd = c
		} else if s.done() {
			break
		} else if cmd == 0 {
			// Number with no command to consume it; stop at what we have.
			return acc.box()
		}

		relative := cmd >= 'a' && cmd <= 'z'
		switch cmd {
		case 'M', 'm':
			x, y, ok := s.pair()
			if !ok {
				return acc.box()
			}
			if relative {
				x += curX
				y += curY
			}
			curX, curY = x, y
			startX, startY = x, y
			acc.add(curX, curY)
			// Subsequent coordinate pairs are implicit linetos.
			if relative {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			x, y, ok := s.pair()
			if !ok {
				return acc.box()
			}
			if relative {
				x += curX
				y += curY
			}
			curX, curY = x, y
			acc.add(curX, curY)
		case 'H', 'h':
			x, ok := s.number()
			if !ok {
				return acc.box()
			}
			if relative {
				x += curX
			}
			curX = x
			acc.add(curX, curY)
		case 'V', 'v':
			y, ok := s.number()
			if !ok {
				return acc.box()
			}
			if relative {
				y += curY
			}
			curY = y
			acc.add(curX, curY)
		case 'C', 'c':
			if !s.curvePoints(acc, &curX, &curY, relative, 3) {
				return acc.box()
			}
		case 'S', 's', 'Q', 'q':
			if !s.curvePoints(acc, &curX, &curY, relative, 2) {
				return acc.box()
			}
		case 'T', 't':
			if !s.curvePoints(acc, &curX, &curY, relative, 1) {
				return acc.box()
			}
		case 'A', 'a':
			// rx ry x-axis-rotation large-arc-flag sweep-flag x y; only the
			// endpoint contributes to the hull box.
			for i := 0; i < 5; i++ {
				if _, ok := s.number(); !ok {
					return acc.box()
				}
			}
			x, y, ok := s.pair()
			if !ok {
				return acc.box()
			}
			if relative {
				x += curX
				y += curY
			}
			curX, curY = x, y
			acc.add(curX, curY)
		case 'Z', 'z':
			curX, curY = startX, startY
			cmd = 0
		default:
			return acc.box()
		}
	}

	return acc.box()
}

// curvePoints consumes pairs-per-segment coordinate pairs, folding every
// point (control and end) into the accumulator.
func (s *pathScanner) curvePoints(acc *boxAccumulator, curX, curY *float64, relative bool, pairs int) bool {
	var lastX, lastY float64
	for i := 0; i < pairs; i++ {
		x, y, ok := s.pair()
		if !ok {
			return false
		}
		if relative {
			x += *curX
			y += *curY
		}
		acc.add(x, y)
		lastX, lastY = x, y
	}
	*curX, *curY = lastX, lastY
	return true
}

// pathScanner tokenizes SVG path data: commands are single letters, numbers
// are separated by whitespace, commas, or sign characters.
type pathScanner struct {
	data string
	pos  int
}

func (s *pathScanner) done() bool {
	s.skipSeparators()
	return s.pos >= len(s.data)
}

func (s *pathScanner) skipSeparators() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			s.pos++
			continue
		}
		break
	}
}

func (s *pathScanner) nextCommand() (byte, bool) {
	s.skipSeparators()
	if s.pos >= len(s.data) {
		return 0, false
	}
	c := s.data[s.pos]
	if (c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') && c != 'e' && c != 'E' {
		s.pos++
		return c, true
	}
	return 0, false
}

func (s *pathScanner) number() (float64, bool) {
	s.skipSeparators()
	start := s.pos
	if s.pos < len(s.data) && (s.data[s.pos] == '+' || s.data[s.pos] == '-') {
		s.pos++
	}
	seenDot := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			s.pos++
			continue
		}
		if (c == 'e' || c == 'E') && s.pos > start {
			// Exponent: consume sign and digits.
			s.pos++
			if s.pos < len(s.data) && (s.data[s.pos] == '+' || s.data[s.pos] == '-') {
				s.pos++
			}
			for s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
				s.pos++
			}
		}
		break
	}
	if s.pos == start {
		return 0, false
	}
	v, err := strconv.ParseFloat(s.data[start:s.pos], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *pathScanner) pair() (float64, float64, bool) {
	x, ok := s.number()
	if !ok {
		return 0, 0, false
	}
	y, ok := s.number()
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

func parseCoord(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
