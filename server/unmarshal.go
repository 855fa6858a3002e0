package server

import (
	"errors"
	"fmt"
	"strconv"
)

var errPointsFormat = errors.New("invalid points format")

// parsePoints appends the [lat, lon] pairs of a JSON array to dst.
func parsePoints(data []byte, dst [][2]float64) ([][2]float64, error) {
	p := pointsParser{data: data}

	p.skipSpace()
	if !p.consume('[') {
		return dst, p.errorf("expected '['")
	}
	p.skipSpace()
	if p.consume(']') {
		return dst, p.end()
	}

	for {
		var point [2]float64

		p.skipSpace()
		if !p.consume('[') {
			return dst, p.errorf("expected '[' for point")
		}
		for j := range point {
			p.skipSpace()
			v, err := p.number()
			if err != nil {
				return dst, err
			}
			point[j] = v
			p.skipSpace()
			if j == 0 && !p.consume(',') {
				return dst, p.errorf("expected ',' between coordinates")
			}
		}
		if !p.consume(']') {
			return dst, p.errorf("expected ']' at end of point")
		}
		dst = append(dst, point)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(']') {
			return dst, p.end()
		}
		return dst, p.errorf("expected ',' or ']'")
	}
}

type pointsParser struct {
	data []byte
	i    int
}

func (p *pointsParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", errPointsFormat, p.i, fmt.Sprintf(format, args...))
}

func (p *pointsParser) skipSpace() {
	for p.i < len(p.data) {
		switch p.data[p.i] {
		case ' ', '\n', '\t', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *pointsParser) consume(c byte) bool {
	if p.i < len(p.data) && p.data[p.i] == c {
		p.i++
		return true
	}
	return false
}

func (p *pointsParser) end() error {
	p.skipSpace()
	if p.i != len(p.data) {
		return p.errorf("unexpected data after points")
	}
	return nil
}

func (p *pointsParser) number() (float64, error) {
	start := p.i
	for p.i < len(p.data) && isNumberByte(p.data[p.i]) {
		p.i++
	}
	text := p.data[start:p.i]
	if !isJSONNumber(text) {
		return 0, p.errorf("invalid number %q", text)
	}
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return 0, p.errorf("invalid number: %v", err)
	}
	return v, nil
}

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isJSONNumber(b []byte) bool {
	i := 0
	if i < len(b) && b[i] == '-' {
		i++
	}

	switch {
	case i < len(b) && b[i] == '0':
		i++
	case i < len(b) && isDigit(b[i]):
		for i < len(b) && isDigit(b[i]) {
			i++
		}
	default:
		return false
	}

	if i < len(b) && b[i] == '.' {
		i++
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false
		}
	}

	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		start := i
		for i < len(b) && isDigit(b[i]) {
			i++
		}
		if i == start {
			return false
		}
	}

	return i == len(b)
}
