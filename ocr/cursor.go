package ocr

import (
	"fmt"
	"strings"
)

// Position is the index triple addressing one character of a Result.
type Position struct {
	Block int `json:"block" yaml:"block"`
	Line  int `json:"line" yaml:"line"`
	Char  int `json:"char" yaml:"char"`
}

func (p Position) String() string {
	return fmt.Sprintf("block %d, line %d, char %d", p.Block, p.Line, p.Char)
}

// Cursor is a forward-only position over a Result in reading order (block,
// then line, then character). It is a value: assigning a Cursor copies the
// position, and the copy can be advanced without affecting the original. The
// underlying Result is shared and must not be mutated.
//
// Empty blocks and lines are skipped, so a valid cursor always addresses a
// real character.
type Cursor struct {
	result *Result
	pos    Position
}

// NewCursor returns a cursor on the first character of r. It fails with
// ErrEmptyResult when r is nil or holds no characters.
func NewCursor(r *Result) (Cursor, error) {
	if r == nil {
		return Cursor{}, ErrEmptyResult
	}
	b, l, ok := nextLine(r, 0, 0)
	if !ok {
		return Cursor{}, ErrEmptyResult
	}
	return Cursor{result: r, pos: Position{Block: b, Line: l}}, nil
}

// Clone returns an independent cursor at the same position.
func (c Cursor) Clone() Cursor { return c }

// Result returns the result the cursor walks.
func (c Cursor) Result() *Result { return c.result }

// Position returns the current index triple.
func (c Cursor) Position() Position { return c.pos }

// Valid reports whether the cursor addresses a character. Only cursors
// obtained from NewCursor (or copies of them) are valid.
func (c Cursor) Valid() bool {
	if c.result == nil || c.pos.Block < 0 || c.pos.Block >= len(c.result.Blocks) {
		return false
	}
	lines := c.result.Blocks[c.pos.Block].Lines
	if c.pos.Line < 0 || c.pos.Line >= len(lines) {
		return false
	}
	return c.pos.Char >= 0 && c.pos.Char < len(lines[c.pos.Line].Chars)
}

// Current returns the character under the cursor. It panics on a cursor that
// is not Valid.
func (c Cursor) Current() CharWithVariants {
	return c.result.Blocks[c.pos.Block].Lines[c.pos.Line].Chars[c.pos.Char]
}

// HasNext reports whether at least one more character follows the current
// one.
func (c Cursor) HasNext() bool {
	_, _, ok := c.next()
	return ok
}

// Advance moves to the next character and reports whether a line boundary was
// crossed. On the last character it returns ErrPastEnd and leaves the cursor
// where it is.
func (c *Cursor) Advance() (bool, error) {
	pos, crossed, ok := c.next()
	if !ok {
		return false, fmt.Errorf("advance from %s: %w", c.pos, ErrPastEnd)
	}
	c.pos = pos
	return crossed, nil
}

// Text concatenates the characters from the current position to the end of
// the result, writing one '\n' per crossed line boundary. The receiver is not
// moved, so calling Text twice yields the same string.
func (c Cursor) Text() string {
	if !c.Valid() {
		return ""
	}
	var sb strings.Builder
	for {
		sb.WriteRune(c.Current().Char.Value)
		crossed, err := c.Advance()
		if err != nil {
			break
		}
		if crossed {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (c Cursor) next() (Position, bool, bool) {
	if !c.Valid() {
		return Position{}, false, false
	}
	chars := c.result.Blocks[c.pos.Block].Lines[c.pos.Line].Chars
	if c.pos.Char+1 < len(chars) {
		return Position{Block: c.pos.Block, Line: c.pos.Line, Char: c.pos.Char + 1}, false, true
	}
	b, l, ok := nextLine(c.result, c.pos.Block, c.pos.Line+1)
	if !ok {
		return Position{}, false, false
	}
	return Position{Block: b, Line: l}, true, true
}

// nextLine returns the first non-empty line at or after (block, line).
func nextLine(r *Result, block, line int) (int, int, bool) {
	for ; block < len(r.Blocks); block, line = block+1, 0 {
		lines := r.Blocks[block].Lines
		for ; line < len(lines); line++ {
			if len(lines[line].Chars) > 0 {
				return block, line, true
			}
		}
	}
	return 0, 0, false
}
