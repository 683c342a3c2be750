package drone

import (
	"strconv"
	"strings"
)

// Verb is one of the scripted command words.
type Verb string

// Recognised verbs.
const (
	MoveLeft       Verb = "MoveLeft"
	MoveRight      Verb = "MoveRight"
	MoveUp         Verb = "MoveUp"
	MoveDown       Verb = "MoveDown"
	MoveForward    Verb = "MoveForward"
	MoveBackward   Verb = "MoveBackward"
	TurnRight      Verb = "TurnRight"
	TurnLeft       Verb = "TurnLeft"
	RotateForward  Verb = "RotateForward"
	RotateBackward Verb = "RotateBackward"
)

// Verbs lists every recognised verb in declaration order.
var Verbs = []Verb{
	MoveLeft, MoveRight, MoveUp, MoveDown, MoveForward, MoveBackward,
	TurnRight, TurnLeft, RotateForward, RotateBackward,
}

// IsMovement reports whether v translates the drone.
func (v Verb) IsMovement() bool {
	switch v {
	case MoveLeft, MoveRight, MoveUp, MoveDown, MoveForward, MoveBackward:
		return true
	}
	return false
}

// IsTurn reports whether v rotates the drone around its yaw axis.
func (v Verb) IsTurn() bool {
	return v == TurnRight || v == TurnLeft
}

// IsRotate reports whether v rotates the drone around its pitch axis.
func (v Verb) IsRotate() bool {
	return v == RotateForward || v == RotateBackward
}

// Valid reports whether v is one of the recognised verbs.
func (v Verb) Valid() bool {
	return v.IsMovement() || v.IsTurn() || v.IsRotate()
}

// Command is a parsed "<verb> <duration>" line. Duration is seconds for
// movement verbs and degrees for turn and rotate verbs.
type Command struct {
	Verb     Verb    `json:"verb"`
	Duration float64 `json:"duration"`
}

// String renders the command in channel syntax.
func (c Command) String() string {
	return string(c.Verb) + " " + strconv.FormatFloat(c.Duration, 'f', -1, 64)
}

// ParseCommand splits text on its first space into a verb and a value. The
// value is parsed permissively: its numeric prefix is used ("2.5s" is 2.5) and
// a value without one yields 0. ok is false when the verb is not recognised,
// when there is no space, or when the value has no numeric prefix; the
// returned Command still carries whatever was parsed.
func ParseCommand(text string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	verb, value, found := strings.Cut(text, " ")
	if !found {
		return Command{Verb: Verb(text)}, false
	}

	duration, numeric := parseLeadingFloat(value)
	cmd = Command{
		Verb:     Verb(verb),
		Duration: duration,
	}
	return cmd, numeric && cmd.Verb.Valid()
}

// parseLeadingFloat parses the longest numeric prefix of s, ignoring leading
// blanks. It returns 0, false when there is none.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	end := i

	// Optional exponent, only taken when complete.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
