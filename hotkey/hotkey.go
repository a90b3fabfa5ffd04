package hotkey

import (
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Action identifies which global chord fired.
type Action int

const (
	ActionCapture Action = iota
	ActionHide
	ActionShow
	ActionPanic
)

func (a Action) String() string {
	switch a {
	case ActionCapture:
		return "capture"
	case ActionHide:
		return "hide"
	case ActionShow:
		return "show"
	case ActionPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Binding ties one chord string like "ctrl+shift+x" to an action.
type Binding struct {
	Combo  string
	Action Action
}

// rawcodes maps normalized key names to Windows virtual key codes.
// Modifiers carry both left and right variants.
var rawcodes = map[string][]uint16{
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"cmd":   {91, 92},

	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		rawcodes[string(c)] = []uint16{uint16(c - 'a' + 65)} // VK 0x41-0x5A
	}
	for c := '0'; c <= '9'; c++ {
		rawcodes[string(c)] = []uint16{uint16(c)} // VK 0x30-0x39
	}
	// F1-F24 are VK 112-135.
	for i := 1; i <= 24; i++ {
		rawcodes[fkey(i)] = []uint16{uint16(111 + i)}
	}
}

func fkey(n int) string {
	if n >= 10 {
		return "f" + string(rune('0'+n/10)) + string(rune('0'+n%10))
	}
	return "f" + string(rune('0'+n))
}

// parseCombo splits a chord string into normalized key names.
func parseCombo(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "super":
			part = "cmd"
		case "escape":
			part = "esc"
		case "return":
			part = "enter"
		case "del":
			part = "delete"
		case "ins":
			part = "insert"
		case "pgup":
			part = "pageup"
		case "pgdn":
			part = "pagedown"
		}
		keys = append(keys, part)
	}
	return keys
}

type chordKey struct {
	name    string
	codes   []uint16
	pressed bool
}

type chord struct {
	combo  string
	action Action
	keys   []chordKey
}

func (c *chord) matches(code uint16) bool {
	for i := range c.keys {
		for _, rc := range c.keys[i].codes {
			if rc == code {
				return true
			}
		}
	}
	return false
}

func (c *chord) mark(code uint16, down bool) {
	for i := range c.keys {
		for _, rc := range c.keys[i].codes {
			if rc == code {
				c.keys[i].pressed = down
			}
		}
	}
}

func (c *chord) complete() bool {
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	return true
}

func (c *chord) reset() {
	for i := range c.keys {
		c.keys[i].pressed = false
	}
}

// compile builds chord trackers from bindings, skipping any combo
// with an unmappable key.
func compile(bindings []Binding) []*chord {
	var chords []*chord
	for _, b := range bindings {
		names := parseCombo(b.Combo)
		if len(names) == 0 {
			log.Printf("Hotkey: empty combo for action %s, skipping", b.Action)
			continue
		}
		ch := &chord{combo: b.Combo, action: b.Action}
		ok := true
		for _, name := range names {
			codes, found := rawcodes[name]
			if !found {
				log.Printf("Hotkey: unknown key %q in combo %q, skipping binding", name, b.Combo)
				ok = false
				break
			}
			ch.keys = append(ch.keys, chordKey{name: name, codes: codes})
		}
		if ok {
			chords = append(chords, ch)
		}
	}
	return chords
}

// Listen registers the global chords and invokes callback with the
// matched action on every detection. It runs the OS hook on its own
// goroutine and returns immediately.
func Listen(bindings []Binding, callback func(Action)) {
	chords := compile(bindings)
	if len(chords) == 0 {
		log.Printf("Hotkey: no valid bindings, listener not started")
		return
	}
	for _, ch := range chords {
		log.Printf("Hotkey registered: %s -> %s", ch.combo, ch.action)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}

		var mu sync.Mutex
		for ev := range evChan {
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			down := ev.Kind == gohook.KeyDown

			mu.Lock()
			var fired []Action
			for _, ch := range chords {
				if !ch.matches(ev.Rawcode) {
					continue
				}
				ch.mark(ev.Rawcode, down)
				if down && ch.complete() {
					log.Printf("Hotkey detected: %s", ch.combo)
					ch.reset()
					fired = append(fired, ch.action)
				}
			}
			mu.Unlock()

			for _, action := range fired {
				if callback != nil {
					callback(action)
				}
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}
