// Package buzzer implements the deployment driver's beep side-channel
// (spec §4.7 steps 1/9/10): a terminal bell on start/success/error,
// silenceable globally via --no-beeps or per-kind via the user config's
// `beeps` map.
package buzzer

import "io"

// Buzzer emits a terminal bell for a named event kind ("start", "success",
// "error"), unless silenced.
type Buzzer struct {
	Out     io.Writer
	Silent  bool
	Enabled map[string]bool // per-kind override from user config's `beeps`; nil means all enabled
}

// Beep writes a bell character for kind, unless Silent is set or kind is
// explicitly disabled in Enabled.
func (b *Buzzer) Beep(kind string) {
	if b == nil || b.Silent || b.Out == nil {
		return
	}
	if b.Enabled != nil {
		if enabled, ok := b.Enabled[kind]; ok && !enabled {
			return
		}
	}
	_, _ = b.Out.Write([]byte{'\a'})
}
