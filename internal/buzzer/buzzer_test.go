package buzzer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeepWritesBell(t *testing.T) {
	var out bytes.Buffer
	b := &Buzzer{Out: &out}
	b.Beep("start")
	require.Equal(t, "\a", out.String())
}

func TestBeepSilentIsNoop(t *testing.T) {
	var out bytes.Buffer
	b := &Buzzer{Out: &out, Silent: true}
	b.Beep("start")
	require.Empty(t, out.String())
}

func TestBeepPerKindOverride(t *testing.T) {
	var out bytes.Buffer
	b := &Buzzer{Out: &out, Enabled: map[string]bool{"error": false}}

	b.Beep("error")
	require.Empty(t, out.String())

	b.Beep("success")
	require.Equal(t, "\a", out.String())
}

func TestBeepNilBuzzerIsNoop(t *testing.T) {
	var b *Buzzer
	require.NotPanics(t, func() { b.Beep("start") })
}
