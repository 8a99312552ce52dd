package tablefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tphakala/go-spectral-synth/internal/table"
)

// Write encodes t in the text format. Harmonic tables use Harmonic keys,
// IndexShifted tables use Frequency keys.
func Write(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)

	switch t.Variant {
	case table.Harmonic:
		fmt.Fprintln(bw, tagHarmonic)
	default:
		fmt.Fprintln(bw, tagCQT)
	}
	fmt.Fprintf(bw, "SampleRate=%s\n", formatFloat(t.Config.SampleRate))
	fmt.Fprintf(bw, "HopSize=%s\n", formatFloat(t.Config.HopSize))
	fmt.Fprintf(bw, "MidiNote=%d\n", t.MidiNote)
	if t.Variant == table.IndexShifted {
		fmt.Fprintf(bw, "BinsPerSemitone=%s\n", formatFloat(t.BinsPerSemitone))
	}

	buf := make([]byte, 0, 64)
	for i, b := range t.Bins {
		if t.Variant == table.Harmonic {
			fmt.Fprintf(bw, "Harmonic=%d\n", i+1)
		} else {
			fmt.Fprintf(bw, "Frequency=%s\n", formatFloat(b.Frequency))
		}
		bw.WriteString("Amplitudes=")
		for k, v := range b.Envelope {
			if k > 0 {
				bw.WriteByte(',')
			}
			buf = strconv.AppendFloat(buf[:0], float64(v), 'g', -1, 32)
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes t to path.
func WriteFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteInclude writes an include file listing paths.
func WriteInclude(w io.Writer, paths []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, tagInclude)
	for _, p := range paths {
		fmt.Fprintf(bw, "Include=%s\n", p)
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
