package graphics

import (
	"testing"

	"github.com/junsooki/cellframe/internal/dimensions"
)

func flatFrame(r, g, b uint8) *Frame {
	meta := dimensions.FrameMeta{SubWidth: 2, SubHeight: 2, TotalWidth: 2, TotalHeight: 2}
	return &Frame{Meta: meta, Colours: Colours{r, g, b, r, g, b, r, g, b, r, g, b}}
}

func TestChangeDetector(t *testing.T) {
	moved := flatFrame(0, 0, 255)
	moved.Meta.SubLeft = 1

	d := NewChangeDetector()
	steps := []struct {
		name   string
		frame  *Frame
		commit bool
		want   bool
	}{
		{name: "first", frame: flatFrame(255, 0, 0), want: true},
		{name: "not committed yet", frame: flatFrame(255, 0, 0), commit: true, want: true},
		{name: "same", frame: flatFrame(255, 0, 0), want: false},
		{name: "flat colour change", frame: flatFrame(0, 0, 255), commit: true, want: true},
		{name: "same again", frame: flatFrame(0, 0, 255), want: false},
		{name: "one channel off", frame: flatFrame(0, 1, 255), want: true},
		{name: "region moved", frame: moved, want: true},
	}
	for _, step := range steps {
		fp := d.Fingerprint(step.frame)
		if got := d.Changed(fp); got != step.want {
			t.Errorf("%s: Changed = %v, want %v", step.name, got, step.want)
		}
		if step.commit {
			d.Commit(fp)
		}
	}
}
