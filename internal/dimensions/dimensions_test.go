package dimensions

import "testing"

func TestNewCoversWholeSurface(t *testing.T) {
	d := New(Size{Width: 800, Height: 600}, Size{Width: 8, Height: 16})

	if d.DOM != (Rect{Width: 800, Height: 600}) {
		t.Fatalf("DOM = %+v, want whole surface", d.DOM)
	}
	// 800/8 = 100 cells wide, 600/(16/2) = 75 half-cells tall
	if d.Frame.Width != 100 || d.Frame.Height != 75 {
		t.Errorf("Frame = %+v, want 100x75", d.Frame)
	}
	if d.Scale.Width != 0.125 || d.Scale.Height != 0.125 {
		t.Errorf("Scale = %+v, want 0.125x0.125", d.Scale)
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name      string
		sub       Rect
		wantDOM   Rect
		wantFrame Rect
	}{
		{
			name:      "inner region",
			sub:       Rect{Top: 80, Left: 16, Width: 160, Height: 40},
			wantDOM:   Rect{Top: 80, Left: 16, Width: 160, Height: 40},
			wantFrame: Rect{Top: 10, Left: 2, Width: 20, Height: 5},
		},
		{
			name:      "clamped to surface",
			sub:       Rect{Top: 500, Left: 700, Width: 400, Height: 400},
			wantDOM:   Rect{Top: 500, Left: 700, Width: 100, Height: 100},
			wantFrame: Rect{Top: 62, Left: 87, Width: 12, Height: 12},
		},
		{
			name:    "scrolled out of view",
			sub:     Rect{Top: 900, Left: 0, Width: 800, Height: 600},
			wantDOM: Rect{Top: 900, Left: 0, Width: 800, Height: 0},
			wantFrame: Rect{
				Top: 112, Left: 0, Width: 100, Height: 0,
			},
		},
		{
			name:      "negative origin",
			sub:       Rect{Top: -10, Left: -8, Width: 24, Height: 26},
			wantDOM:   Rect{Top: 0, Left: 0, Width: 16, Height: 16},
			wantFrame: Rect{Width: 2, Height: 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := New(Size{Width: 800, Height: 600}, Size{Width: 8, Height: 16})
			d.Update(tc.sub)
			if d.DOM != tc.wantDOM {
				t.Errorf("DOM = %+v, want %+v", d.DOM, tc.wantDOM)
			}
			if d.Frame != tc.wantFrame {
				t.Errorf("Frame = %+v, want %+v", d.Frame, tc.wantFrame)
			}
		})
	}
}

func TestZeroAreaScaleFactor(t *testing.T) {
	d := New(Size{Width: 800, Height: 600}, Size{Width: 8, Height: 16})
	d.Update(Rect{Width: 0, Height: 10})

	if d.Scale.Width != 0 {
		t.Errorf("Scale.Width = %v, want 0 for empty axis", d.Scale.Width)
	}
	if d.Frame.Width != 0 {
		t.Errorf("Frame.Width = %d, want 0", d.Frame.Width)
	}
}

func TestFrameMeta(t *testing.T) {
	d := New(Size{Width: 800, Height: 600}, Size{Width: 8, Height: 16})
	d.Update(Rect{Top: 80, Left: 16, Width: 160, Height: 40})

	want := FrameMeta{
		SubLeft:     2,
		SubTop:      10,
		SubWidth:    20,
		SubHeight:   5,
		TotalWidth:  100,
		TotalHeight: 75,
	}
	if got := d.FrameMeta(); got != want {
		t.Errorf("FrameMeta() = %+v, want %+v", got, want)
	}
}

func TestRectEdges(t *testing.T) {
	r := Rect{Top: 3, Left: 4, Width: 10, Height: 20}
	if r.Right() != 14 {
		t.Errorf("Right() = %d, want 14", r.Right())
	}
	if r.Bottom() != 23 {
		t.Errorf("Bottom() = %d, want 23", r.Bottom())
	}
}
