package graphics

import (
	"testing"

	"github.com/junsooki/cellframe/internal/transport"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"meta":{"sub_width":2,"sub_height":1,"id":1},"colours":[1,2,3,4,5,6]}`},
		{name: "short colours", payload: `{"meta":{"sub_width":2,"sub_height":1},"colours":[1,2,3]}`, wantErr: true},
		{name: "not json", payload: `frame`, wantErr: true},
		{name: "negative size", payload: `{"meta":{"sub_width":-1,"sub_height":1},"colours":[]}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFrame(tc.payload)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame: %v", err)
			}
			if f.Meta.ID != 1 || len(f.Colours) != 6 {
				t.Errorf("frame = %+v", f)
			}
		})
	}
}

func TestFrameHandler(t *testing.T) {
	var got []*Frame
	h := FrameHandler(func(f *Frame) { got = append(got, f) }, nil)

	h("log", "hello")
	h(transport.FrameTag, "{bad")
	h(transport.FrameTag, `{"meta":{"sub_width":1,"sub_height":1},"colours":[7,8,9]}`)

	if len(got) != 1 {
		t.Fatalf("handled %d frames, want 1", len(got))
	}
	if c := got[0].Image().RGBAAt(0, 0); c.R != 7 || c.G != 8 || c.B != 9 || c.A != 255 {
		t.Errorf("pixel = %v", c)
	}
}
