package graphics

import (
	"bytes"
	"sync"

	"github.com/corona10/goimagehash"

	"github.com/junsooki/cellframe/internal/dimensions"
)

// ChangeDetector remembers the last delivered frame so identical frames can
// be skipped. A difference hash rules out most changed frames cheaply; equal
// hashes are confirmed by comparing the colour bytes, since flat colour
// changes hash the same.
type ChangeDetector struct {
	mu   sync.Mutex
	last *Fingerprint
}

// Fingerprint identifies a frame's content.
type Fingerprint struct {
	hash    *goimagehash.ImageHash
	meta    dimensions.FrameMeta
	colours Colours
}

// NewChangeDetector returns a detector with no frame recorded.
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Fingerprint computes the fingerprint of f. A hash failure leaves only the
// exact comparison.
func (d *ChangeDetector) Fingerprint(f *Frame) *Fingerprint {
	fp := &Fingerprint{meta: f.Meta, colours: f.Colours}
	if hash, err := goimagehash.DifferenceHash(f.Image()); err == nil {
		fp.hash = hash
	}
	return fp
}

// Changed reports whether fp differs from the last committed fingerprint.
// Nothing is recorded; call Commit once the frame has been delivered.
func (d *ChangeDetector) Changed(fp *Fingerprint) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last := d.last
	if last == nil || last.meta != fp.meta {
		return true
	}
	if last.hash != nil && fp.hash != nil {
		if dist, err := last.hash.Distance(fp.hash); err != nil || dist > 0 {
			return true
		}
	}
	return !bytes.Equal(last.colours, fp.colours)
}

// Commit records fp as the last delivered frame.
func (d *ChangeDetector) Commit(fp *Fingerprint) {
	d.mu.Lock()
	d.last = fp
	d.mu.Unlock()
}
