// Package snapshot saves and restores tusl VM images: the dictionary and
// data space of a VM, CBOR-encoded. Host words (primitives and natives)
// are recorded by name only; a VM restoring an image must have installed
// the same host words in the same order.
package snapshot

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tusl/vm"
)

var log = commonlog.GetLogger("tusl.snapshot")

// Version is the image format version written by Capture.
const Version = 1

// Image is a serializable copy of a VM's dictionary and data space.
type Image struct {
	ID       string       `cbor:"1,keyasint"`
	Version  int          `cbor:"2,keyasint"`
	Words    []WordRecord `cbor:"3,keyasint"`
	Here     int32        `cbor:"4,keyasint"`
	There    int32        `cbor:"5,keyasint"`
	Data     []byte       `cbor:"6,keyasint"`
	Checksum [32]byte     `cbor:"7,keyasint"` // sha256 of Data
}

// WordRecord is one dictionary entry. Place is kept for definitions so
// that tools can still find their source.
type WordRecord struct {
	Name   string `cbor:"1,keyasint"`
	Kind   uint8  `cbor:"2,keyasint"`
	Datum  int32  `cbor:"3,keyasint"`
	File   string `cbor:"4,keyasint,omitempty"`
	Line   int    `cbor:"5,keyasint,omitempty"`
	Column int    `cbor:"6,keyasint,omitempty"`
}

// Capture records the state of v in a new image.
func Capture(v *vm.VM) *Image {
	st := v.State()
	img := &Image{
		ID:       uuid.New().String(),
		Version:  Version,
		Words:    make([]WordRecord, len(st.Words)),
		Here:     int32(st.Here),
		There:    int32(st.There),
		Data:     st.Data,
		Checksum: sha256.Sum256(st.Data),
	}
	for i, w := range st.Words {
		img.Words[i] = WordRecord{
			Name:   w.Name,
			Kind:   uint8(w.Kind),
			Datum:  int32(w.Datum),
			File:   w.Place.Filename,
			Line:   w.Place.Line,
			Column: w.Place.Column,
		}
	}
	return img
}

// Verify checks the image's version and checksum.
func (img *Image) Verify() error {
	if img.Version != Version {
		return fmt.Errorf("snapshot: unsupported image version %d", img.Version)
	}
	if sha256.Sum256(img.Data) != img.Checksum {
		return fmt.Errorf("snapshot: image %s is corrupt: checksum mismatch", img.ID)
	}
	return nil
}

// Apply replaces the dictionary and data space of v with the image's.
func Apply(v *vm.VM, img *Image) error {
	if err := img.Verify(); err != nil {
		return err
	}
	st := vm.State{
		Words: make([]vm.Word, len(img.Words)),
		Here:  vm.Cell(img.Here),
		There: vm.Cell(img.There),
		Data:  img.Data,
	}
	for i, r := range img.Words {
		st.Words[i] = vm.Word{
			Name:  r.Name,
			Kind:  vm.Kind(r.Kind),
			Datum: vm.Cell(r.Datum),
			Place: vm.Place{Filename: r.File, Line: r.Line, Column: r.Column},
		}
	}
	if err := v.Restore(st); err != nil {
		return fmt.Errorf("snapshot: image %s: %w", img.ID, err)
	}
	log.Infof("applied image %s (%d words)", img.ID, len(img.Words))
	return nil
}
