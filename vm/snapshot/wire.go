package snapshot

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/tusl/vm"
)

// cborEncMode uses canonical mode so that equal images encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes an Image to CBOR bytes.
func Encode(img *Image) ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// Decode deserializes an Image from CBOR bytes and verifies it.
func Decode(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal image: %w", err)
	}
	if err := img.Verify(); err != nil {
		return nil, err
	}
	return &img, nil
}

// Save writes an image of v to path.
func Save(v *vm.VM, path string) error {
	img := Capture(v)
	data, err := Encode(img)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Debugf("saved image %s to %s (%d bytes)", img.ID, path, len(data))
	return nil
}

// Load reads the image at path and applies it to v.
func Load(v *vm.VM, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return err
	}
	return Apply(v, img)
}
