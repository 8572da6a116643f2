//go:build !nogpu

package native

import (
	speedy "github.com/balarayen/speedy-vision"
	"github.com/balarayen/speedy-vision/backend"
)

func init() {
	backend.Register(backend.BackendNative, func() speedy.Encoder {
		enc, err := NewEncoder()
		if err != nil {
			speedy.Logger().Debug("native: GPU unavailable", "error", err)
			return nil
		}
		return enc
	})
}
