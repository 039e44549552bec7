package afero

import (
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

var fs = NewOsFs()

// Module makes the process-wide OS-backed filesystem available both as the
// standard spf13 afero.Fs and as this package's Fs alias.
var Module fx.Option = fx.Provide(
	func() Fs { return fs },
	func() afero.Fs { return fs },
)
