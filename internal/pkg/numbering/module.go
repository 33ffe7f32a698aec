package numbering

import "go.uber.org/fx"

// Module provides the invoice number generator.
var Module = fx.Provide(NewGenerator)
