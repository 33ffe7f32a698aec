package pdf

import "go.uber.org/fx"

// Module provides the invoice renderer.
var Module = fx.Provide(fx.Annotate(NewRenderer, fx.As(new(Renderer))))
