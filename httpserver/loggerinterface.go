package httpserver

import (
	"net/http"

	"github.com/tablekit/restaurant-directory/logger"
)

type Logger = logger.Logger

// HandleChainFunc wraps a handler with another - middleware chaining.
type HandleChainFunc = func(http.Handler) http.Handler
