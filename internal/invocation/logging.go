package invocation

import "brane-view/internal/logger"

var log = logger.Named("invocation")
