// Package providers contains dependency injection providers for the ReadAloud server.
package providers

import "time"

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second
