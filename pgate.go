// Package pgate gates container startup on Postgres availability: it waits
// for the database to accept connections, runs a one-time initialization
// routine, then hands control to the container's final command.
package pgate

import (
	"github.com/streamingfast/logging"
)

var zlog, _ = logging.PackageLogger("pgate", "github.com/streamingfast/pgate")
