package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevelEnvName enables test logging at the given logrus level, for
// example TEST_LOG_LEVEL=debug.
const LogLevelEnvName = "TEST_LOG_LEVEL"

func init() {
	level, err := logrus.ParseLevel(os.Getenv(LogLevelEnvName))
	if err != nil {
		logrus.StandardLogger().Out = io.Discard
		return
	}

	logrus.SetLevel(level)
}
