package hybrid

import (
	"os"
	"testing"

	"github.com/medq/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("info", "console", "stdout"); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
