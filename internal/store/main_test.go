package store

import (
	"os"
	"testing"

	"github.com/emrgen/studydoc/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()

	os.Exit(code)
}
