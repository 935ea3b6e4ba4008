package server

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/emrgen/studydoc/internal/tester"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	tester.Setup()
	code := m.Run()

	os.Exit(code)
}
