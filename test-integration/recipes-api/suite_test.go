package integration

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/recipe-server/internal/logging"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
)

func TestRecipeAPIIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Recipe API Integration Suite")
}

var _ = BeforeSuite(func() {
	slog.SetDefault(slog.New(logging.NewHandler(
		logging.WithLevel(slog.LevelDebug),
		logging.WithOutput(GinkgoWriter),
	)))

	ctx, cancel = context.WithCancel(context.TODO())
})

var _ = AfterSuite(func() {
	cancel()
})
