//go:build integration

package integration_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/agentx-labs/atm/internal/backend"
	"github.com/agentx-labs/atm/internal/workflow"
)

// testEnv holds isolated host paths for one test.
type testEnv struct {
	Paths workflow.Paths
}

// setupTestEnv creates isolated registry, install and staging locations so
// the tests never touch /etc/atm or /opt/atm.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	return &testEnv{Paths: workflow.Paths{
		RegistryFile: filepath.Join(root, "etc", "packages.toml"),
		InstallRoot:  filepath.Join(root, "opt"),
		StagingRoot:  filepath.Join(root, "tmp"),
	}}
}

func (e *testEnv) manager(t *testing.T) *workflow.Manager {
	return workflow.New(e.Paths, workflow.WithLogger(zaptest.NewLogger(t)))
}

// requireDocker skips the test when no engine answers.
func requireDocker(t *testing.T) *backend.Engine {
	t.Helper()
	engine, err := backend.NewEngine("", zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("docker client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.Ping(ctx); err != nil {
		engine.Close()
		t.Skipf("docker daemon unreachable: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}
