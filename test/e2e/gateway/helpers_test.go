//go:build e2e

package gateway_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/faithlink360/gateway/pkg/faithlinksdk"
)

/*
 * Container setup for the gateway end-to-end tests.
 * Run with: go test -tags=e2e ./test/e2e/...
 */

const (
	testImageName = "faithlink-gateway-test:latest"
	testSecret    = "e2e-secret-0123456789abcdef0123456789"
	testPassword  = "s3cret-pass"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building gateway Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up gateway Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/faithlink/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

type gateway struct {
	container testcontainers.Container
	baseURL   string
}

// startGateway runs one gateway container. extraEnv overrides the defaults;
// networks attaches it to docker networks created by the caller.
func startGateway(t *testing.T, extraEnv map[string]string, networks ...string) *gateway {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"ENV":        "test",
		"JWT_SECRET": testSecret,
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			Networks:     networks,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	return &gateway{container: container, baseURL: fmt.Sprintf("http://%s:%s", host, port.Port())}
}

// addUser seeds a member through the CLI inside the container.
func (g *gateway) addUser(t *testing.T, email, role, church string) {
	t.Helper()
	code, _, err := g.container.Exec(context.Background(), []string{
		"faithlink", "user", "add",
		"--email", email,
		"--password", testPassword,
		"--role", role,
		"--church", church,
	})
	require.NoError(t, err)
	require.Zero(t, code, "user add %s", email)
}

func (g *gateway) client() *faithlinksdk.SDKClient {
	return faithlinksdk.NewSDKClient(g.baseURL)
}

// startRedis runs Redis on a fresh network reachable as "redis".
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nw.Remove(context.Background()) })

	name := nw.Name

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "redis:7-alpine",
			Networks:       []string{name},
			NetworkAliases: map[string][]string{name: {"redis"}},
			WaitingFor:     wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(context.Background()) })

	return name
}
