package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rankparty/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "rankparty-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rankparty")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	server := &http.Server{
		Addr:    addr,
		Handler: app.Router(""),
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Connected bool   `json:"connected"`
}

type roomResponse struct {
	Code     string           `json:"code"`
	HostName string           `json:"host_name"`
	Phase    string           `json:"phase"`
	Players  []playerResponse `json:"players"`
}

type createResponse struct {
	RoomCode string       `json:"room_code"`
	Room     roomResponse `json:"room"`
}

type joinResponse struct {
	Room roomResponse `json:"room"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
	Connections int    `json:"connections"`
}

type frame struct {
	Type     string          `json:"type"`
	RoomCode string          `json:"room_code"`
	Payload  json.RawMessage `json:"payload"`
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	t.Run("health", func(t *testing.T) {
		out, err := cli.run("health")
		require.NoError(t, err, out)

		var resp healthResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
	})

	var code string

	t.Run("room create", func(t *testing.T) {
		out, err := cli.run("room", "create", "Ann")
		require.NoError(t, err, out)

		var resp createResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Len(t, resp.RoomCode, 6)
		assert.Equal(t, "Ann", resp.Room.HostName)
		assert.Equal(t, "lobby", resp.Room.Phase)
		code = resp.RoomCode
	})
	require.NotEmpty(t, code)

	t.Run("room join", func(t *testing.T) {
		out, err := cli.run("room", "join", strings.ToLower(code), "Bob")
		require.NoError(t, err, out)

		var resp joinResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Room.Players, 2)
		assert.Equal(t, "Bob", resp.Room.Players[1].Name)
	})

	t.Run("room join name taken", func(t *testing.T) {
		out, err := cli.run("room", "join", code, "Bob")
		assert.Error(t, err)
		assert.Contains(t, out, "NAME_TAKEN")
	})

	t.Run("room get missing", func(t *testing.T) {
		out, err := cli.run("room", "get", "NOPE00")
		assert.Error(t, err)
		assert.Contains(t, out, "ROOM_NOT_FOUND")
	})

	t.Run("room qr", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "join.png")
		out, err := cli.run("room", "qr", code, "--file", file)
		require.NoError(t, err, out)

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))
	})

	t.Run("play", func(t *testing.T) {
		cmd := cli.command("play", "--json", code, "Ann")
		stdin, err := cmd.StdinPipe()
		require.NoError(t, err)
		stdout, err := cmd.StdoutPipe()
		require.NoError(t, err)
		require.NoError(t, cmd.Start())

		awaitFrame(t, stdout, "room-state")

		// While the session is open Ann is connected
		out, err := cli.run("room", "get", code)
		require.NoError(t, err, out)
		var room roomResponse
		require.NoError(t, json.Unmarshal([]byte(out), &room))
		assert.True(t, room.Players[0].Connected)

		_, err = io.WriteString(stdin, "quit\n")
		require.NoError(t, err)
		require.NoError(t, cmd.Wait())

		// Ann leaves the room once the socket closes
		require.Eventually(t, func() bool {
			out, err := cli.run("room", "get", code)
			if err != nil {
				return false
			}
			var room roomResponse
			return json.Unmarshal([]byte(out), &room) == nil && len(room.Players) == 1 && room.Players[0].Name == "Bob"
		}, 5*time.Second, 50*time.Millisecond)
	})
}

// awaitFrame reads JSON lines until a frame of the given type arrives
func awaitFrame(t *testing.T, r io.Reader, eventType string) frame {
	t.Helper()

	found := make(chan frame, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			var f frame
			if json.Unmarshal(scanner.Bytes(), &f) == nil && f.Type == eventType {
				found <- f
				return
			}
		}
	}()

	select {
	case f := <-found:
		return f
	case <-time.After(5 * time.Second):
		t.Fatalf("no %s frame within 5s", eventType)
		return frame{}
	}
}
