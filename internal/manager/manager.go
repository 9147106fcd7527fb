package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	ipcTimeout    = 2 * time.Second
	maxCommandLen = 1024
)

// AppManager runs the IPC server and supervises watchers for a Loop.
type AppManager struct {
	mu    sync.Mutex
	stops []chan struct{}
	wg    sync.WaitGroup

	loop   *Loop
	step   int
	reload func() error
	log    zerolog.Logger
}

func NewAppManager(loop *Loop, step int, log zerolog.Logger) *AppManager {
	if step <= 0 {
		step = DefaultStep
	}
	return &AppManager{loop: loop, step: step, log: log}
}

// SetReloader installs the RELOAD handler.
func (m *AppManager) SetReloader(f func() error) {
	m.mu.Lock()
	m.reload = f
	m.mu.Unlock()
}

// SetStep changes the default STEP size.
func (m *AppManager) SetStep(step int) {
	if step <= 0 {
		return
	}
	m.mu.Lock()
	m.step = step
	m.mu.Unlock()
}

// SocketPath is the daemon socket under $XDG_RUNTIME_DIR, or the temp dir.
func SocketPath() string {
	if p := os.Getenv("LUXFLEX_SOCKET"); p != "" {
		return p
	}

	baseDir := os.Getenv("XDG_RUNTIME_DIR")
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, AppName)
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), AppName+"-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

// ServeIPC accepts commands on socketPath until ctx is done.
func (m *AppManager) ServeIPC(ctx context.Context, socketPath string) error {
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("error listening on socket: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	defer os.Remove(socketPath)

	m.log.Info().Str("socket", socketPath).Msg("IPC server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			m.log.Debug().Err(err).Msg("accept failed")
			continue
		}
		go m.handleConnection(ctx, conn)
	}
}

func (m *AppManager) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))

	buf := make([]byte, maxCommandLen)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	command := strings.TrimSpace(string(buf[:n]))
	m.log.Debug().Str("command", command).Msg("IPC command")

	_, _ = conn.Write([]byte(m.Dispatch(ctx, command)))
}

// Dispatch runs one IPC command and returns the reply line.
func (m *AppManager) Dispatch(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "ERR: empty command"
	}

	switch strings.ToUpper(fields[0]) {
	case "STATUS":
		return "OK: " + m.loop.State().String()

	case "SET":
		if len(fields) != 2 {
			return "ERR: usage: SET <0-100>"
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Sprintf("ERR: invalid brightness %q", fields[1])
		}
		return m.settle(ctx, m.loop.Request(v))

	case "STEP":
		m.mu.Lock()
		delta := m.step
		m.mu.Unlock()
		if len(fields) == 2 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Sprintf("ERR: invalid step %q", fields[1])
			}
			delta = v
		}
		return m.settle(ctx, m.loop.Step(delta))

	case "TOGGLE":
		return m.settle(ctx, m.loop.ToggleOverlay())

	case "RELOAD":
		m.mu.Lock()
		reload := m.reload
		m.mu.Unlock()
		if reload == nil {
			return "ERR: reload not supported"
		}
		if err := reload(); err != nil {
			return "ERR: " + err.Error()
		}
		return "OK: reloaded"

	case "STOP":
		m.log.Info().Msg("received STOP via IPC, shutting down")
		m.loop.Shutdown()
		return "OK: shutting down"

	default:
		return "ERR: unknown command"
	}
}

func (m *AppManager) settle(ctx context.Context, err error) string {
	if err != nil {
		return "ERR: " + err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, ipcTimeout)
	defer cancel()

	s, err := m.loop.Settle(ctx)
	if err != nil {
		return "ERR: " + err.Error()
	}
	return "OK: " + s.String()
}

// StartWatcher runs f until StopAll, restarting it two seconds after it
// returns or panics.
func (m *AppManager) StartWatcher(name string, f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.stops = append(m.stops, stop)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.log.Error().Str("watcher", name).Interface("panic", r).Msg("watcher panic")
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				m.log.Debug().Str("watcher", name).Msg("restarting watcher")
			}
		}
	}()
}

// StopAll stops every watcher and waits for them.
func (m *AppManager) StopAll() {
	m.mu.Lock()
	stops := m.stops
	m.stops = nil
	m.mu.Unlock()

	for _, s := range stops {
		close(s)
	}
	m.wg.Wait()
}

func ConnectIPC(socketPath string) (net.Conn, error) {
	return net.DialTimeout("unix", socketPath, 500*time.Millisecond)
}

// SendIPCCommand sends cmd to the daemon and returns its reply.
func SendIPCCommand(socketPath, cmd string) (string, error) {
	conn, err := ConnectIPC(socketPath)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * ipcTimeout))

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, maxCommandLen)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	reply := string(buf[:n])
	if strings.HasPrefix(reply, "ERR:") {
		return reply, errors.New(strings.TrimSpace(strings.TrimPrefix(reply, "ERR:")))
	}
	return reply, nil
}
