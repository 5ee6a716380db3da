package respstore

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal RESP2 responder driven entirely by a scripted
// reply table keyed by command name, enough to exercise the client's
// wire encoding and reply parsing without a real Redis-shaped server.
type fakeServer struct {
	ln       net.Listener
	handlers map[string]func(args []string) string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, handlers: make(map[string]func(args []string) string)}

	go s.serve()

	t.Cleanup(func() { _ = ln.Close() })

	return s
}

func (s *fakeServer) on(cmd string, fn func(args []string) string) {
	s.handlers[strings.ToUpper(cmd)] = fn
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		go s.handleConn(conn)
	}
}

func (s *fakeServer) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)

	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}

		if len(args) == 0 {
			continue
		}

		handler, ok := s.handlers[strings.ToUpper(args[0])]
		if !ok {
			_, _ = conn.Write([]byte("-ERR unknown command\r\n"))

			continue
		}

		_, _ = conn.Write([]byte(handler(args[1:])))
	}
}

// readCommand parses one RESP2 array-of-bulk-strings command.
func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}

	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("expected array, got %q", line)
	}

	var n int

	fmt.Sscanf(line[1:], "%d", &n)

	args := make([]string, 0, n)

	for range n {
		lenLine, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}

		lenLine = strings.TrimRight(lenLine, "\r\n")

		var length int

		fmt.Sscanf(lenLine[1:], "%d", &length)

		buf := make([]byte, length+2)

		if _, err := readFullTest(r, buf); err != nil {
			return nil, err
		}

		args = append(args, string(buf[:length]))
	}

	return args, nil
}

func readFullTest(r *bufio.Reader, buf []byte) (int, error) {
	total := 0

	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func Test_Store_Put_SendsSETAndParsesOK(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("SET", func(args []string) string { return "+OK\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
}

func Test_Store_Get_ParsesBulkString(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("GET", func(args []string) string { return "$5\r\nhello\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), value)
}

func Test_Store_Get_ReturnsNotFound_OnNilBulk(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("GET", func(args []string) string { return "$-1\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_Remove_ReturnsNotFound_WhenIntegerReplyIsZero(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("DEL", func(args []string) string { return ":0\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	err = store.Remove([]byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Store_Pop_ParsesBulkString(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("RPOP", func(args []string) string { return "$1\r\nx\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Pop([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), value)
}

func Test_Store_Command_SurfacesServerError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.on("SET", func(args []string) string { return "-ERR boom\r\n" })

	store, err := Dial(srv.addr())
	require.NoError(t, err)
	defer store.Close()

	err = store.Put([]byte("k"), []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
