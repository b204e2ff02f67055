package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lpd6803"
	"github.com/coreman2200/lpd6803/internal/config"
	"github.com/coreman2200/lpd6803/spi"
)

type wire struct {
	words []uint16
}

func (w *wire) SetClockRate(physic.Frequency) error { return nil }

func (w *wire) TransferWord(v uint16) error {
	w.words = append(w.words, v)
	return nil
}

func newState(t *testing.T, n int) (*State, *wire) {
	t.Helper()
	wr := &wire{}
	strip, err := lpd6803.New(wr, make([]uint16, n), n)
	require.NoError(t, err)
	wr.words = nil
	return NewState(strip, &spi.StripRenderer{Strip: strip}, zerolog.Nop()), wr
}

func idx(i int) *int { return &i }

func factor(f float32) *float32 { return &f }

func TestApply(t *testing.T) {
	s, wr := newState(t, 3)

	rep := s.Apply(Command{Op: "word", Index: idx(1), Word: 0x0421})
	require.True(t, rep.OK, rep.Error)
	rep = s.Apply(Command{Op: "set", Index: idx(2), R: 255})
	require.True(t, rep.OK, rep.Error)

	rep = s.Apply(Command{Op: "get", Index: idx(2)})
	require.True(t, rep.OK)
	require.NotNil(t, rep.Word)
	assert.Equal(t, uint16(0x03E0), *rep.Word)

	rep = s.Apply(Command{Op: "show"})
	require.True(t, rep.OK)
	assert.Equal(t, uint64(1), rep.Frames)
	assert.Equal(t, []uint16{0, 0, 0x8000, 0x8421, 0x83E0}, wr.words)

	rep = s.Apply(Command{Op: "brightness", Factor: factor(0)})
	require.True(t, rep.OK)
	rep = s.Apply(Command{Op: "get", Index: idx(1)})
	assert.Equal(t, uint16(0), *rep.Word)
}

func TestApplyErrors(t *testing.T) {
	s, _ := newState(t, 2)
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Op: "set", Index: idx(2)}, "out of range"},
		{Command{Op: "get"}, "missing index"},
		{Command{Op: "brightness", Index: idx(-1), Factor: factor(1)}, "out of range"},
		{Command{Op: "brightness"}, "missing factor"},
		{Command{Op: "brightness", Index: idx(0)}, "missing factor"},
		{Command{Op: "save"}, "no config"},
		{Command{Op: "leds", Count: 3}, "capacity"},
		{Command{Op: "dance"}, "unknown op"},
	}
	for _, test := range tests {
		rep := s.Apply(test.cmd)
		assert.False(t, rep.OK, test.cmd.Op)
		assert.Contains(t, rep.Error, test.want, test.cmd.Op)
	}
}

func TestFillClearAndResize(t *testing.T) {
	s, wr := newState(t, 4)
	require.True(t, s.Apply(Command{Op: "leds", Count: 2}).OK)
	require.True(t, s.Apply(Command{Op: "fill", G: 255}).OK)
	require.True(t, s.Apply(Command{Op: "show"}).OK)
	assert.Equal(t, []uint16{0, 0, 0xFC00, 0xFC00}, wr.words)

	wr.words = nil
	require.True(t, s.Apply(Command{Op: "clear"}).OK)
	require.True(t, s.Apply(Command{Op: "show"}).OK)
	assert.Equal(t, []uint16{0, 0, 0x8000, 0x8000}, wr.words)
}

func TestControlWebsocket(t *testing.T) {
	s, wr := newState(t, 2)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/control"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg string) Reply {
		t.Helper()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		var rep Reply
		require.NoError(t, conn.ReadJSON(&rep))
		return rep
	}

	rep := send(`{"op":"set","index":0,"r":255,"g":255,"b":255}`)
	assert.True(t, rep.OK, rep.Error)
	assert.Equal(t, 2, rep.NumLEDs)

	rep = send(`{"op":"show"}`)
	assert.True(t, rep.OK, rep.Error)
	assert.Equal(t, []uint16{0, 0, 0xFFFF, 0x8000}, wr.words)

	rep = send(`not json`)
	assert.False(t, rep.OK)
	assert.Contains(t, rep.Error, "bad command")

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Equal(t, float64(1), health["frames"])
	assert.Equal(t, float64(2), health["num_leds"])
}

func TestBrightnessWithoutFactorKeepsPixels(t *testing.T) {
	s, _ := newState(t, 2)
	require.True(t, s.Apply(Command{Op: "fill", R: 255, G: 255, B: 255}).OK)

	rep := s.Apply(Command{Op: "brightness"})
	assert.False(t, rep.OK)
	rep = s.Apply(Command{Op: "get", Index: idx(1)})
	assert.Equal(t, uint16(0x7FFF), *rep.Word)
}

func TestSave(t *testing.T) {
	s, _ := newState(t, 4)
	p := filepath.Join(t.TempDir(), "config.yaml")
	cfg := *config.Default()
	cfg.Capacity = 4
	s.Persist(p, cfg)

	require.True(t, s.Apply(Command{Op: "leds", Count: 3}).OK)
	rep := s.Apply(Command{Op: "save"})
	require.True(t, rep.OK, rep.Error)

	got, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumLEDs)
	assert.Equal(t, 4, got.Capacity)
}

func TestHaltWaitsForCommands(t *testing.T) {
	s, wr := newState(t, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.Apply(Command{Op: "fill", R: 255})
		}
	}()
	// run with -race: Halt must not touch the buffer while fill holds it
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Halt())
	}
	wg.Wait()

	wr.words = nil
	require.NoError(t, s.Halt())
	assert.Equal(t, []uint16{0, 0, 0x8000, 0x8000, 0x8000}, wr.words)
	rep := s.Apply(Command{Op: "get", Index: idx(0)})
	assert.Equal(t, uint16(0), *rep.Word)
}
