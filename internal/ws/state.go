// Package ws exposes a strip over HTTP: a websocket for pixel commands and a
// health endpoint.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/lpd6803/internal/config"
	"github.com/coreman2200/lpd6803/spi"
)

// Strip is the pixel API the server drives. *lpd6803.Strip satisfies it.
type Strip interface {
	NumLEDs() int
	SetNumLEDs(n int) error
	Clear()
	SetPixelColor(n int, r, g, b uint8) error
	SetPixelWord(n int, w uint16) error
	PixelColor(n int) (uint16, error)
	SetPixelBrightness(n int, factor float32) error
	SetBrightness(factor float32)
}

// Command is one control message. Index is required by the per-pixel ops
// and optional for "brightness", where leaving it out rescales every LED.
// Factor is required by "brightness".
type Command struct {
	Op     string   `json:"op"`
	Index  *int     `json:"index,omitempty"`
	R      uint8    `json:"r,omitempty"`
	G      uint8    `json:"g,omitempty"`
	B      uint8    `json:"b,omitempty"`
	Word   uint16   `json:"word,omitempty"`
	Factor *float32 `json:"factor,omitempty"`
	Count  int      `json:"count,omitempty"`
}

type Reply struct {
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
	Word    *uint16 `json:"word,omitempty"`
	NumLEDs int     `json:"num_leds"`
	Frames  uint64  `json:"frames"`
}

var (
	errNoIndex  = errors.New("missing index")
	errNoFactor = errors.New("missing factor")
	errNoConfig = errors.New("no config file to save to")
)

type State struct {
	mu       sync.Mutex
	strip    Strip
	renderer spi.Renderer
	frames   uint64
	start    time.Time
	log      zerolog.Logger
	up       websocket.Upgrader

	cfg     config.Config
	cfgPath string
}

// NewState serves strip. Frames are pushed through r on "show".
func NewState(strip Strip, r spi.Renderer, log zerolog.Logger) *State {
	return &State{
		strip:    strip,
		renderer: r,
		start:    time.Now(),
		log:      log,
		up:       websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Persist makes the "save" op write cfg, updated with the live strip length,
// to path.
func (s *State) Persist(path string, cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg, s.cfgPath = cfg, path
}

// Halt blanks the strip. It waits for any command in flight, so it is safe
// to call while control clients are still connected.
func (s *State) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strip.Clear()
	return s.renderer.Clear()
}

func (s *State) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	s.log.Info().Str("remote", r.RemoteAddr).Msg("control client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		var reply Reply
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = Reply{Error: "bad command: " + err.Error()}
		} else {
			reply = s.Apply(cmd)
		}
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn().Err(err).Msg("control reply failed")
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{
		"frames":   s.frames,
		"uptime_s": time.Since(s.start).Seconds(),
		"num_leds": s.strip.NumLEDs(),
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Apply runs one command against the strip.
func (s *State) Apply(cmd Command) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	word, err := s.apply(cmd)
	reply := Reply{OK: err == nil, Word: word, NumLEDs: s.strip.NumLEDs(), Frames: s.frames}
	if err != nil {
		reply.Error = err.Error()
		s.log.Debug().Err(err).Str("op", cmd.Op).Msg("command rejected")
	}
	return reply
}

func (s *State) apply(cmd Command) (*uint16, error) {
	switch cmd.Op {
	case "set":
		if cmd.Index == nil {
			return nil, errNoIndex
		}
		return nil, s.strip.SetPixelColor(*cmd.Index, cmd.R, cmd.G, cmd.B)
	case "word":
		if cmd.Index == nil {
			return nil, errNoIndex
		}
		return nil, s.strip.SetPixelWord(*cmd.Index, cmd.Word)
	case "get":
		if cmd.Index == nil {
			return nil, errNoIndex
		}
		w, err := s.strip.PixelColor(*cmd.Index)
		if err != nil {
			return nil, err
		}
		return &w, nil
	case "fill":
		for i := 0; i < s.strip.NumLEDs(); i++ {
			if err := s.strip.SetPixelColor(i, cmd.R, cmd.G, cmd.B); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case "clear":
		s.strip.Clear()
		return nil, nil
	case "brightness":
		if cmd.Factor == nil {
			return nil, errNoFactor
		}
		if cmd.Index == nil {
			s.strip.SetBrightness(*cmd.Factor)
			return nil, nil
		}
		return nil, s.strip.SetPixelBrightness(*cmd.Index, *cmd.Factor)
	case "leds":
		return nil, s.strip.SetNumLEDs(cmd.Count)
	case "show":
		if err := s.renderer.Render(); err != nil {
			s.log.Error().Err(err).Msg("show failed")
			return nil, err
		}
		s.frames++
		return nil, nil
	case "save":
		if s.cfgPath == "" {
			return nil, errNoConfig
		}
		s.cfg.NumLEDs = s.strip.NumLEDs()
		if err := config.Save(s.cfgPath, &s.cfg); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
		s.log.Info().Str("path", s.cfgPath).Int("leds", s.cfg.NumLEDs).Msg("config saved")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown op %q", cmd.Op)
}
