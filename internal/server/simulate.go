// Websocket streaming of simulation snapshots, one frame per tick.
package server

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/compresr/truncation-engine/internal/engine"
	"github.com/compresr/truncation-engine/internal/simulation"
)

// simulateRequest is the first client frame on the simulate socket.
type simulateRequest struct {
	Text       string            `json:"text"`
	MaxLength  int               `json:"max_length"`
	WindowSize int               `json:"window_size"`
	Method     simulation.Method `json:"method"`
	SpeedMs    int               `json:"speed_ms"`
}

// frameBuffer holds more frames than any simulation publishes
// (maxSteps is capped at 60), so the publisher never blocks a tick.
const frameBuffer = 256

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "simulation aborted")

	ctx := r.Context()

	var req simulateRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		conn.Close(websocket.StatusUnsupportedData, "invalid simulate request")
		return
	}

	analysis, err := s.engine.Analyze(ctx, engine.Request{
		Text:       req.Text,
		MaxLength:  req.MaxLength,
		WindowSize: req.WindowSize,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			conn.Close(websocket.StatusUnsupportedData, err.Error())
			return
		}
		conn.Close(websocket.StatusInternalError, "analysis failed")
		return
	}

	frames := make(chan simulation.State, frameBuffer)
	ctrl, err := s.engine.NewSimulation(analysis, s.simulationConfig(req.SpeedMs), func(st simulation.State) {
		select {
		case frames <- st:
		default:
			// Slow consumer; dropping a frame beats stalling a tick.
		}
	})
	if err != nil {
		conn.Close(websocket.StatusUnsupportedData, err.Error())
		return
	}

	if err := ctrl.Start(req.Method); err != nil {
		conn.Close(websocket.StatusUnsupportedData, err.Error())
		return
	}
	defer ctrl.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-frames:
			if err := wsjson.Write(ctx, conn, st); err != nil {
				return
			}
			if st.Phase == simulation.PhaseIdle && !st.Running {
				// Settle completed; the final text was delivered.
				conn.Close(websocket.StatusNormalClosure, "simulation complete")
				return
			}
		}
	}
}
