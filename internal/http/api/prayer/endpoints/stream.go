package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/prayer/packets"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /api/prayer/stream
// Pushes the schedule every time the timer re-derives it.
func (p *PrayerController) streamSchedule(ctx *gin.Context, userID string) (any, *api.Error) {
	t, apiErr := p.timer(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return nil, nil
	}
	defer conn.Close()

	views, unsubscribe := t.Subscribe()
	defer unsubscribe()

	// the client only sends close frames; reading surfaces them
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug().Str("user_id", userID).Msg("schedule stream opened")
	for {
		select {
		case <-closed:
			log.Debug().Str("user_id", userID).Msg("schedule stream closed")
			return nil, nil
		case v, ok := <-views:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "timer stopped"),
					time.Now().Add(writeWait))
				return nil, nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(packets.NewScheduleResponse(v)); err != nil {
				return nil, nil
			}
		}
	}
}
