package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ozolsdev/examticket/core"
)

type broadcastApi struct {
	broadcaster core.Broadcaster
}

// registerBroadcastAPI exposes a raw trigger passthrough so operators can
// replay a sync event without touching the stored schedule.
func registerBroadcastAPI(g *echo.Group, broadcaster core.Broadcaster) {
	api := broadcastApi{broadcaster: broadcaster}
	g.POST("/broadcast", api.broadcastTrigger)
}

type broadcastRequest struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

func (api *broadcastApi) broadcastTrigger(ctx echo.Context) error {
	data := new(broadcastRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if data.Channel == "" || data.Event == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel and event are required")
	}

	api.broadcaster.Publish(data.Channel, data.Event, data.Payload)
	return ctx.JSON(http.StatusOK, echo.Map{"channel": data.Channel, "event": data.Event})
}
