package broadcastsvc

import (
	"fmt"

	"github.com/pusher/pusher-http-go/v5"

	"github.com/ozolsdev/examticket/core"
)

type pusherService struct {
	client pusher.Client
	logger core.Logger
}

var _ core.Broadcaster = (*pusherService)(nil)

func NewPusherService(conf *core.Config, logger core.Logger) *pusherService {
	return &pusherService{
		client: pusher.Client{
			AppID:   conf.Broadcast.PusherAppID,
			Key:     conf.Broadcast.PusherKey,
			Secret:  conf.Broadcast.PusherSecret,
			Cluster: conf.Broadcast.PusherCluster,
			Secure:  true,
		},
		logger: logger,
	}
}

// Publish triggers the event without waiting for delivery. Failures are
// logged only: a missed event is reconciled by the next full re-fetch, never
// treated as lost state.
func (svc *pusherService) Publish(channel, event string, payload interface{}) {
	go func() {
		if err := svc.client.Trigger(channel, event, payload); err != nil {
			svc.logger.Warn(fmt.Sprintf("broadcasting %s/%s: %v", channel, event, err), err)
		}
	}()
}
