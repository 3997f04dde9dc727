package notify

import (
	"context"

	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/models"
)

// HubNotifier pushes notifications to connected dashboard and customer
// websockets.
type HubNotifier struct {
	hub *hub.Hub
}

func NewHubNotifier(h *hub.Hub) *HubNotifier {
	return &HubNotifier{hub: h}
}

func (n *HubNotifier) Name() string { return "hub" }

func (n *HubNotifier) Notify(_ context.Context, msg Message) error {
	data := map[string]interface{}{
		"channel": msg.Channel,
		"subject": msg.Subject,
		"payload": msg.Payload,
	}
	switch msg.Channel {
	case ChannelCustomer:
		if userID := msg.Attributes["userId"]; userID != "" && userID != models.GuestUserID {
			n.hub.SendToUsers(hub.EventBookingUpdate, data, userID)
		}
	case ChannelContact:
		n.hub.Broadcast(hub.EventContact, data, models.RoleAdmin)
	default:
		n.hub.Broadcast(hub.EventNotification, data, models.RoleAdmin)
	}
	return nil
}
