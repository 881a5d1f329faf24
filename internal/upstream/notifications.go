package upstream

import (
	"context"
	"net/http"

	"github.com/hams/portal-server-go/internal/model"
)

const notificationService = "notification-service"

// Notifications lists a user's notifications. Patient feeds live on the
// user-side gateway, doctor feeds on the doctor service; only the
// mark-all call goes to the notification service itself.
func (c *Client) Notifications(ctx context.Context, token, userID string, role model.Role) ([]model.Notification, error) {
	url := c.userBase + "/api/patients/notifications/" + userID
	if role == model.RoleDoctor {
		url = c.doctorBase + "/api/doctors/notifications/" + userID
	}
	var notes []model.Notification
	err := c.call(ctx, notificationService, http.MethodGet, url, token, nil, &notes)
	return notes, err
}

// MarkNotificationRead clears the unread flag on a single notification.
func (c *Client) MarkNotificationRead(ctx context.Context, token, notificationID string) error {
	return c.call(ctx, notificationService, http.MethodPut,
		c.userBase+"/api/patients/notifications/markAsRead/"+notificationID, token, nil, nil)
}

// MarkAllNotificationsRead clears the unread flag on every notification
// for the user.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token, userID string) error {
	return c.call(ctx, notificationService, http.MethodPut,
		c.notificationBase+"/notification/markAllAsRead/"+userID, token, nil, nil)
}
