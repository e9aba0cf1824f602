package enums

import "fmt"

// NotificationKind categorizes in-app notification rows.
type NotificationKind string

const (
	NotificationKindOrderPlaced    NotificationKind = "order_placed"
	NotificationKindOrderDelivered NotificationKind = "order_delivered"
	NotificationKindOrderCancelled NotificationKind = "order_cancelled"
	NotificationKindOTPIssued      NotificationKind = "otp_issued"
	NotificationKindBargainDecided NotificationKind = "bargain_decided"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindOrderPlaced,
	NotificationKindOrderDelivered,
	NotificationKindOrderCancelled,
	NotificationKindOTPIssued,
	NotificationKindBargainDecided,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
