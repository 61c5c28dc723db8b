package services

// Notification actions pushed to connected clients.
const (
	NotifyLevelUp           = "level_up"
	NotifyChallengeComplete = "challenge_complete"
)

// Notifier pushes a message to every live connection of a user.
type Notifier interface {
	NotifyUser(userID, action string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(string, string, any) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
