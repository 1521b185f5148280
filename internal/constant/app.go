package constant

import "time"

const (
	AdminTopic       = "admin"
	QueueTopicPrefix = "queue-"

	// StudentEmailHeader identifies the student on status and "mine" requests.
	StudentEmailHeader = "student-email"

	AdminEmailKey = "adminEmail"

	QueueCacheTTL     = time.Hour
	QueueCacheKeyBase = "queue_meta_"

	PublishRetries = 3
	PublishBackoff = 50 * time.Millisecond

	StoreUpdateRetries = 3
)

// QueueTopic is the notification topic for a single queue.
func QueueTopic(queueID string) string {
	return QueueTopicPrefix + queueID
}
