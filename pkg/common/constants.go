package common

const (
	RedisStreamPostNotification = "signal.post.notification"
	RedisStreamScanRequest      = "signal.scan.request"

	RedisStreamGroup    = "scanner-group"
	RedisStreamConsumer = "scanner-consumer"

	RedisKeyCycleLock = "signal:scan:cycle:lock"

	DefaultScanConfigName = "default"
)
