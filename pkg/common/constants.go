package common

const (
	RedisStreamChallengeMonitor = "challenge.rule.monitor"

	RedisStreamGroup    = "engine-group"
	RedisStreamConsumer = "engine-consumer"
)
