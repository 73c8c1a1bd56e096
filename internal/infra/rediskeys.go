package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных портала в Redis
	RedisNamespace = "aigov"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanEntryDecisions — канал трансляции решений по декларациям.
	// Payload: "{entryID}:{status}". Подписчики (дашборды, ops-тулинг)
	// реагируют на отказы/одобрения без поллинга базы.
	RedisChanEntryDecisions = RedisNamespace + ":entries:decision-signal"
)
