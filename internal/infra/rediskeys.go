package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "workshop"
)

// Ключи блокировок
const (
	// RedisKeyLockEscalation — префикс ключа дедупликации алерта эскалации (+ approval_id).
	RedisKeyLockEscalation = RedisNamespace + ":lock:escalation:"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanEscalations — канал алертов о запросах, требующих эскалации.
	RedisChanEscalations = RedisNamespace + ":approvals:escalations"
)

// RedisChanRefresh — сигналы "перечитай ресурс": payload содержит имя ресурса.
const RedisChanRefresh = RedisNamespace + ":console:refresh"
