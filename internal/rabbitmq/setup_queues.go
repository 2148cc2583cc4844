package rabbitmq

// Маршрутные ключи почтовых задач.
const (
	RoutingKeyInvoice   = "invoice"
	RoutingKeyReminder  = "reminder"
	RoutingKeyBroadcast = "broadcast"
	RoutingKeySystem    = "system"
)

// Имена очередей воркера отправки.
const (
	QueueInvoice   = "mail.invoice"
	QueueReminder  = "mail.reminder"
	QueueBroadcast = "mail.broadcast"
	QueueSystem    = "mail.system"
)

// QueueConfig связка очереди и маршрутного ключа.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetMailQueues возвращает все очереди почтовых задач.
func GetMailQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueInvoice, RoutingKey: RoutingKeyInvoice},
		{QueueName: QueueReminder, RoutingKey: RoutingKeyReminder},
		{QueueName: QueueBroadcast, RoutingKey: RoutingKeyBroadcast},
		{QueueName: QueueSystem, RoutingKey: RoutingKeySystem},
	}
}
