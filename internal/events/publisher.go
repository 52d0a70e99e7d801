package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

const QueueName = "assignment_events"

// DeclareQueue 声明持久化的任职事件队列，发布方和消费方都要先声明
func DeclareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		QueueName, // 队列名称
		true,      // 是否持久化
		false,     // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,     // 是否独占
		false,     // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
		nil,       // 额外参数
	)
}

// Publisher 把任职生命周期事件发布到消息队列，供通知等下游消费
type Publisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewPublisher(cfg *config.Config, ch *amqp.Channel) (*Publisher, error) {
	if _, err := DeclareQueue(ch); err != nil {
		return nil, err
	}

	return &Publisher{
		cfg:     cfg,
		channel: ch,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.AssignmentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
