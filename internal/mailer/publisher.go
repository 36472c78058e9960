package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TypeWelcome     = "welcome"
	TypeNewOperator = "new_operator"
)

// Channel 是发布消息需要的 amqp.Channel 方法
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch Channel, queue string, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		queue:   queue,
		timeout: timeout,
	}
}

// DeclareQueue 声明邮件队列，api 和 mail worker 使用同样的参数
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 不独占
		false, // 等待 RabbitMQ 确认
		nil,
	)
}

// PublishWelcome 把欢迎邮件放入队列，由 mail worker 异步发送
func (p *Publisher) PublishWelcome(ctx context.Context, basic domain.BasicInfo, details domain.Details) error {
	mailMessage := domain.MailMessage{
		Type: TypeWelcome,
		To:   basic.Email,
		Data: domain.WelcomeMailData{
			FullName:       basic.FullName,
			EmployeeID:     basic.EmployeeID,
			Role:           basic.Role,
			Department:     basic.Department,
			Location:       details.Location,
			EmploymentType: details.EmploymentType,
		},
	}

	return p.publish(ctx, mailMessage)
}

// PublishNewOperator 把新操作员的初始密码通过邮件发给本人
func (p *Publisher) PublishNewOperator(ctx context.Context, op *domain.Operator, password string) error {
	return p.publish(ctx, domain.MailMessage{
		Type: TypeNewOperator,
		To:   op.Email,
		Data: domain.NewOperatorMailData{
			FullName: op.FullName,
			Username: op.Username,
			Password: password,
		},
	})
}

func (p *Publisher) publish(ctx context.Context, mailMessage domain.MailMessage) error {
	body, err := json.Marshal(mailMessage)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
