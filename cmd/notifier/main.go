package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
	"github.com/mancio76/OrgChartV2-sub001/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	q, err := events.DeclareQueue(ch)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动去仍消息
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				// 连接断开时 RabbitMQ 客户端会关闭投递通道
				if !ok {
					logger.Error("消息通道已关闭，停止消费")
					return
				}

				logger.Info("收到消息", slog.String("message", string(msg.Body)))
				// 对事件反序列化
				event := domain.AssignmentEvent{}
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					logger.Error("事件反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 只有任职终止和存在告警的事件需要通知 HR，其余事件直接确认
				if event.Type != domain.EventAssignmentTerminated && len(event.Warnings) == 0 {
					_ = msg.Ack(false)
					continue
				}

				// 构建邮件
				m := mail.NewMsg()
				if err := m.From(cfg.Email.SMTP.Username); err != nil {
					logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := m.To(cfg.Email.HRAddress); err != nil {
					logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				switch event.Type {
				case domain.EventAssignmentTerminated:
					m.Subject("组织架构系统 - 任职终止通知")
					m.SetBodyString(mail.TypeTextPlain, terminationBody(&event))
				default:
					m.Subject("组织架构系统 - 工作负载告警")
					m.SetBodyString(mail.TypeTextPlain, warningBody(&event))
				}

				// 发送邮件
				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				// 确认消息
				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 notifier worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("notifier worker 已成功关闭")
}

func terminationBody(event *domain.AssignmentEvent) string {
	return fmt.Sprintf(
		"人员 %d 在组织单元 %d 的任职（职位 %d）已于 %s 终止。\n\n任职记录 ID: %d\n最终版本: %d\n",
		event.PersonID, event.UnitID, event.JobTitleID,
		event.EffectiveDate.Format("2006-01-02"),
		event.AssignmentID, event.Version,
	)
}

func warningBody(event *domain.AssignmentEvent) string {
	b := strings.Builder{}
	fmt.Fprintf(&b,
		"人员 %d 在组织单元 %d 的任职（职位 %d，版本 %d）触发了以下告警：\n\n",
		event.PersonID, event.UnitID, event.JobTitleID, event.Version,
	)
	for _, w := range event.Warnings {
		fmt.Fprintf(&b, "- [%s] %s\n", w.Code, w.Message)
	}
	return b.String()
}
