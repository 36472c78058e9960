package mailer

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	welcomeTemplate     = template.Must(template.ParseFS(templateFS, "templates/welcome.html"))
	newOperatorTemplate = template.Must(template.ParseFS(templateFS, "templates/new_operator.html"))
)

const (
	welcomeSubject     = "Welcome to the team"
	newOperatorSubject = "入职向导 - 账户信息"
)

// BuildMessage 把队列中的消息解析成一封待发送的邮件，返回错误说明消息本身有问题，重试也不会成功
func BuildMessage(body []byte, from string) (*mail.Msg, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(envelope.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	switch envelope.Type {
	case TypeWelcome:
		data := domain.WelcomeMailData{}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		if err := msg.SetBodyHTMLTemplate(welcomeTemplate, data); err != nil {
			return nil, fmt.Errorf("无法设置邮件正文: %w", err)
		}
		msg.Subject(welcomeSubject)
	case TypeNewOperator:
		data := domain.NewOperatorMailData{}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		if err := msg.SetBodyHTMLTemplate(newOperatorTemplate, data); err != nil {
			return nil, fmt.Errorf("无法设置邮件正文: %w", err)
		}
		msg.Subject(newOperatorSubject)
	default:
		return nil, fmt.Errorf("不支持的邮件类型: %q", envelope.Type)
	}

	return msg, nil
}
