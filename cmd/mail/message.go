package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeVetCreated: {
		file:    "vet_created_email.html",
		subject: "宠物诊所 - 新兽医入职",
	},
	domain.MailTypeVetRosterChanged: {
		file:    "vet_roster_changed_email.html",
		subject: "宠物诊所 - 兽医信息变更",
	},
}

// vetMailMessage 与 domain.MailMessage 对应，但 Data 使用具体类型以便模板访问字段
type vetMailMessage struct {
	Type string             `json:"type"`
	To   string             `json:"to"`
	Data domain.VetMailData `json:"data"`
}

func buildMail(from, templateDir string, body []byte) (*mail.Msg, error) {
	// 对邮件信息反序列化
	mailMessage := vetMailMessage{}
	if err := json.Unmarshal(body, &mailMessage); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	mt, ok := mailTemplates[mailMessage.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", mailMessage.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(mailMessage.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	tmpl, err := template.ParseFiles(filepath.Join(templateDir, mt.file))
	if err != nil {
		return nil, fmt.Errorf("无法解析邮件模板: %w", err)
	}
	if err := m.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	m.Subject(mt.subject)

	return m, nil
}
