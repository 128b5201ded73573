package service

import (
	"fmt"
	"html"
	"regexp"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
)

// 알림 타입별 기본 템플릿 외에 관리자용 템플릿
const (
	TemplateAdminVerificationSubmitted = "admin_verification_submitted"
)

// EmailTemplate 제목/HTML/텍스트 본문 템플릿
type EmailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

// RenderedEmail 치환이 끝난 이메일 내용
type RenderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

var emailTemplates = map[string]EmailTemplate{
	string(model.NotificationTypeVerificationPending): {
		Subject: "Verification request received for {{organizationName}}",
		HTML: `<h2>We received your verification request</h2>
<p>Hello {{recipientName}},</p>
<p>Thank you for submitting <strong>{{organizationName}}</strong> for verification. Our team will review your documents and get back to you.</p>
<p>Request ID: {{requestId}}</p>`,
		Text: `We received your verification request

Hello {{recipientName}},

Thank you for submitting {{organizationName}} for verification. Our team will review your documents and get back to you.

Request ID: {{requestId}}`,
	},
	string(model.NotificationTypeVerificationApproved): {
		Subject: "{{organizationName}} is now a verified organization",
		HTML: `<h2>Congratulations!</h2>
<p>Hello {{recipientName}},</p>
<p><strong>{{organizationName}}</strong> has been verified. You can now publish missions and receive donations as a trusted NGO.</p>
<p>{{adminNotes}}</p>`,
		Text: `Congratulations!

Hello {{recipientName}},

{{organizationName}} has been verified. You can now publish missions and receive donations as a trusted NGO.

{{adminNotes}}`,
	},
	string(model.NotificationTypeVerificationRejected): {
		Subject: "Update on the verification of {{organizationName}}",
		HTML: `<h2>Your verification request was not approved</h2>
<p>Hello {{recipientName}},</p>
<p>We could not verify <strong>{{organizationName}}</strong> at this time.</p>
<p>Reason: {{rejectionReason}}</p>
<p>You are welcome to update your information and resubmit your request.</p>`,
		Text: `Your verification request was not approved

Hello {{recipientName}},

We could not verify {{organizationName}} at this time.

Reason: {{rejectionReason}}

You are welcome to update your information and resubmit your request.`,
	},
	string(model.NotificationTypeDocumentsRequired): {
		Subject: "Additional documents needed for {{organizationName}}",
		HTML: `<h2>Additional documents required</h2>
<p>Hello {{recipientName}},</p>
<p>To continue reviewing <strong>{{organizationName}}</strong>, please provide the following documents:</p>
<p>{{requiredDocuments}}</p>
<p>{{adminNotes}}</p>`,
		Text: `Additional documents required

Hello {{recipientName}},

To continue reviewing {{organizationName}}, please provide the following documents:

{{requiredDocuments}}

{{adminNotes}}`,
	},
	string(model.NotificationTypeSystemAnnouncement): {
		Subject: "{{title}}",
		HTML: `<h2>{{title}}</h2>
<p>{{message}}</p>`,
		Text: `{{title}}

{{message}}`,
	},
	TemplateAdminVerificationSubmitted: {
		Subject: "New verification request: {{organizationName}}",
		HTML: `<h2>New verification request</h2>
<p><strong>{{organizationName}}</strong> ({{organizationType}}) submitted a verification request.</p>
<p>Contact: {{contactEmail}}</p>
<p>Request ID: {{requestId}}</p>`,
		Text: `New verification request

{{organizationName}} ({{organizationType}}) submitted a verification request.

Contact: {{contactEmail}}

Request ID: {{requestId}}`,
	},
}

// Render {{key}} 자리표시자를 data 값으로 치환
// 값이 없는 자리표시자는 그대로 남김
func Render(tmpl string, data map[string]string) string {
	return substitute(tmpl, data, false)
}

// RenderEmail 템플릿 키로 이메일 제목/본문 렌더링
// HTML 본문에 들어가는 값은 이스케이프
func RenderEmail(templateKey string, data map[string]string) (RenderedEmail, error) {
	tmpl, ok := emailTemplates[templateKey]
	if !ok {
		return RenderedEmail{}, fmt.Errorf("unknown email template %q", templateKey)
	}
	return RenderedEmail{
		Subject: substitute(tmpl.Subject, data, false),
		HTML:    substitute(tmpl.HTML, data, true),
		Text:    substitute(tmpl.Text, data, false),
	}, nil
}

// HasTemplate 등록된 템플릿 키인지 확인
func HasTemplate(templateKey string) bool {
	_, ok := emailTemplates[templateKey]
	return ok
}

func substitute(tmpl string, data map[string]string, escapeHTML bool) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := data[key]
		if !ok {
			return match
		}
		if escapeHTML {
			return html.EscapeString(value)
		}
		return value
	})
}
