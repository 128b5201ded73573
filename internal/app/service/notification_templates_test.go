package service

import (
	"strings"
	"testing"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesEveryOccurrence(t *testing.T) {
	out := Render("{{organizationName}} joined. Welcome, {{organizationName}}! {{unused}}", map[string]string{
		"organizationName": "Green Earth",
	})

	assert.Equal(t, "Green Earth joined. Welcome, Green Earth! {{unused}}", out)
	assert.NotContains(t, out, "{{organizationName}}")
}

func TestRender_EmptyDataLeavesTemplate(t *testing.T) {
	tmpl := "Hello {{recipientName}}"
	assert.Equal(t, tmpl, Render(tmpl, nil))
}

func TestRenderEmail(t *testing.T) {
	t.Run("all default templates exist", func(t *testing.T) {
		for _, typ := range []model.NotificationType{
			model.NotificationTypeVerificationApproved,
			model.NotificationTypeVerificationRejected,
			model.NotificationTypeVerificationPending,
			model.NotificationTypeDocumentsRequired,
			model.NotificationTypeSystemAnnouncement,
		} {
			assert.True(t, HasTemplate(string(typ)), typ)
		}
		assert.True(t, HasTemplate(TemplateAdminVerificationSubmitted))
	})

	t.Run("rejection reason", func(t *testing.T) {
		email, err := RenderEmail(string(model.NotificationTypeVerificationRejected), map[string]string{
			"organizationName": "Green Earth",
			"rejectionReason":  "Missing tax exemption proof",
		})
		require.NoError(t, err)

		assert.Equal(t, "Update on the verification of Green Earth", email.Subject)
		assert.Contains(t, email.Text, "Reason: Missing tax exemption proof")
		assert.Contains(t, email.HTML, "<strong>Green Earth</strong>")
		// 값이 없는 자리표시자는 유지
		assert.Contains(t, email.Text, "{{recipientName}}")
	})

	t.Run("html values are escaped", func(t *testing.T) {
		email, err := RenderEmail(string(model.NotificationTypeVerificationApproved), map[string]string{
			"organizationName": "Tom & Jerry <Rescue>",
		})
		require.NoError(t, err)

		assert.Contains(t, email.HTML, "Tom &amp; Jerry &lt;Rescue&gt;")
		assert.True(t, strings.HasPrefix(email.Subject, "Tom & Jerry <Rescue>"))
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := RenderEmail("nope", nil)
		assert.Error(t, err)
	})
}
