package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
)

const testAuthToken = "12345"

// sign computes the X-Twilio-Signature for a form POST
func sign(fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := fullURL
	for _, k := range keys {
		data += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(testAuthToken))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newSignedApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(testAuthToken, logger.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func post(t *testing.T, app *fiber.App, form url.Values, signature string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://errands.example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestValidateTwilioSignature(t *testing.T) {
	app := newSignedApp()
	form := url.Values{
		"MessageSid": {"SM0001"},
		"From":       {"whatsapp:+27820000000"},
		"Body":       {"/summary"},
	}
	good := sign("https://errands.example.com/webhook/whatsapp", form)

	assert.Equal(t, http.StatusOK, post(t, app, form, good))
	assert.Equal(t, http.StatusUnauthorized, post(t, app, form, ""))

	tampered := url.Values{"MessageSid": {"SM0001"}, "From": {"whatsapp:+27820000000"}, "Body": {"/cancel X"}}
	assert.Equal(t, http.StatusUnauthorized, post(t, app, tampered, good))

	other := sign("https://attacker.example.com/webhook/whatsapp", form)
	assert.Equal(t, http.StatusUnauthorized, post(t, app, form, other))
}
