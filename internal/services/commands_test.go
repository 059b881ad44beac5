package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
		ok   bool
	}{
		{"slash command", "/assign MEG-20251102-0001 Heino", Command{"assign", []string{"MEG-20251102-0001", "Heino"}}, true},
		{"hash stripped from id", "/complete #MEG-20251102-0001", Command{"complete", []string{"MEG-20251102-0001"}}, true},
		{"case and bot suffix", "/PAY@MyErrandGuyBot X", Command{"pay", []string{"X"}}, true},
		{"newerrand keeps first arg", "/newerrand #Olivia Paul A B", Command{"newerrand", []string{"#Olivia", "Paul", "A", "B"}}, true},
		{"handover", "Errand #MEG-20251102-0001 OTP 1234", Command{"verify", []string{"MEG-20251102-0001", "1234"}}, true},
		{"handover lower case spaced otp", "errand X otp 12 34", Command{"verify", []string{"X", "12 34"}}, true},
		{"no args", "/help", Command{"help", []string{}}, true},
		{"plain text", "hello there", Command{}, false},
		{"handover with trailing words", "Errand X OTP 1234 thanks", Command{}, false},
		{"blank", "   ", Command{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want.Name, got.Name)
				assert.Equal(t, tt.want.Args, got.Args)
			}
		})
	}
}

func newBotForTest(t *testing.T) (*Bot, *engineFixture) {
	t.Helper()
	f := newEngineForTest(t)
	summary := NewSummaryService(f.repo, testZone, f.clock.Now, logger.NewNop())
	return NewBot(f.svc, summary, logger.NewNop()), f
}

var createdID = regexp.MustCompile(`Errand (MEG-\d{8}-\d{4}) created`)
var createdOTP = regexp.MustCompile(`OTP for receiver: (\d{4})`)

func send(t *testing.T, b *Bot, msg string) string {
	t.Helper()
	reply, err := b.ProcessMessage(context.Background(), "+27820000000", msg)
	require.NoError(t, err)
	return reply
}

func TestBot_FullLifecycle(t *testing.T) {
	bot, f := newBotForTest(t)

	reply := send(t, bot, "/newerrand Olivia Paul Home_Affairs French_Embassy")
	require.Regexp(t, createdID, reply)
	id := createdID.FindStringSubmatch(reply)[1]
	otp := createdOTP.FindStringSubmatch(reply)[1]
	assert.Contains(t, reply, "Pickup: Home Affairs → Drop-off: French Embassy")

	reply = send(t, bot, "/assign #"+id+" Heino")
	assert.Contains(t, reply, "Driver Heino is now assigned")
	assert.Contains(t, reply, "In Progress")

	reply = send(t, bot, "/update "+id+" En_Route")
	assert.Contains(t, reply, "*In Progress*")

	reply = send(t, bot, "/status "+id)
	assert.Contains(t, reply, "Driver: Heino")
	assert.NotContains(t, reply, "OTP")

	reply = send(t, bot, "Errand #"+id+" OTP 0000x")
	assert.Contains(t, reply, "I didn't catch that")

	reply = send(t, bot, "Errand #"+id+" OTP "+otp)
	assert.Contains(t, reply, "Delivery Confirmed!")

	reply = send(t, bot, "/verify "+id+" "+otp)
	assert.Contains(t, reply, "already Delivered")

	reply = send(t, bot, "/pay "+id)
	assert.Contains(t, reply, "marked as Paid")
	assert.True(t, f.read(t, id).Paid)

	reply = send(t, bot, "/summary")
	assert.Contains(t, reply, "Date: 2025-11-02")
	assert.Contains(t, reply, "✅ Delivered: 1")
	assert.Contains(t, reply, "💰 Paid: 1")
}

func TestBot_Rejections(t *testing.T) {
	bot, _ := newBotForTest(t)
	id := createdID.FindStringSubmatch(send(t, bot, "/newerrand A B C D"))[1]

	assert.Contains(t, send(t, bot, "/assign "+id), "Usage: "+UsageAssign)
	assert.Contains(t, send(t, bot, "/newerrand A B C"), "Usage: "+UsageNewErrand)
	assert.Contains(t, send(t, bot, "/summary 2025-11-02 extra"), "Usage: "+UsageSummary)
	assert.Contains(t, send(t, bot, "/complete MEG-20000101-0000"), "couldn't find Errand MEG-20000101-0000")
	assert.Contains(t, send(t, bot, "/verify "+id+" 99999"), "OTP didn't match")

	send(t, bot, "/cancel "+id)
	assert.Contains(t, send(t, bot, "/update "+id+" Pending"), "can't change status")
	assert.Contains(t, send(t, bot, "/dance"), "Send /help")
	assert.Contains(t, send(t, bot, "good morning"), "Send /help")
	assert.True(t, strings.HasSuffix(send(t, bot, "/start"), BrandSignoff))
	assert.Contains(t, send(t, bot, "/help"), "/newerrand Olivia Paul Home_Affairs French_Embassy")
}

func TestBot_ReportsStoreFailures(t *testing.T) {
	f := newEngineForTest(t)
	bot := NewBot(f.svc, NewSummaryService(brokenLister{}, testZone, f.clock.Now, logger.NewNop()), logger.NewNop())

	reply, err := bot.ProcessMessage(context.Background(), "+27820000000", "/summary")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Contains(t, reply, "unavailable")
}

func TestBot_SerializesConcurrentCommands(t *testing.T) {
	bot, f := newBotForTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = bot.ProcessMessage(context.Background(), "+27820000000", "/newerrand A B C D")
		}()
	}
	wg.Wait()

	all, err := f.repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 20)
	seen := map[string]bool{}
	for _, rec := range all {
		assert.False(t, seen[rec.ID])
		seen[rec.ID] = true
		assert.Equal(t, models.StatusPending, rec.Status)
	}
}
