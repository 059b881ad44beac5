package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

// BrandSignoff closes every branded reply
const BrandSignoff = "We run so you don't have to 🧡"

func (b *Bot) getStartMessage() string {
	return "👋 Hey! I'm My Errand Guy.\n\n" +
		"Use me to register, track, and close errands.\n\n" +
		"🏁 " + UsageNewErrand + "\n" +
		"👤 " + UsageAssign + "\n" +
		"🔄 " + UsageUpdate + "\n" +
		"✅ " + UsageComplete + "\n" +
		"❌ " + UsageCancel + "\n" +
		"💰 " + UsagePay + "\n" +
		"💸 " + UsageUnpay + "\n" +
		"🔎 " + UsageStatus + "\n" +
		"📊 " + UsageSummary + "\n" +
		"ℹ /help\n\n" +
		"Delivery confirmations:\n" +
		"Driver sends Errand <id> OTP <code> to confirm handover.\n\n" +
		BrandSignoff
}

func (b *Bot) getHelpMessage() string {
	return `📖 My Errand Guy - Command Help

🏁 Create new errand:
/newerrand Requester Receiver Pickup Dropoff
Use _ instead of spaces in names and locations.
Example:
/newerrand Olivia Paul Home_Affairs French_Embassy

👤 Assign driver:
/assign MEG-20251102-6199 Heino

🔄 Update status:
/update MEG-20251102-6199 En_Route
/update MEG-20251102-6199 Delivered

✅ Mark complete (delivered):
/complete MEG-20251102-6199
Stamps the time and sets Status to Delivered.

❌ Cancel errand:
/cancel MEG-20251102-6199

💰 Mark paid / unpaid:
/pay MEG-20251102-6199
/unpay MEG-20251102-6199

🔎 Look up an errand:
/status MEG-20251102-6199

📊 Daily summary:
/summary
/summary 2025-11-02

🚚 Driver delivery confirmation:
Errand MEG-20251102-6199 OTP 1234
/verify MEG-20251102-6199 1234
Marks Delivered if the OTP matches.

` + BrandSignoff
}

func (b *Bot) getUnknownMessage() string {
	return "🤔 I didn't catch that.\nSend /help to see what I can do."
}

func renderCreated(rec *models.ErrandRecord) string {
	return fmt.Sprintf("🏁 New Errand Logged!\n"+
		"Errand %s created.\n"+
		"Pickup: %s → Drop-off: %s\n"+
		"Requester: %s | Receiver: %s\n"+
		"🔐 OTP for receiver: %s\n\n"+
		"Your job is in the system.\n"+
		"My Errand Guy is on the move 🏃‍♂️💨",
		rec.ID, rec.PickupLocation, rec.DropoffLocation, rec.RequesterName, rec.ReceiverName, rec.OTP)
}

func renderAssigned(out *Outcome) string {
	return fmt.Sprintf("🚗 Driver Assigned\n"+
		"Driver %s is now assigned to Errand %s.\n"+
		"Status: %s\n"+
		"They're gearing up to get it done 💪", out.Value, out.ErrandID, out.Status)
}

func renderStatusUpdate(out *Outcome) string {
	msg := fmt.Sprintf("🔄 Status Update\nErrand %s is now *%s*.", out.ErrandID, out.Status)
	if out.Stamped {
		msg += "\nTimestamp: " + out.UpdatedAt
	}
	return msg + "\nWe're already on the move! 🏃‍♂️💨"
}

func renderCompleted(out *Outcome) string {
	return fmt.Sprintf("✅ Delivery Complete!\n"+
		"Errand %s is marked as Delivered.\n"+
		"Timestamp: %s\n"+
		"Great work team 📦💨", out.ErrandID, out.UpdatedAt)
}

func renderCanceled(out *Outcome) string {
	return fmt.Sprintf("❌ Errand Canceled\n"+
		"Errand %s is now marked as Canceled.\n"+
		"Timestamp: %s\n"+
		"We'll be ready when you are 💪", out.ErrandID, out.UpdatedAt)
}

func renderPaid(out *Outcome) string {
	return fmt.Sprintf("💰 Payment Confirmed!\n"+
		"Errand %s marked as Paid.\n"+
		"Thank you for using My Errand Guy. %s", out.ErrandID, BrandSignoff)
}

func renderUnpaid(out *Outcome) string {
	return fmt.Sprintf("💸 Payment Reverted\n"+
		"Errand %s marked as Unpaid.\n"+
		"Please review outstanding balance ⚠️", out.ErrandID)
}

func renderVerified(out *Outcome) string {
	return fmt.Sprintf("📦 Delivery Confirmed!\n"+
		"Errand %s is now Delivered.\n"+
		"Timestamp: %s\n"+
		"Great job team 🙌", out.ErrandID, out.UpdatedAt)
}

// renderRecord never includes the OTP; it is only shown once, at creation
func renderRecord(rec *models.ErrandRecord) string {
	driver := rec.Driver
	if driver == "" {
		driver = "unassigned"
	}
	paid := "No"
	if rec.Paid {
		paid = "Yes"
	}
	return fmt.Sprintf("🔎 Errand %s\n"+
		"Status: %s\n"+
		"Pickup: %s → Drop-off: %s\n"+
		"Requester: %s | Receiver: %s\n"+
		"Driver: %s\n"+
		"Last update: %s\n"+
		"Paid: %s", rec.ID, rec.Status, rec.PickupLocation, rec.DropoffLocation,
		rec.RequesterName, rec.ReceiverName, driver, rec.LastUpdatedAt, paid)
}

// RenderSummary formats a daily report for chat and for the ops broadcast
func RenderSummary(report *models.SummaryReport) string {
	var sb strings.Builder
	sb.WriteString("📊 Daily Summary\n")
	fmt.Fprintf(&sb, "Date: %s\n\n", report.Date)
	fmt.Fprintf(&sb, "⏳ Pending: %d\n", report.Pending)
	fmt.Fprintf(&sb, "🔄 In Progress: %d\n", report.InProgress)
	fmt.Fprintf(&sb, "✅ Delivered: %d\n", report.Delivered)
	fmt.Fprintf(&sb, "❌ Canceled: %d\n\n", report.Canceled)
	fmt.Fprintf(&sb, "💰 Paid: %d\n", report.Paid)
	fmt.Fprintf(&sb, "💸 Unpaid: %d\n\n", report.Unpaid)
	sb.WriteString("Keep running strong, team 💨")
	return sb.String()
}

// renderError turns an engine failure into a chat reply. id is the errand
// the command referred to, if any.
func renderError(err error, id string) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "❌ Sorry, something went wrong. Please try again."
	}

	switch appErr.Code {
	case apperrors.CodeInvalidArgument:
		return "⚠️ " + appErr.Message
	case apperrors.CodeNotFound:
		return fmt.Sprintf("⚠️ Oops! I couldn't find Errand %s.\nPlease double-check the ID and try again.", id)
	case apperrors.CodeOtpMismatch:
		return fmt.Sprintf("⚠️ OTP didn't match for Errand %s.\nPlease double-check with the receiver.", id)
	case apperrors.CodeAlreadyDelivered:
		return fmt.Sprintf("📦 Errand %s is already Delivered.\nNothing to change.", id)
	case apperrors.CodeInvalidTransition:
		return fmt.Sprintf("⛔ Errand %s is closed and can't change status.\n%s.", id, capitalize(appErr.Message))
	case apperrors.CodeIDExhausted:
		return "⚠️ I couldn't allocate a new errand ID right now.\nPlease try again in a moment."
	case apperrors.CodeStoreUnavailable:
		return "⚠️ The errand log is unavailable right now.\nPlease try again in a moment."
	case apperrors.CodeSchemaMismatch:
		return "🛑 The errand log's columns don't match what I expect.\nAn operator needs to fix the header row."
	}
	return "❌ Sorry, something went wrong. Please try again."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
