// internal/app/notify/render.go
package notify

import (
	"context"
	"fmt"

	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Render expands a notification intent into concrete messages, one per
// reachable guardian among the intent's subject students. Subjects with
// no guardian WhatsApp number are skipped silently; an intent whose
// subjects are all unreachable renders to an empty batch, which the
// worker treats as delivered.
func Render(ctx context.Context, db *mongo.Database, intent models.NotificationIntent) ([]Message, error) {
	students := studentstore.New(db)

	var msgs []Message
	for _, sid := range intent.SubjectIDs {
		st, err := students.GetByID(ctx, sid)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				continue
			}
			return nil, err
		}
		if st.Guardian.WhatsAppNumber == "" {
			continue
		}
		msgs = append(msgs, Message{
			Recipient: st.Guardian.WhatsAppNumber,
			Body:      renderBody(intent, st),
			// Deterministic per (intent, subject) so gateway-side
			// dedupe survives worker retries.
			IdempotencyKey: uuid.NewSHA1(uuid.NameSpaceOID, []byte(intent.ID.Hex()+":"+sid.Hex())).String(),
		})
	}
	return msgs, nil
}

func renderBody(intent models.NotificationIntent, st models.Student) string {
	c := intent.Context
	group := c["group_name"]
	title := c["session_title"]
	date := c["session_date"]

	switch intent.EventType {
	case status.EventWelcomeMessage:
		return fmt.Sprintf("Welcome! %s has been enrolled in %s. Classes start soon.", st.FullName, group)
	case status.EventUpdateNotification:
		body := fmt.Sprintf("Schedule update for %s: session %q on %s has changed.", group, title, date)
		if link := c["meeting_link"]; link != "" {
			body += " New meeting link: " + link
		}
		if msg := c["message"]; msg != "" {
			body += " " + msg
		}
		return body
	case status.EventDeletionNotification:
		return fmt.Sprintf("Session %q on %s for %s has been cancelled and removed from the schedule.", title, date, group)
	case status.EventAttendanceAbsence:
		// Per-subject marks ride in the context map keyed by student id;
		// instructors may attach a custom message per mark kind.
		mark := c["status:"+st.ID.Hex()]
		if custom := c["message:"+mark]; custom != "" {
			return custom
		}
		return fmt.Sprintf("%s was marked %s for session %q (%s) in %s.", st.FullName, mark, title, date, group)
	case status.EventSessionStatusChange:
		body := fmt.Sprintf("Session %q on %s for %s is now %s.", title, date, group, c["new_status"])
		if msg := c["message"]; msg != "" {
			body += " " + msg
		}
		return body
	default:
		return fmt.Sprintf("Update from %s regarding %s.", group, st.FullName)
	}
}
