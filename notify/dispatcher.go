package notify

import (
	"context"
	"sync"
	"time"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/sirupsen/logrus"
)

// Outcome is what the caller learns about a notification: whether it was
// handed to a backend, never whether it was delivered.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeDisabled   Outcome = "disabled"
)

type Recorder interface {
	Record(ctx context.Context, n *models.Notification) error
}

// Dispatcher sends notifications in the background. Failures are logged
// and recorded, never returned.
type Dispatcher struct {
	notifier Notifier
	recorder Recorder
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, r Recorder, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: n, recorder: r, timeout: timeout}
}

func (d *Dispatcher) Send(ctx context.Context, msg Message) Outcome {
	if d == nil || d.notifier == nil {
		return OutcomeDisabled
	}

	// detach from the request so the send outlives the response
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.ErrorLogger.Errorf("notifier %s panicked: %v", d.notifier.Name(), r)
			}
		}()

		sendCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		err := d.notifier.Notify(sendCtx, msg)
		fields := logrus.Fields{"channel": msg.Channel, "subject": msg.Subject, "backend": d.notifier.Name()}
		if err != nil {
			utils.ErrorLogger.WithFields(fields).Errorf("Notification failed: %v", err)
		} else {
			utils.InfoLogger.WithFields(fields).Debug("Notification sent")
		}
		d.record(base, msg, err)
	}()
	return OutcomeDispatched
}

// Flush blocks until in-flight sends finish.
func (d *Dispatcher) Flush() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) record(ctx context.Context, msg Message, sendErr error) {
	if d.recorder == nil {
		return
	}
	entry := &models.Notification{
		Channel:   string(msg.Channel),
		Recipient: msg.Recipient,
		Title:     msg.Subject,
		Message:   msg.Body,
		Status:    models.NotificationSent,
	}
	if sendErr != nil {
		entry.Status = models.NotificationFailed
		entry.Error = sendErr.Error()
	}
	if err := d.recorder.Record(ctx, entry); err != nil {
		utils.ErrorLogger.Printf("Error recording notification: %v", err)
	}
}
