package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
)

const restaurantName = "Brewcraft Restaurant"

// AdminBookingAlert announces a new pending booking to administrators.
func AdminBookingAlert(b models.Booking) Message {
	var sb strings.Builder
	sb.WriteString("NEW BOOKING RECEIVED\n\n")
	sb.WriteString("Customer Information:\n")
	fmt.Fprintf(&sb, "  Name:  %s\n", b.CustomerName)
	fmt.Fprintf(&sb, "  Email: %s\n", b.Email)
	fmt.Fprintf(&sb, "  Phone: %s\n\n", b.Phone)
	sb.WriteString("Booking Details:\n")
	fmt.Fprintf(&sb, "  Booking ID: %s\n", b.ID)
	fmt.Fprintf(&sb, "  Date:   %s\n", b.Date)
	fmt.Fprintf(&sb, "  Time:   %s\n", b.Time)
	fmt.Fprintf(&sb, "  Guests: %d\n", b.Guests)
	fmt.Fprintf(&sb, "  Table:  %s\n", orNA(b.TableNumber))
	if len(b.SelectedItems) > 0 {
		sb.WriteString("\nPre-ordered:\n")
		for _, it := range b.SelectedItems {
			fmt.Fprintf(&sb, "  %dx %s (%s)\n", it.Quantity, it.Name, utils.FormatPrice(it.Price))
		}
		fmt.Fprintf(&sb, "  Total: %s\n", utils.FormatPrice(b.Total))
	}
	if b.SpecialRequests != "" {
		fmt.Fprintf(&sb, "\nSpecial requests: %s\n", b.SpecialRequests)
	}
	sb.WriteString("\nStatus: PENDING\n")
	sb.WriteString("Action required: review and approve or reject in the admin dashboard.\n\n")
	sb.WriteString(restaurantName + " Management System\n")

	return Message{
		Channel: ChannelAdmin,
		Subject: "New Booking - Action Required",
		Body:    sb.String(),
		Payload: map[string]interface{}{
			"type":      "NEW_BOOKING",
			"bookingId": b.ID,
			"date":      b.Date,
			"time":      b.Time,
			"guests":    b.Guests,
			"tableId":   b.TableID,
		},
		Attributes: map[string]string{"bookingId": b.ID},
	}
}

// CustomerDecision tells the customer their booking was confirmed or rejected.
func CustomerDecision(b models.Booking) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\n", b.CustomerName)
	if b.Status == models.BookingConfirmed {
		sb.WriteString("Great news! Your table reservation has been CONFIRMED.\n\n")
	} else {
		sb.WriteString("We are sorry, we could not accommodate your reservation request.\n\n")
	}
	fmt.Fprintf(&sb, "  Booking ID: %s\n", b.ID)
	fmt.Fprintf(&sb, "  Date:   %s\n", b.Date)
	fmt.Fprintf(&sb, "  Time:   %s\n", b.Time)
	fmt.Fprintf(&sb, "  Guests: %d\n", b.Guests)
	if b.Status == models.BookingConfirmed {
		fmt.Fprintf(&sb, "  Table:  %s\n\n", orNA(b.TableNumber))
		sb.WriteString("Please arrive 10 minutes before your reservation time.\n")
	} else {
		sb.WriteString("\nPlease try another date or time, or contact us directly.\n")
	}
	fmt.Fprintf(&sb, "\n%s\n", restaurantName)

	return Message{
		Channel:   ChannelCustomer,
		Subject:   fmt.Sprintf("Booking %s - %s", b.Status, restaurantName),
		Body:      sb.String(),
		Recipient: b.Email,
		Payload: map[string]interface{}{
			"type":         "BOOKING_DECISION",
			"email":        b.Email,
			"customerName": b.CustomerName,
			"bookingId":    b.ID,
			"date":         b.Date,
			"time":         b.Time,
			"tableNumber":  b.TableNumber,
			"guests":       b.Guests,
			"status":       b.Status,
		},
		Attributes: map[string]string{
			"bookingId": b.ID,
			"status":    b.Status,
			"userId":    b.UserID,
		},
	}
}

// ContactAlert forwards a contact-form submission to administrators.
func ContactAlert(name, email, message string) Message {
	body := fmt.Sprintf("New contact message\n\nFrom:  %s\nEmail: %s\n\n%s\n", name, email, message)
	return Message{
		Channel: ChannelContact,
		Subject: "New Contact Message from " + name,
		Body:    body,
		Payload: map[string]interface{}{
			"type":    "CONTACT",
			"name":    name,
			"email":   email,
			"message": message,
		},
	}
}

// VerificationCode sends a new account its email confirmation code.
func VerificationCode(u models.User, code string, ttl time.Duration) Message {
	body := fmt.Sprintf("Hello %s,\n\nYour %s verification code is %s.\nIt expires in %d minutes.\n",
		u.Name, restaurantName, code, int(ttl.Minutes()))
	return Message{
		Channel:   ChannelCustomer,
		Subject:   "Verify your email - " + restaurantName,
		Body:      body,
		Recipient: u.Email,
		Payload: map[string]interface{}{
			"type":     "VERIFY_EMAIL",
			"username": u.Username,
			"code":     code,
		},
		Attributes: map[string]string{"userId": u.Username},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
