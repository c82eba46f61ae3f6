package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer converts markdown bodies to HTML. Raw HTML in the input is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": FormatCents,
}).Parse(`
{{define "welcome"}}# Welcome to The Smith Agency

Hi {{.CompanyName}},

Your client portal account for **{{.Email}}** is ready. From the portal you can request showroom
staff for upcoming shows, manage your contacts and showrooms, and follow each booking.

[Open the client portal]({{.PortalURL}})
{{end}}

{{define "booking_confirmation"}}# Booking received

Thanks {{.CompanyName}}, your deposit of **{{money .DepositCents .Currency}}** was received and your
booking for **{{.ShowName}}** is now pending confirmation.

| Date | Staff |
|---|---|
{{range .Dates}}| {{.Date}} | {{.StaffCount}} |
{{end}}
- Staff-days: {{.TotalStaffDays}}
- Rate: {{money .RatePerDayCents .Currency}} per staff-day
- Estimated total: {{money .BaseTotalCents .Currency}}
- Balance after deposit: {{money .AmountDueCents .Currency}}

The balance is charged to the card on file once the show is staffed.
{{if .ShareURL}}
Share your booking with buyers: {{.ShareURL}}
{{end}}{{end}}
`))

// WelcomeData fills the client welcome email.
type WelcomeData struct {
	CompanyName string
	Email       string
	PortalURL   string
}

// BookingDate is one row of the confirmation schedule.
type BookingDate struct {
	Date       string
	StaffCount int
}

// BookingConfirmationData fills the booking confirmation email.
type BookingConfirmationData struct {
	CompanyName     string
	ShowName        string
	Dates           []BookingDate
	TotalStaffDays  int
	RatePerDayCents int64
	BaseTotalCents  int64
	DepositCents    int64
	AmountDueCents  int64
	Currency        string
	ShareURL        string
}

// RenderWelcome builds the client welcome email.
// PRE: to is a valid address
// POST: Returns a request with markdown-rendered HTML and the markdown as text
func RenderWelcome(to string, data WelcomeData) (SendRequest, error) {
	if strings.TrimSpace(data.CompanyName) == "" {
		data.CompanyName = "Client"
	}
	data.Email = to
	return render("welcome", "The Smith Agency - Client Portal", to, data, map[string]string{"kind": "client_welcome"})
}

// RenderBookingConfirmation builds the deposit receipt sent after a booking is created.
// PRE: to is a valid address
// POST: Returns a request with markdown-rendered HTML and the markdown as text
func RenderBookingConfirmation(to string, data BookingConfirmationData) (SendRequest, error) {
	if strings.TrimSpace(data.CompanyName) == "" {
		data.CompanyName = "Client"
	}
	subject := "Booking received: " + data.ShowName
	return render("booking_confirmation", subject, to, data, map[string]string{"kind": "booking_confirmation"})
}

func render(name, subject, to string, data any, tags map[string]string) (SendRequest, error) {
	var md bytes.Buffer
	if err := templates.ExecuteTemplate(&md, name, data); err != nil {
		return SendRequest{}, fmt.Errorf("render %s markdown: %w", name, err)
	}
	var html bytes.Buffer
	if err := mdRenderer.Convert(md.Bytes(), &html); err != nil {
		return SendRequest{}, fmt.Errorf("render %s html: %w", name, err)
	}
	return SendRequest{
		To:      []string{to},
		Subject: subject,
		HTML:    html.String(),
		Text:    strings.TrimSpace(md.String()),
		Tags:    tags,
	}, nil
}

// FormatCents renders minor units as a currency amount, e.g. 110000 usd -> "$1,100.00".
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	amount := fmt.Sprintf("%s%s.%02d", sign, grouped.String(), cents%100)
	if strings.EqualFold(currency, "usd") || currency == "" {
		return sign + "$" + amount[len(sign):]
	}
	return amount + " " + strings.ToUpper(currency)
}
