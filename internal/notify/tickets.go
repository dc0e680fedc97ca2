package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/boxoffice/internal/model"
)

var ticketsHTML = template.Must(template.New("tickets").Parse(`<p>Hola{{if .Name}} {{.Name}}{{end}},</p>
<p>Gracias por tu compra para <strong>{{.Event}}</strong>{{if .When}} ({{.When}}){{end}}{{if .Place}} en {{.Place}}{{end}}.</p>
<p>Presenta cada boleto en la entrada:</p>
<ul>
{{range .Links}}<li><a href="{{.URL}}">Butaca {{.Seat}}</a></li>
{{end}}</ul>
`))

type ticketLink struct {
	Seat string
	URL  string
}

// Tickets turns deliveries into emails and sends them with a Mailer.  It is
// the service.Notifier used when the message queue is disabled, and the
// handler of the queue consumer otherwise.
type Tickets struct {
	mailer  Mailer
	baseURL string
}

func NewTickets(mailer Mailer, baseURL string) *Tickets {
	return &Tickets{mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// NotifyTickets sends one email with a link per ticket.
func (t *Tickets) NotifyTickets(ctx context.Context, d model.TicketDelivery) error {
	msg, err := t.Compose(d)
	if err != nil {
		return err
	}
	return t.mailer.Send(ctx, msg)
}

// Compose renders the email for a delivery.
func (t *Tickets) Compose(d model.TicketDelivery) (Message, error) {
	const op = "notify.Tickets.Compose"

	if d.Email == "" {
		return Message{}, fmt.Errorf("%s: delivery for order %d has no email", op, d.OrderID)
	}
	event := d.EventName
	if event == "" {
		event = "tu evento"
	}
	var when string
	if !d.StartsAt.IsZero() {
		when = d.StartsAt.Format(time.DateTime) + " UTC"
	}

	links := make([]ticketLink, len(d.Tickets))
	var text strings.Builder
	fmt.Fprintf(&text, "Gracias por tu compra para %s.\n\n", event)
	for i, tk := range d.Tickets {
		links[i] = ticketLink{Seat: tk.SeatID, URL: t.baseURL + "/ticket/" + tk.Token}
		fmt.Fprintf(&text, "Butaca %s: %s\n", tk.SeatID, links[i].URL)
	}

	var html bytes.Buffer
	err := ticketsHTML.Execute(&html, struct {
		Name, Event, When, Place string
		Links                    []ticketLink
	}{d.BuyerName, event, when, d.Place, links})
	if err != nil {
		return Message{}, fmt.Errorf("%s: %w", op, err)
	}

	return Message{
		To:       d.Email,
		ToName:   d.BuyerName,
		Subject:  "Tus boletos para " + event,
		Text:     text.String(),
		HTML:     html.String(),
		CustomID: "order-" + strconv.FormatUint(d.OrderID, 10),
	}, nil
}
