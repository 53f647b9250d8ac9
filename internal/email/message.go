package email

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type downloadData struct {
	CustomerName   string
	ProductName    string
	DownloadURL    string
	OrderReference string
	Price          string
}

var (
	subjectTemplate = template.Must(template.New("subject").Parse(
		`Your download for {{.ProductName}}{{if .OrderReference}} (order {{.OrderReference}}){{end}}`))

	bodyTemplate = template.Must(template.New("body").Parse(`Hi {{if .CustomerName}}{{.CustomerName}}{{else}}there{{end}},

Thanks for your purchase of {{.ProductName}}{{if .Price}} ({{.Price}}){{end}}.

Download it here:
{{.DownloadURL}}
{{if .OrderReference}}
Order reference: {{.OrderReference}}
{{end}}`))
)

func renderDownloadEmail(from string, req sendRequest) (Message, error) {
	data := downloadData{
		CustomerName:   req.CustomerName,
		ProductName:    req.ProductName,
		DownloadURL:    req.DownloadURL,
		OrderReference: req.OrderReference,
	}
	if req.Currency != "" {
		data.Price = domain.FormatPrice(req.Amount, req.Currency)
	}

	var subject, body bytes.Buffer
	if err := subjectTemplate.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	return Message{
		From:    from,
		To:      req.To,
		Subject: subject.String(),
		Body:    body.String(),
	}, nil
}
