package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ayo6706/exchange-brokerage/internal/models"
)

var (
	customerTmpl = template.Must(template.New("customer").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Text}}</p>
{{template "summary" .}}`))

	adminTmpl = template.Must(template.New("admin").Parse(`<p>A new {{.Order.Type}} order was placed by {{.Name}} ({{.Email}}).</p>
{{template "summary" .}}`))

	statusTmpl = template.Must(template.New("status").Parse(`<p>Hi {{.Name}},</p>
<p>Your order {{.Order.ID}} is now <strong>{{.Order.Status}}</strong>.</p>
{{template "summary" .}}`))

	summaryTmpl = `{{define "summary"}}<table>
<tr><td>Order</td><td>{{.Order.ID}}</td></tr>
<tr><td>Type</td><td>{{.Order.Type}}</td></tr>
<tr><td>Sent from</td><td>{{.Order.SentFrom.Title}}</td></tr>
<tr><td>Amount</td><td>{{.Order.FirstAmount}}</td></tr>
<tr><td>Received in</td><td>{{.Order.ReceivedIn.Title}}</td></tr>
<tr><td>Amount</td><td>{{.Order.SecondAmount.StringFixed 2}}</td></tr>
<tr><td>Service charges</td><td>{{.Order.ServiceCharges}}</td></tr>
</table>{{end}}`
)

func init() {
	for _, t := range []*template.Template{customerTmpl, adminTmpl, statusTmpl} {
		template.Must(t.Parse(summaryTmpl))
	}
}

type mailData struct {
	Name  string
	Email string
	Text  string
	Order models.Order
}

func render(t *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
