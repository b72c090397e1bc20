package giftpanel

import (
	"bytes"
	"html/template"

	"github.com/hongminglow/smartcard/internal/models"
)

var cardTemplate = template.Must(template.New("card").Parse(`<div class="card">
  <div class="card-header">
    <h3>{{.Brand}}</h3>
    <span class="card-balance">{{.Balance.Display}}</span>
  </div>
{{- if .Notes}}
  <p class="card-notes">{{.Notes}}</p>
{{- end}}
</div>`))

// RenderCard renders one gift card. The notes paragraph is omitted when
// there are no notes.
func RenderCard(card models.GiftCard) (template.HTML, error) {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, card); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
