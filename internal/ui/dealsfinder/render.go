package dealsfinder

import (
	"bytes"
	"html/template"

	"github.com/hongminglow/smartcard/internal/dealtext"
	"github.com/hongminglow/smartcard/internal/models"
)

var storeCardTemplate = template.Must(template.New("store").Parse(`<div class="deal-store-card">
  <div class="store-header">
    <h2 class="store-name">🏪 {{.Store}}</h2>
    <p class="deals-count">{{.Count}} deal{{if ne .Count 1}}s{{end}} found</p>
  </div>
{{- if .Error}}
  <div class="deal-item deal-error">⚠️ {{.Error}}</div>
{{- end}}
{{- if .Deals}}
  <ul class="deals-list">
{{- range .Deals}}
    <li class="deal-item"><strong>{{.Index}}.</strong> {{.Text}}</li>
{{- end}}
  </ul>
{{- end}}
</div>`))

type storeCard struct {
	Store string
	Count int
	Error string
	Deals []dealLine
}

type dealLine struct {
	Index int
	Text  template.HTML
}

// RenderStoreCard renders one store's result. Each raw deal is formatted
// exactly once here.
func RenderStoreCard(store models.StoreResult) (template.HTML, error) {
	card := storeCard{Store: store.Store, Count: len(store.Deals), Error: store.Error}
	for i, deal := range store.Deals {
		card.Deals = append(card.Deals, dealLine{Index: i + 1, Text: dealtext.FormatHTML(deal)})
	}
	var buf bytes.Buffer
	if err := storeCardTemplate.Execute(&buf, card); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
