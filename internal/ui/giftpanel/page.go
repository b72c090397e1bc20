package giftpanel

import (
	"html/template"
	"io"
	"sync"
)

// Page is a View that keeps the rendered state of the gift card page in
// memory. Write emits the list region as HTML.
type Page struct {
	mu           sync.Mutex
	modalVisible bool
	formResets   int
	cards        []template.HTML
	emptyVisible bool
	alerts       []string
}

func (p *Page) SetModalVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modalVisible = visible
}

func (p *Page) ResetForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formResets++
}

func (p *Page) SetCards(cards []template.HTML) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = append([]template.HTML(nil), cards...)
}

func (p *Page) SetEmptyStateVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emptyVisible = visible
}

func (p *Page) Alert(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, message)
}

// ModalVisible reports whether the add-card modal is shown.
func (p *Page) ModalVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modalVisible
}

// FormResets counts how many times the form was cleared.
func (p *Page) FormResets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.formResets
}

// Cards returns the rendered card fragments.
func (p *Page) Cards() []template.HTML {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]template.HTML(nil), p.cards...)
}

// EmptyStateVisible reports whether the placeholder is shown.
func (p *Page) EmptyStateVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.emptyVisible
}

// Alerts returns every alert raised so far.
func (p *Page) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

var listTemplate = template.Must(template.New("list").Parse(`<div id="gift-cards-list">
{{- range .Cards}}
{{.}}
{{- end}}
</div>
{{- if .Empty}}
<div id="empty-state">No gift cards yet. Add your first one!</div>
{{- end}}
`))

// Write renders the list region and, when shown, the empty state.
func (p *Page) Write(w io.Writer) error {
	p.mu.Lock()
	data := struct {
		Cards []template.HTML
		Empty bool
	}{Cards: append([]template.HTML(nil), p.cards...), Empty: p.emptyVisible}
	p.mu.Unlock()
	return listTemplate.Execute(w, data)
}
