package dealsfinder

import (
	"html/template"
	"io"
	"sync"
)

// Slot names the result region currently shown.
type Slot int

const (
	SlotNone Slot = iota
	SlotLoading
	SlotError
	SlotEmpty
	SlotGrid
)

// Page is a View that keeps the rendered state of the deals page in memory.
type Page struct {
	mu              sync.Mutex
	locationText    string
	locationEnabled bool
	alerts          []string
	slot            Slot
	message         string
	cards           []template.HTML
	scrolls         int
}

func (p *Page) SetLocationStatus(text string, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locationText, p.locationEnabled = text, enabled
}

func (p *Page) Alert(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, message)
}

func (p *Page) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot = SlotLoading
}

func (p *Page) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot, p.message, p.cards = SlotError, message, nil
}

func (p *Page) ShowEmpty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot, p.message, p.cards = SlotEmpty, "", nil
}

func (p *Page) ShowResults(cards []template.HTML) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot, p.message = SlotGrid, ""
	p.cards = append([]template.HTML(nil), cards...)
	p.scrolls++
}

// LocationStatus returns the indicator text and whether it is affirmative.
func (p *Page) LocationStatus() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locationText, p.locationEnabled
}

// Alerts returns every alert raised so far.
func (p *Page) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

// Slot reports which result region is visible.
func (p *Page) Slot() Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slot
}

// Message is the text in the error slot.
func (p *Page) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// Cards returns the store cards in the grid.
func (p *Page) Cards() []template.HTML {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]template.HTML(nil), p.cards...)
}

// Scrolls counts how often the grid was scrolled into view.
func (p *Page) Scrolls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolls
}

var resultsTemplate = template.Must(template.New("results").Parse(`
{{- if eq .Slot 1}}<div id="deals-loading">Finding deals near you...</div>
{{else if eq .Slot 2}}<div id="deals-empty">
  <h2>Oops! Something went wrong</h2>
  <p>{{.Message}}</p>
</div>
{{else if eq .Slot 3}}<div id="deals-empty">
  <h2>No deals found nearby</h2>
</div>
{{else if eq .Slot 4}}<div id="deals-grid">
{{- range .Cards}}
{{.}}
{{- end}}
</div>
{{end}}`))

// Write renders the visible result region as HTML.
func (p *Page) Write(w io.Writer) error {
	p.mu.Lock()
	data := struct {
		Slot    int
		Message string
		Cards   []template.HTML
	}{Slot: int(p.slot), Message: p.message, Cards: append([]template.HTML(nil), p.cards...)}
	p.mu.Unlock()
	return resultsTemplate.Execute(w, data)
}
