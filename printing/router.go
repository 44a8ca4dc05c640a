package printing

import (
	"strings"

	"github.com/yeremiapane/restaurant-pos/models"
)

// Printer is one configured ticket destination.
type Printer struct {
	Name       string   `yaml:"name" json:"name"`
	Kind       string   `yaml:"kind" json:"kind"` // network | usb
	Interface  string   `yaml:"interface" json:"interface"`
	Categories []string `yaml:"categories" json:"categories"`
	Default    bool     `yaml:"default" json:"default"`
	Receipt    bool     `yaml:"receipt" json:"receipt"`
	PaperWidth int      `yaml:"paper_width" json:"paper_width"`
}

func (p Printer) Handles(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(strings.TrimSpace(c), category) {
			return true
		}
	}
	return false
}

// Job is the set of items one printer should receive.
type Job struct {
	Printer Printer
	Items   []models.OrderItem
}

// Router maps items to printers by product category.
type Router struct {
	printers []Printer
}

func NewRouter(printers []Printer) *Router {
	return &Router{printers: printers}
}

func (r *Router) Printers() []Printer {
	return r.printers
}

// PrinterFor returns the first printer handling the category, then the fallback.
func (r *Router) PrinterFor(category string) (Printer, bool) {
	for _, p := range r.printers {
		if p.Handles(category) {
			return p, true
		}
	}
	return r.fallback()
}

// fallback order: printer marked default, a printer named like the kitchen, then the first one.
func (r *Router) fallback() (Printer, bool) {
	if len(r.printers) == 0 {
		return Printer{}, false
	}
	for _, p := range r.printers {
		if p.Default {
			return p, true
		}
	}
	for _, p := range r.printers {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, "kitchen") || strings.Contains(name, "cocina") {
			return p, true
		}
	}
	return r.printers[0], true
}

// ReceiptPrinter is the cash desk printer for customer receipts.
func (r *Router) ReceiptPrinter() (Printer, bool) {
	for _, p := range r.printers {
		if p.Receipt {
			return p, true
		}
	}
	return r.fallback()
}

// Route groups items per printer in order of first appearance. Items only come
// back unassigned when no printer is configured at all.
func (r *Router) Route(items []models.OrderItem) ([]Job, []models.OrderItem) {
	byName := map[string]*Job{}
	var order []string
	var unassigned []models.OrderItem

	for _, item := range items {
		category := ""
		if item.Product != nil {
			category = item.Product.Category
		}
		p, ok := r.PrinterFor(category)
		if !ok {
			unassigned = append(unassigned, item)
			continue
		}
		job, exists := byName[p.Name]
		if !exists {
			job = &Job{Printer: p}
			byName[p.Name] = job
			order = append(order, p.Name)
		}
		job.Items = append(job.Items, item)
	}

	jobs := make([]Job, 0, len(order))
	for _, name := range order {
		jobs = append(jobs, *byName[name])
	}
	return jobs, unassigned
}
