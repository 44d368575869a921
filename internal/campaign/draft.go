package campaign

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\d+)\}\}`)

// ExtractVariables returns the distinct placeholder indexes of a template text,
// sorted ascending by numeric value.
func ExtractVariables(text string) []int {
	seen := make(map[int]bool)
	var indexes []int
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)
	return indexes
}

// Draft is an unsent campaign owned by the console until submission. A failed
// submit leaves it untouched so the operator can correct and retry.
type Draft struct {
	Template         *models.TemplateDescriptor
	ScheduleAt       time.Time
	Contacts         []models.Contact
	DelaySeconds     int
	ConcurrencyLimit int
	CostPerUnit      float64
	HeaderMediaURL   string
	HeaderText       string         // value for a {{1}} text-header placeholder
	BodyValues       map[int]string // placeholder index -> value
}

func (d *Draft) headerComponent() *models.TemplateComponent {
	return d.component("HEADER")
}

func (d *Draft) bodyComponent() *models.TemplateComponent {
	return d.component("BODY")
}

func (d *Draft) component(kind string) *models.TemplateComponent {
	if d.Template == nil {
		return nil
	}
	for i := range d.Template.Components {
		if strings.EqualFold(d.Template.Components[i].Type, kind) {
			return &d.Template.Components[i]
		}
	}
	return nil
}

func isMediaFormat(format string) bool {
	switch strings.ToUpper(format) {
	case "IMAGE", "VIDEO", "DOCUMENT":
		return true
	default:
		return false
	}
}

// Validate checks the draft in a fixed order and stops at the first failure.
// Nothing is sent to the backend when it fails.
func (d *Draft) Validate() error {
	if d.Template == nil {
		return &backend.ValidationError{Field: "template", Message: "select a template before sending"}
	}

	header := d.headerComponent()
	if header != nil && isMediaFormat(header.Format) {
		if strings.TrimSpace(d.HeaderMediaURL) == "" {
			return &backend.ValidationError{Field: "header_media", Message: "the template header requires a media URL"}
		}
	}
	if header != nil && strings.EqualFold(header.Format, "TEXT") {
		if len(ExtractVariables(header.Text)) > 0 && strings.TrimSpace(d.HeaderText) == "" {
			return &backend.ValidationError{Field: "header_text", Message: "the template header requires a value for {{1}}"}
		}
	}

	if body := d.bodyComponent(); body != nil {
		for _, n := range ExtractVariables(body.Text) {
			if strings.TrimSpace(d.BodyValues[n]) == "" {
				return &backend.ValidationError{
					Field:   fmt.Sprintf("body_%d", n),
					Message: fmt.Sprintf("missing value for variable {{%d}}", n),
				}
			}
		}
	}

	if len(d.Contacts) == 0 {
		return &backend.ValidationError{Field: "contacts", Message: "the final contact list is empty"}
	}
	return nil
}

// BuildComponents maps the filled variables into provider-shaped parameter
// arrays. Body parameters are ordered by ascending placeholder index.
func (d *Draft) BuildComponents() []backend.Component {
	var components []backend.Component

	if header := d.headerComponent(); header != nil {
		switch {
		case isMediaFormat(header.Format):
			link := &backend.MediaLink{Link: d.HeaderMediaURL}
			param := backend.Parameter{Type: strings.ToLower(header.Format)}
			switch param.Type {
			case "image":
				param.Image = link
			case "video":
				param.Video = link
			case "document":
				param.Document = link
			}
			components = append(components, backend.Component{
				Type:       "header",
				Parameters: []backend.Parameter{param},
			})
		case strings.EqualFold(header.Format, "TEXT") && len(ExtractVariables(header.Text)) > 0:
			components = append(components, backend.Component{
				Type:       "header",
				Parameters: []backend.Parameter{{Type: "text", Text: d.HeaderText}},
			})
		}
	}

	if body := d.bodyComponent(); body != nil {
		indexes := ExtractVariables(body.Text)
		if len(indexes) > 0 {
			params := make([]backend.Parameter, 0, len(indexes))
			for _, n := range indexes {
				params = append(params, backend.Parameter{Type: "text", Text: d.BodyValues[n]})
			}
			components = append(components, backend.Component{Type: "body", Parameters: params})
		}
	}

	return components
}
