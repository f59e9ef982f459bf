// Package instructions renders step-by-step opt-out guides, formal removal
// emails and per-user checklists for brokers that cannot be automated.
package instructions

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
)

//go:embed guides/*.yaml templates/*.tmpl
var content embed.FS

const genericGuide = "generic"

// Per-broker estimate bounds used for the checklist total.
const (
	minutesLow  = 15
	minutesHigh = 25
)

var errNilBroker = errors.New("instructions: broker is nil")

var _ output.InstructionGenerator = (*Generator)(nil)

type guideStep struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Details     string `yaml:"details"`
}

type guide struct {
	BrokerName    string            `yaml:"broker_name"`
	Difficulty    string            `yaml:"difficulty"`
	EstimatedTime string            `yaml:"estimated_time"`
	SuccessRate   string            `yaml:"success_rate"`
	Steps         []guideStep       `yaml:"steps"`
	Tips          []string          `yaml:"tips"`
	ContactInfo   map[string]string `yaml:"contact_info"`
}

// brokerView is the data every guide field is rendered against.
type brokerView struct {
	Name                string
	Website             string
	Domain              string
	RemovalURL          string
	RemovalInstructions string
	EstimatedTime       string
}

type emailView struct {
	User   *entity.UserProfile
	Broker *entity.Broker
}

type Generator struct {
	guides map[string]guide
	email  *template.Template
}

// New loads the embedded guides and the email template.
func New() (*Generator, error) {
	entries, err := content.ReadDir("guides")
	if err != nil {
		return nil, fmt.Errorf("read guides: %w", err)
	}

	guides := make(map[string]guide, len(entries))
	for _, e := range entries {
		raw, err := content.ReadFile(path.Join("guides", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read guide %s: %w", e.Name(), err)
		}
		var g guide
		if err := yaml.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("parse guide %s: %w", e.Name(), err)
		}
		guides[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = g
	}
	if _, ok := guides[genericGuide]; !ok {
		return nil, fmt.Errorf("guides: %q is missing", genericGuide)
	}

	email, err := template.New("email.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(content, "templates/email.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	return &Generator{guides: guides, email: email}, nil
}

// Instructions picks the broker's dedicated guide by InstructionRef, then by
// a guide name contained in the broker name, and falls back to the generic
// guide.
func (g *Generator) Instructions(broker *entity.Broker) (*entity.ManualInstructions, error) {
	if broker == nil {
		return nil, errNilBroker
	}

	gd := g.lookup(broker)
	view := brokerView{
		Name:                broker.Name,
		Website:             broker.Website,
		Domain:              broker.Domain(),
		RemovalURL:          broker.RemovalURL,
		RemovalInstructions: broker.RemovalInstructions,
		EstimatedTime:       broker.EstimatedTime,
	}
	r := renderer{data: view}

	out := &entity.ManualInstructions{
		BrokerName:    r.render(gd.BrokerName),
		Difficulty:    r.render(gd.Difficulty),
		EstimatedTime: r.render(gd.EstimatedTime),
		SuccessRate:   r.render(gd.SuccessRate),
		Steps:         make([]entity.InstructionStep, 0, len(gd.Steps)),
		Tips:          make([]string, 0, len(gd.Tips)),
		ContactInfo:   make(map[string]string, len(gd.ContactInfo)),
	}
	for i, s := range gd.Steps {
		out.Steps = append(out.Steps, entity.InstructionStep{
			Step:        i + 1,
			Title:       r.render(s.Title),
			Description: r.render(s.Description),
			Details:     r.render(s.Details),
		})
	}
	for _, tip := range gd.Tips {
		out.Tips = append(out.Tips, r.render(tip))
	}
	for k, v := range gd.ContactInfo {
		out.ContactInfo[k] = r.render(v)
	}
	if r.err != nil {
		return nil, fmt.Errorf("render guide for %s: %w", broker.Name, r.err)
	}
	return out, nil
}

func (g *Generator) lookup(broker *entity.Broker) guide {
	if gd, ok := g.guides[broker.InstructionRef]; ok && broker.InstructionRef != "" {
		return gd
	}
	name := strings.ToLower(broker.Name)
	for ref, gd := range g.guides {
		if ref != genericGuide && strings.Contains(name, ref) {
			return gd
		}
	}
	return g.guides[genericGuide]
}

func (g *Generator) EmailTemplate(user *entity.UserProfile, broker *entity.Broker) (*entity.EmailTemplate, error) {
	if broker == nil {
		return nil, errNilBroker
	}
	if user == nil {
		return nil, errors.New("instructions: user is nil")
	}

	var body bytes.Buffer
	if err := g.email.Execute(&body, emailView{User: user, Broker: broker}); err != nil {
		return nil, fmt.Errorf("render email for %s: %w", broker.Name, err)
	}

	domain := broker.Domain()
	return &entity.EmailTemplate{
		Subject:   "Request for Data Removal - " + user.FullName,
		Body:      body.String(),
		Recipient: "privacy@" + domain,
		CC:        []string{"legal@" + domain, "support@" + domain},
	}, nil
}

func (g *Generator) Checklist(user *entity.UserProfile, brokers []entity.Broker) (*entity.RemovalChecklist, error) {
	if user == nil {
		return nil, errors.New("instructions: user is nil")
	}

	n := len(brokers)
	out := &entity.RemovalChecklist{
		UserName:           user.FullName,
		TotalManualBrokers: n,
		EstimatedTotalTime: fmt.Sprintf("%d-%d minutes", n*minutesLow, n*minutesHigh),
		Brokers:            make([]entity.BrokerChecklist, 0, n),
	}

	for i := range brokers {
		b := &brokers[i]
		guide, err := g.Instructions(b)
		if err != nil {
			return nil, err
		}
		email, err := g.EmailTemplate(user, b)
		if err != nil {
			return nil, err
		}
		out.Brokers = append(out.Brokers, entity.BrokerChecklist{
			BrokerID:      b.ID,
			BrokerName:    b.Name,
			Website:       b.Website,
			RemovalURL:    b.RemovalURL,
			Instructions:  guide,
			EmailTemplate: email,
			ChecklistItems: []entity.ChecklistItem{
				{Task: "Search for your profile on " + b.Name},
				{Task: "Document/screenshot your information"},
				{Task: "Submit removal request"},
				{Task: "Wait for confirmation"},
				{Task: "Verify removal completed"},
			},
		})
	}
	return out, nil
}

// renderer executes guide fields as templates and keeps the first error.
type renderer struct {
	data any
	err  error
}

func (r *renderer) render(text string) string {
	if r.err != nil || !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("field").Option("missingkey=error").Parse(text)
	if err != nil {
		r.err = err
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.data); err != nil {
		r.err = err
		return ""
	}
	return buf.String()
}
