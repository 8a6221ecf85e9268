package questionnaire

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OtherSubsector is the fallback bucket used when a subsector has no dedicated questions.
const OtherSubsector = "Other"

// Reserved question ids whose answers drive the sector selection.
const (
	SectorQuestionID    = "sector_selection"
	SubsectorQuestionID = "subsector_selection"
)

//go:embed default_questionnaire.yaml
var defaultDefinitionYAML []byte

type Question struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type Subsector struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

type Sector struct {
	Name       string      `yaml:"name"`
	Subsectors []Subsector `yaml:"subsectors"`
}

// Definition is the whole question set: a flat sector-independent prefix plus
// a sector -> subsector -> questions table. Treat it as read-only once parsed.
type Definition struct {
	InitialQuestions []Question `yaml:"initial_questions"`
	Sectors          []Sector   `yaml:"sectors"`

	questionText map[string]string
}

// DefaultDefinition parses the question set compiled into the binary.
func DefaultDefinition() (*Definition, error) {
	return ParseDefinitionYAML(defaultDefinitionYAML)
}

// LoadDefinitionFile reads a YAML question set from disk. An empty path
// selects the embedded default.
func LoadDefinitionFile(path string) (*Definition, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultDefinition()
	}
	data, err := os.ReadFile(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("questionnaire: read %s: %w", trimmed, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: %s: %w", trimmed, err)
	}
	return def, nil
}

// ParseDefinitionYAML decodes and validates a question set payload.
func ParseDefinitionYAML(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("questionnaire: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("questionnaire: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def.index()
	return &def, nil
}

// Validate checks the structural shape of the table. Question ids are checked
// later, at resolution time, so one broken subsector does not take the rest down.
func (d *Definition) Validate() error {
	if len(d.InitialQuestions) == 0 {
		return fmt.Errorf("questionnaire: initial_questions must not be empty")
	}
	seenSectors := make(map[string]struct{}, len(d.Sectors))
	for i, sector := range d.Sectors {
		name := strings.TrimSpace(sector.Name)
		if name == "" {
			return fmt.Errorf("questionnaire: sectors[%d] has no name", i)
		}
		key := strings.ToLower(name)
		if _, dup := seenSectors[key]; dup {
			return fmt.Errorf("questionnaire: duplicate sector %q", name)
		}
		seenSectors[key] = struct{}{}

		seenSub := make(map[string]struct{}, len(sector.Subsectors))
		for j, sub := range sector.Subsectors {
			subName := strings.TrimSpace(sub.Name)
			if subName == "" {
				return fmt.Errorf("questionnaire: sector %q subsectors[%d] has no name", name, j)
			}
			subKey := strings.ToLower(subName)
			if _, dup := seenSub[subKey]; dup {
				return fmt.Errorf("questionnaire: sector %q has duplicate subsector %q", name, subName)
			}
			seenSub[subKey] = struct{}{}
		}
	}
	return nil
}

func (d *Definition) index() {
	d.questionText = make(map[string]string)
	add := func(q Question) {
		if q.ID == "" {
			return
		}
		if _, exists := d.questionText[q.ID]; !exists {
			d.questionText[q.ID] = q.Text
		}
	}
	for _, q := range d.InitialQuestions {
		add(q)
	}
	for _, sector := range d.Sectors {
		for _, sub := range sector.Subsectors {
			for _, q := range sub.Questions {
				add(q)
			}
		}
	}
}

// QuestionText returns the declared wording of a question id.
func (d *Definition) QuestionText(id string) (string, bool) {
	if d.questionText == nil {
		d.index()
	}
	text, ok := d.questionText[id]
	return text, ok
}

// SectorNames lists the sectors in declared order.
func (d *Definition) SectorNames() []string {
	names := make([]string, 0, len(d.Sectors))
	for _, s := range d.Sectors {
		names = append(names, s.Name)
	}
	return names
}

// SubsectorNames lists the subsectors of a sector in declared order.
func (d *Definition) SubsectorNames(sector string) []string {
	s, ok := d.findSector(sector)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(s.Subsectors))
	for _, sub := range s.Subsectors {
		names = append(names, sub.Name)
	}
	return names
}

// MatchSector maps a free-form answer ("2", "dairy", "Food & Beverage") to a declared sector name.
func (d *Definition) MatchSector(answer string) (string, bool) {
	return matchOption(d.SectorNames(), answer)
}

// MatchSubsector maps a free-form answer to a declared subsector of sector.
func (d *Definition) MatchSubsector(sector, answer string) (string, bool) {
	return matchOption(d.SubsectorNames(sector), answer)
}

func (d *Definition) findSector(name string) (*Sector, bool) {
	for i := range d.Sectors {
		if d.Sectors[i].Name == name {
			return &d.Sectors[i], true
		}
	}
	for i := range d.Sectors {
		if strings.EqualFold(d.Sectors[i].Name, strings.TrimSpace(name)) {
			return &d.Sectors[i], true
		}
	}
	return nil, false
}

func (s *Sector) findSubsector(name string) (*Subsector, bool) {
	for i := range s.Subsectors {
		if s.Subsectors[i].Name == name {
			return &s.Subsectors[i], true
		}
	}
	for i := range s.Subsectors {
		if strings.EqualFold(s.Subsectors[i].Name, strings.TrimSpace(name)) {
			return &s.Subsectors[i], true
		}
	}
	return nil, false
}

func matchOption(options []string, answer string) (string, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(answer), "."))
	if trimmed == "" || len(options) == 0 {
		return "", false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, opt := range options {
		if strings.EqualFold(opt, trimmed) {
			return opt, true
		}
	}
	lower := strings.ToLower(trimmed)
	for _, opt := range options {
		if strings.Contains(lower, strings.ToLower(opt)) {
			return opt, true
		}
	}
	return "", false
}
