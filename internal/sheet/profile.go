package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile holds the labels, sizes and print settings of generated workbooks.
// The zero value is not usable; start from DefaultProfile.
type Profile struct {
	QuestionSheet    string `yaml:"question_sheet"`
	AnswerSheet      string `yaml:"answer_sheet"`
	SimpleSheet      string `yaml:"simple_sheet"`
	AnswerSpaceLabel string `yaml:"answer_space_label"`

	// TitleFormat and InfoFormat take one %s each: the source name and the date.
	TitleFormat string `yaml:"title_format"`
	InfoFormat  string `yaml:"info_format"`
	DateLayout  string `yaml:"date_layout"`

	HeaderFill    string  `yaml:"header_fill"` // RGB hex without '#'
	TitleFontSize float64 `yaml:"title_font_size"`

	Widths  Widths  `yaml:"widths"`
	Heights Heights `yaml:"heights"`
	Print   Print   `yaml:"print"`
}

// Widths are column widths in Excel character units.
type Widths struct {
	ID       float64 `yaml:"id"`
	Question float64 `yaml:"question"`
	Answer   float64 `yaml:"answer"` // answer and answer-space columns
	Extra    float64 `yaml:"extra"`
}

// Heights are row heights in points.
type Heights struct {
	Title float64 `yaml:"title"`
	Info  float64 `yaml:"info"`
	Row   float64 `yaml:"row"`
}

// Print holds page setup.
type Print struct {
	PaperSize   int     `yaml:"paper_size"` // Excel paper code, 9 is A4
	Orientation string  `yaml:"orientation"`
	Margin      float64 `yaml:"margin"` // inches, all four sides
}

// DefaultProfile returns the standard Japanese test-sheet profile.
func DefaultProfile() Profile {
	return Profile{
		QuestionSheet:    "問題用紙",
		AnswerSheet:      "解答付(保存用)",
		SimpleSheet:      "Test",
		AnswerSpaceLabel: "解答欄",
		TitleFormat:      "データ元: %s",
		InfoFormat:       "実施日: %s　　氏名: ",
		DateLayout:       "2006/01/02",
		HeaderFill:       "F2F2F2",
		TitleFontSize:    14,
		Widths:           Widths{ID: 8, Question: 25, Answer: 40, Extra: 20},
		Heights:          Heights{Title: 25, Info: 20, Row: 25},
		Print:            Print{PaperSize: 9, Orientation: "landscape", Margin: 0.5},
	}
}

// ParseProfile decodes YAML over DefaultProfile, so a file only needs the
// keys it changes. Unknown keys are rejected.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("parse sheet profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads a YAML profile from path. An empty path returns
// DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read sheet profile: %w", err)
	}
	return ParseProfile(data)
}

// Validate reports every unusable setting at once.
func (p Profile) Validate() error {
	var errs []error
	if p.QuestionSheet == "" || p.AnswerSheet == "" || p.SimpleSheet == "" {
		errs = append(errs, errors.New("sheet names must not be empty"))
	}
	if p.QuestionSheet == p.AnswerSheet {
		errs = append(errs, fmt.Errorf("question and answer sheets share the name %q", p.QuestionSheet))
	}
	for _, name := range []string{p.QuestionSheet, p.AnswerSheet, p.SimpleSheet} {
		if len([]rune(name)) > 31 || strings.ContainsAny(name, `:\/?*[]`) {
			errs = append(errs, fmt.Errorf("invalid sheet name %q", name))
		}
	}
	if strings.Count(p.TitleFormat, "%s") != 1 {
		errs = append(errs, fmt.Errorf("title_format %q must contain exactly one %%s", p.TitleFormat))
	}
	if strings.Count(p.InfoFormat, "%s") != 1 {
		errs = append(errs, fmt.Errorf("info_format %q must contain exactly one %%s", p.InfoFormat))
	}
	if p.Widths.ID <= 0 || p.Widths.Question <= 0 || p.Widths.Answer <= 0 || p.Widths.Extra <= 0 {
		errs = append(errs, errors.New("column widths must be positive"))
	}
	if p.Heights.Title <= 0 || p.Heights.Info <= 0 || p.Heights.Row <= 0 {
		errs = append(errs, errors.New("row heights must be positive"))
	}
	switch p.Print.Orientation {
	case "portrait", "landscape":
	default:
		errs = append(errs, fmt.Errorf("orientation %q must be portrait or landscape", p.Print.Orientation))
	}
	if p.Print.Margin < 0 {
		errs = append(errs, errors.New("margin must be non-negative"))
	}
	return errors.Join(errs...)
}
