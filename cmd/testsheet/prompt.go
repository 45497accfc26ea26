package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// prompter asks the questions of an interactive generate run.
type prompter interface {
	Int(message string, def, lo, hi int) (int, error)
	Choice(message string, options []string, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// surveyPrompter prompts on the terminal.
type surveyPrompter struct{}

func (surveyPrompter) Int(message string, def, lo, hi int) (int, error) {
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s (%d-%d)", message, lo, hi),
		Default: strconv.Itoa(def),
	}
	var out string
	if err := survey.AskOne(prompt, &out, survey.WithValidator(intBetween(lo, hi))); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

func (surveyPrompter) Choice(message string, options []string, def string) (string, error) {
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: def,
	}
	var out string
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	var out bool
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, err
	}
	return out, nil
}

// intBetween validates a whole number in [lo, hi].
func intBetween(lo, hi int) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%q is not a whole number", s)
		}
		if v < lo || v > hi {
			return fmt.Errorf("enter a number from %d to %d", lo, hi)
		}
		return nil
	}
}
