package core

// error_messages.go turns pipeline failures into short messages with a
// support code. Codes are grouped by prefix:
//
//	VAL  the uploaded list failed validation          (HTTP 422)
//	SEL  the range, count, order or filter is invalid (HTTP 422)
//	FILE the upload could not be read                 (HTTP 400, FILE001 413)
//	GEN  generation was refused or interrupted        (HTTP 503/504/499)
//	RATE the client sent too many requests            (HTTP 429)
//	ERR000 anything unrecognised; the log has the detail
//
// Typed errors are classified structurally. Errors that reach here only as
// text, such as those raised while parsing a form, fall back to substring
// matching on the lowercased message.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/testsheet/internal/ingest"
)

// UserMessage is what a user sees for a failed request.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var catalogue = map[string]UserMessage{
	"VAL001": {"A question number is not a whole number", "Use half-width digits in the first column", ""},
	"VAL002": {"The first column has no question numbers", "Put question numbers in the first column below the header row", ""},
	"VAL003": {"Question numbers do not run 1, 2, 3 without gaps", "Renumber the list without gaps or repeats", ""},
	"VAL004": {"A numbered row has a blank question or answer", "Fill every numbered row or delete unused rows", ""},
	"VAL005": {"Unknown validation mode", "Use strict or loose", ""},

	"SEL001": {"The start number is greater than the end number", "Make the start number less than or equal to the end number", ""},
	"SEL002": {"No questions fall inside the chosen range", "Widen the range", ""},
	"SEL003": {"More questions were requested than the range holds", "Lower the number of questions or widen the range", ""},
	"SEL004": {"The filter expression is not valid", "Check the expression, e.g. len(answer) <= 20", ""},
	"SEL005": {"Unknown ordering", "Use asc, desc or random", ""},
	"SEL006": {"A selection setting is not a valid number", "Enter whole numbers for the range, count and seed", ""},
	"SEL007": {"Too many questions to fit on one worksheet", "Raise the rows per block or lower the number of questions", ""},

	"FILE001": {"File exceeds the upload size limit", "Split the question list into smaller files", ""},
	"FILE002": {"Only .xlsx and .csv files are accepted", "Save the question list as an Excel workbook or CSV", ""},
	"FILE003": {"The file could not be read", "Re-save the file as .xlsx, or as CSV in UTF-8 or Shift_JIS, and try again", ""},
	"FILE004": {"No file was selected", "Please select a question list to upload", ""},
	"FILE005": {"The uploaded file is empty", "Upload a file with a header row and numbered questions", ""},
	"FILE006": {"The workbook contains no worksheets", "Put the question list on the first sheet", ""},

	"GEN001": {"System is busy generating other test sheets", "Please wait a moment and try again", ""},
	"GEN002": {"Request timed out", "Try a smaller file or try again later", ""},
	"GEN003": {"Request was cancelled", "Please try again", ""},

	"RATE001": {"Too many requests", "Please wait a moment before trying again", ""},

	"ERR000": {"An unexpected error occurred", "Please try again or contact support", ""},
}

// sentinels are checked with errors.Is, in order.
var sentinels = []struct {
	target error
	code   string
}{
	{ingest.ErrTooLarge, "FILE001"},
	{ingest.ErrUnsupportedType, "FILE002"},
	{ingest.ErrEmptyFile, "FILE005"},
	{ingest.ErrNoWorksheets, "FILE006"},
	{ingest.ErrEncoding, "FILE003"},
	{ErrTooManyGenerations, "GEN001"},
	{context.DeadlineExceeded, "GEN002"},
	{context.Canceled, "GEN003"},
}

// phrases classify errors known only by their text. First match wins, so
// narrower phrases precede broader ones.
var phrases = []struct {
	substr string
	code   string
}{
	{"non-numeric identifier", "VAL001"},
	{"no identifier values", "VAL002"},
	{"not contiguous", "VAL003"},
	{"blank required field", "VAL004"},
	{"unknown validation mode", "VAL005"},
	{string(ReasonInverted), "SEL001"},
	{string(ReasonEmpty), "SEL002"},
	{string(ReasonCount), "SEL003"},
	{string(ReasonWidth), "SEL007"},
	{"invalid filter expression", "SEL004"},
	{"unknown order", "SEL005"},
	{"invalid seed", "SEL006"},
	{"invalid parameter", "SEL006"},
	{"file too large", "FILE001"},
	{"request body too large", "FILE001"},
	{"unsupported file type", "FILE002"},
	{"empty file", "FILE005"},
	{"no worksheets", "FILE006"},
	{"cannot read", "FILE003"},
	{"no file provided", "FILE004"},
	{"too many concurrent generations", "GEN001"},
	{"context deadline exceeded", "GEN002"},
	{"context canceled", "GEN003"},
	{"rate limit", "RATE001"},
}

// errorCode picks the support code for err.
func errorCode(err error) string {
	var (
		fe *FormatError
		re *RangeError
		ie *IngestError
	)
	switch {
	case errors.As(err, &fe):
		if fe.Empty {
			return "VAL002"
		}
		return "VAL001"
	case errors.Is(err, ErrSequence):
		return "VAL003"
	case errors.Is(err, ErrCompleteness):
		return "VAL004"
	case errors.As(err, &re):
		switch re.Reason {
		case ReasonInverted:
			return "SEL001"
		case ReasonEmpty:
			return "SEL002"
		case ReasonCount:
			return "SEL003"
		case ReasonWidth:
			return "SEL007"
		}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.target) {
			return s.code
		}
	}
	if errors.As(err, &ie) {
		return "FILE003"
	}

	text := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(text, p.substr) {
			return p.code
		}
	}
	return "ERR000"
}

// MapError returns the user message for err, or the zero UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	code := errorCode(err)
	msg := catalogue[code]
	msg.Code = code
	return msg
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
