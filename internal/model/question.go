// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Question type constants
const (
	QuestionTypeSingleLine = "SINGLE_LINE"
	QuestionTypeMultiLine  = "MULTI_LINE"
	QuestionTypeInteger    = "INTEGER"
	QuestionTypeCheckbox   = "CHECKBOX"
)

// ValidQuestionTypes returns all valid question types.
func ValidQuestionTypes() []string {
	return []string{
		QuestionTypeSingleLine,
		QuestionTypeMultiLine,
		QuestionTypeInteger,
		QuestionTypeCheckbox,
	}
}

// IsValidQuestionType checks if a question type is valid.
func IsValidQuestionType(questionType string) bool {
	for _, t := range ValidQuestionTypes() {
		if t == questionType {
			return true
		}
	}
	return false
}

// MaxSingleLineLength bounds SINGLE_LINE answers.
const MaxSingleLineLength = 255

// NormalizeAnswer validates value against a question type and returns the stored form.
// Checkbox answers are stored as "true" or "false".
func NormalizeAnswer(questionType, value string) (string, error) {
	switch questionType {
	case QuestionTypeSingleLine:
		v := strings.TrimSpace(value)
		if strings.ContainsAny(v, "\r\n") {
			return "", fmt.Errorf("must be a single line")
		}
		if len(v) > MaxSingleLineLength {
			return "", fmt.Errorf("must be at most %d characters", MaxSingleLineLength)
		}
		return v, nil
	case QuestionTypeMultiLine:
		return strings.TrimSpace(value), nil
	case QuestionTypeInteger:
		v := strings.TrimSpace(value)
		if v == "" {
			return "", nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return "", fmt.Errorf("must be a whole number")
		}
		return strconv.FormatInt(n, 10), nil
	case QuestionTypeCheckbox:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "on", "yes":
			return "true", nil
		case "", "false", "0", "off", "no":
			return "false", nil
		}
		return "", fmt.Errorf("must be true or false")
	}
	return "", fmt.Errorf("unknown question type %q", questionType)
}
