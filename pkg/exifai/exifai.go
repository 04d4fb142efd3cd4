// Package exifai writes AI-generated descriptions and tags into image metadata.
package exifai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// FieldKey names a metadata field as exiftool reports it, e.g. "Keywords".
type FieldKey string

var (
	// ErrUnknownField is returned for field names outside the allowed domain.
	ErrUnknownField = errors.New("unknown metadata field")
	// ErrNoTasks is returned when no known task was requested.
	ErrNoTasks = errors.New("no tasks requested")
)

// Description fields hold a single string.
var (
	DefaultDescriptionFields = []FieldKey{"XPComment", "Description", "ImageDescription", "Caption-Abstract"}
	descriptionFields        = append(slices.Clone(DefaultDescriptionFields), "UserComment", "Headline", "Title", "ObjectName")
)

// Tag fields hold a string or a list of strings.
var (
	DefaultTagFields = []FieldKey{"Subject", "TagsList", "Keywords"}
	tagFields        = append(slices.Clone(DefaultTagFields), "XPKeywords", "HierarchicalSubject", "CatalogSets", "LastKeywordXMP")
)

// IsDescriptionField reports whether k is a single-valued description field.
func IsDescriptionField(k FieldKey) bool {
	return slices.Contains(descriptionFields, k)
}

// IsTagField reports whether k is a multi-valued tag field.
func IsTagField(k FieldKey) bool {
	return slices.Contains(tagFields, k)
}

// ParseDescriptionFields validates field names for the description task.
func ParseDescriptionFields(names []string) ([]FieldKey, error) {
	return parseFields(names, IsDescriptionField)
}

// ParseTagFields validates field names for the tag task.
func ParseTagFields(names []string) ([]FieldKey, error) {
	return parseFields(names, IsTagField)
}

// ParseFieldKeys validates field names against the domain of task t.
func ParseFieldKeys(t Task, names []string) ([]FieldKey, error) {
	switch t {
	case TaskDescription:
		return ParseDescriptionFields(names)
	case TaskTags:
		return ParseTagFields(names)
	}
	return nil, fmt.Errorf("unknown task %q", t)
}

func parseFields(names []string, ok func(FieldKey) bool) ([]FieldKey, error) {
	keys := []FieldKey{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := FieldKey(n)
		if !ok(k) {
			return nil, fmt.Errorf("%q: %w", n, ErrUnknownField)
		}
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Task is a unit of work performed per image.
type Task string

const (
	TaskDescription Task = "description"
	TaskTags        Task = "tag"
)

// ParseTasks maps task names to tasks. "tags" is accepted as an alias of "tag".
func ParseTasks(names []string) ([]Task, error) {
	ts := []Task{}
	for _, n := range names {
		var t Task
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "description":
			t = TaskDescription
		case "tag", "tags":
			t = TaskTags
		case "":
			continue
		default:
			return nil, fmt.Errorf("unknown task %q", n)
		}
		if !slices.Contains(ts, t) {
			ts = append(ts, t)
		}
	}
	if len(ts) == 0 {
		return nil, ErrNoTasks
	}
	return ts, nil
}
