package exifai

import (
	"errors"
	"slices"
	"testing"
)

func TestParseFieldKeys(t *testing.T) {
	tests := []struct {
		task    Task
		in      []string
		want    []FieldKey
		wantErr error
	}{
		{task: TaskDescription, in: []string{"XPComment", " Title ", "", "XPComment"}, want: []FieldKey{"XPComment", "Title"}},
		{task: TaskTags, in: []string{"Keywords", "XPKeywords"}, want: []FieldKey{"Keywords", "XPKeywords"}},
		{task: TaskDescription, in: []string{"Keywords"}, wantErr: ErrUnknownField},
		{task: TaskTags, in: []string{"ImageDescription"}, wantErr: ErrUnknownField},
		{task: TaskTags, in: []string{"Artist"}, wantErr: ErrUnknownField},
		{task: TaskTags, in: nil, want: []FieldKey{}},
	}
	for _, tc := range tests {
		got, err := ParseFieldKeys(tc.task, tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ParseFieldKeys(%s, %q) error = %v, want %v", tc.task, tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFieldKeys(%s, %q): %v", tc.task, tc.in, err)
			continue
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("ParseFieldKeys(%s, %q) = %q, want %q", tc.task, tc.in, got, tc.want)
		}
	}
	if _, err := ParseFieldKeys("faces", nil); err == nil {
		t.Error("ParseFieldKeys accepted an unknown task")
	}
}

func TestFieldDomainsDisjoint(t *testing.T) {
	for _, k := range append(slices.Clone(descriptionFields), tagFields...) {
		if IsDescriptionField(k) && IsTagField(k) {
			t.Errorf("%s is in both domains", k)
		}
	}
	for _, k := range DefaultDescriptionFields {
		if !IsDescriptionField(k) {
			t.Errorf("default %s is not a description field", k)
		}
	}
	for _, k := range DefaultTagFields {
		if !IsTagField(k) {
			t.Errorf("default %s is not a tag field", k)
		}
	}
}

func TestParseTasks(t *testing.T) {
	tests := []struct {
		in      []string
		want    []Task
		wantErr bool
	}{
		{in: []string{"description", "tag"}, want: []Task{TaskDescription, TaskTags}},
		{in: []string{"Tags", "tag", " description "}, want: []Task{TaskTags, TaskDescription}},
		{in: []string{""}, wantErr: true},
		{in: nil, wantErr: true},
		{in: []string{"face"}, wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTasks(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTasks(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("ParseTasks(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTasks(nil); !errors.Is(err, ErrNoTasks) {
		t.Errorf("ParseTasks(nil) = %v, want ErrNoTasks", err)
	}
}
