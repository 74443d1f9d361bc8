package catalog

import (
	"testing"
)

func TestParseCombinedMeeting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Meeting
	}{
		{
			name: "standard",
			text: "MW 10:30 AM - 11:45 AM",
			want: Meeting{Weekdays: "Mon/Wed", StartTime: "10:30 AM", EndTime: "11:45 AM", Scheduled: true},
		},
		{
			name: "thursday code and lowercase markers",
			text: "TR 1:30pm-2:45pm",
			want: Meeting{Weekdays: "Tue/Thu", StartTime: "1:30 PM", EndTime: "2:45 PM", Scheduled: true},
		},
		{
			name: "en dash and dotted markers",
			text: "F 9:00 a.m. – 12:00 p.m.",
			want: Meeting{Weekdays: "Fri", StartTime: "9:00 AM", EndTime: "12:00 PM", Scheduled: true},
		},
		{
			name: "weekend codes",
			text: "SU 10:00 AM to 11:00 AM",
			want: Meeting{Weekdays: "Sat/Sun", StartTime: "10:00 AM", EndTime: "11:00 AM", Scheduled: true},
		},
		{name: "missing end time", text: "MW 10:30 AM", want: Meeting{}},
		{name: "unknown day code", text: "XY 10:30 AM - 11:45 AM", want: Meeting{}},
		{name: "free text", text: "To be announced", want: Meeting{}},
		{name: "empty", text: "", want: Meeting{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCombinedMeeting(tt.text); got != tt.want {
				t.Errorf("ParseCombinedMeeting(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseMeeting(t *testing.T) {
	tests := []struct {
		name                 string
		weekdays, start, end string
		wantText             string
		wantScheduled        bool
	}{
		{"separate columns", "Mon/Wed", "10:30 AM", "11:45 AM", "Mon/Wed 10:30 AM-11:45 AM", true},
		{"day codes in column", "MWF", "9:00am", "9:50am", "Mon/Wed/Fri 9:00 AM-9:50 AM", true},
		{"combined in weekday column", "TR 1:30 PM - 2:45 PM", "", "", "Tue/Thu 1:30 PM-2:45 PM", true},
		{"days only", "MW", "", "", "Mon/Wed", true},
		{"absent", "", "", "", NoMeetingText, false},
		{"unparseable", "TBA", "", "", NoMeetingText, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMeeting(tt.weekdays, tt.start, tt.end)
			if got.Scheduled != tt.wantScheduled {
				t.Errorf("Scheduled = %v, want %v", got.Scheduled, tt.wantScheduled)
			}
			if got.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", got.Text(), tt.wantText)
			}
		})
	}
}

func TestExpandDayCodes(t *testing.T) {
	tests := map[string]string{
		"MW":      "Mon/Wed",
		"mwf":     "Mon/Wed/Fri",
		"R":       "Thu",
		"Mon/Wed": "Mon/Wed",
		"Monday":  "",
		"":        "",
	}
	for in, want := range tests {
		if got := ExpandDayCodes(in); got != want {
			t.Errorf("ExpandDayCodes(%q) = %q, want %q", in, got, want)
		}
	}
}
