package model

import "testing"

func TestParseJobStatus(t *testing.T) {
	for _, s := range []string{"unassigned", "assigned", "in_progress", "late", "completed", "failed", "cancelled"} {
		got, ok := ParseJobStatus(s)
		if !ok || string(got) != s {
			t.Errorf("ParseJobStatus(%q) = %v, %v", s, got, ok)
		}
	}
	for _, s := range []string{"", "ASSIGNED", "done", "paused"} {
		if _, ok := ParseJobStatus(s); ok {
			t.Errorf("ParseJobStatus(%q) accepted", s)
		}
	}
}

func TestParseJobPriority(t *testing.T) {
	for _, s := range []string{"low", "normal", "high", "critical"} {
		got, ok := ParseJobPriority(s)
		if !ok || string(got) != s {
			t.Errorf("ParseJobPriority(%q) = %v, %v", s, got, ok)
		}
	}
	if _, ok := ParseJobPriority("urgent"); ok {
		t.Errorf("ParseJobPriority accepted urgent")
	}
}
