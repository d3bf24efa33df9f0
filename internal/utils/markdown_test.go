package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "which **jacket**?",
			contains: []string{"<strong>jacket</strong>"},
		},
		{
			name:     "script stripped",
			input:    "hi <script>alert(1)</script>",
			excludes: []string{"<script"},
		},
		{
			name:     "images get lazy loading",
			input:    "![look](https://example.com/a.png)",
			contains: []string{`loading="lazy"`, `referrerpolicy="no-referrer"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RenderMarkdown(tt.input))
			for _, c := range tt.contains {
				if !strings.Contains(got, c) {
					t.Errorf("expected %q in %q", c, got)
				}
			}
			for _, e := range tt.excludes {
				if strings.Contains(got, e) {
					t.Errorf("did not expect %q in %q", e, got)
				}
			}
		})
	}

	if RenderMarkdown("   ") != "" {
		t.Error("blank input should render empty")
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("  <b>Red</b> or blue?  "); got != "Red or blue?" {
		t.Errorf("unexpected sanitized text %q", got)
	}
}

func TestSanitizeText_KeepsEntitiesAsText(t *testing.T) {
	if got := SanitizeText("Tom & Jerry"); got != "Tom & Jerry" {
		t.Errorf("unexpected sanitized text %q", got)
	}
}
