package llm

import "testing"

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose", `Sure! {"a": 1} Hope this helps.`, `{"a": 1}`},
		{"trailing comma", `{"a": [1, 2,], "b": 2,}`, `{"a": [1, 2], "b": 2}`},
		{"comma inside string", `{"a": "x,}"}`, `{"a": "x,}"}`},
		{"missing key quote", `{"a": 1, b": 2}`, `{"a": 1, "b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSON(tt.in); got != tt.want {
				t.Errorf("cleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
